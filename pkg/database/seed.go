package database

import (
	"github.com/hrcore/accounts/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultAdmin defines the default admin user credentials
type DefaultAdmin struct {
	EmployeeCode string
	Username     string
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Phone        string
}

// GetDefaultAdmin returns the default admin user
func GetDefaultAdmin() DefaultAdmin {
	return DefaultAdmin{
		EmployeeCode: "EMP00001",
		Username:     "admin",
		FirstName:    "Admin",
		LastName:     "Accounts",
		Email:        "admin@accounts.local",
		Password:     "Admin@123", // Change this in production!
		Phone:        "+6281234567890",
	}
}

// Seed creates initial data for the database
func Seed(db *gorm.DB) error {
	return SeedUsers(db)
}

// SeedUsers creates the default admin user if not exists. The seeded admin
// is pre-verified so the very first operator can log in without a mail
// relay.
func SeedUsers(db *gorm.DB) error {
	admin := GetDefaultAdmin()

	var existingUser model.User
	result := db.Where("email = ?", admin.Email).First(&existingUser)

	if result.Error == nil {
		// User already exists, skip seeding
		return nil
	}

	if result.Error != gorm.ErrRecordNotFound {
		return result.Error
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := model.User{
		EmployeeCode:  admin.EmployeeCode,
		Username:      admin.Username,
		FirstName:     admin.FirstName,
		LastName:      admin.LastName,
		FullName:      admin.FirstName + " " + admin.LastName,
		Email:         admin.Email,
		Password:      string(hashedPassword),
		Phone:         admin.Phone,
		Role:          model.RoleAdmin,
		EmailVerified: true,
	}

	return db.Create(&user).Error
}
