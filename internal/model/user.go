package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role of a user account.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// User is the credential-store record: identity, credential and
// verification/lock state. Identity fields are each globally unique.
type User struct {
	gorm.Model
	EmployeeCode string `gorm:"column:employee_code;unique;not null"`
	Username     string `gorm:"column:username;unique;not null"`
	FirstName    string `gorm:"column:first_name;not null"`
	LastName     string `gorm:"column:last_name;not null"`
	FullName     string `gorm:"column:full_name;not null;index"`
	Email        string `gorm:"column:email;unique;not null"`
	Phone        string `gorm:"column:phone;unique;not null"`
	Password     string `gorm:"column:password;not null"`
	Role         Role   `gorm:"column:role;default:standard;not null"`

	Permissions datatypes.JSON `gorm:"column:permissions"`
	Department  datatypes.JSON `gorm:"column:department"`
	Position    datatypes.JSON `gorm:"column:position"`

	// EmailVerifyToken is non-empty only while email verification is pending.
	EmailVerified    bool   `gorm:"column:email_verified;default:false;not null"`
	EmailVerifyToken string `gorm:"column:email_verify_token"`

	// DeviceVerifyToken is non-empty only while a new-device login is pending
	// its email confirmation.
	DeviceVerifyToken string `gorm:"column:device_verify_token"`

	// Locked is terminal until an explicit operator unlock.
	Locked    bool      `gorm:"column:locked;default:false;not null"`
	LastLogin time.Time `gorm:"column:last_login"`

	Devices []Device `gorm:"foreignKey:UserID"`
}

// IsAdmin reports whether the account holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
