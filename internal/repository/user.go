package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hrcore/accounts/internal/model"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByID")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get user by ID").
			Uint("user_id", id).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "GetByEmail")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get user by email").
			String("email", email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

// FindConflict reports the first identity field of user already taken by
// another record. The unique indexes remain authoritative; this exists so
// conflicts can be named per field before the insert is attempted.
func (r *UserRepository) FindConflict(ctx context.Context, user *model.User, excludeID uint) (string, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "FindConflict")

	checks := []struct {
		field string
		value string
	}{
		{"employee_code", user.EmployeeCode},
		{"username", user.Username},
		{"email", user.Email},
		{"phone", user.Phone},
	}

	for _, check := range checks {
		if check.value == "" {
			continue
		}

		query := r.db.WithContext(ctx).Model(&model.User{}).Where(check.field+" = ?", check.value)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}

		var count int64
		if err := query.Count(&count).Error; err != nil {
			logger.ErrorWithContext(ctx, "Failed to check identity uniqueness").
				String("field", check.field).
				Err(err).
				Log()
			return "", err
		}
		if count > 0 {
			return check.field, nil
		}
	}

	return "", nil
}

// FindPendingVerification matches the user by email, verify token and
// unverified state in a single predicate. Any partial match comes back as
// (nil, nil), so callers cannot tell a wrong token from an already-verified
// account.
func (r *UserRepository) FindPendingVerification(ctx context.Context, email, token string) (*model.User, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "FindPendingVerification")

	var user model.User
	result := r.db.WithContext(ctx).
		Where("email = ? AND email_verify_token = ? AND email_verified = ?", email, token, false).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to look up pending verification").
			String("email", email).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Create")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	duration := time.Since(start)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			logger.WarnWithContext(ctx, "User insert hit unique constraint").
				String("email", user.Email).
				Duration(duration).
				Log()
			return ErrDuplicateKey
		}
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created").
		String("email", user.Email).
		Uint("user_id", user.ID).
		Duration(duration).
		Log()

	return nil
}

func (r *UserRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Update")

	start := time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	duration := time.Since(start)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		logger.ErrorWithContext(ctx, "Failed to update user").
			Uint("user_id", id).
			Duration(duration).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *UserRepository) List(ctx context.Context, params ListParams) ([]model.User, int64, int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "List")

	start := time.Now()
	var users []model.User
	var total, verified int64

	query := r.db.WithContext(ctx).Model(&model.User{})

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where(
			"full_name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR employee_code ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if params.Role != "" {
		query = query.Where("role = ?", params.Role)
	}
	if params.Verified != nil {
		query = query.Where("email_verified = ?", *params.Verified)
	}

	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count users").Err(err).Log()
		return nil, 0, 0, err
	}

	if err := query.Session(&gorm.Session{}).Where("email_verified = ?", true).Count(&verified).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count verified users").Err(err).Log()
		return nil, 0, 0, err
	}

	if err := query.Limit(params.Limit).Offset(params.Offset).Order("id").Find(&users).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch users").
			Int("limit", params.Limit).
			Int("offset", params.Offset).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return nil, 0, 0, err
	}

	logger.DebugWithContext(ctx, "Users listed").
		Int64("total", total).
		Int("returned_count", len(users)).
		Duration(time.Since(start)).
		Log()

	return users, total, verified, nil
}
