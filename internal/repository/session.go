package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hrcore/accounts/internal/model"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert stores the refresh token for (user, device), replacing any token a
// previous login on the same device left behind. One session row per device,
// never two.
func (r *SessionRepository) Upsert(ctx context.Context, userID uint, deviceID, refreshToken string, expiresAt time.Time) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Upsert")

	start := time.Now()
	session := model.Session{
		UserID:       userID,
		DeviceID:     deviceID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"refresh_token", "expires_at", "updated_at",
		}),
	}).Create(&session)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to upsert session").
			Uint("user_id", userID).
			String("device_id", deviceID).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.DebugWithContext(ctx, "Session stored").
		Uint("user_id", userID).
		String("device_id", deviceID).
		Duration(time.Since(start)).
		Log()

	return nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, refreshToken string) (*model.Session, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "FindByToken")

	var session model.Session
	result := r.db.WithContext(ctx).
		Where("refresh_token = ? AND expires_at > ?", refreshToken, time.Now()).
		First(&session)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to look up session").
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id uint) error {
	ctx = ctxutil.WithOperation(ctx, "repository", "Delete")

	result := r.db.WithContext(ctx).Delete(&model.Session{}, id)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to delete session").
			Uint("session_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	return nil
}

// DeleteExpired sweeps sessions whose refresh tokens have passed their
// expiry. Run periodically from the maintenance loop.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "DeleteExpired")

	start := time.Now()
	result := r.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&model.Session{})
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to sweep expired sessions").
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		logger.InfoWithContext(ctx, "Expired sessions removed").
			Int64("removed_count", result.RowsAffected).
			Duration(time.Since(start)).
			Log()
	}

	return result.RowsAffected, nil
}
