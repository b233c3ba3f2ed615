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

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) FindOrNil(ctx context.Context, userID uint, deviceID string) (*model.Device, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "FindOrNil")

	var device model.Device
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND device_id = ?", userID, deviceID).
		First(&device)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to look up device").
			Uint("user_id", userID).
			String("device_id", deviceID).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &device, nil
}

// Upsert registers the device for the user or, when (user_id, device_id)
// already exists, refreshes its metadata and last-login timestamp.
func (r *DeviceRepository) Upsert(ctx context.Context, userID uint, info model.DeviceInfo, lastLogin time.Time) (*model.Device, error) {
	ctx = ctxutil.WithOperation(ctx, "repository", "Upsert")

	start := time.Now()
	device := model.Device{
		UserID:    userID,
		DeviceID:  info.DeviceID,
		Type:      info.Type,
		OS:        info.OS,
		Browser:   info.Browser,
		IP:        info.IP,
		LastLogin: lastLogin,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "os", "browser", "ip", "last_login", "updated_at",
		}),
	}).Create(&device)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to upsert device").
			Uint("user_id", userID).
			String("device_id", info.DeviceID).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	logger.DebugWithContext(ctx, "Device upserted").
		Uint("user_id", userID).
		String("device_id", info.DeviceID).
		Duration(time.Since(start)).
		Log()

	return &device, nil
}
