package model

import (
	"time"

	"gorm.io/gorm"
)

// Session is the per-(user, device) refresh-token record. The compound unique
// index enforces at most one live session per pair: a new login upserts,
// overwriting any prior token.
type Session struct {
	gorm.Model
	UserID   uint   `gorm:"column:user_id;not null;uniqueIndex:idx_sessions_user_device"`
	DeviceID string `gorm:"column:device_id;not null;uniqueIndex:idx_sessions_user_device"`

	RefreshToken string    `gorm:"column:refresh_token;unique;not null"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null;index"`
}

// Expired reports whether the session's refresh token is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
