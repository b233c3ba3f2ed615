package model

import (
	"time"

	"gorm.io/gorm"
)

// Device is a client install known for a user, distinguished by a
// caller-supplied device_id. Its existence is the trust anchor: a row means
// the device completed the out-of-band verification flow.
type Device struct {
	gorm.Model
	UserID   uint   `gorm:"column:user_id;not null;uniqueIndex:idx_devices_user_device"`
	DeviceID string `gorm:"column:device_id;not null;uniqueIndex:idx_devices_user_device"`

	// Best-effort client metadata, informational only.
	Type    string `gorm:"column:type"`
	OS      string `gorm:"column:os"`
	Browser string `gorm:"column:browser"`
	IP      string `gorm:"column:ip"`

	LastLogin time.Time `gorm:"column:last_login"`
}

// DeviceInfo is the opaque client metadata collected upstream from the raw
// request (user agent and IP parsing is not a concern of this service).
type DeviceInfo struct {
	DeviceID string `json:"device_id"`
	Type     string `json:"type"`
	OS       string `json:"os"`
	Browser  string `json:"browser"`
	IP       string `json:"ip"`
}
