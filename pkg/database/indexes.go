package database

import (
	"github.com/hrcore/accounts/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OptimizedIndexes creates the indexes AutoMigrate cannot express. Failures
// are logged and skipped so a partial rollout never blocks startup.
func OptimizedIndexes(db *gorm.DB) error {
	indexes := []string{
		// Login and verification lookups
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_users_email_verified ON users(email) WHERE email_verified = false;",
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_users_locked ON users(id) WHERE locked = true;",

		// Name search in the admin list endpoint
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_users_full_name_fts ON users USING GIN (to_tsvector('english', full_name));",

		// Session sweeps
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",

		// Device activity reporting
		"CREATE INDEX CONCURRENTLY IF NOT EXISTS idx_devices_last_login ON devices(last_login DESC);",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logger.GetLogger().Warn("Failed to create index",
				zap.String("statement", index),
				zap.Error(err),
			)
		}
	}

	return nil
}
