package constants

// Application Information
const (
	AppName    = "Accounts Service"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// Cache and ephemeral key prefixes
const (
	CacheKeyPrefix   = "accounts:"
	CacheKeyUser     = CacheKeyPrefix + "user:"
	KeyLoginAttempts = CacheKeyPrefix + "login_attempts:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)
