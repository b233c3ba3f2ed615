package constants

// Field Length Limits
const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
	MinNameLength     = 2
	MaxNameLength     = 50
	MinPhoneLength    = 10
	MaxPhoneLength    = 15
	MaxEmailLength    = 255
)

// Validation Patterns
const (
	EmailPattern = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	PhonePattern = `^\+?[1-9]\d{1,14}$` // E.164 format
)
