package constants

// HTTP Header Names
const (
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderUserAgent     = "User-Agent"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXDeviceID     = "X-Device-ID"
)

// Common HTTP Error Messages
const (
	MsgUnauthorized  = "Unauthorized access"
	MsgForbidden     = "Access forbidden"
	MsgNotFound      = "Resource not found"
	MsgBadRequest    = "Invalid request"
	MsgInternalError = "Internal server error"
	MsgConflict      = "Resource already exists"
)

// User-facing auth messages
const (
	MsgRegisterSuccess      = "Register successfully"
	MsgLoginSuccess         = "Login successfully"
	MsgLogoutSuccess        = "Logout successful"
	MsgEmailVerified        = "Email verified successfully"
	MsgDeviceVerified       = "Device verified successfully"
	MsgVerificationResent   = "Verification email sent"
	MsgDeviceVerifyRequired = "New device detected, check your email to verify this device"
	MsgAccountLocked        = "Account is locked, contact support"
)
