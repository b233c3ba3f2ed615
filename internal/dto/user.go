package dto

import "time"

type RegisterUserRequest struct {
	EmployeeCode string `json:"employee_code" binding:"required,min=3,max=20"`
	Username     string `json:"username" binding:"required,min=3,max=50"`
	FirstName    string `json:"first_name" binding:"required,min=2,max=50"`
	LastName     string `json:"last_name" binding:"required,min=2,max=50"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"required,min=10,max=15"`
	// Password is optional: operator-provisioned accounts get a random one.
	Password    string   `json:"password" binding:"omitempty,min=6,max=100"`
	Role        string   `json:"role" binding:"omitempty,oneof=admin standard"`
	Permissions []string `json:"permissions" binding:"omitempty"`
	Department  []string `json:"department" binding:"omitempty"`
	Position    []string `json:"position" binding:"omitempty"`
}

type UserResponse struct {
	ID            uint      `json:"id"`
	EmployeeCode  string    `json:"employee_code"`
	Username      string    `json:"username"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Role          string    `json:"role"`
	Permissions   []string  `json:"permissions,omitempty"`
	Department    []string  `json:"department,omitempty"`
	Position      []string  `json:"position,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	LastLogin     time.Time `json:"last_login"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DeviceInfoRequest is the client metadata collected by the device-info
// middleware upstream; the service treats it as opaque.
type DeviceInfoRequest struct {
	DeviceID string `json:"device_id" binding:"required,min=8,max=128"`
	Type     string `json:"type" binding:"omitempty,max=50"`
	OS       string `json:"os" binding:"omitempty,max=50"`
	Browser  string `json:"browser" binding:"omitempty,max=100"`
	IP       string `json:"ip" binding:"omitempty,max=45"`
}

type VerifyEmailRequest struct {
	Email  string            `json:"email" binding:"required,email"`
	Token  string            `json:"token" binding:"required"`
	Device DeviceInfoRequest `json:"device" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string            `json:"email" binding:"required,email"`
	Password string            `json:"password" binding:"required,min=6"`
	Device   DeviceInfoRequest `json:"device" binding:"required"`
}

type VerifyDeviceRequest struct {
	UserID uint              `json:"user_id" binding:"required"`
	Token  string            `json:"token" binding:"required"`
	Device DeviceInfoRequest `json:"device" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPair carries freshly minted access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // access token expiry in seconds
}

// LoginResult is the tagged outcome of a login attempt: either the device is
// unknown and a verification email was dispatched, or tokens were issued.
type LoginResult struct {
	VerifyRequired bool       `json:"verify_required"`
	Tokens         *TokenPair `json:"tokens,omitempty"`
}

// AdminUpdateUserRequest is a field patch; empty fields are left untouched.
// Identity-bearing fields are re-checked for global uniqueness.
type AdminUpdateUserRequest struct {
	EmployeeCode string   `json:"employee_code" binding:"omitempty,min=3,max=20"`
	Username     string   `json:"username" binding:"omitempty,min=3,max=50"`
	FirstName    string   `json:"first_name" binding:"omitempty,min=2,max=50"`
	LastName     string   `json:"last_name" binding:"omitempty,min=2,max=50"`
	Email        string   `json:"email" binding:"omitempty,email"`
	Phone        string   `json:"phone" binding:"omitempty,min=10,max=15"`
	Role         string   `json:"role" binding:"omitempty,oneof=admin standard"`
	Permissions  []string `json:"permissions" binding:"omitempty"`
	Department   []string `json:"department" binding:"omitempty"`
	Position     []string `json:"position" binding:"omitempty"`
}

// UserFilter narrows list-users queries.
type UserFilter struct {
	Role       string `form:"role"`
	Department string `form:"department"`
	Verified   *bool  `form:"verified"`
}
