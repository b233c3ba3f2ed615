package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hrcore/accounts/config"
	apperrors "github.com/hrcore/accounts/internal/errors"
	"github.com/hrcore/accounts/internal/model"
)

// Token kinds. Every token carries its kind as a claim and is signed with a
// kind-specific secret, so a token minted for one purpose never validates for
// another.
const (
	tokenKindAccess       = "access"
	tokenKindRefresh      = "refresh"
	tokenKindEmailVerify  = "email_verify"
	tokenKindDeviceVerify = "device_verify"
)

// TokenClaims is the decoded payload of a validated token.
type TokenClaims struct {
	UserID        uint
	Email         string
	Role          string
	DeviceID      string
	EmailVerified bool
}

// TokenService mints and validates the four token kinds used by the account
// flows: short-lived access tokens, per-device refresh tokens, and the two
// single-purpose verification tokens sent by email.
type TokenService struct {
	cfg config.TokenConfig
}

func NewTokenService(cfg config.TokenConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

func (s *TokenService) secretFor(kind string) []byte {
	switch kind {
	case tokenKindAccess:
		return []byte(s.cfg.AccessSecret)
	case tokenKindRefresh:
		return []byte(s.cfg.RefreshSecret)
	case tokenKindEmailVerify:
		return []byte(s.cfg.EmailVerifySecret)
	default:
		return []byte(s.cfg.DeviceVerifySecret)
	}
}

func (s *TokenService) generate(kind string, ttl time.Duration, claims jwt.MapClaims) (string, error) {
	now := time.Now()
	claims["kind"] = kind
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	// A fresh jti per token keeps repeat logins from colliding on the unique
	// refresh-token column.
	claims["jti"] = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretFor(kind))
}

// GenerateAccessToken mints the short-lived bearer token presented on
// authenticated requests.
func (s *TokenService) GenerateAccessToken(user *model.User, deviceID string) (string, error) {
	return s.generate(tokenKindAccess, s.cfg.AccessTTL, jwt.MapClaims{
		"user_id":        user.ID,
		"email":          user.Email,
		"role":           string(user.Role),
		"device_id":      deviceID,
		"email_verified": user.EmailVerified,
	})
}

// GenerateRefreshToken mints the long-lived token persisted per (user,
// device) session.
func (s *TokenService) GenerateRefreshToken(user *model.User, deviceID string) (string, error) {
	return s.generate(tokenKindRefresh, s.cfg.RefreshTTL, jwt.MapClaims{
		"user_id":   user.ID,
		"email":     user.Email,
		"device_id": deviceID,
	})
}

// GenerateEmailVerifyToken mints the token embedded in the account
// verification email.
func (s *TokenService) GenerateEmailVerifyToken(user *model.User) (string, error) {
	return s.generate(tokenKindEmailVerify, s.cfg.EmailVerifyTTL, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
	})
}

// GenerateDeviceVerifyToken mints the token embedded in the new-device
// confirmation email.
func (s *TokenService) GenerateDeviceVerifyToken(user *model.User, deviceID string) (string, error) {
	return s.generate(tokenKindDeviceVerify, s.cfg.DeviceVerifyTTL, jwt.MapClaims{
		"user_id":   user.ID,
		"email":     user.Email,
		"device_id": deviceID,
	})
}

func (s *TokenService) ValidateAccessToken(tokenString string) (*TokenClaims, error) {
	return s.validate(tokenKindAccess, tokenString)
}

func (s *TokenService) ValidateRefreshToken(tokenString string) (*TokenClaims, error) {
	return s.validate(tokenKindRefresh, tokenString)
}

func (s *TokenService) ValidateEmailVerifyToken(tokenString string) (*TokenClaims, error) {
	return s.validate(tokenKindEmailVerify, tokenString)
}

func (s *TokenService) ValidateDeviceVerifyToken(tokenString string) (*TokenClaims, error) {
	return s.validate(tokenKindDeviceVerify, tokenString)
}

// validate checks signature, expiry and kind, and maps jwt failures onto the
// domain's expired/invalid distinction.
func (s *TokenService) validate(kind, tokenString string) (*TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secretFor(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.WrapError(apperrors.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrTokenInvalid
	}

	if tokenKind, _ := claims["kind"].(string); tokenKind != kind {
		return nil, apperrors.ErrTokenInvalid
	}

	decoded := &TokenClaims{}
	if userID, ok := claims["user_id"].(float64); ok {
		decoded.UserID = uint(userID)
	}
	if decoded.UserID == 0 {
		return nil, apperrors.ErrTokenInvalid
	}
	decoded.Email, _ = claims["email"].(string)
	decoded.Role, _ = claims["role"].(string)
	decoded.DeviceID, _ = claims["device_id"].(string)
	decoded.EmailVerified, _ = claims["email_verified"].(bool)

	return decoded, nil
}
