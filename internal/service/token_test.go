package service

import (
	"errors"
	"testing"
	"time"

	"github.com/hrcore/accounts/config"
	apperrors "github.com/hrcore/accounts/internal/errors"
	"github.com/hrcore/accounts/internal/model"
)

func testTokenConfig() config.TokenConfig {
	return config.TokenConfig{
		AccessSecret:       "access-secret",
		RefreshSecret:      "refresh-secret",
		EmailVerifySecret:  "email-verify-secret",
		DeviceVerifySecret: "device-verify-secret",
		AccessTTL:          15 * time.Minute,
		RefreshTTL:         7 * 24 * time.Hour,
		EmailVerifyTTL:     24 * time.Hour,
		DeviceVerifyTTL:    time.Hour,
	}
}

func testUser() *model.User {
	user := &model.User{
		Email:         "jane.doe@example.com",
		Role:          model.RoleStandard,
		EmailVerified: true,
	}
	user.ID = 42
	return user
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := testUser()

	token, err := svc.GenerateAccessToken(user, "device-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", claims.UserID, user.ID)
	}
	if claims.Email != user.Email {
		t.Errorf("Email = %q, want %q", claims.Email, user.Email)
	}
	if claims.DeviceID != "device-1" {
		t.Errorf("DeviceID = %q, want %q", claims.DeviceID, "device-1")
	}
	if claims.Role != string(model.RoleStandard) {
		t.Errorf("Role = %q, want %q", claims.Role, model.RoleStandard)
	}
	if !claims.EmailVerified {
		t.Error("EmailVerified = false, want true")
	}
}

func TestTokenKindsDoNotCrossValidate(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := testUser()

	deviceToken, err := svc.GenerateDeviceVerifyToken(user, "device-1")
	if err != nil {
		t.Fatalf("GenerateDeviceVerifyToken: %v", err)
	}

	if _, err := svc.ValidateAccessToken(deviceToken); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("device token validated as access token, err = %v", err)
	}
	if _, err := svc.ValidateEmailVerifyToken(deviceToken); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("device token validated as email verify token, err = %v", err)
	}
}

func TestSameKindDifferentSecretRejected(t *testing.T) {
	cfg := testTokenConfig()
	svc := NewTokenService(cfg)

	otherCfg := cfg
	otherCfg.AccessSecret = "a-different-secret"
	other := NewTokenService(otherCfg)

	token, err := other.GenerateAccessToken(testUser(), "device-1")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := svc.ValidateAccessToken(token); !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("foreign-signed token accepted, err = %v", err)
	}
}

func TestExpiredTokenIsDistinguished(t *testing.T) {
	cfg := testTokenConfig()
	cfg.EmailVerifyTTL = -time.Minute
	svc := NewTokenService(cfg)

	token, err := svc.GenerateEmailVerifyToken(testUser())
	if err != nil {
		t.Fatalf("GenerateEmailVerifyToken: %v", err)
	}

	_, err = svc.ValidateEmailVerifyToken(token)
	if !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := NewTokenService(testTokenConfig())

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.ValidateRefreshToken(token); !errors.Is(err, apperrors.ErrTokenInvalid) {
			t.Errorf("ValidateRefreshToken(%q) err = %v, want ErrTokenInvalid", token, err)
		}
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	svc := NewTokenService(testTokenConfig())
	user := testUser()

	first, err := svc.GenerateRefreshToken(user, "device-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	second, err := svc.GenerateRefreshToken(user, "device-1")
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}

	if first == second {
		t.Error("two refresh tokens for the same user and device are identical")
	}
}
