package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hrcore/accounts/internal/constants"
	"github.com/hrcore/accounts/internal/model"
	"github.com/hrcore/accounts/internal/repository"
	"github.com/hrcore/accounts/internal/service"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
	"go.uber.org/zap"
)

type AuthMiddleware struct {
	tokens *service.TokenService
	users  repository.UserStore
}

func NewAuthMiddleware(tokens *service.TokenService, users repository.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		users:  users,
	}
}

// RequireAuth validates the bearer access token and loads the claims into
// the request. The user row is checked so a lockout applied after the token
// was minted still takes effect.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			logger.GetLogger().Warn("Missing Authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			unauthorized(c)
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			logger.GetLogger().Warn("Invalid Authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method))
			unauthorized(c)
			return
		}

		claims, err := m.tokens.ValidateAccessToken(tokenParts[1])
		if err != nil {
			logger.GetLogger().Warn("Invalid or expired access token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err))
			unauthorized(c)
			return
		}

		ctx := c.Request.Context()
		user, err := m.users.GetByID(ctx, claims.UserID)
		if err != nil || user == nil {
			logger.GetLogger().Warn("Token holder not found",
				zap.Uint("user_id", claims.UserID),
				zap.Error(err))
			unauthorized(c)
			return
		}
		if user.Locked {
			logger.GetLogger().Warn("Locked account presented a valid token",
				zap.Uint("user_id", user.ID))
			c.JSON(http.StatusLocked, constants.BuildErrorResponse(constants.MsgAccountLocked, nil))
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("email", user.Email)
		c.Set("role", string(user.Role))
		c.Set("email_verified", user.EmailVerified)
		c.Set("device_id", claims.DeviceID)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(ctx, user.ID))

		c.Next()
	}
}

// RequireVerifiedEmail gates routes that only verified accounts may use.
// Runs after RequireAuth.
func (m *AuthMiddleware) RequireVerifiedEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		if verified, _ := c.Get("email_verified"); verified != true {
			c.JSON(http.StatusForbidden, constants.BuildErrorResponse(constants.MsgForbidden, "email address is not verified"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin gates the operator endpoints. Runs after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != string(model.RoleAdmin) {
			logger.GetLogger().Warn("Non-admin attempted operator endpoint",
				zap.Any("user_id", c.MustGet("user_id")),
				zap.String("path", c.Request.URL.Path))
			c.JSON(http.StatusForbidden, constants.BuildErrorResponse(constants.MsgForbidden, nil))
			c.Abort()
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
	c.Abort()
}
