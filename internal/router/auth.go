package router

import (
	"github.com/gin-gonic/gin"
	"github.com/hrcore/accounts/internal/dto"
)

func (r *Router) authRoutes(version *gin.RouterGroup) {
	auth := version.Group("/auth")
	{
		// Public routes (no authentication required)
		auth.POST("/register",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.RegisterUserRequest{} }),
			r.authHandler.Register)
		auth.POST("/verify-email",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.VerifyEmailRequest{} }),
			r.authHandler.VerifyEmail)
		auth.POST("/resend-verification",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.ResendVerificationRequest{} }),
			r.authHandler.ResendVerification)
		auth.POST("/login",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.LoginRequest{} }),
			r.authHandler.Login)
		auth.POST("/verify-device",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.VerifyDeviceRequest{} }),
			r.authHandler.VerifyDevice)
		auth.POST("/refresh",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.RefreshTokenRequest{} }),
			r.authHandler.RefreshToken)

		// Logout revokes by refresh token; no access token needed
		auth.POST("/logout",
			r.validMw.ValidateRequestBody(func() interface{} { return &dto.LogoutRequest{} }),
			r.authHandler.Logout)
	}
}
