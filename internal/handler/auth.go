package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrcore/accounts/internal/constants"
	"github.com/hrcore/accounts/internal/dto"
	apperrors "github.com/hrcore/accounts/internal/errors"
	"github.com/hrcore/accounts/internal/service"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
)

type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles new account creation
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Register")

	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid register request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	user, err := h.accounts.Register(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Registration failed", apperrors.GetErrorMessage(err)))
		return
	}

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", user.ID).
		Log()

	c.JSON(http.StatusCreated, constants.BuildDataResponse(constants.MsgRegisterSuccess, user))
}

// VerifyEmail confirms the emailed verification token and opens a session on
// the verifying device.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "VerifyEmail")

	var req dto.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid verify email request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	tokens, err := h.accounts.VerifyEmail(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Email verification failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Verification failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(constants.MsgEmailVerified, tokens))
}

// ResendVerification re-sends the verification email
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "ResendVerification")

	var req dto.ResendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.accounts.ResendEmailVerification(ctx, req.Email); err != nil {
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Resend failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgVerificationResent))
}

// Login handles user authentication with the device gate
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	logger.InfoWithContext(ctx, "User login attempt").
		String("email", req.Email).
		Log()

	result, err := h.accounts.Login(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", req.Email).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Authentication failed", apperrors.GetErrorMessage(err)))
		return
	}

	if result.VerifyRequired {
		c.JSON(http.StatusAccepted, constants.BuildDataResponse(constants.MsgDeviceVerifyRequired, result))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(constants.MsgLoginSuccess, result))
}

// VerifyDevice redeems the emailed device token and opens the session
func (h *AuthHandler) VerifyDevice(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "VerifyDevice")

	var req dto.VerifyDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid verify device request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	tokens, err := h.accounts.VerifyDevice(ctx, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "Device verification failed").
			Uint("user_id", req.UserID).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Verification failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse(constants.MsgDeviceVerified, tokens))
}

// RefreshToken rotates a refresh token into a fresh pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "RefreshToken")

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	tokens, err := h.accounts.RefreshTokens(ctx, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Token refresh failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Token refreshed", tokens))
}

// Logout revokes the session holding the presented refresh token
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "Logout")

	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	if err := h.accounts.Logout(ctx, req.RefreshToken); err != nil {
		logger.ErrorWithContext(ctx, "Logout failed").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Logout failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgLogoutSuccess))
}
