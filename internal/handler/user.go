package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hrcore/accounts/internal/constants"
	"github.com/hrcore/accounts/internal/dto"
	apperrors "github.com/hrcore/accounts/internal/errors"
	"github.com/hrcore/accounts/internal/repository"
	"github.com/hrcore/accounts/internal/service"
	ctxutil "github.com/hrcore/accounts/pkg/context"
	"github.com/hrcore/accounts/pkg/logger"
)

type UserHandler struct {
	accounts *service.AccountService
}

func NewUserHandler(accounts *service.AccountService) *UserHandler {
	return &UserHandler{accounts: accounts}
}

// GetMe returns the authenticated user's own profile
func (h *UserHandler) GetMe(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "GetMe")

	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	user, err := h.accounts.GetUser(ctx, userID)
	if err != nil {
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Failed to load profile", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("Profile loaded", user))
}

// GetUser returns one user's profile by ID
func (h *UserHandler) GetUser(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "GetUser")

	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, "invalid user id"))
		return
	}

	user, err := h.accounts.GetUser(ctx, id)
	if err != nil {
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Failed to load user", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("User loaded", user))
}

// ListUsers pages through accounts with optional search and filters
func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "ListUsers")

	pagination := constants.ParsePaginationParams(c)

	var filter dto.UserFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, err.Error()))
		return
	}

	params := repository.ListParams{
		Limit:    pagination.Limit,
		Offset:   pagination.Offset,
		Search:   pagination.Search,
		Role:     filter.Role,
		Verified: filter.Verified,
	}

	users, total, verified, err := h.accounts.ListUsers(ctx, params)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to list users").
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Failed to list users", apperrors.GetErrorMessage(err)))
		return
	}

	pageTotal := int(total) / pagination.Limit
	if int(total)%pagination.Limit != 0 {
		pageTotal++
	}

	response := constants.BuildListResponse(total, pagination.Page, pageTotal, users)
	response["verified_total"] = verified
	c.JSON(http.StatusOK, response)
}

// UpdateUser applies an admin field patch to a user
func (h *UserHandler) UpdateUser(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "UpdateUser")

	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, "invalid user id"))
		return
	}

	var req dto.AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse("Invalid request format", err.Error()))
		return
	}

	user, err := h.accounts.AdminUpdateUser(ctx, id, &req)
	if err != nil {
		logger.WarnWithContext(ctx, "User update failed").
			Uint("user_id", id).
			Err(err).
			Log()
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Update failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildDataResponse("User updated", user))
}

// UnlockUser clears a brute-force lockout
func (h *UserHandler) UnlockUser(c *gin.Context) {
	ctx := ctxutil.NewContext(c.Request.Context(), "handler", "UnlockUser")

	id, err := parseIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(constants.MsgBadRequest, "invalid user id"))
		return
	}

	if err := h.accounts.AdminUnlockUser(ctx, id); err != nil {
		c.JSON(apperrors.ToHTTPStatus(err), constants.BuildErrorResponse("Unlock failed", apperrors.GetErrorMessage(err)))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Account unlocked"))
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}
