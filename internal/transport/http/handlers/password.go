package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// PasswordHandler exposes password change and reset endpoints.
type PasswordHandler struct {
	passwords *usecase.PasswordService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(passwords *usecase.PasswordService) *PasswordHandler {
	return &PasswordHandler{passwords: passwords}
}

// RegisterRoutes binds password routes. The reset flow is unauthenticated and
// takes the provided rate limit chain; change requires a valid session on the
// registered device.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, authChain []gin.HandlerFunc, resetMiddlewares []gin.HandlerFunc) {
	r.POST("/change", appendHandler(authChain, h.changePassword)...)
	r.POST("/forgot", appendHandler(resetMiddlewares, h.forgotPassword)...)
	r.POST("/reset/verify", appendHandler(resetMiddlewares, h.verifyResetToken)...)
	r.POST("/reset", appendHandler(resetMiddlewares, h.resetPassword)...)
}

func (h *PasswordHandler) changePassword(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid change password payload"))
		return
	}

	err := h.passwords.ChangePassword(c.Request.Context(), accountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "new password does not meet requirements"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to change password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

func (h *PasswordHandler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid forgot password payload"))
		return
	}

	err := h.passwords.RequestReset(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, usecase.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "no account registered for this email"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to initiate password reset"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "reset instructions sent"})
}

func (h *PasswordHandler) verifyResetToken(c *gin.Context) {
	var req VerifyResetTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verify token payload"))
		return
	}

	err := h.passwords.VerifyResetToken(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Token))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "reset token invalid"},
			{Err: usecase.ErrExpiredResetToken, Status: http.StatusBadRequest, Message: "reset token expired"},
		}, http.StatusInternalServerError, "failed to verify reset token")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "reset token valid"})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset password payload"))
		return
	}

	err := h.passwords.ResetPassword(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.Token), req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "reset token invalid"},
			{Err: usecase.ErrExpiredResetToken, Status: http.StatusBadRequest, Message: "reset token expired"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "new password does not meet requirements"},
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset; sign in again"})
}
