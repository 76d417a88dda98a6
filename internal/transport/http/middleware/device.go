package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/usecase"
)

type deviceMismatchResponse struct {
	Error            string     `json:"error"`
	Code             string     `json:"code"`
	RegisteredDevice string     `json:"registered_device,omitempty"`
	CurrentDevice    string     `json:"current_device,omitempty"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP      string     `json:"last_login_ip,omitempty"`
	TraceID          string     `json:"trace_id,omitempty"`
}

// ValidateDevice rejects requests whose fingerprint no longer matches the
// device bound to the account. It must run after RequireAuth.
func ValidateDevice(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := GetAuthenticatedUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "UNAUTHENTICATED", "authentication required"))
			return
		}

		_, err := auth.AuthorizeDevice(c.Request.Context(), accountID, c.Request.UserAgent(), c.ClientIP())
		if err != nil {
			var mismatch *usecase.DeviceMismatchError
			if errors.As(err, &mismatch) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, deviceMismatchResponse{
					Error:            "account is logged in on another device",
					Code:             "DEVICE_MISMATCH",
					RegisteredDevice: mismatch.RegisteredName,
					CurrentDevice:    mismatch.RequestName,
					LastLoginAt:      mismatch.LastLoginAt,
					LastLoginIP:      mismatch.LastLoginIP,
					TraceID:          GetTraceID(c),
				})
				return
			}

			switch {
			case errors.Is(err, usecase.ErrInactiveAccount):
				c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, "ACCOUNT_INACTIVE", "account inactive"))
			case errors.Is(err, usecase.ErrInvalidCredentials):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "UNAUTHENTICATED", "account not found"))
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorResponse(c, "", "device validation failed"))
			}
			return
		}

		c.Next()
	}
}
