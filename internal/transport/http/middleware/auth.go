package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/infra/security"
	"github.com/edukita/tryout-platform/internal/usecase"
)

const (
	// UserIDKey is the gin context key the authenticated account id is stored under.
	UserIDKey = "user_id"
	// ClaimsKey is the gin context key the parsed access token claims are stored under.
	ClaimsKey = "claims"
	// RoleKey is the gin context key the authenticated account's role is stored under.
	RoleKey = "role"
)

// errorResponse mirrors the handler payload without importing the handlers
// package, which would create an import cycle.
type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, code, message string) errorResponse {
	return errorResponse{
		Error:   message,
		Code:    code,
		TraceID: GetTraceID(c),
	}
}

// RequireAuth validates the bearer token and stores the authenticated identity
// in the request context.
func RequireAuth(auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "UNAUTHENTICATED", "authorization header required"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "UNAUTHENTICATED", "invalid authorization header"))
			return
		}

		claims, err := auth.ParseAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredAccessToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "TOKEN_EXPIRED", "access token expired"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "UNAUTHENTICATED", "invalid access token"))
			}
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Set(RoleKey, claims.Role)

		if rc, ok := GetRequestContext(c); ok {
			rc.UserID = claims.UserID
			c.Set(RequestContextKey, rc)
		}

		c.Next()
	}
}

// RequireRole rejects authenticated requests whose role is not in the allowed
// set. It must run after RequireAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newErrorResponse(c, "UNAUTHENTICATED", "authentication required"))
			return
		}

		for _, candidate := range allowed {
			if strings.EqualFold(role, candidate) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, newErrorResponse(c, "INSUFFICIENT_PRIVILEGES", "insufficient privileges"))
	}
}

// GetAuthenticatedUserID returns the account id stored by RequireAuth.
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}

	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// GetAccessTokenClaims returns the parsed claims stored by RequireAuth.
func GetAccessTokenClaims(c *gin.Context) *security.AccessTokenClaims {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil
	}

	claims, ok := value.(*security.AccessTokenClaims)
	if !ok {
		return nil
	}

	return claims
}
