package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/infra/security"
)

// JWKSHandler serves the public keys access tokens are verified against.
type JWKSHandler struct {
	jwtManager *security.JWTManager
}

// NewJWKSHandler constructs JWKSHandler.
func NewJWKSHandler(jwtManager *security.JWTManager) *JWKSHandler {
	return &JWKSHandler{jwtManager: jwtManager}
}

// Keys writes the JWKS document.
func (h *JWKSHandler) Keys(c *gin.Context) {
	if h.jwtManager == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "key material unavailable"))
		return
	}

	payload, err := h.jwtManager.JWKS()
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to build jwks"))
		return
	}

	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "application/json", payload)
}
