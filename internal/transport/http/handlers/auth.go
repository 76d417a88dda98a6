package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// deviceConflictActions names the recovery endpoints a client may offer when a
// login is blocked by a binding on another device.
var deviceConflictActions = []string{"force-login", "logout-other-device"}

// AuthHandler exposes authentication and device binding endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	registration *usecase.RegistrationService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, registration *usecase.RegistrationService) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		registration: registration,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the credentialed handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares, forceLoginMiddlewares []gin.HandlerFunc) {
	r.POST("/register", h.register)
	r.POST("/login", appendHandler(loginMiddlewares, h.login)...)
	r.POST("/force-login", appendHandler(forceLoginMiddlewares, h.forceLogin)...)

	authMiddleware := middleware.RequireAuth(h.auth)
	deviceGuard := middleware.ValidateDevice(h.auth)

	// logout-other-device is reached from the device the caller is moving TO,
	// so it requires a valid token but deliberately skips the device guard.
	r.POST("/logout-other-device", authMiddleware, h.logoutOtherDevice)
	r.POST("/logout", authMiddleware, deviceGuard, h.logout)
	r.GET("/me", authMiddleware, deviceGuard, h.me)
	r.GET("/device", authMiddleware, deviceGuard, h.device)
}

func appendHandler(chain []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := append([]gin.HandlerFunc{}, chain...)
	return append(out, handler)
}

func (h *AuthHandler) register(c *gin.Context) {
	if h.registration == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "registration service unavailable"))
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	result, err := h.registration.Register(c.Request.Context(), usecase.RegisterInput{
		Name:       strings.TrimSpace(req.Name),
		Username:   strings.TrimSpace(req.Username),
		Email:      strings.TrimSpace(req.Email),
		University: strings.TrimSpace(req.University),
		Phone:      strings.TrimSpace(req.Phone),
		Password:   req.Password,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "accounts_email_key":
				c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
			case "accounts_username_key":
				c.JSON(http.StatusConflict, NewErrorResponse(c, "username already taken"))
			default:
				c.JSON(http.StatusConflict, NewErrorResponse(c, "account already exists"))
			}
			return
		}
		if errors.Is(err, usecase.ErrPasswordPolicyViolation) {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "password does not meet requirements"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to register account"))
		return
	}

	c.JSON(http.StatusCreated, h.newLoginResponse(result))
}

func (h *AuthHandler) login(c *gin.Context) {
	input, ok := h.bindLoginInput(c)
	if !ok {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		var conflict *usecase.DeviceConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "account is already logged in on another device",
				Code:    "DEVICE_ALREADY_LOGGED_IN",
				TraceID: middleware.GetTraceID(c),
				Data: DeviceConflictData{
					RegisteredDevice: newDeviceSummary(conflict.Registered),
					Actions:          deviceConflictActions,
				},
			})
			return
		}
		h.respondCredentialError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newLoginResponse(result))
}

func (h *AuthHandler) forceLogin(c *gin.Context) {
	input, ok := h.bindLoginInput(c)
	if !ok {
		return
	}

	result, err := h.auth.ForceLogin(c.Request.Context(), input)
	if err != nil {
		h.respondCredentialError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.newLoginResponse(result))
}

func (h *AuthHandler) logoutOtherDevice(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	result, err := h.auth.LogoutOtherDevice(c.Request.Context(), accountID, usecase.DeviceInput{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: domain.ErrNoOtherDevice, Status: http.StatusBadRequest, Code: "NO_OTHER_DEVICE", Message: "no other device is logged in"},
			{Err: domain.ErrAlreadyCurrentDevice, Status: http.StatusBadRequest, Code: "ALREADY_CURRENT_DEVICE", Message: "already logged in from this device"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrInactiveAccount, Status: http.StatusForbidden, Message: "account inactive"},
		}, http.StatusInternalServerError, "failed to log out other device")
		return
	}

	c.JSON(http.StatusOK, h.newLoginResponse(result))
}

func (h *AuthHandler) logout(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), accountID); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to log out"))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) me(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	account, err := h.auth.AuthorizeDevice(c.Request.Context(), accountID, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		// ValidateDevice runs ahead of this handler; reaching here means the
		// binding changed between the guard and the read.
		c.JSON(http.StatusUnauthorized, NewCodedErrorResponse(c, "DEVICE_MISMATCH", "account is logged in on another device"))
		return
	}

	account.PasswordHash = ""
	c.JSON(http.StatusOK, newAccountSummary(*account))
}

// device reports the binding holding the session alongside what the current
// request would fingerprint to.
func (h *AuthHandler) device(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	binding, err := h.auth.ActiveDevice(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to look up device"))
		return
	}

	fingerprint, label := h.auth.DescribeDevice(c.Request.UserAgent(), c.ClientIP())

	resp := gin.H{
		"current_device": gin.H{
			"device_id":   fingerprint,
			"device_name": label,
		},
	}
	if binding != nil {
		resp["registered_device"] = newDeviceSummary(*binding)
		resp["matches"] = binding.DeviceID == fingerprint
	} else {
		resp["matches"] = false
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) bindLoginInput(c *gin.Context) (usecase.LoginInput, bool) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return usecase.LoginInput{}, false
	}

	return usecase.LoginInput{
		Handle:    strings.TrimSpace(req.Handle),
		Password:  req.Password,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, true
}

func (h *AuthHandler) respondCredentialError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
	case errors.Is(err, usecase.ErrInactiveAccount):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, "account inactive"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "authentication failed"))
	}
}

func (h *AuthHandler) newLoginResponse(result *usecase.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresIn:   computeExpiresIn(result.Token, h.auth),
		Account:     newAccountSummary(result.Account),
		Device:      newDeviceSummary(result.Device),
	}
}

func computeExpiresIn(token string, auth *usecase.AuthService) int {
	if auth == nil {
		return 0
	}
	claims, err := auth.ParseAccessToken(token)
	if err != nil || claims == nil || claims.ExpiresAt == nil {
		return 0
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return 0
	}

	return int(remaining.Seconds())
}
