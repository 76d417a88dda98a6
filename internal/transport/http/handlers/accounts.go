package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// AccountHandler exposes profile endpoints and administrative account listings.
type AccountHandler struct {
	accounts *usecase.AccountService
}

// NewAccountHandler constructs AccountHandler.
func NewAccountHandler(accounts *usecase.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// RegisterRoutes binds profile routes on the authenticated group and listings
// on the admin group.
func (h *AccountHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.GET("/profile", h.profile)
	authed.PATCH("/profile", h.updateProfile)

	admin.GET("/accounts", h.list)
	admin.GET("/accounts/:id", h.get)
}

func (h *AccountHandler) profile(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), accountID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, newAccountSummary(*account))
}

func (h *AccountHandler) updateProfile(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	account, err := h.accounts.UpdateProfile(c.Request.Context(), accountID, usecase.UpdateProfileInput{
		Name:         strings.TrimSpace(req.Name),
		University:   strings.TrimSpace(req.University),
		Phone:        strings.TrimSpace(req.Phone),
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, newAccountSummary(*account))
}

func (h *AccountHandler) get(c *gin.Context) {
	account, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "failed to load account")
		return
	}

	c.JSON(http.StatusOK, newAccountSummary(*account))
}

func (h *AccountHandler) list(c *gin.Context) {
	page, perPage := pageQuery(c)
	filter := port.AccountFilter{
		Role:       domain.Role(strings.TrimSpace(c.Query("role"))),
		University: strings.TrimSpace(c.Query("university")),
		Limit:      perPage,
		Offset:     (page - 1) * perPage,
	}

	accounts, total, err := h.accounts.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list accounts"))
		return
	}

	items := make([]AccountSummary, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, newAccountSummary(account))
	}

	c.JSON(http.StatusOK, ListResponse[AccountSummary]{
		Items: items,
		Meta:  ListMeta{Total: total, Page: page, PerPage: perPage},
	})
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// pageQuery reads page/per_page query parameters. Page numbering starts at 1;
// out-of-range or non-numeric values fall back to the defaults.
func pageQuery(c *gin.Context) (page, perPage int) {
	page = parseIntQuery(c, "page", 1)
	if page < 1 {
		page = 1
	}

	perPage = parseIntQuery(c, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return page, perPage
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
