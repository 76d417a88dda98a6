package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// TryoutHandler exposes tryout browsing and starting for participants, and
// CRUD for administrators.
type TryoutHandler struct {
	tryouts *usecase.TryoutService
}

// NewTryoutHandler constructs TryoutHandler.
func NewTryoutHandler(tryouts *usecase.TryoutService) *TryoutHandler {
	return &TryoutHandler{tryouts: tryouts}
}

// RegisterRoutes binds participant routes on the authenticated group and CRUD
// on the admin group. Starting a tryout is device-guarded by the group chain.
func (h *TryoutHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.GET("/tryouts", h.list)
	authed.GET("/tryouts/:id", h.get)
	authed.POST("/tryouts/:id/start", h.start)

	admin.POST("/tryouts", h.create)
	admin.PUT("/tryouts/:id", h.update)
	admin.DELETE("/tryouts/:id", h.delete)
}

func (h *TryoutHandler) list(c *gin.Context) {
	page, perPage := pageQuery(c)
	filter := port.TryoutFilter{
		ProgramID: strings.TrimSpace(c.Query("program_id")),
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	}

	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}

	tryouts, total, err := h.tryouts.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list tryouts"))
		return
	}

	items := make([]TryoutResponse, 0, len(tryouts))
	for _, tryout := range tryouts {
		items = append(items, newTryoutResponse(tryout))
	}

	c.JSON(http.StatusOK, ListResponse[TryoutResponse]{
		Items: items,
		Meta:  ListMeta{Total: total, Page: page, PerPage: perPage},
	})
}

func (h *TryoutHandler) get(c *gin.Context) {
	tryout, err := h.tryouts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTryoutNotFound, Status: http.StatusNotFound, Message: "tryout not found"},
		}, http.StatusInternalServerError, "failed to load tryout")
		return
	}

	c.JSON(http.StatusOK, newTryoutResponse(*tryout))
}

func (h *TryoutHandler) start(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	tryout, questions, answers, err := h.tryouts.Start(c.Request.Context(), accountID, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTryoutNotFound, Status: http.StatusNotFound, Message: "tryout not found"},
			{Err: usecase.ErrTryoutClosed, Status: http.StatusForbidden, Message: "tryout is not open"},
			{Err: usecase.ErrNotEnrolled, Status: http.StatusForbidden, Message: "active enrollment required"},
		}, http.StatusInternalServerError, "failed to start tryout")
		return
	}

	c.JSON(http.StatusOK, TryoutStartResponse{
		Tryout:    newTryoutResponse(*tryout),
		Questions: newQuestionResponses(questions, answers, false),
	})
}

func (h *TryoutHandler) create(c *gin.Context) {
	input, ok := bindTryoutInput(c)
	if !ok {
		return
	}

	tryout, err := h.tryouts.Create(c.Request.Context(), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusBadRequest, "invalid tryout")
		return
	}

	c.JSON(http.StatusCreated, newTryoutResponse(*tryout))
}

func (h *TryoutHandler) update(c *gin.Context) {
	input, ok := bindTryoutInput(c)
	if !ok {
		return
	}

	tryout, err := h.tryouts.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTryoutNotFound, Status: http.StatusNotFound, Message: "tryout not found"},
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusBadRequest, "invalid tryout")
		return
	}

	c.JSON(http.StatusOK, newTryoutResponse(*tryout))
}

func (h *TryoutHandler) delete(c *gin.Context) {
	if err := h.tryouts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTryoutNotFound, Status: http.StatusNotFound, Message: "tryout not found"},
		}, http.StatusInternalServerError, "failed to delete tryout")
		return
	}

	c.Status(http.StatusNoContent)
}

func bindTryoutInput(c *gin.Context) (usecase.TryoutInput, bool) {
	var req TryoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid tryout payload"))
		return usecase.TryoutInput{}, false
	}

	return usecase.TryoutInput{
		ProgramID:       strings.TrimSpace(req.ProgramID),
		QuestionBankID:  strings.TrimSpace(req.QuestionBankID),
		Title:           strings.TrimSpace(req.Title),
		DurationMinutes: req.DurationMinutes,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		IsActive:        req.IsActive,
	}, true
}
