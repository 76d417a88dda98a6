package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// EnrollmentHandler exposes self-service enrollment and administrative
// payment state transitions.
type EnrollmentHandler struct {
	enrollments *usecase.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *usecase.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// RegisterRoutes binds self-service routes on the authenticated group and
// payment transitions on the admin group.
func (h *EnrollmentHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.POST("/enrollments", h.enroll)
	authed.GET("/enrollments", h.listMine)

	admin.POST("/enrollments/:id/mark-paid", h.markPaid)
	admin.POST("/enrollments/:id/deactivate", h.deactivate)
}

func (h *EnrollmentHandler) enroll(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid enrollment payload"))
		return
	}

	enrollment, err := h.enrollments.Enroll(c.Request.Context(), accountID, strings.TrimSpace(req.ProgramID))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
			{Err: usecase.ErrAlreadyEnrolled, Status: http.StatusConflict, Message: "already enrolled in this program"},
		}, http.StatusInternalServerError, "failed to enroll")
		return
	}

	c.JSON(http.StatusCreated, newEnrollmentResponse(*enrollment))
}

func (h *EnrollmentHandler) listMine(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	page, perPage := pageQuery(c)
	filter := port.EnrollmentFilter{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	enrollments, total, err := h.enrollments.ListByAccount(c.Request.Context(), accountID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list enrollments"))
		return
	}

	items := make([]EnrollmentResponse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		items = append(items, newEnrollmentResponse(enrollment))
	}

	c.JSON(http.StatusOK, ListResponse[EnrollmentResponse]{
		Items: items,
		Meta:  ListMeta{Total: total, Page: page, PerPage: perPage},
	})
}

func (h *EnrollmentHandler) markPaid(c *gin.Context) {
	enrollment, err := h.enrollments.MarkPaid(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEnrollmentNotFound, Status: http.StatusNotFound, Message: "enrollment not found"},
		}, http.StatusInternalServerError, "failed to mark enrollment paid")
		return
	}

	c.JSON(http.StatusOK, newEnrollmentResponse(*enrollment))
}

func (h *EnrollmentHandler) deactivate(c *gin.Context) {
	if err := h.enrollments.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEnrollmentNotFound, Status: http.StatusNotFound, Message: "enrollment not found"},
		}, http.StatusInternalServerError, "failed to deactivate enrollment")
		return
	}

	c.Status(http.StatusNoContent)
}
