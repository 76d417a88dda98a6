package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// ProgramHandler exposes the public catalog and administrative program CRUD.
type ProgramHandler struct {
	catalog *usecase.CatalogService
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(catalog *usecase.CatalogService) *ProgramHandler {
	return &ProgramHandler{catalog: catalog}
}

// RegisterRoutes binds browse routes on the public group and CRUD on the
// admin group.
func (h *ProgramHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/programs", h.list)
	public.GET("/programs/:slug", h.getBySlug)

	admin.POST("/programs", h.create)
	admin.GET("/programs/:id", h.get)
	admin.PUT("/programs/:id", h.update)
	admin.DELETE("/programs/:id", h.delete)
}

func (h *ProgramHandler) list(c *gin.Context) {
	page, perPage := pageQuery(c)
	filter := port.ProgramFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}

	programs, total, err := h.catalog.ListPrograms(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list programs"))
		return
	}

	items := make([]ProgramResponse, 0, len(programs))
	for _, program := range programs {
		items = append(items, newProgramResponse(program))
	}

	c.JSON(http.StatusOK, ListResponse[ProgramResponse]{
		Items: items,
		Meta:  ListMeta{Total: total, Page: page, PerPage: perPage},
	})
}

func (h *ProgramHandler) getBySlug(c *gin.Context) {
	program, err := h.catalog.GetProgramBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
		}, http.StatusInternalServerError, "failed to load program")
		return
	}

	c.JSON(http.StatusOK, newProgramResponse(*program))
}

func (h *ProgramHandler) get(c *gin.Context) {
	program, err := h.catalog.GetProgram(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
		}, http.StatusInternalServerError, "failed to load program")
		return
	}

	c.JSON(http.StatusOK, newProgramResponse(*program))
}

func (h *ProgramHandler) create(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid program payload"))
		return
	}

	program, err := h.catalog.CreateProgram(c.Request.Context(), usecase.ProgramInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
		Images:      req.Images,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSlugTaken, Status: http.StatusConflict, Message: "a program with this title already exists"},
		}, http.StatusInternalServerError, "failed to create program")
		return
	}

	c.JSON(http.StatusCreated, newProgramResponse(*program))
}

func (h *ProgramHandler) update(c *gin.Context) {
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid program payload"))
		return
	}

	program, err := h.catalog.UpdateProgram(c.Request.Context(), c.Param("id"), usecase.ProgramInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       req.Price,
		IsActive:    req.IsActive,
		Images:      req.Images,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
			{Err: usecase.ErrSlugTaken, Status: http.StatusConflict, Message: "a program with this title already exists"},
		}, http.StatusInternalServerError, "failed to update program")
		return
	}

	c.JSON(http.StatusOK, newProgramResponse(*program))
}

func (h *ProgramHandler) delete(c *gin.Context) {
	if err := h.catalog.DeleteProgram(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
		}, http.StatusInternalServerError, "failed to delete program")
		return
	}

	c.Status(http.StatusNoContent)
}
