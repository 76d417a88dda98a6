package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/usecase"
)

// QuestionBankHandler exposes administrative question bank management.
type QuestionBankHandler struct {
	quiz *usecase.QuizService
}

// NewQuestionBankHandler constructs QuestionBankHandler.
func NewQuestionBankHandler(quiz *usecase.QuizService) *QuestionBankHandler {
	return &QuestionBankHandler{quiz: quiz}
}

// RegisterRoutes binds question bank reads on the authenticated group and
// mutations on the admin group.
func (h *QuestionBankHandler) RegisterRoutes(authed, admin *gin.RouterGroup) {
	authed.GET("/question-banks", h.list)
	authed.GET("/question-banks/:id", h.get)
	authed.GET("/question-banks/:id/questions", h.listQuestions)

	admin.POST("/question-banks", h.create)
	admin.PUT("/question-banks/:id", h.update)
	admin.DELETE("/question-banks/:id", h.delete)
	admin.POST("/question-banks/:id/questions", h.addQuestion)
	admin.DELETE("/questions/:id", h.deleteQuestion)
}

func (h *QuestionBankHandler) create(c *gin.Context) {
	var req QuestionBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid question bank payload"))
		return
	}

	bank, err := h.quiz.CreateBank(c.Request.Context(), usecase.QuestionBankInput{
		ProgramID:   strings.TrimSpace(req.ProgramID),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrProgramNotFound, Status: http.StatusNotFound, Message: "program not found"},
		}, http.StatusInternalServerError, "failed to create question bank")
		return
	}

	c.JSON(http.StatusCreated, newQuestionBankResponse(*bank))
}

func (h *QuestionBankHandler) list(c *gin.Context) {
	page, perPage := pageQuery(c)
	filter := port.QuestionBankFilter{
		ProgramID: strings.TrimSpace(c.Query("program_id")),
		Limit:     perPage,
		Offset:    (page - 1) * perPage,
	}

	banks, total, err := h.quiz.ListBanks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list question banks"))
		return
	}

	items := make([]QuestionBankResponse, 0, len(banks))
	for _, bank := range banks {
		items = append(items, newQuestionBankResponse(bank))
	}

	c.JSON(http.StatusOK, ListResponse[QuestionBankResponse]{
		Items: items,
		Meta:  ListMeta{Total: total, Page: page, PerPage: perPage},
	})
}

func (h *QuestionBankHandler) get(c *gin.Context) {
	bank, err := h.quiz.GetBank(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusInternalServerError, "failed to load question bank")
		return
	}

	c.JSON(http.StatusOK, newQuestionBankResponse(*bank))
}

func (h *QuestionBankHandler) update(c *gin.Context) {
	var req QuestionBankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid question bank payload"))
		return
	}

	bank, err := h.quiz.UpdateBank(c.Request.Context(), c.Param("id"), usecase.QuestionBankInput{
		ProgramID:   strings.TrimSpace(req.ProgramID),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusInternalServerError, "failed to update question bank")
		return
	}

	c.JSON(http.StatusOK, newQuestionBankResponse(*bank))
}

func (h *QuestionBankHandler) delete(c *gin.Context) {
	if err := h.quiz.DeleteBank(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusInternalServerError, "failed to delete question bank")
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *QuestionBankHandler) addQuestion(c *gin.Context) {
	var req QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid question payload"))
		return
	}

	input := usecase.QuestionInput{
		Content:     strings.TrimSpace(req.Content),
		Explanation: req.Explanation,
		Answers:     make([]usecase.AnswerInput, 0, len(req.Answers)),
	}
	for _, answer := range req.Answers {
		input.Answers = append(input.Answers, usecase.AnswerInput{
			Content:   strings.TrimSpace(answer.Content),
			IsCorrect: answer.IsCorrect,
		})
	}

	question, err := h.quiz.AddQuestion(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusBadRequest, "invalid question")
		return
	}

	c.JSON(http.StatusCreated, QuestionResponse{
		ID:          question.ID,
		Content:     question.Content,
		Explanation: question.Explanation,
	})
}

func (h *QuestionBankHandler) listQuestions(c *gin.Context) {
	questions, answers, err := h.quiz.ListQuestions(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrQuestionBankNotFound, Status: http.StatusNotFound, Message: "question bank not found"},
		}, http.StatusInternalServerError, "failed to list questions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": newQuestionResponses(questions, answers, true),
	})
}

func (h *QuestionBankHandler) deleteQuestion(c *gin.Context) {
	if err := h.quiz.DeleteQuestion(c.Request.Context(), c.Param("id")); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrQuestionNotFound, Status: http.StatusNotFound, Message: "question not found"},
		}, http.StatusInternalServerError, "failed to delete question")
		return
	}

	c.Status(http.StatusNoContent)
}
