package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/transport/http/middleware"
)

// ErrorResponse is the uniform error payload. Code carries a machine-readable
// identifier for clients that branch on specific failures, and Data holds
// failure-specific context such as the registered device on a login conflict.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// NewErrorResponse builds an error payload enriched with the request trace id.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		TraceID: middleware.GetTraceID(c),
	}
}

// NewCodedErrorResponse builds an error payload with a machine-readable code.
func NewCodedErrorResponse(c *gin.Context, code, message string) ErrorResponse {
	return ErrorResponse{
		Error:   message,
		Code:    code,
		TraceID: middleware.GetTraceID(c),
	}
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required"`
	University string `json:"university"`
	Phone      string `json:"phone"`
	Password   string `json:"password" binding:"required"`
}

// LoginRequest is the credential payload shared by login, force-login, and
// logout-other-device.
type LoginRequest struct {
	Handle   string `json:"handle" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AccountSummary is the public representation of an account.
type AccountSummary struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	University   string  `json:"university,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Role         string  `json:"role"`
	ProfileImage *string `json:"profile_image,omitempty"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
}

// DeviceSummary describes the device binding holding an account's session.
type DeviceSummary struct {
	DeviceID    string `json:"device_id"`
	DeviceName  string `json:"device_name"`
	LastLoginAt string `json:"last_login_at"`
	LastLoginIP string `json:"last_login_ip,omitempty"`
}

// LoginResponse is returned on every successful sign-in flow.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int            `json:"expires_in"`
	Account     AccountSummary `json:"account"`
	Device      DeviceSummary  `json:"device"`
}

// DeviceConflictData accompanies the DEVICE_ALREADY_LOGGED_IN error so clients
// can display the registered device and offer recovery actions.
type DeviceConflictData struct {
	RegisteredDevice DeviceSummary `json:"registered_device"`
	Actions          []string      `json:"actions"`
}

// ProfileUpdateRequest carries editable profile fields.
type ProfileUpdateRequest struct {
	Name         string  `json:"name"`
	University   string  `json:"university"`
	Phone        string  `json:"phone"`
	ProfileImage *string `json:"profile_image"`
}

// PasswordChangeRequest is the payload for an authenticated password change.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ForgotPasswordRequest initiates the reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// VerifyResetTokenRequest checks a reset token without consuming it.
type VerifyResetTokenRequest struct {
	Email string `json:"email" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// ResetPasswordRequest completes the reset flow.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// MessageResponse wraps a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProgramRequest carries writable program fields.
type ProgramRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	IsActive    *bool    `json:"is_active"`
	Images      []string `json:"images"`
}

// ProgramResponse is the public representation of a program.
type ProgramResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	IsActive    bool     `json:"is_active"`
	Images      []string `json:"images,omitempty"`
	CreatedAt   string   `json:"created_at"`
}

// EnrollRequest signs the caller up for a program.
type EnrollRequest struct {
	ProgramID string `json:"program_id" binding:"required"`
}

// EnrollmentResponse is the public representation of an enrollment.
type EnrollmentResponse struct {
	ID        string  `json:"id"`
	AccountID string  `json:"account_id"`
	ProgramID string  `json:"program_id"`
	Status    string  `json:"status"`
	PaidAt    *string `json:"paid_at,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// QuestionBankRequest carries writable question bank fields.
type QuestionBankRequest struct {
	ProgramID   string `json:"program_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// QuestionBankResponse is the public representation of a question bank.
type QuestionBankResponse struct {
	ID          string `json:"id"`
	ProgramID   string `json:"program_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// AnswerRequest is one option of a new question.
type AnswerRequest struct {
	Content   string `json:"content" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
}

// QuestionRequest adds a question with its answers to a bank.
type QuestionRequest struct {
	Content     string          `json:"content" binding:"required"`
	Explanation string          `json:"explanation"`
	Answers     []AnswerRequest `json:"answers" binding:"required"`
}

// AnswerResponse is one option of a question. Correctness is only included
// for administrative reads.
type AnswerResponse struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

// QuestionResponse is a question with its options.
type QuestionResponse struct {
	ID          string           `json:"id"`
	Content     string           `json:"content"`
	Explanation string           `json:"explanation,omitempty"`
	Answers     []AnswerResponse `json:"answers"`
}

// TryoutRequest carries writable tryout fields.
type TryoutRequest struct {
	ProgramID       string     `json:"program_id" binding:"required"`
	QuestionBankID  string     `json:"question_bank_id" binding:"required"`
	Title           string     `json:"title" binding:"required"`
	DurationMinutes int        `json:"duration_minutes" binding:"required"`
	StartsAt        *time.Time `json:"starts_at"`
	EndsAt          *time.Time `json:"ends_at"`
	IsActive        *bool      `json:"is_active"`
}

// TryoutResponse is the public representation of a tryout.
type TryoutResponse struct {
	ID              string  `json:"id"`
	ProgramID       string  `json:"program_id"`
	QuestionBankID  string  `json:"question_bank_id"`
	Title           string  `json:"title"`
	DurationMinutes int     `json:"duration_minutes"`
	StartsAt        *string `json:"starts_at,omitempty"`
	EndsAt          *string `json:"ends_at,omitempty"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at"`
}

// TryoutStartResponse hands the participant the exam paper.
type TryoutStartResponse struct {
	Tryout    TryoutResponse     `json:"tryout"`
	Questions []QuestionResponse `json:"questions"`
}

// ListMeta reports paging information for collection responses.
type ListMeta struct {
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// ListResponse wraps a collection with its paging metadata.
type ListResponse[T any] struct {
	Items []T      `json:"items"`
	Meta  ListMeta `json:"meta"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func newAccountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:           account.ID,
		Name:         account.Name,
		Username:     account.Username,
		Email:        account.Email,
		University:   account.University,
		Phone:        account.Phone,
		Role:         string(account.Role),
		ProfileImage: account.ProfileImage,
		IsActive:     account.IsActive,
		CreatedAt:    account.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newDeviceSummary(binding domain.DeviceBinding) DeviceSummary {
	return DeviceSummary{
		DeviceID:    binding.DeviceID,
		DeviceName:  binding.DeviceName,
		LastLoginAt: binding.LastLoginAt.UTC().Format(time.RFC3339),
		LastLoginIP: binding.LastLoginIP,
	}
}

func newProgramResponse(program domain.Program) ProgramResponse {
	return ProgramResponse{
		ID:          program.ID,
		Title:       program.Title,
		Slug:        program.Slug,
		Description: program.Description,
		Price:       program.Price,
		IsActive:    program.IsActive,
		Images:      program.Images,
		CreatedAt:   program.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newEnrollmentResponse(enrollment domain.Enrollment) EnrollmentResponse {
	resp := EnrollmentResponse{
		ID:        enrollment.ID,
		AccountID: enrollment.AccountID,
		ProgramID: enrollment.ProgramID,
		Status:    enrollment.Status(),
		CreatedAt: enrollment.CreatedAt.UTC().Format(time.RFC3339),
	}
	if enrollment.PaidAt != nil {
		paidAt := enrollment.PaidAt.UTC().Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}

func newQuestionBankResponse(bank domain.QuestionBank) QuestionBankResponse {
	return QuestionBankResponse{
		ID:          bank.ID,
		ProgramID:   bank.ProgramID,
		Title:       bank.Title,
		Description: bank.Description,
		CreatedAt:   bank.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newTryoutResponse(tryout domain.Tryout) TryoutResponse {
	resp := TryoutResponse{
		ID:              tryout.ID,
		ProgramID:       tryout.ProgramID,
		QuestionBankID:  tryout.QuestionBankID,
		Title:           tryout.Title,
		DurationMinutes: tryout.DurationMinutes,
		IsActive:        tryout.IsActive,
		CreatedAt:       tryout.CreatedAt.UTC().Format(time.RFC3339),
	}
	if tryout.StartsAt != nil {
		startsAt := tryout.StartsAt.UTC().Format(time.RFC3339)
		resp.StartsAt = &startsAt
	}
	if tryout.EndsAt != nil {
		endsAt := tryout.EndsAt.UTC().Format(time.RFC3339)
		resp.EndsAt = &endsAt
	}
	return resp
}

func newQuestionResponses(questions []domain.Question, answers map[string][]domain.Answer, includeCorrect bool) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for _, question := range questions {
		resp := QuestionResponse{
			ID:          question.ID,
			Content:     question.Content,
			Explanation: question.Explanation,
			Answers:     make([]AnswerResponse, 0, len(answers[question.ID])),
		}
		for _, answer := range answers[question.ID] {
			option := AnswerResponse{
				ID:      answer.ID,
				Content: answer.Content,
			}
			if includeCorrect {
				correct := answer.IsCorrect
				option.IsCorrect = &correct
			}
			resp.Answers = append(resp.Answers, option)
		}
		out = append(out, resp)
	}
	return out
}
