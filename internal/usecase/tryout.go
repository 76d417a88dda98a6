package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

var (
	// ErrTryoutNotFound indicates the requested tryout does not exist.
	ErrTryoutNotFound = errors.New("tryout not found")
	// ErrTryoutClosed indicates the tryout is outside its open window.
	ErrTryoutClosed = errors.New("tryout is not open")
	// ErrNotEnrolled indicates the account holds no active enrollment for the program.
	ErrNotEnrolled = errors.New("account is not enrolled in program")
)

// TryoutService manages timed exam instances.
type TryoutService struct {
	tryouts     port.TryoutRepository
	banks       port.QuestionBankRepository
	programs    port.ProgramRepository
	enrollments *EnrollmentService
	now         func() time.Time
}

// NewTryoutService constructs a tryout service.
func NewTryoutService(
	tryouts port.TryoutRepository,
	banks port.QuestionBankRepository,
	programs port.ProgramRepository,
	enrollments *EnrollmentService,
) *TryoutService {
	return &TryoutService{
		tryouts:     tryouts,
		banks:       banks,
		programs:    programs,
		enrollments: enrollments,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// TryoutInput carries the writable tryout fields.
type TryoutInput struct {
	ProgramID       string
	QuestionBankID  string
	Title           string
	DurationMinutes int
	StartsAt        *time.Time
	EndsAt          *time.Time
	IsActive        *bool
}

// Create adds a tryout built from an existing question bank.
func (s *TryoutService) Create(ctx context.Context, input TryoutInput) (*domain.Tryout, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.DurationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}

	if _, err := s.programs.GetByID(ctx, input.ProgramID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("lookup program: %w", err)
	}
	if _, err := s.banks.GetByID(ctx, input.QuestionBankID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionBankNotFound
		}
		return nil, fmt.Errorf("lookup question bank: %w", err)
	}

	now := s.now()
	tryout := domain.Tryout{
		ID:              uuid.NewString(),
		ProgramID:       input.ProgramID,
		QuestionBankID:  input.QuestionBankID,
		Title:           title,
		DurationMinutes: input.DurationMinutes,
		StartsAt:        input.StartsAt,
		EndsAt:          input.EndsAt,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.IsActive != nil {
		tryout.IsActive = *input.IsActive
	}

	if err := s.tryouts.Create(ctx, tryout); err != nil {
		return nil, fmt.Errorf("create tryout: %w", err)
	}

	return &tryout, nil
}

// Get retrieves a tryout by id.
func (s *TryoutService) Get(ctx context.Context, id string) (*domain.Tryout, error) {
	tryout, err := s.tryouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTryoutNotFound
		}
		return nil, fmt.Errorf("lookup tryout: %w", err)
	}
	return tryout, nil
}

// Update modifies a tryout.
func (s *TryoutService) Update(ctx context.Context, id string, input TryoutInput) (*domain.Tryout, error) {
	tryout, err := s.tryouts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTryoutNotFound
		}
		return nil, fmt.Errorf("lookup tryout: %w", err)
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		tryout.Title = title
	}
	if input.QuestionBankID != "" && input.QuestionBankID != tryout.QuestionBankID {
		if _, err := s.banks.GetByID(ctx, input.QuestionBankID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrQuestionBankNotFound
			}
			return nil, fmt.Errorf("lookup question bank: %w", err)
		}
		tryout.QuestionBankID = input.QuestionBankID
	}
	if input.DurationMinutes > 0 {
		tryout.DurationMinutes = input.DurationMinutes
	}
	if input.StartsAt != nil {
		tryout.StartsAt = input.StartsAt
	}
	if input.EndsAt != nil {
		tryout.EndsAt = input.EndsAt
	}
	if input.IsActive != nil {
		tryout.IsActive = *input.IsActive
	}
	if tryout.StartsAt != nil && tryout.EndsAt != nil && tryout.EndsAt.Before(*tryout.StartsAt) {
		return nil, fmt.Errorf("ends_at must be after starts_at")
	}
	tryout.UpdatedAt = s.now()

	if err := s.tryouts.Update(ctx, *tryout); err != nil {
		return nil, fmt.Errorf("update tryout: %w", err)
	}

	return tryout, nil
}

// Delete removes a tryout.
func (s *TryoutService) Delete(ctx context.Context, id string) error {
	if err := s.tryouts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTryoutNotFound
		}
		return fmt.Errorf("delete tryout: %w", err)
	}
	return nil
}

// List returns tryouts matching the filter plus the unpaged total.
func (s *TryoutService) List(ctx context.Context, filter port.TryoutFilter) ([]domain.Tryout, int, error) {
	tryouts, err := s.tryouts.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tryouts: %w", err)
	}

	total, err := s.tryouts.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tryouts: %w", err)
	}

	return tryouts, total, nil
}

// Start verifies the caller may take the tryout right now and returns its
// questions with answers. Correctness flags are preserved for grading on the
// client side of the admin preview; participant handlers strip them.
func (s *TryoutService) Start(ctx context.Context, accountID, tryoutID string) (*domain.Tryout, []domain.Question, map[string][]domain.Answer, error) {
	tryout, err := s.Get(ctx, tryoutID)
	if err != nil {
		return nil, nil, nil, err
	}

	if !tryout.OpenAt(s.now()) {
		return nil, nil, nil, ErrTryoutClosed
	}

	enrolled, err := s.enrollments.HasActiveEnrollment(ctx, accountID, tryout.ProgramID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !enrolled {
		return nil, nil, nil, ErrNotEnrolled
	}

	questions, err := s.banks.ListQuestions(ctx, tryout.QuestionBankID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list questions: %w", err)
	}

	answers := make(map[string][]domain.Answer, len(questions))
	for _, question := range questions {
		opts, err := s.banks.ListAnswers(ctx, question.ID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("list answers: %w", err)
		}
		answers[question.ID] = opts
	}

	return tryout, questions, answers, nil
}
