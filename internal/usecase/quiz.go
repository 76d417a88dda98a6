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
	// ErrQuestionBankNotFound indicates the requested question bank does not exist.
	ErrQuestionBankNotFound = errors.New("question bank not found")
	// ErrQuestionNotFound indicates the requested question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
)

// QuizService manages question banks, questions, and answers.
type QuizService struct {
	banks    port.QuestionBankRepository
	programs port.ProgramRepository
	now      func() time.Time
}

// NewQuizService constructs a quiz service.
func NewQuizService(banks port.QuestionBankRepository, programs port.ProgramRepository) *QuizService {
	return &QuizService{
		banks:    banks,
		programs: programs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// QuestionBankInput carries the writable question bank fields.
type QuestionBankInput struct {
	ProgramID   string
	Title       string
	Description string
}

// CreateBank adds a question bank under a program.
func (s *QuizService) CreateBank(ctx context.Context, input QuestionBankInput) (*domain.QuestionBank, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	if _, err := s.programs.GetByID(ctx, input.ProgramID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("lookup program: %w", err)
	}

	now := s.now()
	bank := domain.QuestionBank{
		ID:          uuid.NewString(),
		ProgramID:   input.ProgramID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.banks.Create(ctx, bank); err != nil {
		return nil, fmt.Errorf("create question bank: %w", err)
	}

	return &bank, nil
}

// GetBank retrieves a question bank by id.
func (s *QuizService) GetBank(ctx context.Context, id string) (*domain.QuestionBank, error) {
	bank, err := s.banks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionBankNotFound
		}
		return nil, fmt.Errorf("lookup question bank: %w", err)
	}
	return bank, nil
}

// UpdateBank modifies a question bank's title and description.
func (s *QuizService) UpdateBank(ctx context.Context, id string, input QuestionBankInput) (*domain.QuestionBank, error) {
	bank, err := s.banks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionBankNotFound
		}
		return nil, fmt.Errorf("lookup question bank: %w", err)
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		bank.Title = title
	}
	if description := strings.TrimSpace(input.Description); description != "" {
		bank.Description = description
	}
	bank.UpdatedAt = s.now()

	if err := s.banks.Update(ctx, *bank); err != nil {
		return nil, fmt.Errorf("update question bank: %w", err)
	}

	return bank, nil
}

// DeleteBank removes a question bank.
func (s *QuizService) DeleteBank(ctx context.Context, id string) error {
	if err := s.banks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionBankNotFound
		}
		return fmt.Errorf("delete question bank: %w", err)
	}
	return nil
}

// ListBanks returns question banks matching the filter plus the unpaged total.
func (s *QuizService) ListBanks(ctx context.Context, filter port.QuestionBankFilter) ([]domain.QuestionBank, int, error) {
	banks, err := s.banks.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list question banks: %w", err)
	}

	total, err := s.banks.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count question banks: %w", err)
	}

	return banks, total, nil
}

// QuestionInput carries one question plus its answer options.
type QuestionInput struct {
	Content     string
	Explanation string
	Answers     []AnswerInput
}

// AnswerInput carries one answer option.
type AnswerInput struct {
	Content   string
	IsCorrect bool
}

// AddQuestion inserts a question with its answers into a bank. Exactly one
// answer must be marked correct.
func (s *QuizService) AddQuestion(ctx context.Context, bankID string, input QuestionInput) (*domain.Question, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, fmt.Errorf("question content is required")
	}
	if len(input.Answers) < 2 {
		return nil, fmt.Errorf("at least two answers are required")
	}

	correct := 0
	for _, answer := range input.Answers {
		if answer.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return nil, fmt.Errorf("exactly one answer must be correct")
	}

	if _, err := s.banks.GetByID(ctx, bankID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionBankNotFound
		}
		return nil, fmt.Errorf("lookup question bank: %w", err)
	}

	now := s.now()
	question := domain.Question{
		ID:             uuid.NewString(),
		QuestionBankID: bankID,
		Content:        content,
		Explanation:    strings.TrimSpace(input.Explanation),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.banks.CreateQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	for _, answer := range input.Answers {
		record := domain.Answer{
			ID:         uuid.NewString(),
			QuestionID: question.ID,
			Content:    strings.TrimSpace(answer.Content),
			IsCorrect:  answer.IsCorrect,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.banks.CreateAnswer(ctx, record); err != nil {
			return nil, fmt.Errorf("create answer: %w", err)
		}
	}

	return &question, nil
}

// ListQuestions returns a bank's questions with their answers attached.
func (s *QuizService) ListQuestions(ctx context.Context, bankID string) ([]domain.Question, map[string][]domain.Answer, error) {
	questions, err := s.banks.ListQuestions(ctx, bankID)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}

	answers := make(map[string][]domain.Answer, len(questions))
	for _, question := range questions {
		opts, err := s.banks.ListAnswers(ctx, question.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("list answers: %w", err)
		}
		answers[question.ID] = opts
	}

	return questions, answers, nil
}

// DeleteQuestion removes a question.
func (s *QuizService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.banks.DeleteQuestion(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}
