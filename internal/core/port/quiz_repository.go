package port

import (
	"context"

	"github.com/edukita/tryout-platform/internal/core/domain"
)

// QuestionBankFilter narrows question bank listings.
type QuestionBankFilter struct {
	ProgramID string
	Limit     int
	Offset    int
}

// QuestionBankRepository exposes persistence behavior for question banks and
// their questions and answers.
type QuestionBankRepository interface {
	Create(ctx context.Context, bank domain.QuestionBank) error
	GetByID(ctx context.Context, id string) (*domain.QuestionBank, error)
	Update(ctx context.Context, bank domain.QuestionBank) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter QuestionBankFilter) ([]domain.QuestionBank, error)
	Count(ctx context.Context, filter QuestionBankFilter) (int, error)

	CreateQuestion(ctx context.Context, question domain.Question) error
	ListQuestions(ctx context.Context, bankID string) ([]domain.Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	CreateAnswer(ctx context.Context, answer domain.Answer) error
	ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error)
}

// TryoutFilter narrows tryout listings.
type TryoutFilter struct {
	ProgramID string
	IsActive  *bool
	Limit     int
	Offset    int
}

// TryoutRepository exposes persistence behavior for tryouts.
type TryoutRepository interface {
	Create(ctx context.Context, tryout domain.Tryout) error
	GetByID(ctx context.Context, id string) (*domain.Tryout, error)
	Update(ctx context.Context, tryout domain.Tryout) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TryoutFilter) ([]domain.Tryout, error)
	Count(ctx context.Context, filter TryoutFilter) (int, error)
}
