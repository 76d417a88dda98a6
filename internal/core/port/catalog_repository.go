package port

import (
	"context"

	"github.com/edukita/tryout-platform/internal/core/domain"
)

// ProgramFilter narrows program listings.
type ProgramFilter struct {
	Search   string
	IsActive *bool
	Limit    int
	Offset   int
}

// ProgramRepository exposes persistence behavior for catalog programs.
type ProgramRepository interface {
	Create(ctx context.Context, program domain.Program) error
	GetByID(ctx context.Context, id string) (*domain.Program, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Program, error)
	SlugExists(ctx context.Context, slug string, excludeID string) (bool, error)
	Update(ctx context.Context, program domain.Program) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ProgramFilter) ([]domain.Program, error)
	Count(ctx context.Context, filter ProgramFilter) (int, error)
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	AccountID string
	ProgramID string
	IsActive  *bool
	Limit     int
	Offset    int
}

// EnrollmentRepository exposes persistence behavior for enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment domain.Enrollment) error
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
	GetByAccountAndProgram(ctx context.Context, accountID, programID string) (*domain.Enrollment, error)
	Update(ctx context.Context, enrollment domain.Enrollment) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter EnrollmentFilter) ([]domain.Enrollment, error)
	Count(ctx context.Context, filter EnrollmentFilter) (int, error)
}
