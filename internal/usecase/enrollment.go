package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	uuid "github.com/google/uuid"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

var (
	// ErrAlreadyEnrolled indicates the account holds an enrollment for the program.
	ErrAlreadyEnrolled = errors.New("account already enrolled in program")
	// ErrEnrollmentNotFound indicates the requested enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// EnrollmentService links accounts to catalog programs.
type EnrollmentService struct {
	enrollments port.EnrollmentRepository
	programs    port.ProgramRepository
	now         func() time.Time
}

// NewEnrollmentService constructs an enrollment service.
func NewEnrollmentService(enrollments port.EnrollmentRepository, programs port.ProgramRepository) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		programs:    programs,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Enroll signs the account up for a program. Free programs are activated and
// marked paid immediately; paid programs start inactive until payment lands.
func (s *EnrollmentService) Enroll(ctx context.Context, accountID, programID string) (*domain.Enrollment, error) {
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}

	program, err := s.programs.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("lookup program: %w", err)
	}

	if _, err := s.enrollments.GetByAccountAndProgram(ctx, accountID, programID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup enrollment: %w", err)
	}

	now := s.now()
	enrollment := domain.Enrollment{
		ID:        uuid.NewString(),
		AccountID: accountID,
		ProgramID: programID,
		IsActive:  program.IsFree(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if program.IsFree() {
		enrollment.PaidAt = &now
	}

	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	return &enrollment, nil
}

// MarkPaid records a completed payment and activates the enrollment.
func (s *EnrollmentService) MarkPaid(ctx context.Context, id string) (*domain.Enrollment, error) {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("lookup enrollment: %w", err)
	}

	now := s.now()
	enrollment.IsActive = true
	enrollment.PaidAt = &now
	enrollment.UpdatedAt = now

	if err := s.enrollments.Update(ctx, *enrollment); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}

	return enrollment, nil
}

// Deactivate switches an enrollment off without deleting its history.
func (s *EnrollmentService) Deactivate(ctx context.Context, id string) error {
	enrollment, err := s.enrollments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEnrollmentNotFound
		}
		return fmt.Errorf("lookup enrollment: %w", err)
	}

	enrollment.IsActive = false
	enrollment.UpdatedAt = s.now()

	if err := s.enrollments.Update(ctx, *enrollment); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}

	return nil
}

// ListByAccount returns an account's enrollments plus the unpaged total.
func (s *EnrollmentService) ListByAccount(ctx context.Context, accountID string, filter port.EnrollmentFilter) ([]domain.Enrollment, int, error) {
	filter.AccountID = accountID

	enrollments, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	total, err := s.enrollments.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}

	return enrollments, total, nil
}

// HasActiveEnrollment reports whether the account actively holds the program.
func (s *EnrollmentService) HasActiveEnrollment(ctx context.Context, accountID, programID string) (bool, error) {
	enrollment, err := s.enrollments.GetByAccountAndProgram(ctx, accountID, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("lookup enrollment: %w", err)
	}

	return enrollment.IsActive, nil
}
