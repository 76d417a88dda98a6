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
	// ErrProgramNotFound indicates the requested program does not exist.
	ErrProgramNotFound = errors.New("program not found")
	// ErrSlugTaken indicates another program already owns the derived slug.
	ErrSlugTaken = errors.New("program slug already in use")
)

// CatalogService manages the program catalog.
type CatalogService struct {
	programs port.ProgramRepository
	now      func() time.Time
}

// NewCatalogService constructs a catalog service.
func NewCatalogService(programs port.ProgramRepository) *CatalogService {
	return &CatalogService{
		programs: programs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ProgramInput carries the writable program fields.
type ProgramInput struct {
	Title       string
	Description string
	Price       float64
	IsActive    *bool
	Images      []string
}

// CreateProgram adds a program to the catalog, deriving a unique slug from the title.
func (s *CatalogService) CreateProgram(ctx context.Context, input ProgramInput) (*domain.Program, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if input.Price < 0 {
		return nil, fmt.Errorf("price must not be negative")
	}

	slug := domain.Slugify(title)
	taken, err := s.programs.SlugExists(ctx, slug, "")
	if err != nil {
		return nil, fmt.Errorf("check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	now := s.now()
	program := domain.Program{
		ID:          uuid.NewString(),
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		IsActive:    true,
		Images:      input.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.IsActive != nil {
		program.IsActive = *input.IsActive
	}

	if err := s.programs.Create(ctx, program); err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}

	return &program, nil
}

// GetProgram retrieves a program by id.
func (s *CatalogService) GetProgram(ctx context.Context, id string) (*domain.Program, error) {
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("lookup program: %w", err)
	}
	return program, nil
}

// GetProgramBySlug retrieves a program by slug.
func (s *CatalogService) GetProgramBySlug(ctx context.Context, slug string) (*domain.Program, error) {
	program, err := s.programs.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("lookup program: %w", err)
	}
	return program, nil
}

// UpdateProgram modifies a program; a title change re-derives the slug.
func (s *CatalogService) UpdateProgram(ctx context.Context, id string, input ProgramInput) (*domain.Program, error) {
	program, err := s.programs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("lookup program: %w", err)
	}

	if title := strings.TrimSpace(input.Title); title != "" && title != program.Title {
		slug := domain.Slugify(title)
		taken, err := s.programs.SlugExists(ctx, slug, program.ID)
		if err != nil {
			return nil, fmt.Errorf("check slug: %w", err)
		}
		if taken {
			return nil, ErrSlugTaken
		}
		program.Title = title
		program.Slug = slug
	}

	if description := strings.TrimSpace(input.Description); description != "" {
		program.Description = description
	}
	if input.Price >= 0 {
		program.Price = input.Price
	}
	if input.IsActive != nil {
		program.IsActive = *input.IsActive
	}
	if input.Images != nil {
		program.Images = input.Images
	}
	program.UpdatedAt = s.now()

	if err := s.programs.Update(ctx, *program); err != nil {
		return nil, fmt.Errorf("update program: %w", err)
	}

	return program, nil
}

// DeleteProgram removes a program from the catalog.
func (s *CatalogService) DeleteProgram(ctx context.Context, id string) error {
	if err := s.programs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProgramNotFound
		}
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

// ListPrograms returns programs matching the filter plus the unpaged total.
func (s *CatalogService) ListPrograms(ctx context.Context, filter port.ProgramFilter) ([]domain.Program, int, error) {
	programs, err := s.programs.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list programs: %w", err)
	}

	total, err := s.programs.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count programs: %w", err)
	}

	return programs, total, nil
}
