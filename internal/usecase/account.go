package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/repository"
)

// AccountService exposes profile reads and updates.
type AccountService struct {
	accounts port.AccountRepository
	now      func() time.Time
}

// NewAccountService constructs an account service.
func NewAccountService(accounts port.AccountRepository) *AccountService {
	return &AccountService{
		accounts: accounts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the account without its password hash.
func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	if id == "" {
		return nil, fmt.Errorf("account id is required")
	}

	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	account.PasswordHash = ""
	return account, nil
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Name         string
	University   string
	Phone        string
	ProfileImage *string
}

// UpdateProfile modifies the account's profile fields and returns the result.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, input UpdateProfileInput) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		account.Name = name
	}
	if university := strings.TrimSpace(input.University); university != "" {
		account.University = university
	}
	if phone := strings.TrimSpace(input.Phone); phone != "" {
		account.Phone = phone
	}
	if input.ProfileImage != nil {
		account.ProfileImage = input.ProfileImage
	}
	account.UpdatedAt = s.now()

	if err := s.accounts.UpdateProfile(ctx, *account); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	account.PasswordHash = ""
	return account, nil
}

// List returns accounts matching the filter plus the unpaged total.
func (s *AccountService) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, int, error) {
	accounts, err := s.accounts.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	total, err := s.accounts.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	for i := range accounts {
		accounts[i].PasswordHash = ""
	}

	return accounts, total, nil
}
