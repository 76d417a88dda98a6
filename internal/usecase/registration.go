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
	"github.com/edukita/tryout-platform/internal/infra/security"
)

// ErrPasswordPolicyViolation indicates the password does not satisfy complexity requirements.
var ErrPasswordPolicyViolation = errors.New("password does not meet complexity requirements")

// RegistrationService handles new account onboarding. Accounts are active
// immediately, and the registering device becomes the first binding.
type RegistrationService struct {
	accounts          port.AccountRepository
	events            port.EventPublisher
	auth              *AuthService
	fingerprinter     *security.Fingerprinter
	passwordValidator *security.PasswordValidator
	now               func() time.Time
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(
	accounts port.AccountRepository,
	events port.EventPublisher,
	auth *AuthService,
	fingerprinter *security.Fingerprinter,
	validator *security.PasswordValidator,
) *RegistrationService {
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}
	return &RegistrationService{
		accounts:          accounts,
		events:            events,
		auth:              auth,
		fingerprinter:     fingerprinter,
		passwordValidator: validator,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// RegisterInput carries the signup form plus the request metadata used for the
// initial device binding.
type RegisterInput struct {
	Name       string
	Username   string
	Email      string
	University string
	Phone      string
	Password   string
	IP         string
	UserAgent  string
}

// Register creates an account, binds the registering device, and issues an
// access token so the client is signed in immediately.
func (s *RegistrationService) Register(ctx context.Context, input RegisterInput) (*LoginResult, error) {
	name := strings.TrimSpace(input.Name)
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	password := input.Password

	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	fingerprint := s.fingerprinter.Fingerprint(input.UserAgent, input.IP)
	deviceName := security.Classify(input.UserAgent)

	account := domain.Account{
		ID:            uuid.NewString(),
		Name:          name,
		Username:      username,
		Email:         email,
		University:    strings.TrimSpace(input.University),
		Phone:         strings.TrimSpace(input.Phone),
		Role:          domain.RoleUser,
		PasswordHash:  passwordHash,
		IsActive:      true,
		DeviceID:      &fingerprint,
		DeviceName:    &deviceName,
		LastLoginAt:   &now,
		LastLoginIP:   &input.IP,
		LastUserAgent: &input.UserAgent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.PublishAccountRegistered(ctx, domain.AccountRegisteredEvent{
			AccountID:    account.ID,
			Username:     account.Username,
			Email:        account.Email,
			DeviceID:     fingerprint,
			DeviceName:   deviceName,
			RegisteredAt: now,
		})
	}

	token, err := s.auth.IssueToken(account, fingerprint)
	if err != nil {
		return nil, err
	}

	account.PasswordHash = ""

	return &LoginResult{
		Token:   token,
		Account: account,
		Device: domain.DeviceBinding{
			DeviceID:    fingerprint,
			DeviceName:  deviceName,
			LastLoginAt: now,
			LastLoginIP: input.IP,
			UserAgent:   input.UserAgent,
		},
	}, nil
}
