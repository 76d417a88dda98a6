package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/security"
	"github.com/edukita/tryout-platform/internal/repository"
)

const resetTokenBytes = 32

var (
	// ErrAccountNotFound indicates no account exists for the given email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidResetToken indicates the reset token does not match the stored one.
	ErrInvalidResetToken = errors.New("invalid reset token")
	// ErrExpiredResetToken indicates the reset token has outlived its TTL.
	ErrExpiredResetToken = errors.New("reset token expired")
)

// PasswordService handles forgotten and changed passwords. A completed reset
// clears the account's device binding so every device must sign in again.
type PasswordService struct {
	cfg      *config.AppConfig
	accounts port.AccountRepository
	tokens   port.ResetTokenRepository
	mailer   port.Mailer
	events   port.EventPublisher
	now      func() time.Time
}

// NewPasswordService constructs a password service.
func NewPasswordService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	tokens port.ResetTokenRepository,
	mailer port.Mailer,
	events port.EventPublisher,
) *PasswordService {
	return &PasswordService{
		cfg:      cfg,
		accounts: accounts,
		tokens:   tokens,
		mailer:   mailer,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RequestReset issues a fresh reset token for the email and mails the link.
// Any previous token for the address is discarded.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	raw, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	token := domain.PasswordResetToken{
		Email:     email,
		TokenHash: security.HashToken(raw),
		CreatedAt: s.now(),
	}

	if err := s.tokens.Replace(ctx, token); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, port.ResetMail{
		To:       email,
		Name:     account.Name,
		RawToken: raw,
		ResetURL: s.cfg.Reset.BaseURL,
	}); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	return nil
}

// VerifyResetToken checks a raw token against the stored hash for the email.
func (s *PasswordService) VerifyResetToken(ctx context.Context, email, rawToken string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || rawToken == "" {
		return ErrInvalidResetToken
	}

	token, err := s.tokens.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	hashed := security.HashToken(rawToken)
	if subtle.ConstantTimeCompare([]byte(hashed), []byte(token.TokenHash)) != 1 {
		return ErrInvalidResetToken
	}

	if token.Expired(s.tokenTTL(), s.now()) {
		return ErrExpiredResetToken
	}

	return nil
}

// ResetPassword completes the reset flow: verifies the token, stores the new
// password, clears the device binding, and burns the token.
func (s *PasswordService) ResetPassword(ctx context.Context, email, rawToken, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := s.VerifyResetToken(ctx, email, rawToken); err != nil {
		return err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	validator := security.NewPasswordValidatorWithContext(account.Username, account.Email)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if err := s.accounts.UpdatePassword(ctx, account.ID, passwordHash, now); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.accounts.ClearDevice(ctx, account.ID, now); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clear device: %w", err)
	}

	if err := s.tokens.DeleteByEmail(ctx, email); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}

	if s.events != nil {
		_ = s.events.PublishPasswordReset(ctx, domain.PasswordResetEvent{
			AccountID:     account.ID,
			Email:         account.Email,
			ResetAt:       now,
			DeviceCleared: true,
		})
	}

	return nil
}

// ChangePassword replaces the password for a signed-in account. The device
// binding is kept, so the current session stays valid.
func (s *PasswordService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	validator := security.NewPasswordValidator(
		security.RequireDifferentFrom(currentPassword),
	)
	if err := validator.Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}
	if err := security.NewPasswordValidatorWithContext(account.Username, account.Email).Validate(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, accountID, passwordHash, s.now()); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (s *PasswordService) tokenTTL() time.Duration {
	if s.cfg.Reset.TokenTTL > 0 {
		return s.cfg.Reset.TokenTTL
	}
	return time.Hour
}
