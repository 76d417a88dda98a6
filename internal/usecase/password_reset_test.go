package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/security"
	"github.com/edukita/tryout-platform/internal/repository"
)

type testResetTokenRepo struct {
	tokens map[string]domain.PasswordResetToken
}

func newTestResetTokenRepo() *testResetTokenRepo {
	return &testResetTokenRepo{tokens: make(map[string]domain.PasswordResetToken)}
}

func (r *testResetTokenRepo) Replace(ctx context.Context, token domain.PasswordResetToken) error {
	r.tokens[token.Email] = token
	return nil
}

func (r *testResetTokenRepo) GetByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	token, ok := r.tokens[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &token, nil
}

func (r *testResetTokenRepo) DeleteByEmail(ctx context.Context, email string) error {
	delete(r.tokens, email)
	return nil
}

type captureMailer struct {
	sent []port.ResetMail
}

func (m *captureMailer) SendPasswordReset(ctx context.Context, mail port.ResetMail) error {
	m.sent = append(m.sent, mail)
	return nil
}

func newTestPasswordService(t *testing.T, repo *testAccountRepo, tokens *testResetTokenRepo, mailer *captureMailer, events *testEventPublisher) *PasswordService {
	t.Helper()

	cfg := testConfig()
	cfg.Reset = config.ResetSettings{
		TokenTTL: time.Hour,
		BaseURL:  "https://tryout.example.com/reset",
	}

	return NewPasswordService(cfg, repo, tokens, mailer, events)
}

func TestRequestResetMailsRawTokenStoresHash(t *testing.T) {
	account := newTestAccount(t)
	tokens := newTestResetTokenRepo()
	mailer := &captureMailer{}
	service := newTestPasswordService(t, newTestAccountRepo(account), tokens, mailer, &testEventPublisher{})

	if err := service.RequestReset(context.Background(), "Siti@Example.com"); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected one mail, got %d", len(mailer.sent))
	}
	mail := mailer.sent[0]
	if mail.To != "siti@example.com" {
		t.Fatalf("mail addressed to %q", mail.To)
	}
	if mail.RawToken == "" {
		t.Fatal("mail must carry the raw token")
	}

	stored, ok := tokens.tokens["siti@example.com"]
	if !ok {
		t.Fatal("token was not stored")
	}
	if stored.TokenHash == mail.RawToken {
		t.Fatal("the raw token must never be stored")
	}
	if stored.TokenHash != security.HashToken(mail.RawToken) {
		t.Fatal("stored hash should be the sha256 of the raw token")
	}
}

func TestRequestResetUnknownEmail(t *testing.T) {
	service := newTestPasswordService(t, newTestAccountRepo(), newTestResetTokenRepo(), &captureMailer{}, &testEventPublisher{})

	if err := service.RequestReset(context.Background(), "nobody@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestVerifyResetToken(t *testing.T) {
	account := newTestAccount(t)
	tokens := newTestResetTokenRepo()
	mailer := &captureMailer{}
	service := newTestPasswordService(t, newTestAccountRepo(account), tokens, mailer, &testEventPublisher{})

	if err := service.RequestReset(context.Background(), account.Email); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	raw := mailer.sent[0].RawToken

	if err := service.VerifyResetToken(context.Background(), account.Email, raw); err != nil {
		t.Fatalf("valid token should verify: %v", err)
	}

	if err := service.VerifyResetToken(context.Background(), account.Email, "wrong-token"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected ErrInvalidResetToken, got %v", err)
	}
	if err := service.VerifyResetToken(context.Background(), "other@example.com", raw); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("token is bound to its email, got %v", err)
	}

	service.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
	if err := service.VerifyResetToken(context.Background(), account.Email, raw); !errors.Is(err, ErrExpiredResetToken) {
		t.Fatalf("expected ErrExpiredResetToken, got %v", err)
	}
}

func TestResetPasswordClearsDeviceAndBurnsToken(t *testing.T) {
	account := newTestAccount(t)
	repo := newTestAccountRepo(account)
	tokens := newTestResetTokenRepo()
	mailer := &captureMailer{}
	events := &testEventPublisher{}
	service := newTestPasswordService(t, repo, tokens, mailer, events)

	auth := newTestAuthService(t, repo, events)
	if _, err := auth.Login(context.Background(), LoginInput{
		Handle: account.Username, Password: testPassword, IP: "203.0.113.10", UserAgent: chromeUA,
	}); err != nil {
		t.Fatalf("seed login: %v", err)
	}
	if account.DeviceID == nil {
		t.Fatal("seed login should bind a device")
	}

	if err := service.RequestReset(context.Background(), account.Email); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	raw := mailer.sent[0].RawToken

	newPassword := "brand-new-Passw0rd!44"
	if err := service.ResetPassword(context.Background(), account.Email, raw, newPassword); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if account.DeviceID != nil {
		t.Fatal("a completed reset must clear the device binding")
	}
	if _, ok := tokens.tokens[account.Email]; ok {
		t.Fatal("the token must be burned after use")
	}

	ok, err := security.VerifyPassword(newPassword, account.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password should verify, ok=%v err=%v", ok, err)
	}

	if len(events.resets) != 1 {
		t.Fatalf("expected one password-reset event, got %d", len(events.resets))
	}
	if !events.resets[0].DeviceCleared {
		t.Fatal("event should flag the cleared binding")
	}

	if err := service.ResetPassword(context.Background(), account.Email, raw, newPassword); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("a burned token must not be reusable, got %v", err)
	}
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	account := newTestAccount(t)
	tokens := newTestResetTokenRepo()
	mailer := &captureMailer{}
	service := newTestPasswordService(t, newTestAccountRepo(account), tokens, mailer, &testEventPublisher{})

	if err := service.RequestReset(context.Background(), account.Email); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	raw := mailer.sent[0].RawToken

	if err := service.ResetPassword(context.Background(), account.Email, raw, "12345678"); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestChangePasswordKeepsDeviceBinding(t *testing.T) {
	account := newTestAccount(t)
	repo := newTestAccountRepo(account)
	events := &testEventPublisher{}
	service := newTestPasswordService(t, repo, newTestResetTokenRepo(), &captureMailer{}, events)

	auth := newTestAuthService(t, repo, events)
	if _, err := auth.Login(context.Background(), LoginInput{
		Handle: account.Username, Password: testPassword, IP: "203.0.113.10", UserAgent: chromeUA,
	}); err != nil {
		t.Fatalf("seed login: %v", err)
	}

	newPassword := "even-Stronger#Secret_77"
	if err := service.ChangePassword(context.Background(), account.ID, testPassword, newPassword); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if account.DeviceID == nil {
		t.Fatal("changing a password must keep the current session's binding")
	}
	ok, err := security.VerifyPassword(newPassword, account.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("new password should verify, ok=%v err=%v", ok, err)
	}
}

func TestChangePasswordRejectsWrongCurrent(t *testing.T) {
	account := newTestAccount(t)
	service := newTestPasswordService(t, newTestAccountRepo(account), newTestResetTokenRepo(), &captureMailer{}, &testEventPublisher{})

	if err := service.ChangePassword(context.Background(), account.ID, "not-the-password", "even-Stronger#Secret_77"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := service.ChangePassword(context.Background(), account.ID, testPassword, testPassword); !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("reusing the current password should violate the policy, got %v", err)
	}
}
