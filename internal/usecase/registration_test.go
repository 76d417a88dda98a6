package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/infra/security"
)

type registrationAccountRepo struct {
	testAccountRepo
}

func (r *registrationAccountRepo) Create(ctx context.Context, account domain.Account) error {
	if r.accounts == nil {
		r.accounts = make(map[string]*domain.Account)
	}
	copied := account
	r.accounts[account.ID] = &copied
	return nil
}

func newTestRegistrationService(t *testing.T, repo *registrationAccountRepo, events *testEventPublisher) *RegistrationService {
	t.Helper()

	fingerprinter := security.NewFingerprinter("test-device-secret")
	auth := NewAuthService(testConfig(), repo, events, fingerprinter, security.NewJWTManager(createTestKeyProvider(t)), "v1")

	return NewRegistrationService(repo, events, auth, fingerprinter, security.DefaultPasswordValidator())
}

func TestRegisterBindsDeviceAndIssuesToken(t *testing.T) {
	repo := &registrationAccountRepo{}
	events := &testEventPublisher{}
	service := newTestRegistrationService(t, repo, events)

	result, err := service.Register(context.Background(), RegisterInput{
		Name:       "Siti Rahma",
		Username:   "sitirahma",
		Email:      "Siti@Example.com",
		University: "UI",
		Password:   testPassword,
		IP:         "203.0.113.10",
		UserAgent:  chromeUA,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if result.Token == "" {
		t.Fatal("registration should sign the client in")
	}
	if result.Account.Email != "siti@example.com" {
		t.Fatalf("email should be normalized, got %q", result.Account.Email)
	}
	if result.Account.Role != domain.RoleUser {
		t.Fatalf("new accounts get the user role, got %q", result.Account.Role)
	}
	if result.Account.PasswordHash != "" {
		t.Fatal("the password hash must not leave the service")
	}
	if result.Device.DeviceID == "" {
		t.Fatal("the registering device becomes the first binding")
	}

	stored, ok := repo.accounts[result.Account.ID]
	if !ok {
		t.Fatal("account was not persisted")
	}
	if stored.DeviceID == nil || *stored.DeviceID != result.Device.DeviceID {
		t.Fatal("persisted account should carry the binding")
	}
	if !stored.IsActive {
		t.Fatal("accounts are active immediately")
	}

	if len(events.registered) != 1 {
		t.Fatalf("expected one registration event, got %d", len(events.registered))
	}
	if events.registered[0].DeviceID != result.Device.DeviceID {
		t.Fatal("event should name the registering device")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service := newTestRegistrationService(t, &registrationAccountRepo{}, &testEventPublisher{})

	_, err := service.Register(context.Background(), RegisterInput{
		Name:      "Siti Rahma",
		Username:  "sitirahma",
		Email:     "siti@example.com",
		Password:  "password1",
		IP:        "203.0.113.10",
		UserAgent: chromeUA,
	})
	if !errors.Is(err, ErrPasswordPolicyViolation) {
		t.Fatalf("expected ErrPasswordPolicyViolation, got %v", err)
	}
}

func TestRegisterRequiresFields(t *testing.T) {
	service := newTestRegistrationService(t, &registrationAccountRepo{}, &testEventPublisher{})

	cases := []RegisterInput{
		{Username: "sitirahma", Email: "siti@example.com", Password: testPassword},
		{Name: "Siti", Email: "siti@example.com", Password: testPassword},
		{Name: "Siti", Username: "sitirahma", Password: testPassword},
		{Name: "Siti", Username: "sitirahma", Email: "siti@example.com"},
	}

	for _, input := range cases {
		if _, err := service.Register(context.Background(), input); err == nil {
			t.Fatalf("expected validation error for input %+v", input)
		}
	}
}
