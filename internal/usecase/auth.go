package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/security"
	"github.com/edukita/tryout-platform/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided handle or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
	// ErrInvalidAccessToken indicates the provided access token is malformed or signature validation failed.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates the provided access token has expired.
	ErrExpiredAccessToken = errors.New("access token expired")
)

// DeviceConflictError signals a login attempt from a device other than the one
// currently bound to the account. It carries the registered binding so callers
// can show the user which device holds the session.
type DeviceConflictError struct {
	Registered domain.DeviceBinding
}

func (e *DeviceConflictError) Error() string {
	return "account is already logged in on another device"
}

// DeviceMismatchError signals a guarded request from a device that no longer
// matches the stored binding. It carries both device labels and the binding's
// last-login metadata so clients can tell the user where the session lives.
type DeviceMismatchError struct {
	RegisteredName string
	RequestName    string
	LastLoginAt    *time.Time
	LastLoginIP    string
}

func (e *DeviceMismatchError) Error() string {
	return "request device does not match the registered device"
}

// AuthService coordinates login, device binding, and token issuance.
type AuthService struct {
	cfg           *config.AppConfig
	accounts      port.AccountRepository
	events        port.EventPublisher
	fingerprinter *security.Fingerprinter
	jwtManager    *security.JWTManager
	kid           string
	now           func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(
	cfg *config.AppConfig,
	accounts port.AccountRepository,
	events port.EventPublisher,
	fingerprinter *security.Fingerprinter,
	jwtManager *security.JWTManager,
	kid string,
) *AuthService {
	return &AuthService{
		cfg:           cfg,
		accounts:      accounts,
		events:        events,
		fingerprinter: fingerprinter,
		jwtManager:    jwtManager,
		kid:           kid,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// LoginInput carries credentials plus the request metadata the fingerprint is
// derived from.
type LoginInput struct {
	Handle    string
	Password  string
	IP        string
	UserAgent string
}

// LoginResult is the successful outcome of a login flow.
type LoginResult struct {
	Token   string
	Account domain.Account
	Device  domain.DeviceBinding
}

// Login authenticates credentials and enforces the single-device policy. When
// another device holds the binding it fails with *DeviceConflictError and
// changes nothing.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := s.verifyCredentials(ctx, input.Handle, input.Password)
	if err != nil {
		return nil, err
	}

	fingerprint := s.fingerprinter.Fingerprint(input.UserAgent, input.IP)

	switch domain.ResolveLogin(account.DeviceID, fingerprint) {
	case domain.DeviceConflict:
		return nil, &DeviceConflictError{Registered: *account.BoundDevice()}
	case domain.DeviceBind, domain.DeviceRefresh:
		return s.bindAndIssue(ctx, account, fingerprint, input)
	}

	return nil, fmt.Errorf("unreachable login decision")
}

// ForceLogin authenticates credentials and takes over the device binding even
// when another device holds it. The displaced binding is reported downstream.
func (s *AuthService) ForceLogin(ctx context.Context, input LoginInput) (*LoginResult, error) {
	account, err := s.verifyCredentials(ctx, input.Handle, input.Password)
	if err != nil {
		return nil, err
	}

	fingerprint := s.fingerprinter.Fingerprint(input.UserAgent, input.IP)
	displaced := account.BoundDevice()

	result, err := s.bindAndIssue(ctx, account, fingerprint, input)
	if err != nil {
		return nil, err
	}

	if displaced != nil && displaced.DeviceID != fingerprint && s.events != nil {
		_ = s.events.PublishForceLogin(ctx, domain.ForceLoginEvent{
			AccountID:     account.ID,
			OldDeviceID:   displaced.DeviceID,
			OldDeviceName: displaced.DeviceName,
			NewDeviceID:   fingerprint,
			NewDeviceName: result.Device.DeviceName,
			IP:            input.IP,
			OccurredAt:    s.now(),
		})
	}

	return result, nil
}

// DeviceInput is the request metadata a device fingerprint is derived from.
type DeviceInput struct {
	IP        string
	UserAgent string
}

// LogoutOtherDevice releases a binding held by a different device and signs
// the caller in on this one. The caller proves identity with an access token,
// not credentials, so any device holding a valid token can reclaim the
// session. It fails when no binding exists or the caller already holds it.
func (s *AuthService) LogoutOtherDevice(ctx context.Context, accountID string, input DeviceInput) (*LoginResult, error) {
	account, err := s.lookupActive(ctx, accountID)
	if err != nil {
		return nil, err
	}

	fingerprint := s.fingerprinter.Fingerprint(input.UserAgent, input.IP)

	if err := domain.ResolveLogoutOther(account.DeviceID, fingerprint); err != nil {
		return nil, err
	}

	return s.bindAndIssue(ctx, account, fingerprint, LoginInput{IP: input.IP, UserAgent: input.UserAgent})
}

// Logout clears the caller's device binding. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}

	if err := s.accounts.ClearDevice(ctx, accountID, s.now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("clear device: %w", err)
	}

	return nil
}

// AuthorizeDevice checks a guarded request's device against the stored binding
// and returns the account when they match. A mismatch is reported as
// *DeviceMismatchError and audited.
func (s *AuthService) AuthorizeDevice(ctx context.Context, accountID, userAgent, ip string) (*domain.Account, error) {
	account, err := s.lookupActive(ctx, accountID)
	if err != nil {
		return nil, err
	}

	fingerprint := s.fingerprinter.Fingerprint(userAgent, ip)

	if account.DeviceID == nil || *account.DeviceID != fingerprint {
		registered := ""
		if account.DeviceName != nil {
			registered = *account.DeviceName
		}
		lastIP := ""
		if account.LastLoginIP != nil {
			lastIP = *account.LastLoginIP
		}

		if s.events != nil {
			_ = s.events.PublishDeviceMismatch(ctx, domain.DeviceMismatchEvent{
				AccountID:        account.ID,
				RequestDeviceID:  fingerprint,
				RegisteredDevice: registered,
				IP:               ip,
				OccurredAt:       s.now(),
			})
		}

		return nil, &DeviceMismatchError{
			RegisteredName: registered,
			RequestName:    security.Classify(userAgent),
			LastLoginAt:    account.LastLoginAt,
			LastLoginIP:    lastIP,
		}
	}

	return account, nil
}

// lookupActive fetches an account by id, mapping a missing row to the
// credential error and rejecting disabled accounts.
func (s *AuthService) lookupActive(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if !account.IsActive {
		return nil, ErrInactiveAccount
	}
	return account, nil
}

// ActiveDevice returns the binding currently holding the account's session,
// or nil when the account is unbound.
func (s *AuthService) ActiveDevice(ctx context.Context, accountID string) (*domain.DeviceBinding, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account.BoundDevice(), nil
}

// DescribeDevice reports the identifier and label the request metadata would
// fingerprint to, without touching any account.
func (s *AuthService) DescribeDevice(userAgent, ip string) (string, string) {
	return s.fingerprinter.Fingerprint(userAgent, ip), security.Classify(userAgent)
}

// IssueToken issues a JWT access token bound to the account's current device.
func (s *AuthService) IssueToken(account domain.Account, deviceID string) (string, error) {
	if account.ID == "" {
		return "", fmt.Errorf("account id is required")
	}

	claims, err := security.NewAccessTokenClaims(security.AccessTokenOptions{
		UserID:   account.ID,
		Role:     string(account.Role),
		DeviceID: deviceID,
		Issuer:   s.cfg.App.Name,
		Audience: []string{s.cfg.App.Name},
		Subject:  account.ID,
		TTL:      s.cfg.JWT.AccessTokenTTL,
		IssuedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("build claims: %w", err)
	}

	signed, err := s.jwtManager.SignAccessToken(s.kid, claims)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return signed, nil
}

// ParseAccessToken validates the JWT access token and returns its claims.
func (s *AuthService) ParseAccessToken(token string) (*security.AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidAccessToken
	}

	claims, err := s.jwtManager.ParseAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}

	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidAccessToken
	}

	return claims, nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, handle, password string) (*domain.Account, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, fmt.Errorf("handle is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}

	account, err := s.lookupByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if !account.IsActive {
		return nil, ErrInactiveAccount
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

func (s *AuthService) lookupByHandle(ctx context.Context, handle string) (*domain.Account, error) {
	if _, err := mail.ParseAddress(handle); err == nil {
		return s.accounts.GetByEmail(ctx, handle)
	}
	return s.accounts.GetByUsername(ctx, handle)
}

func (s *AuthService) bindAndIssue(ctx context.Context, account *domain.Account, fingerprint string, input LoginInput) (*LoginResult, error) {
	binding := domain.DeviceBinding{
		DeviceID:    fingerprint,
		DeviceName:  security.Classify(input.UserAgent),
		LastLoginAt: s.now(),
		LastLoginIP: input.IP,
		UserAgent:   input.UserAgent,
	}

	if err := s.accounts.BindDevice(ctx, account.ID, binding); err != nil {
		return nil, fmt.Errorf("bind device: %w", err)
	}

	token, err := s.IssueToken(*account, fingerprint)
	if err != nil {
		return nil, err
	}

	bound := *account
	bound.PasswordHash = ""
	bound.DeviceID = &binding.DeviceID
	bound.DeviceName = &binding.DeviceName
	bound.LastLoginAt = &binding.LastLoginAt
	bound.LastLoginIP = &binding.LastLoginIP
	bound.LastUserAgent = &binding.UserAgent

	return &LoginResult{
		Token:   token,
		Account: bound,
		Device:  binding,
	}, nil
}
