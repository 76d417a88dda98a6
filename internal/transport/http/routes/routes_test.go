package routes_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/edukita/tryout-platform/internal/core/domain"
	"github.com/edukita/tryout-platform/internal/core/port"
	"github.com/edukita/tryout-platform/internal/infra/config"
	"github.com/edukita/tryout-platform/internal/infra/security"
	"github.com/edukita/tryout-platform/internal/repository"
	httproutes "github.com/edukita/tryout-platform/internal/transport/http/routes"
	"github.com/edukita/tryout-platform/internal/usecase"
)

type fakeChecker struct {
	err error
}

func (f fakeChecker) Ping(ctx context.Context) error { return f.err }

func (f fakeChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: zaptest.NewLogger(t),
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/healthz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestReadinessReportsDegradedDependencies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config:   cfg,
		Logger:   zaptest.NewLogger(t),
		Database: fakeChecker{},
		Cache:    fakeChecker{err: errors.New("connection refused")},
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/readyz", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}

	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Checks["database"] != "ok" {
		t.Fatalf("expected database check ok, got %q", body.Checks["database"])
	}
	if body.Checks["redis"] == "ok" || body.Checks["redis"] == "" {
		t.Fatalf("expected redis check to report the failure, got %q", body.Checks["redis"])
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: zaptest.NewLogger(t),
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/profile", nil)

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Code != "UNAUTHENTICATED" {
		t.Fatalf("expected UNAUTHENTICATED code, got %q", body.Code)
	}
}

const (
	chromeAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
	firefoxAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:120.0) Gecko/20100101 Firefox/120.0"
)

// stubAccountRepo backs a single account for end-to-end routing tests.
type stubAccountRepo struct {
	account *domain.Account
}

func (r *stubAccountRepo) Create(ctx context.Context, account domain.Account) error {
	return errors.New("unexpected call")
}

func (r *stubAccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if r.account == nil || r.account.ID != id {
		return nil, repository.ErrNotFound
	}
	copied := *r.account
	return &copied, nil
}

func (r *stubAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if r.account == nil || r.account.Email != email {
		return nil, repository.ErrNotFound
	}
	copied := *r.account
	return &copied, nil
}

func (r *stubAccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if r.account == nil || r.account.Username != username {
		return nil, repository.ErrNotFound
	}
	copied := *r.account
	return &copied, nil
}

func (r *stubAccountRepo) UpdateProfile(ctx context.Context, account domain.Account) error {
	return errors.New("unexpected call")
}

func (r *stubAccountRepo) UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error {
	return errors.New("unexpected call")
}

func (r *stubAccountRepo) BindDevice(ctx context.Context, id string, binding domain.DeviceBinding) error {
	if r.account == nil || r.account.ID != id {
		return repository.ErrNotFound
	}
	r.account.DeviceID = &binding.DeviceID
	r.account.DeviceName = &binding.DeviceName
	r.account.LastLoginAt = &binding.LastLoginAt
	r.account.LastLoginIP = &binding.LastLoginIP
	r.account.LastUserAgent = &binding.UserAgent
	return nil
}

func (r *stubAccountRepo) ClearDevice(ctx context.Context, id string, at time.Time) error {
	if r.account == nil || r.account.ID != id {
		return repository.ErrNotFound
	}
	r.account.DeviceID = nil
	r.account.DeviceName = nil
	r.account.LastLoginAt = nil
	r.account.LastLoginIP = nil
	r.account.LastUserAgent = nil
	r.account.UpdatedAt = at
	return nil
}

func (r *stubAccountRepo) List(ctx context.Context, filter port.AccountFilter) ([]domain.Account, error) {
	return nil, errors.New("unexpected call")
}

func (r *stubAccountRepo) Count(ctx context.Context, filter port.AccountFilter) (int, error) {
	return 0, errors.New("unexpected call")
}

func (r *stubAccountRepo) ClearDevicesInactiveSince(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, errors.New("unexpected call")
}

func newSigningKeyProvider(t *testing.T) security.KeyProvider {
	t.Helper()

	tmpDir := t.TempDir()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}
	keyFile, err := os.Create(filepath.Join(tmpDir, "v1.pem"))
	if err != nil {
		t.Fatalf("failed to create private key file: %v", err)
	}
	if err := pem.Encode(keyFile, block); err != nil {
		t.Fatalf("failed to encode private key: %v", err)
	}
	keyFile.Close()

	provider, err := security.NewDevKeyProvider(tmpDir)
	if err != nil {
		t.Fatalf("failed to create key provider: %v", err)
	}

	return provider
}

// newBoundAdminAPI builds a router whose only account is an admin bound to
// the Chrome device, and returns a token issued for that binding.
func newBoundAdminAPI(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubAccountRepo{account: &domain.Account{
		ID:       "admin-1",
		Name:     "Admin",
		Username: "admin",
		Email:    "admin@example.com",
		Role:     domain.RoleAdmin,
		IsActive: true,
	}}

	cfg := &config.AppConfig{
		App: config.AppSettings{Name: "tryout-platform", Env: "test"},
		JWT: config.JWTSettings{AccessTokenTTL: 15 * time.Minute},
	}

	auth := usecase.NewAuthService(
		cfg,
		repo,
		nil,
		security.NewFingerprinter("routes-device-secret"),
		security.NewJWTManager(newSigningKeyProvider(t)),
		"v1",
	)

	fingerprint, label := auth.DescribeDevice(chromeAgent, "")
	boundAt := time.Now().UTC()
	boundIP := "203.0.113.10"
	repo.account.DeviceID = &fingerprint
	repo.account.DeviceName = &label
	repo.account.LastLoginAt = &boundAt
	repo.account.LastLoginIP = &boundIP

	token, err := auth.IssueToken(*repo.account, fingerprint)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: zaptest.NewLogger(t),
		Services: httproutes.ServiceSet{
			Auth:     auth,
			Accounts: usecase.NewAccountService(repo),
		},
	})

	return r, token
}

func doAuthedRequest(t *testing.T, r *gin.Engine, method, path, token, userAgent string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)

	r.ServeHTTP(w, req)
	return w
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return body.Code
}

func TestAdminRoutesEnforceDeviceGuard(t *testing.T) {
	r, token := newBoundAdminAPI(t)

	w := doAuthedRequest(t, r, http.MethodGet, "/api/v1/admin/accounts/admin-1", token, chromeAgent)
	if w.Code != http.StatusOK {
		t.Fatalf("bound device should reach admin routes, got %d: %s", w.Code, w.Body.String())
	}

	w = doAuthedRequest(t, r, http.MethodGet, "/api/v1/admin/accounts/admin-1", token, firefoxAgent)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("displaced device should be rejected on admin routes, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "DEVICE_MISMATCH" {
		t.Fatalf("expected DEVICE_MISMATCH code, got %q", code)
	}

	var body struct {
		RegisteredDevice string `json:"registered_device"`
		CurrentDevice    string `json:"current_device"`
		LastLoginIP      string `json:"last_login_ip"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.RegisteredDevice != "Chrome Browser" {
		t.Fatalf("expected registered device label, got %q", body.RegisteredDevice)
	}
	if body.CurrentDevice != "Firefox Browser" {
		t.Fatalf("expected requesting device label, got %q", body.CurrentDevice)
	}
	if body.LastLoginIP != "203.0.113.10" {
		t.Fatalf("expected binding's last login ip, got %q", body.LastLoginIP)
	}
}

func TestLogoutOtherDeviceRequiresToken(t *testing.T) {
	r, _ := newBoundAdminAPI(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/logout-other-device", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token should be rejected, got %d", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "UNAUTHENTICATED" {
		t.Fatalf("expected UNAUTHENTICATED code, got %q", code)
	}
}

func TestDeviceGuardCoversSessionRoutes(t *testing.T) {
	r, token := newBoundAdminAPI(t)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/auth/device"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/password/change"},
	}

	for _, tc := range cases {
		w := doAuthedRequest(t, r, tc.method, tc.path, token, firefoxAgent)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s from a displaced device: got %d, want 401", tc.method, tc.path, w.Code)
			continue
		}
		if code := decodeErrorCode(t, w); code != "DEVICE_MISMATCH" {
			t.Errorf("%s %s: expected DEVICE_MISMATCH code, got %q", tc.method, tc.path, code)
		}
	}

	w := doAuthedRequest(t, r, http.MethodGet, "/api/v1/auth/device", token, chromeAgent)
	if w.Code != http.StatusOK {
		t.Fatalf("bound device should read its binding, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuestionBankReadsAvailableToParticipants(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.AppConfig{App: config.AppSettings{Env: "test"}}

	r := httproutes.Register(httproutes.Dependencies{
		Config: cfg,
		Logger: zaptest.NewLogger(t),
	})

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	wantPresent := []string{
		"GET /api/v1/question-banks",
		"GET /api/v1/question-banks/:id",
		"GET /api/v1/question-banks/:id/questions",
		"POST /api/v1/admin/question-banks",
		"PUT /api/v1/admin/question-banks/:id",
		"DELETE /api/v1/admin/question-banks/:id",
	}
	for _, route := range wantPresent {
		if !registered[route] {
			t.Errorf("route %s should be registered", route)
		}
	}

	wantAbsent := []string{
		"GET /api/v1/admin/question-banks",
		"POST /api/v1/question-banks",
	}
	for _, route := range wantAbsent {
		if registered[route] {
			t.Errorf("route %s should not be registered", route)
		}
	}
}
