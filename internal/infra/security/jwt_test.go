package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestJWTManager(t *testing.T) *JWTManager {
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
	file, err := os.Create(filepath.Join(tmpDir, "v1.pem"))
	if err != nil {
		t.Fatalf("failed to create key file: %v", err)
	}
	if err := pem.Encode(file, block); err != nil {
		t.Fatalf("failed to encode key: %v", err)
	}
	file.Close()

	provider, err := NewDevKeyProvider(tmpDir)
	if err != nil {
		t.Fatalf("failed to create key provider: %v", err)
	}
	if provider.SigningKid() != "v1" {
		t.Fatalf("expected signing kid v1, got %q", provider.SigningKid())
	}

	return NewJWTManager(provider)
}

func TestSignAndParseAccessToken(t *testing.T) {
	manager := newTestJWTManager(t)

	claims, err := NewAccessTokenClaims(AccessTokenOptions{
		UserID:   "acc-1",
		Role:     "user",
		DeviceID: "fp-abc",
		Issuer:   "tryout-platform",
		Audience: []string{"tryout-platform"},
		Subject:  "acc-1",
		TTL:      15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewAccessTokenClaims: %v", err)
	}

	signed, err := manager.SignAccessToken("v1", claims)
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}

	parsed, err := manager.ParseAccessToken(signed)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if parsed.UserID != "acc-1" {
		t.Fatalf("expected user acc-1, got %q", parsed.UserID)
	}
	if parsed.DeviceID != "fp-abc" {
		t.Fatalf("expected device fp-abc, got %q", parsed.DeviceID)
	}
	if parsed.ID == "" {
		t.Fatal("expected a generated jti")
	}
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	manager := newTestJWTManager(t)

	claims, err := NewAccessTokenClaims(AccessTokenOptions{
		UserID:   "acc-1",
		Issuer:   "tryout-platform",
		TTL:      time.Minute,
		IssuedAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("NewAccessTokenClaims: %v", err)
	}

	signed, err := manager.SignAccessToken("v1", claims)
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}

	if _, err := manager.ParseAccessToken(signed); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected jwt.ErrTokenExpired, got %v", err)
	}
}

func TestSignAccessTokenRequiresKid(t *testing.T) {
	manager := newTestJWTManager(t)

	claims, err := NewAccessTokenClaims(AccessTokenOptions{
		UserID: "acc-1",
		Issuer: "tryout-platform",
	})
	if err != nil {
		t.Fatalf("NewAccessTokenClaims: %v", err)
	}

	if _, err := manager.SignAccessToken("", claims); !errors.Is(err, ErrKeyIDMissing) {
		t.Fatalf("expected ErrKeyIDMissing, got %v", err)
	}
}

func TestParseAccessTokenUnknownKid(t *testing.T) {
	manager := newTestJWTManager(t)

	claims, err := NewAccessTokenClaims(AccessTokenOptions{
		UserID: "acc-1",
		Issuer: "tryout-platform",
	})
	if err != nil {
		t.Fatalf("NewAccessTokenClaims: %v", err)
	}

	signed, err := manager.SignAccessToken("rotated-away", claims)
	if err != nil {
		t.Fatalf("SignAccessToken: %v", err)
	}

	if _, err := manager.ParseAccessToken(signed); err == nil {
		t.Fatal("expected error for unregistered kid")
	}
}

func TestJWKSListsRegisteredKeys(t *testing.T) {
	manager := newTestJWTManager(t)

	payload, err := manager.JWKS()
	if err != nil {
		t.Fatalf("JWKS: %v", err)
	}

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
		} `json:"keys"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		t.Fatalf("failed to decode JWKS: %v", err)
	}
	if len(doc.Keys) != 1 {
		t.Fatalf("expected one key, got %d", len(doc.Keys))
	}
	if doc.Keys[0].Kid != "v1" || doc.Keys[0].Kty != "RSA" {
		t.Fatalf("unexpected key entry %+v", doc.Keys[0])
	}
}
