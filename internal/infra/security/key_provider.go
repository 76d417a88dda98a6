package security

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrSigningKeyNotImplemented = errors.New("signing key not implemented in production mode")
	ErrKeyNotFound              = errors.New("key not found")
)

// KeyProvider supplies the RSA material for token signing and verification.
type KeyProvider interface {
	GetSigningKey() (*rsa.PrivateKey, error)
	GetVerificationKey(kid string) (*rsa.PublicKey, error)
}

// DevKeyProvider reads PEM files from a directory. The filename without its
// extension is the kid. The first private key encountered becomes the signing
// key; public-key files only verify.
type DevKeyProvider struct {
	keys       map[string]*rsa.PublicKey
	signingKey *rsa.PrivateKey
	signingKid string
}

// parseKeyPEM accepts PKCS1/PKCS8 private keys and PKCS1/PKIX public keys.
// Exactly one of the returns is non-nil on success.
func parseKeyPEM(data []byte) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, nil, errors.New("no PEM block")
	}

	if priv, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return priv, nil, nil
	}
	if parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		if priv, ok := parsed.(*rsa.PrivateKey); ok {
			return priv, nil, nil
		}
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return nil, pub, nil
	}
	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		if pub, ok := parsed.(*rsa.PublicKey); ok {
			return nil, pub, nil
		}
	}
	return nil, nil, errors.New("unsupported key format")
}

func NewDevKeyProvider(keyDir string) (*DevKeyProvider, error) {
	entries, err := os.ReadDir(keyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read key directory: %w", err)
	}

	provider := &DevKeyProvider{keys: make(map[string]*rsa.PublicKey)}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(keyDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
		}

		priv, pub, err := parseKeyPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse key from file %s: %w", path, err)
		}

		kid := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		switch {
		case priv != nil:
			if provider.signingKey == nil {
				provider.signingKey = priv
				provider.signingKid = kid
			}
			provider.keys[kid] = &priv.PublicKey
		case pub != nil:
			provider.keys[kid] = pub
		}
	}

	if provider.signingKey == nil {
		return nil, errors.New("no private key found for signing")
	}
	return provider, nil
}

func (p *DevKeyProvider) GetSigningKey() (*rsa.PrivateKey, error) {
	return p.signingKey, nil
}

func (p *DevKeyProvider) GetVerificationKey(kid string) (*rsa.PublicKey, error) {
	key, ok := p.keys[kid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}
	return key, nil
}

// SigningKid returns the kid associated with the active signing key.
func (p *DevKeyProvider) SigningKid() string {
	return p.signingKid
}

// ListVerificationKeys returns a copy of the loaded public keys by kid.
func (p *DevKeyProvider) ListVerificationKeys() map[string]*rsa.PublicKey {
	out := make(map[string]*rsa.PublicKey, len(p.keys))
	for kid, key := range p.keys {
		out[kid] = key
	}
	return out
}

// ProdKeyProvider expects signing keys to stay in a vault; only verification
// against pre-registered keys is supported in process.
type ProdKeyProvider struct{}

func NewProdKeyProvider() (*ProdKeyProvider, error) {
	return &ProdKeyProvider{}, nil
}

func (p *ProdKeyProvider) GetSigningKey() (*rsa.PrivateKey, error) {
	return nil, ErrSigningKeyNotImplemented
}

func (p *ProdKeyProvider) GetVerificationKey(kid string) (*rsa.PublicKey, error) {
	return nil, fmt.Errorf("verification for kid %s not implemented", kid)
}

// NewKeyProvider picks the provider implementation for the environment.
func NewKeyProvider(env, keyDir string) (KeyProvider, error) {
	switch env {
	case "development":
		return NewDevKeyProvider(keyDir)
	case "production":
		return NewProdKeyProvider()
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}
}
