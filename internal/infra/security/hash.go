package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// argonParams fixes the Argon2id cost for account passwords. Participants log
// in at most a handful of times per tryout window, so the memory-heavy
// preset is affordable.
type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen int
}

var passwordParams = argonParams{
	time:    1,
	memory:  64 * 1024,
	threads: 4,
	keyLen:  32,
	saltLen: 16,
}

var errMalformedHash = errors.New("malformed password hash")

// HashPassword derives an Argon2id digest for an account password and encodes
// it as "salt:digest", both parts base64.
func HashPassword(password string) (string, error) {
	salt := make([]byte, passwordParams.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt,
		passwordParams.time, passwordParams.memory, passwordParams.threads, passwordParams.keyLen)

	return base64.StdEncoding.EncodeToString(salt) + ":" + base64.StdEncoding.EncodeToString(digest), nil
}

// VerifyPassword reports whether password matches the stored "salt:digest"
// value. A wrong password is (false, nil); errors mean the stored value could
// not be decoded.
func VerifyPassword(password, stored string) (bool, error) {
	if password == "" || stored == "" {
		return false, nil
	}

	salt, digest, err := decodeStoredHash(stored)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt,
		passwordParams.time, passwordParams.memory, passwordParams.threads, uint32(len(digest)))

	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}

func decodeStoredHash(stored string) (salt, digest []byte, err error) {
	encodedSalt, encodedDigest, found := strings.Cut(stored, ":")
	if !found {
		return nil, nil, errMalformedHash
	}

	if salt, err = base64.StdEncoding.DecodeString(encodedSalt); err != nil {
		return nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	if digest, err = base64.StdEncoding.DecodeString(encodedDigest); err != nil {
		return nil, nil, fmt.Errorf("decode digest: %w", err)
	}

	return salt, digest, nil
}
