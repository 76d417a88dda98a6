package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprinter derives stable device identifiers from request metadata.
// The secret keys the hash so fingerprints cannot be precomputed by a
// client that knows its own user agent and address.
type Fingerprinter struct {
	secret string
}

// NewFingerprinter creates a Fingerprinter with the given application secret.
func NewFingerprinter(secret string) *Fingerprinter {
	return &Fingerprinter{secret: secret}
}

// Fingerprint returns the device identifier for a user agent and client IP.
// The same (user agent, IP) pair always yields the same identifier.
func (f *Fingerprinter) Fingerprint(userAgent, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + ip + f.secret))
	return hex.EncodeToString(sum[:])
}

// deviceLabels maps user agent tokens to display names, first match wins.
// Mobile tokens are checked before desktop browser tokens so
// "Android ... Chrome" classifies as an Android device, not a Chrome browser.
// Browser order is chrome, firefox, safari, edge; a Chromium Edge agent
// carries "Chrome" and labels as a Chrome browser.
var deviceLabels = []struct {
	token string
	label string
}{
	{"android", "Android Device"},
	{"iphone", "iPhone"},
	{"ipad", "iPad"},
	{"mobile", "Mobile Device"},
	{"chrome", "Chrome Browser"},
	{"firefox", "Firefox Browser"},
	{"safari", "Safari Browser"},
	{"edg", "Edge Browser"},
}

// Classify returns a human readable device name for a user agent string.
func Classify(userAgent string) string {
	ua := strings.ToLower(userAgent)
	for _, entry := range deviceLabels {
		if strings.Contains(ua, entry.token) {
			return entry.label
		}
	}
	return "Desktop Browser"
}
