package security

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	f := NewFingerprinter("secret")

	a := f.Fingerprint("Mozilla/5.0 Chrome/120.0", "203.0.113.9")
	b := f.Fingerprint("Mozilla/5.0 Chrome/120.0", "203.0.113.9")
	if a != b {
		t.Fatalf("same metadata produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 fingerprint, got %q", a)
	}
}

func TestFingerprintVariesByInput(t *testing.T) {
	f := NewFingerprinter("secret")
	base := f.Fingerprint("Mozilla/5.0 Chrome/120.0", "203.0.113.9")

	if f.Fingerprint("Mozilla/5.0 Firefox/121.0", "203.0.113.9") == base {
		t.Fatal("different user agent should change the fingerprint")
	}
	if f.Fingerprint("Mozilla/5.0 Chrome/120.0", "198.51.100.1") == base {
		t.Fatal("different IP should change the fingerprint")
	}
	if NewFingerprinter("other").Fingerprint("Mozilla/5.0 Chrome/120.0", "203.0.113.9") == base {
		t.Fatal("different secret should change the fingerprint")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		userAgent string
		want      string
	}{
		{"Mozilla/5.0 (Linux; Android 14) Chrome/120.0 Mobile", "Android Device"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/604.1", "iPhone"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0) Safari/604.1", "iPad"},
		{"Opera Mobile something", "Mobile Device"},
		{"Mozilla/5.0 Chrome/120.0 Edg/120.0", "Chrome Browser"},
		{"Mozilla/5.0 Edg/120.0", "Edge Browser"},
		{"Mozilla/5.0 Chrome/120.0 Safari/537.36", "Chrome Browser"},
		{"Mozilla/5.0 Firefox/121.0", "Firefox Browser"},
		{"Mozilla/5.0 Version/17.0 Safari/605.1.15", "Safari Browser"},
		{"curl/8.4.0", "Desktop Browser"},
		{"", "Desktop Browser"},
	}

	for _, tc := range cases {
		if got := Classify(tc.userAgent); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.userAgent, got, tc.want)
		}
	}
}
