package domain

import (
	"errors"
	"testing"
	"time"
)

func TestResolveLogin(t *testing.T) {
	bound := "fp-registered"
	empty := ""

	cases := []struct {
		name        string
		bound       *string
		fingerprint string
		want        LoginDecision
	}{
		{name: "unbound account binds", bound: nil, fingerprint: "fp-a", want: DeviceBind},
		{name: "empty binding binds", bound: &empty, fingerprint: "fp-a", want: DeviceBind},
		{name: "same device refreshes", bound: &bound, fingerprint: "fp-registered", want: DeviceRefresh},
		{name: "different device conflicts", bound: &bound, fingerprint: "fp-other", want: DeviceConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveLogin(tc.bound, tc.fingerprint); got != tc.want {
				t.Fatalf("ResolveLogin() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestResolveLogoutOther(t *testing.T) {
	bound := "fp-registered"

	if err := ResolveLogoutOther(nil, "fp-a"); !errors.Is(err, ErrNoOtherDevice) {
		t.Fatalf("expected ErrNoOtherDevice, got %v", err)
	}

	if err := ResolveLogoutOther(&bound, "fp-registered"); !errors.Is(err, ErrAlreadyCurrentDevice) {
		t.Fatalf("expected ErrAlreadyCurrentDevice, got %v", err)
	}

	if err := ResolveLogoutOther(&bound, "fp-other"); err != nil {
		t.Fatalf("expected takeover to be allowed, got %v", err)
	}
}

func TestIsBoundToOther(t *testing.T) {
	bound := "fp-registered"

	if IsBoundToOther(nil, "fp-a") {
		t.Fatal("unbound account should never mismatch")
	}
	if IsBoundToOther(&bound, "fp-registered") {
		t.Fatal("matching fingerprint should not mismatch")
	}
	if !IsBoundToOther(&bound, "fp-other") {
		t.Fatal("different fingerprint should mismatch")
	}
}

func TestAccountBoundDevice(t *testing.T) {
	if device := (Account{}).BoundDevice(); device != nil {
		t.Fatalf("unbound account returned device %+v", device)
	}

	deviceID := "fp-a"
	deviceName := "Chrome Browser"
	lastLoginAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	lastLoginIP := "203.0.113.9"
	userAgent := "Mozilla/5.0 Chrome/120.0"

	account := Account{
		DeviceID:      &deviceID,
		DeviceName:    &deviceName,
		LastLoginAt:   &lastLoginAt,
		LastLoginIP:   &lastLoginIP,
		LastUserAgent: &userAgent,
	}

	device := account.BoundDevice()
	if device == nil {
		t.Fatal("expected device binding")
	}
	if device.DeviceID != deviceID || device.DeviceName != deviceName {
		t.Fatalf("unexpected binding %+v", device)
	}
	if !device.LastLoginAt.Equal(lastLoginAt) || device.LastLoginIP != lastLoginIP || device.UserAgent != userAgent {
		t.Fatalf("unexpected binding metadata %+v", device)
	}
}
