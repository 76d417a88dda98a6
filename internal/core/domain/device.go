package domain

import "errors"

var (
	// ErrNoOtherDevice indicates no device binding exists to release.
	ErrNoOtherDevice = errors.New("no other device logged in")
	// ErrAlreadyCurrentDevice indicates the caller's device is already the registered one.
	ErrAlreadyCurrentDevice = errors.New("already logged in from the registered device")
)

// LoginDecision is the outcome of comparing a login attempt against the stored binding.
type LoginDecision int

const (
	// DeviceBind means the account is unbound and the requesting device becomes the binding.
	DeviceBind LoginDecision = iota
	// DeviceRefresh means the requesting device matches the stored binding; refresh metadata only.
	DeviceRefresh
	// DeviceConflict means a different device holds the binding; the login must not proceed.
	DeviceConflict
)

// ResolveLogin decides the device transition for a credentialed login attempt.
// A nil or empty bound fingerprint means the account is unbound.
func ResolveLogin(bound *string, fingerprint string) LoginDecision {
	if bound == nil || *bound == "" {
		return DeviceBind
	}
	if *bound == fingerprint {
		return DeviceRefresh
	}
	return DeviceConflict
}

// ResolveLogoutOther validates a logout-other-device request against the stored
// binding. It fails when nothing is bound, or when the caller already is the
// registered device. On success the caller's device takes over the binding.
func ResolveLogoutOther(bound *string, fingerprint string) error {
	if bound == nil || *bound == "" {
		return ErrNoOtherDevice
	}
	if *bound == fingerprint {
		return ErrAlreadyCurrentDevice
	}
	return nil
}

// IsBoundToOther reports whether the account is bound to a device other than
// the one identified by fingerprint. An unbound account never mismatches.
func IsBoundToOther(bound *string, fingerprint string) bool {
	return bound != nil && *bound != "" && *bound != fingerprint
}
