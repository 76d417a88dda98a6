package domain

import "time"

// AccountRegisteredEvent is published when a new account is created.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Username     string
	Email        string
	DeviceID     string
	DeviceName   string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// ForceLoginEvent records an explicit override of an existing device binding.
type ForceLoginEvent struct {
	EventID       string
	AccountID     string
	OldDeviceID   string
	OldDeviceName string
	NewDeviceID   string
	NewDeviceName string
	IP            string
	OccurredAt    time.Time
	Metadata      map[string]any
}

// DeviceMismatchEvent records a request rejected by the access guard because
// the presented device no longer matches the stored binding.
type DeviceMismatchEvent struct {
	EventID          string
	AccountID        string
	RequestDeviceID  string
	RegisteredDevice string
	IP               string
	OccurredAt       time.Time
	Metadata         map[string]any
}

// PasswordResetEvent is published after a completed password reset. The reset
// clears the device binding, so consumers can treat it as a global sign-out.
type PasswordResetEvent struct {
	EventID       string
	AccountID     string
	Email         string
	ResetAt       time.Time
	DeviceCleared bool
	Metadata      map[string]any
}

// DeviceSweepEvent summarizes one run of the inactive-device cleanup job.
type DeviceSweepEvent struct {
	EventID    string
	Cutoff     time.Time
	Cleared    int64
	OccurredAt time.Time
}
