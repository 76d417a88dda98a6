package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID            string
	Name          string
	Username      string
	Email         string
	University    string
	Phone         string
	Role          Role
	PasswordHash  string
	ProfileImage  *string
	IsActive      bool
	DeviceID      *string
	DeviceName    *string
	LastLoginAt   *time.Time
	LastLoginIP   *string
	LastUserAgent *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the account holds the administrator role.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// BoundDevice returns the current device binding, or nil when the account is unbound.
func (a Account) BoundDevice() *DeviceBinding {
	if a.DeviceID == nil {
		return nil
	}

	binding := DeviceBinding{DeviceID: *a.DeviceID}
	if a.DeviceName != nil {
		binding.DeviceName = *a.DeviceName
	}
	if a.LastLoginAt != nil {
		binding.LastLoginAt = *a.LastLoginAt
	}
	if a.LastLoginIP != nil {
		binding.LastLoginIP = *a.LastLoginIP
	}
	if a.LastUserAgent != nil {
		binding.UserAgent = *a.LastUserAgent
	}

	return &binding
}

// DeviceBinding is the fully-populated device field group stored on an account.
// The account row holds either all of these fields or none of them.
type DeviceBinding struct {
	DeviceID    string
	DeviceName  string
	LastLoginAt time.Time
	LastLoginIP string
	UserAgent   string
}
