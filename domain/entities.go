package domain

import "time"

// Account represents a login-capable account in the system
type Account struct {
	ID                  uint
	Username            string
	PasswordHash        string `gorm:"column:password"`
	Role                string
	FailedLoginAttempts uint
	LockedUntil         *time.Time
	MustChangePassword  bool
	TOTPSecret          string
	TOTPEnabled         bool
	TOTPConfirmed       bool
	BackupCodeHashes    []string
	LastLoginIP         string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsLocked reports whether the account lockout is still in effect at t.
func (a *Account) IsLocked(t time.Time) bool {
	return a.LockedUntil != nil && t.Before(*a.LockedUntil)
}

// PasswordChangeToken is the server-side row behind a single-use
// forced-password-change capability. The signed envelope handed to the
// client references it by secret; the row is the source of truth for
// single use and revocation.
type PasswordChangeToken struct {
	ID        uint
	AccountID uint
	Secret    string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Session represents an authenticated session. LastActivity drives the
// idle-timeout check; a session past the idle timeout must be discarded
// on next use.
type Session struct {
	ID           string    `json:"id"`
	AccountID    uint      `json:"account_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// RateDecision is the outcome of a rate-limit check.
type RateDecision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// TOTPSetup is returned once at 2FA enrollment; the backup codes are
// never stored in cleartext.
type TOTPSetup struct {
	Secret      string
	OTPAuthURL  string
	BackupCodes []string
}
