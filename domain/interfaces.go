package domain

import (
	"context"
	"time"
)

// AccountRepository defines account data access operations
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
	Update(ctx context.Context, account *Account) error
	// RecordFailure persists the failure counter and lock expiry in a
	// single update.
	RecordFailure(ctx context.Context, accountID uint, attempts uint, lockedUntil *time.Time) error
	// RecordSuccess clears the failure counter and lock expiry and
	// stores the login IP in a single update.
	RecordSuccess(ctx context.Context, accountID uint, lastLoginIP string) error
	UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error
	UpdateTOTP(ctx context.Context, account *Account) error
}

// ChangeTokenRepository defines password-change token data access
type ChangeTokenRepository interface {
	Create(ctx context.Context, token *PasswordChangeToken) error
	// FindActive returns the unused, unexpired row matching
	// secret+account, or ErrChangeTokenInvalid.
	FindActive(ctx context.Context, accountID uint, secret string) (*PasswordChangeToken, error)
	// Consume atomically flips used from false to true for the matching
	// active row. It reports ErrChangeTokenInvalid when no row was
	// affected; the conditional update is the single-use guarantee.
	Consume(ctx context.Context, accountID uint, secret string) error
	// InvalidateAll marks every unused token for the account as used.
	InvalidateAll(ctx context.Context, accountID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionRepository defines session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, sessionID string) (*Session, error)
	// Touch refreshes the session's last-activity timestamp.
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Delete(ctx context.Context, sessionID string) error
}

// AuthService defines the authentication orchestration logic. It never
// creates sessions; callers start a session (or the forced-change flow)
// from the returned account.
type AuthService interface {
	Authenticate(ctx context.Context, username, password, clientIP string) (*Account, error)
	AuthenticateWithTOTP(ctx context.Context, username, password, totpCode, clientIP string) (*Account, error)
}

// LockoutGuard tracks failed login attempts and lock expiry per account
type LockoutGuard interface {
	RecordFailure(ctx context.Context, account *Account) error
	RecordSuccess(ctx context.Context, account *Account, clientIP string) error
	IsLocked(account *Account) bool
	// RetryAfter returns how long until the lock expires; zero when not
	// locked.
	RetryAfter(account *Account) time.Duration
	// RemainingAttempts returns how many failures are left before the
	// account locks.
	RemainingAttempts(account *Account) uint
}

// ChangeTokenService issues and redeems single-use signed tokens for the
// forced password-change flow
type ChangeTokenService interface {
	Issue(ctx context.Context, account *Account) (string, error)
	// Verify is non-destructive; it binds a rendered form to a live token.
	Verify(ctx context.Context, signedToken string) (*Account, error)
	// Consume redeems the token exactly once.
	Consume(ctx context.Context, signedToken string) (*Account, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// TOTPService defines two-factor operations
type TOTPService interface {
	Setup(ctx context.Context, account *Account) (*TOTPSetup, error)
	Confirm(ctx context.Context, account *Account, code string) error
	// Verify auto-passes when 2FA is not enabled for the account.
	Verify(ctx context.Context, account *Account, code string) (bool, error)
	Disable(ctx context.Context, account *Account) error
	RegenerateBackupCodes(ctx context.Context, account *Account, code string) ([]string, error)
}

// RateLimiter bounds requests per identity key over a fixed window
type RateLimiter interface {
	Check(ctx context.Context, key string) (*RateDecision, error)
}

// PasswordService defines password hashing operations
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) bool
}

// SessionTokenService defines access-token operations for sessions
type SessionTokenService interface {
	Generate(accountID uint, role string, sessionID string) (string, error)
	Validate(token string) (*SessionClaims, error)
}

// SessionClaims represents session access-token claims
type SessionClaims struct {
	AccountID uint   `json:"account_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
