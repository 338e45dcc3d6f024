package domain

import (
	"errors"
	"fmt"
	"time"
)

// Authentication errors. Wrong password and unknown account are
// deliberately indistinguishable to callers.
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrTwoFactorRequired  = errors.New("two-factor code required")
	ErrTwoFactorInvalid   = errors.New("invalid two-factor code")
)

// Password-change token errors. Bad signature, expired envelope and
// unknown/used/expired rows all collapse into the one sentinel so the
// endpoint is not an oracle.
var (
	ErrChangeTokenInvalid = errors.New("invalid or expired token")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
)

// Rate limiting errors
var (
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Authorization errors
var (
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrInsufficientRole = errors.New("insufficient role permissions")
)

// AccountLockedError carries the remaining lock duration. It matches
// ErrAccountLocked under errors.Is.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry after %ds", int(e.RetryAfter.Seconds()))
}

func (e *AccountLockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

// InvalidCredentialsError carries the attempts left before lockout. It
// matches ErrInvalidCredentials under errors.Is.
type InvalidCredentialsError struct {
	RemainingAttempts uint
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.RemainingAttempts)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

// RateLimitedError carries the seconds a caller must wait. It matches
// ErrRateLimited under errors.Is.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %ds", int(e.RetryAfter.Seconds()))
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
