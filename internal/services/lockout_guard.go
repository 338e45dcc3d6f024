package services

import (
	"context"
	"fmt"
	"time"

	"github.com/you/authsvc/domain"
)

// LockoutGuardImpl implements domain.LockoutGuard. Counters live on the
// account row; each mutation is one repository update.
type LockoutGuardImpl struct {
	accountRepo     domain.AccountRepository
	maxAttempts     uint
	lockoutDuration time.Duration
}

// LockoutConfig holds brute-force protection settings
type LockoutConfig struct {
	MaxAttempts     uint
	LockoutDuration time.Duration
}

// NewLockoutGuard creates a new lockout guard
func NewLockoutGuard(accountRepo domain.AccountRepository, config LockoutConfig) domain.LockoutGuard {
	return &LockoutGuardImpl{
		accountRepo:     accountRepo,
		maxAttempts:     config.MaxAttempts,
		lockoutDuration: config.LockoutDuration,
	}
}

// RecordFailure increments the failure counter and sets the lock expiry
// once the counter reaches the threshold. Failures on an already-locked
// account re-evaluate the threshold and push the expiry forward each
// time; the lock never shrinks while failures keep coming.
func (g *LockoutGuardImpl) RecordFailure(ctx context.Context, account *domain.Account) error {
	account.FailedLoginAttempts++
	if account.FailedLoginAttempts >= g.maxAttempts {
		lockedUntil := time.Now().Add(g.lockoutDuration)
		account.LockedUntil = &lockedUntil
	}

	if err := g.accountRepo.RecordFailure(ctx, account.ID, account.FailedLoginAttempts, account.LockedUntil); err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}

// RecordSuccess unconditionally resets the failure counter, clears the
// lock expiry and stores the login IP.
func (g *LockoutGuardImpl) RecordSuccess(ctx context.Context, account *domain.Account, clientIP string) error {
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LastLoginIP = clientIP

	if err := g.accountRepo.RecordSuccess(ctx, account.ID, clientIP); err != nil {
		return fmt.Errorf("failed to record login success: %w", err)
	}
	return nil
}

// IsLocked is a pure function of the lock expiry against the clock; it
// writes nothing and records no implicit auto-unlock.
func (g *LockoutGuardImpl) IsLocked(account *domain.Account) bool {
	return account.IsLocked(time.Now())
}

// RetryAfter returns the remaining lock duration, zero when unlocked.
func (g *LockoutGuardImpl) RetryAfter(account *domain.Account) time.Duration {
	if account.LockedUntil == nil {
		return 0
	}
	remaining := time.Until(*account.LockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingAttempts returns how many failures are left before lockout.
func (g *LockoutGuardImpl) RemainingAttempts(account *domain.Account) uint {
	if account.FailedLoginAttempts >= g.maxAttempts {
		return 0
	}
	return g.maxAttempts - account.FailedLoginAttempts
}
