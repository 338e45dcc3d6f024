package mocks

import (
	"context"
	"time"

	"github.com/you/authsvc/domain"
)

// MockLockoutGuard implements domain.LockoutGuard for testing
type MockLockoutGuard struct {
	RecordFailureFunc     func(ctx context.Context, account *domain.Account) error
	RecordSuccessFunc     func(ctx context.Context, account *domain.Account, clientIP string) error
	IsLockedFunc          func(account *domain.Account) bool
	RetryAfterFunc        func(account *domain.Account) time.Duration
	RemainingAttemptsFunc func(account *domain.Account) uint
}

// NewMockLockoutGuard creates a new MockLockoutGuard with default behaviors
func NewMockLockoutGuard() *MockLockoutGuard {
	return &MockLockoutGuard{}
}

func (m *MockLockoutGuard) RecordFailure(ctx context.Context, account *domain.Account) error {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, account)
	}
	account.FailedLoginAttempts++
	return nil
}

func (m *MockLockoutGuard) RecordSuccess(ctx context.Context, account *domain.Account, clientIP string) error {
	if m.RecordSuccessFunc != nil {
		return m.RecordSuccessFunc(ctx, account, clientIP)
	}
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	return nil
}

func (m *MockLockoutGuard) IsLocked(account *domain.Account) bool {
	if m.IsLockedFunc != nil {
		return m.IsLockedFunc(account)
	}
	return account.IsLocked(time.Now())
}

func (m *MockLockoutGuard) RetryAfter(account *domain.Account) time.Duration {
	if m.RetryAfterFunc != nil {
		return m.RetryAfterFunc(account)
	}
	if account.LockedUntil == nil {
		return 0
	}
	return time.Until(*account.LockedUntil)
}

func (m *MockLockoutGuard) RemainingAttempts(account *domain.Account) uint {
	if m.RemainingAttemptsFunc != nil {
		return m.RemainingAttemptsFunc(account)
	}
	if account.FailedLoginAttempts >= 5 {
		return 0
	}
	return 5 - account.FailedLoginAttempts
}
