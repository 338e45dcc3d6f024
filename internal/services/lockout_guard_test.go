package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/you/authsvc/domain"
	"github.com/you/authsvc/internal/mocks"
)

func TestLockoutGuard_RecordFailure(t *testing.T) {
	tests := []struct {
		name             string
		startAttempts    uint
		maxAttempts      uint
		expectedAttempts uint
		expectLocked     bool
	}{
		{
			name:             "first failure stays unlocked",
			startAttempts:    0,
			maxAttempts:      5,
			expectedAttempts: 1,
			expectLocked:     false,
		},
		{
			name:             "failure below threshold stays unlocked",
			startAttempts:    3,
			maxAttempts:      5,
			expectedAttempts: 4,
			expectLocked:     false,
		},
		{
			name:             "failure at threshold locks",
			startAttempts:    4,
			maxAttempts:      5,
			expectedAttempts: 5,
			expectLocked:     true,
		},
		{
			name:             "failure past threshold keeps lock",
			startAttempts:    7,
			maxAttempts:      5,
			expectedAttempts: 8,
			expectLocked:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountRepo := mocks.NewMockAccountRepository()
			var persistedAttempts uint
			var persistedLock *time.Time
			accountRepo.RecordFailureFunc = func(ctx context.Context, accountID uint, attempts uint, lockedUntil *time.Time) error {
				persistedAttempts = attempts
				persistedLock = lockedUntil
				return nil
			}

			guard := NewLockoutGuard(accountRepo, LockoutConfig{
				MaxAttempts:     tt.maxAttempts,
				LockoutDuration: 15 * time.Minute,
			})

			account := &domain.Account{ID: 1, FailedLoginAttempts: tt.startAttempts}
			if err := guard.RecordFailure(context.Background(), account); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if account.FailedLoginAttempts != tt.expectedAttempts {
				t.Errorf("expected %d attempts, got %d", tt.expectedAttempts, account.FailedLoginAttempts)
			}
			if persistedAttempts != tt.expectedAttempts {
				t.Errorf("expected %d attempts persisted, got %d", tt.expectedAttempts, persistedAttempts)
			}

			locked := account.LockedUntil != nil
			if locked != tt.expectLocked {
				t.Errorf("expected locked=%v, got %v", tt.expectLocked, locked)
			}
			if locked != (persistedLock != nil) {
				t.Error("in-memory lock state and persisted lock state diverge")
			}
			if locked && time.Until(*account.LockedUntil) > 15*time.Minute {
				t.Error("lock expiry exceeds configured lockout duration")
			}
		})
	}
}

func TestLockoutGuard_RecordFailure_ExtendsExistingLock(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	guard := NewLockoutGuard(accountRepo, LockoutConfig{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	})

	earlier := time.Now().Add(time.Minute)
	account := &domain.Account{ID: 1, FailedLoginAttempts: 5, LockedUntil: &earlier}

	if err := guard.RecordFailure(context.Background(), account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.LockedUntil == nil {
		t.Fatal("expected lock to remain set")
	}
	if !account.LockedUntil.After(earlier) {
		t.Error("expected another failure to push lock expiry forward")
	}
}

func TestLockoutGuard_RecordFailure_RepositoryError(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	accountRepo.RecordFailureFunc = func(ctx context.Context, accountID uint, attempts uint, lockedUntil *time.Time) error {
		return errors.New("database down")
	}

	guard := NewLockoutGuard(accountRepo, LockoutConfig{MaxAttempts: 5, LockoutDuration: 15 * time.Minute})
	account := &domain.Account{ID: 1}

	err := guard.RecordFailure(context.Background(), account)
	if err == nil {
		t.Fatal("expected error when repository fails")
	}
}

func TestLockoutGuard_RecordSuccess(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	var persistedIP string
	accountRepo.RecordSuccessFunc = func(ctx context.Context, accountID uint, lastLoginIP string) error {
		persistedIP = lastLoginIP
		return nil
	}

	guard := NewLockoutGuard(accountRepo, LockoutConfig{MaxAttempts: 5, LockoutDuration: 15 * time.Minute})

	lockedUntil := time.Now().Add(10 * time.Minute)
	account := &domain.Account{ID: 1, FailedLoginAttempts: 4, LockedUntil: &lockedUntil}

	if err := guard.RecordSuccess(context.Background(), account, "203.0.113.7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.FailedLoginAttempts != 0 {
		t.Errorf("expected attempts reset to 0, got %d", account.FailedLoginAttempts)
	}
	if account.LockedUntil != nil {
		t.Error("expected lock cleared on success")
	}
	if account.LastLoginIP != "203.0.113.7" {
		t.Errorf("expected login IP recorded, got %q", account.LastLoginIP)
	}
	if persistedIP != "203.0.113.7" {
		t.Errorf("expected IP persisted, got %q", persistedIP)
	}
}

func TestLockoutGuard_IsLockedAndRetryAfter(t *testing.T) {
	guard := NewLockoutGuard(mocks.NewMockAccountRepository(), LockoutConfig{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	})

	future := time.Now().Add(10 * time.Minute)
	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name          string
		lockedUntil   *time.Time
		expectLocked  bool
		expectNoRetry bool
	}{
		{name: "no lock", lockedUntil: nil, expectLocked: false, expectNoRetry: true},
		{name: "active lock", lockedUntil: &future, expectLocked: true, expectNoRetry: false},
		{name: "expired lock", lockedUntil: &past, expectLocked: false, expectNoRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &domain.Account{ID: 1, LockedUntil: tt.lockedUntil}
			if got := guard.IsLocked(account); got != tt.expectLocked {
				t.Errorf("IsLocked: expected %v, got %v", tt.expectLocked, got)
			}
			retry := guard.RetryAfter(account)
			if tt.expectNoRetry && retry != 0 {
				t.Errorf("expected zero retry, got %v", retry)
			}
			if !tt.expectNoRetry && (retry <= 0 || retry > 10*time.Minute) {
				t.Errorf("expected retry within (0, 10m], got %v", retry)
			}
		})
	}
}

func TestLockoutGuard_RemainingAttempts(t *testing.T) {
	guard := NewLockoutGuard(mocks.NewMockAccountRepository(), LockoutConfig{
		MaxAttempts:     5,
		LockoutDuration: 15 * time.Minute,
	})

	tests := []struct {
		attempts uint
		expected uint
	}{
		{attempts: 0, expected: 5},
		{attempts: 2, expected: 3},
		{attempts: 4, expected: 1},
		{attempts: 5, expected: 0},
		{attempts: 9, expected: 0},
	}

	for _, tt := range tests {
		account := &domain.Account{FailedLoginAttempts: tt.attempts}
		if got := guard.RemainingAttempts(account); got != tt.expected {
			t.Errorf("attempts=%d: expected %d remaining, got %d", tt.attempts, tt.expected, got)
		}
	}
}
