package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/you/authsvc/domain"
)

// AuthServiceImpl implements domain.AuthService. It composes the
// lockout guard, credential store and TOTP verifier to answer whether a
// login can succeed. It never creates sessions; when the account must
// change its password, the caller routes to the forced-change flow
// instead of starting one.
type AuthServiceImpl struct {
	accountRepo domain.AccountRepository
	passwordSvc domain.PasswordService
	lockout     domain.LockoutGuard
	totpSvc     domain.TOTPService
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo domain.AccountRepository,
	passwordSvc domain.PasswordService,
	lockout domain.LockoutGuard,
	totpSvc domain.TOTPService,
) domain.AuthService {
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		passwordSvc: passwordSvc,
		lockout:     lockout,
		totpSvc:     totpSvc,
	}
}

// Authenticate implements domain.AuthService
func (s *AuthServiceImpl) Authenticate(ctx context.Context, username, password, clientIP string) (*domain.Account, error) {
	return s.authenticate(ctx, username, password, "", clientIP)
}

// AuthenticateWithTOTP implements domain.AuthService
func (s *AuthServiceImpl) AuthenticateWithTOTP(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error) {
	return s.authenticate(ctx, username, password, totpCode, clientIP)
}

func (s *AuthServiceImpl) authenticate(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error) {
	// Unknown accounts are indistinguishable from a wrong password.
	account, err := s.accountRepo.FindByUsername(ctx, username)
	if err != nil {
		if err == domain.ErrAccountNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if s.lockout.IsLocked(account) {
		return nil, &domain.AccountLockedError{RetryAfter: s.lockout.RetryAfter(account)}
	}

	if !s.passwordSvc.Verify(account.PasswordHash, password) {
		if err := s.lockout.RecordFailure(ctx, account); err != nil {
			return nil, err
		}
		if s.lockout.IsLocked(account) {
			log.Printf("ACCOUNT_LOCKED: account_id=%d username=%s client_ip=%s attempts=%d timestamp=%s",
				account.ID, account.Username, clientIP, account.FailedLoginAttempts, time.Now().UTC().Format(time.RFC3339))
			return nil, &domain.AccountLockedError{RetryAfter: s.lockout.RetryAfter(account)}
		}
		return nil, &domain.InvalidCredentialsError{RemainingAttempts: s.lockout.RemainingAttempts(account)}
	}

	// The two-factor check runs before the success reset so a bad code
	// counts as a failed attempt.
	if account.TOTPEnabled && account.TOTPConfirmed {
		if totpCode == "" {
			return nil, domain.ErrTwoFactorRequired
		}
		valid, err := s.totpSvc.Verify(ctx, account, totpCode)
		if err != nil {
			return nil, fmt.Errorf("failed to verify two-factor code: %w", err)
		}
		if !valid {
			if err := s.lockout.RecordFailure(ctx, account); err != nil {
				return nil, err
			}
			if s.lockout.IsLocked(account) {
				return nil, &domain.AccountLockedError{RetryAfter: s.lockout.RetryAfter(account)}
			}
			return nil, domain.ErrTwoFactorInvalid
		}
	}

	if err := s.lockout.RecordSuccess(ctx, account, clientIP); err != nil {
		return nil, err
	}

	return account, nil
}
