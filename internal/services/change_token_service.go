package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/you/authsvc/domain"
	"github.com/you/authsvc/internal/infrastructure/auth"
)

// ChangeTokenServiceImpl implements domain.ChangeTokenService. A token
// is a 256-bit random secret stored server-side plus a signed envelope
// handed to the client; the envelope blocks forgery and the row
// enforces single use.
type ChangeTokenServiceImpl struct {
	tokenRepo   domain.ChangeTokenRepository
	accountRepo domain.AccountRepository
	signer      *auth.ChangeTokenSigner
	ttl         time.Duration
}

// NewChangeTokenService creates a new change token service
func NewChangeTokenService(
	tokenRepo domain.ChangeTokenRepository,
	accountRepo domain.AccountRepository,
	signer *auth.ChangeTokenSigner,
	ttl time.Duration,
) domain.ChangeTokenService {
	return &ChangeTokenServiceImpl{
		tokenRepo:   tokenRepo,
		accountRepo: accountRepo,
		signer:      signer,
		ttl:         ttl,
	}
}

// Issue invalidates every unused token for the account, creates a fresh
// row and returns its signed envelope. At most one unused token exists
// per account afterwards.
func (s *ChangeTokenServiceImpl) Issue(ctx context.Context, account *domain.Account) (string, error) {
	if err := s.tokenRepo.InvalidateAll(ctx, account.ID); err != nil {
		return "", fmt.Errorf("failed to invalidate previous tokens: %w", err)
	}

	secret, err := generateTokenSecret()
	if err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}

	now := time.Now()
	token := &domain.PasswordChangeToken{
		AccountID: account.ID,
		Secret:    secret,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		Used:      false,
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to store change token: %w", err)
	}

	signed, err := s.signer.Sign(account.ID, secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign change token: %w", err)
	}
	return signed, nil
}

// Verify is non-destructive: it checks the envelope and the live row
// and returns the owning account. Used to bind the change form to a
// valid token before any mutation.
func (s *ChangeTokenServiceImpl) Verify(ctx context.Context, signedToken string) (*domain.Account, error) {
	payload, err := s.signer.Unwrap(signedToken)
	if err != nil {
		return nil, domain.ErrChangeTokenInvalid
	}

	if _, err := s.tokenRepo.FindActive(ctx, payload.AccountID, payload.Secret); err != nil {
		return nil, domain.ErrChangeTokenInvalid
	}

	return s.lookupAccount(ctx, payload.AccountID)
}

// Consume redeems the token exactly once. The repository performs the
// conditional used=false to used=true update; a second consumer of the
// same token loses the race and gets ErrChangeTokenInvalid.
func (s *ChangeTokenServiceImpl) Consume(ctx context.Context, signedToken string) (*domain.Account, error) {
	payload, err := s.signer.Unwrap(signedToken)
	if err != nil {
		return nil, domain.ErrChangeTokenInvalid
	}

	if err := s.tokenRepo.Consume(ctx, payload.AccountID, payload.Secret); err != nil {
		return nil, domain.ErrChangeTokenInvalid
	}

	return s.lookupAccount(ctx, payload.AccountID)
}

// PurgeExpired removes dead token rows; wired to a periodic ticker.
func (s *ChangeTokenServiceImpl) PurgeExpired(ctx context.Context) (int64, error) {
	return s.tokenRepo.DeleteExpired(ctx)
}

func (s *ChangeTokenServiceImpl) lookupAccount(ctx context.Context, accountID uint) (*domain.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		// A vanished account is reported the same as any bad token.
		return nil, domain.ErrChangeTokenInvalid
	}
	return account, nil
}

// generateTokenSecret returns 256 bits of entropy as 64 hex characters.
func generateTokenSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
