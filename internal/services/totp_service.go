package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/you/authsvc/domain"
)

// TOTPServiceImpl implements domain.TOTPService using RFC 6238 codes
// plus single-use backup codes. Only hashes of backup codes are at
// rest; cleartext is returned once at generation time.
type TOTPServiceImpl struct {
	accountRepo     domain.AccountRepository
	passwordSvc     domain.PasswordService
	issuer          string
	backupCodeCount int
}

// NewTOTPService creates a new TOTP service
func NewTOTPService(accountRepo domain.AccountRepository, passwordSvc domain.PasswordService, issuer string, backupCodeCount int) domain.TOTPService {
	return &TOTPServiceImpl{
		accountRepo:     accountRepo,
		passwordSvc:     passwordSvc,
		issuer:          issuer,
		backupCodeCount: backupCodeCount,
	}
}

// validateOpts allows one time step of clock skew in either direction,
// which bounds TOTP replay to the explicit tolerance window.
var validateOpts = totp.ValidateOpts{
	Period:    30,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// Setup generates a fresh secret and backup codes for the account. The
// secret is persisted unconfirmed; enabling waits for Confirm so a bad
// authenticator scan cannot lock the user out.
func (s *TOTPServiceImpl) Setup(ctx context.Context, account *domain.Account) (*domain.TOTPSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: account.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	codes, hashes, err := s.generateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	account.TOTPSecret = key.Secret()
	account.TOTPEnabled = false
	account.TOTPConfirmed = false
	account.BackupCodeHashes = hashes

	if err := s.accountRepo.UpdateTOTP(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to persist TOTP setup: %w", err)
	}

	return &domain.TOTPSetup{
		Secret:      key.Secret(),
		OTPAuthURL:  key.URL(),
		BackupCodes: codes,
	}, nil
}

// Confirm validates a code against the freshly issued secret before
// flipping the enabled and confirmed flags.
func (s *TOTPServiceImpl) Confirm(ctx context.Context, account *domain.Account, code string) error {
	if account.TOTPSecret == "" {
		return domain.ErrTwoFactorInvalid
	}

	valid, err := totp.ValidateCustom(strings.TrimSpace(code), account.TOTPSecret, time.Now(), validateOpts)
	if err != nil || !valid {
		return domain.ErrTwoFactorInvalid
	}

	account.TOTPEnabled = true
	account.TOTPConfirmed = true
	if err := s.accountRepo.UpdateTOTP(ctx, account); err != nil {
		return fmt.Errorf("failed to enable TOTP: %w", err)
	}
	return nil
}

// Verify checks a submitted code. Accounts without 2FA auto-pass. A
// TOTP mismatch falls back to the backup codes; a matching backup code
// hash is removed so each code works at most once.
func (s *TOTPServiceImpl) Verify(ctx context.Context, account *domain.Account, code string) (bool, error) {
	if !account.TOTPEnabled || !account.TOTPConfirmed {
		return true, nil
	}

	trimmed := strings.TrimSpace(code)
	valid, err := totp.ValidateCustom(trimmed, account.TOTPSecret, time.Now(), validateOpts)
	if err == nil && valid {
		return true, nil
	}

	normalized := normalizeBackupCode(code)
	for i, hash := range account.BackupCodeHashes {
		if s.passwordSvc.Verify(hash, normalized) {
			account.BackupCodeHashes = append(account.BackupCodeHashes[:i], account.BackupCodeHashes[i+1:]...)
			if err := s.accountRepo.UpdateTOTP(ctx, account); err != nil {
				return false, fmt.Errorf("failed to consume backup code: %w", err)
			}
			return true, nil
		}
	}

	return false, nil
}

// Disable clears the secret, the backup code hashes and both flags.
func (s *TOTPServiceImpl) Disable(ctx context.Context, account *domain.Account) error {
	account.TOTPSecret = ""
	account.TOTPEnabled = false
	account.TOTPConfirmed = false
	account.BackupCodeHashes = nil

	if err := s.accountRepo.UpdateTOTP(ctx, account); err != nil {
		return fmt.Errorf("failed to disable TOTP: %w", err)
	}
	return nil
}

// RegenerateBackupCodes replaces the stored hashes after revalidating
// the caller with a current code.
func (s *TOTPServiceImpl) RegenerateBackupCodes(ctx context.Context, account *domain.Account, code string) ([]string, error) {
	valid, err := s.Verify(ctx, account, code)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, domain.ErrTwoFactorInvalid
	}

	codes, hashes, err := s.generateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	account.BackupCodeHashes = hashes
	if err := s.accountRepo.UpdateTOTP(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to persist backup codes: %w", err)
	}
	return codes, nil
}

// generateBackupCodes returns cleartext codes for one-time display and
// their hashes for storage.
func (s *TOTPServiceImpl) generateBackupCodes() ([]string, []string, error) {
	codes := make([]string, 0, s.backupCodeCount)
	hashes := make([]string, 0, s.backupCodeCount)

	for i := 0; i < s.backupCodeCount; i++ {
		code, err := generateBackupCode()
		if err != nil {
			return nil, nil, err
		}
		hash, err := s.passwordSvc.Hash(normalizeBackupCode(code))
		if err != nil {
			return nil, nil, err
		}
		codes = append(codes, code)
		hashes = append(hashes, hash)
	}
	return codes, hashes, nil
}

// generateBackupCode produces an 8-digit code formatted XXXX-XXXX.
func generateBackupCode() (string, error) {
	digits := make([]byte, 8)
	for i := range digits {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits[:4]) + "-" + string(digits[4:]), nil
}

// normalizeBackupCode strips separators and whitespace so hashing is
// stable across input formats.
func normalizeBackupCode(code string) string {
	replacer := strings.NewReplacer("-", "", " ", "", "\t", "")
	return replacer.Replace(strings.TrimSpace(code))
}
