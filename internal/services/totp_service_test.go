package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/you/authsvc/domain"
	"github.com/you/authsvc/internal/mocks"
)

func newTOTPFixture() (domain.TOTPService, *mocks.MockAccountRepository) {
	accountRepo := mocks.NewMockAccountRepository()
	passwordSvc := mocks.NewMockPasswordService()
	return NewTOTPService(accountRepo, passwordSvc, "authsvc-test", 10), accountRepo
}

// currentCode computes the code an authenticator app would show now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("failed to generate code: %v", err)
	}
	return code
}

func TestTOTPService_Setup(t *testing.T) {
	svc, accountRepo := newTOTPFixture()

	var persisted *domain.Account
	accountRepo.UpdateTOTPFunc = func(ctx context.Context, account *domain.Account) error {
		persisted = account
		return nil
	}

	account := &domain.Account{ID: 1, Username: "alice"}
	setup, err := svc.Setup(context.Background(), account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if setup.Secret == "" {
		t.Error("expected a secret")
	}
	if !strings.HasPrefix(setup.OTPAuthURL, "otpauth://totp/") {
		t.Errorf("expected an otpauth URL, got %q", setup.OTPAuthURL)
	}
	if !strings.Contains(setup.OTPAuthURL, "authsvc-test") {
		t.Errorf("expected issuer in URL, got %q", setup.OTPAuthURL)
	}
	if len(setup.BackupCodes) != 10 {
		t.Errorf("expected 10 backup codes, got %d", len(setup.BackupCodes))
	}
	for _, code := range setup.BackupCodes {
		if len(code) != 9 || code[4] != '-' {
			t.Errorf("expected XXXX-XXXX format, got %q", code)
		}
	}

	if persisted == nil {
		t.Fatal("expected account persisted")
	}
	if persisted.TOTPSecret != setup.Secret {
		t.Error("expected generated secret stored on account")
	}
	if persisted.TOTPEnabled || persisted.TOTPConfirmed {
		t.Error("expected setup to leave TOTP unconfirmed until Confirm")
	}
	if len(persisted.BackupCodeHashes) != 10 {
		t.Errorf("expected 10 backup code hashes, got %d", len(persisted.BackupCodeHashes))
	}
	for i, hash := range persisted.BackupCodeHashes {
		if hash == setup.BackupCodes[i] {
			t.Error("expected hashes at rest, not cleartext codes")
		}
	}
}

func TestTOTPService_Confirm(t *testing.T) {
	svc, _ := newTOTPFixture()

	account := &domain.Account{ID: 1, Username: "alice"}
	setup, err := svc.Setup(context.Background(), account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Confirm(context.Background(), account, "000000"); err != domain.ErrTwoFactorInvalid {
		t.Fatalf("expected ErrTwoFactorInvalid for a wrong code, got %v", err)
	}
	if account.TOTPEnabled {
		t.Error("expected a failed confirm to leave TOTP disabled")
	}

	if err := svc.Confirm(context.Background(), account, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !account.TOTPEnabled || !account.TOTPConfirmed {
		t.Error("expected confirm to enable TOTP")
	}
}

func TestTOTPService_Confirm_NoSecret(t *testing.T) {
	svc, _ := newTOTPFixture()
	account := &domain.Account{ID: 1}

	if err := svc.Confirm(context.Background(), account, "123456"); err != domain.ErrTwoFactorInvalid {
		t.Fatalf("expected ErrTwoFactorInvalid without a pending secret, got %v", err)
	}
}

func TestTOTPService_Verify(t *testing.T) {
	svc, _ := newTOTPFixture()

	account := &domain.Account{ID: 1, Username: "alice"}
	setup, err := svc.Setup(context.Background(), account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Confirm(context.Background(), account, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valid, err := svc.Verify(context.Background(), account, currentCode(t, setup.Secret))
	if err != nil || !valid {
		t.Errorf("expected current code to verify, got valid=%v err=%v", valid, err)
	}

	valid, err = svc.Verify(context.Background(), account, "000000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid {
		t.Error("expected a wrong code to fail")
	}
}

func TestTOTPService_Verify_DisabledAutoPasses(t *testing.T) {
	svc, _ := newTOTPFixture()

	tests := []struct {
		name    string
		account *domain.Account
	}{
		{name: "never set up", account: &domain.Account{ID: 1}},
		{name: "set up but unconfirmed", account: &domain.Account{ID: 1, TOTPSecret: "SECRET", TOTPEnabled: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, err := svc.Verify(context.Background(), tt.account, "")
			if err != nil || !valid {
				t.Errorf("expected auto-pass, got valid=%v err=%v", valid, err)
			}
		})
	}
}

func TestTOTPService_Verify_BackupCodeSingleUse(t *testing.T) {
	svc, _ := newTOTPFixture()

	account := &domain.Account{ID: 1, Username: "alice"}
	setup, err := svc.Setup(context.Background(), account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Confirm(context.Background(), account, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	backup := setup.BackupCodes[0]

	valid, err := svc.Verify(context.Background(), account, backup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !valid {
		t.Fatal("expected backup code to verify")
	}
	if len(account.BackupCodeHashes) != 9 {
		t.Errorf("expected consumed hash removed, got %d hashes", len(account.BackupCodeHashes))
	}

	// Same code again has no matching hash left.
	valid, err = svc.Verify(context.Background(), account, backup)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid {
		t.Error("expected a consumed backup code to be rejected")
	}
}

func TestTOTPService_Verify_BackupCodeNormalization(t *testing.T) {
	svc, _ := newTOTPFixture()

	account := &domain.Account{ID: 1, Username: "alice"}
	setup, err := svc.Setup(context.Background(), account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Confirm(context.Background(), account, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// "1234-5678" entered as " 1234 5678 " still matches.
	backup := setup.BackupCodes[0]
	entered := " " + strings.ReplaceAll(backup, "-", " ") + " "

	valid, err := svc.Verify(context.Background(), account, entered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !valid {
		t.Errorf("expected %q to match stored code %q", entered, backup)
	}
}

func TestTOTPService_Disable(t *testing.T) {
	svc, accountRepo := newTOTPFixture()

	var persisted *domain.Account
	accountRepo.UpdateTOTPFunc = func(ctx context.Context, account *domain.Account) error {
		persisted = account
		return nil
	}

	account := &domain.Account{
		ID:               1,
		TOTPSecret:       "SECRET",
		TOTPEnabled:      true,
		TOTPConfirmed:    true,
		BackupCodeHashes: []string{"h1", "h2"},
	}

	if err := svc.Disable(context.Background(), account); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.TOTPSecret != "" || account.TOTPEnabled || account.TOTPConfirmed {
		t.Error("expected secret and flags cleared")
	}
	if account.BackupCodeHashes != nil {
		t.Error("expected backup code hashes cleared")
	}
	if persisted == nil {
		t.Error("expected account persisted")
	}
}

func TestTOTPService_RegenerateBackupCodes(t *testing.T) {
	svc, _ := newTOTPFixture()

	account := &domain.Account{ID: 1, Username: "alice"}
	setup, err := svc.Setup(context.Background(), account)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Confirm(context.Background(), account, currentCode(t, setup.Secret)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.RegenerateBackupCodes(context.Background(), account, "000000"); err != domain.ErrTwoFactorInvalid {
		t.Fatalf("expected ErrTwoFactorInvalid without a valid code, got %v", err)
	}

	codes, err := svc.RegenerateBackupCodes(context.Background(), account, currentCode(t, setup.Secret))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 10 {
		t.Errorf("expected 10 fresh codes, got %d", len(codes))
	}

	// Old codes are gone; a fresh one works.
	valid, err := svc.Verify(context.Background(), account, setup.BackupCodes[1])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid {
		t.Error("expected old backup codes invalidated")
	}
	valid, err = svc.Verify(context.Background(), account, codes[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !valid {
		t.Error("expected fresh backup code to verify")
	}
}
