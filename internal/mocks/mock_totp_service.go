package mocks

import (
	"context"

	"github.com/you/authsvc/domain"
)

// MockTOTPService implements domain.TOTPService for testing
type MockTOTPService struct {
	SetupFunc                 func(ctx context.Context, account *domain.Account) (*domain.TOTPSetup, error)
	ConfirmFunc               func(ctx context.Context, account *domain.Account, code string) error
	VerifyFunc                func(ctx context.Context, account *domain.Account, code string) (bool, error)
	DisableFunc               func(ctx context.Context, account *domain.Account) error
	RegenerateBackupCodesFunc func(ctx context.Context, account *domain.Account, code string) ([]string, error)
}

// NewMockTOTPService creates a new MockTOTPService with default behaviors
func NewMockTOTPService() *MockTOTPService {
	return &MockTOTPService{}
}

func (m *MockTOTPService) Setup(ctx context.Context, account *domain.Account) (*domain.TOTPSetup, error) {
	if m.SetupFunc != nil {
		return m.SetupFunc(ctx, account)
	}
	return &domain.TOTPSetup{
		Secret:      "MOCKSECRET234567",
		OTPAuthURL:  "otpauth://totp/mock",
		BackupCodes: []string{"1111-1111", "2222-2222"},
	}, nil
}

func (m *MockTOTPService) Confirm(ctx context.Context, account *domain.Account, code string) error {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, account, code)
	}
	account.TOTPEnabled = true
	account.TOTPConfirmed = true
	return nil
}

func (m *MockTOTPService) Verify(ctx context.Context, account *domain.Account, code string) (bool, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, account, code)
	}
	// Default behavior: pass when two-factor is not active
	if !account.TOTPEnabled || !account.TOTPConfirmed {
		return true, nil
	}
	return code == "123456", nil
}

func (m *MockTOTPService) Disable(ctx context.Context, account *domain.Account) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, account)
	}
	account.TOTPEnabled = false
	account.TOTPConfirmed = false
	account.TOTPSecret = ""
	return nil
}

func (m *MockTOTPService) RegenerateBackupCodes(ctx context.Context, account *domain.Account, code string) ([]string, error) {
	if m.RegenerateBackupCodesFunc != nil {
		return m.RegenerateBackupCodesFunc(ctx, account, code)
	}
	return []string{"3333-3333", "4444-4444"}, nil
}
