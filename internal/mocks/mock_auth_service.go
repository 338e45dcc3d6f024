package mocks

import (
	"context"

	"github.com/you/authsvc/domain"
)

// MockAuthService implements domain.AuthService for testing
type MockAuthService struct {
	AuthenticateFunc         func(ctx context.Context, username, password, clientIP string) (*domain.Account, error)
	AuthenticateWithTOTPFunc func(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error)
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{}
}

func (m *MockAuthService) Authenticate(ctx context.Context, username, password, clientIP string) (*domain.Account, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password, clientIP)
	}
	return &domain.Account{ID: 1, Username: username, Role: "user"}, nil
}

func (m *MockAuthService) AuthenticateWithTOTP(ctx context.Context, username, password, totpCode, clientIP string) (*domain.Account, error) {
	if m.AuthenticateWithTOTPFunc != nil {
		return m.AuthenticateWithTOTPFunc(ctx, username, password, totpCode, clientIP)
	}
	return &domain.Account{ID: 1, Username: username, Role: "user"}, nil
}
