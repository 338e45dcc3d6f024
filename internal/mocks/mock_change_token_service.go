package mocks

import (
	"context"

	"github.com/you/authsvc/domain"
)

// MockChangeTokenService implements domain.ChangeTokenService for testing
type MockChangeTokenService struct {
	IssueFunc        func(ctx context.Context, account *domain.Account) (string, error)
	VerifyFunc       func(ctx context.Context, signedToken string) (*domain.Account, error)
	ConsumeFunc      func(ctx context.Context, signedToken string) (*domain.Account, error)
	PurgeExpiredFunc func(ctx context.Context) (int64, error)
}

// NewMockChangeTokenService creates a new MockChangeTokenService with default behaviors
func NewMockChangeTokenService() *MockChangeTokenService {
	return &MockChangeTokenService{}
}

func (m *MockChangeTokenService) Issue(ctx context.Context, account *domain.Account) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, account)
	}
	return "mock_change_token", nil
}

func (m *MockChangeTokenService) Verify(ctx context.Context, signedToken string) (*domain.Account, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, signedToken)
	}
	if signedToken != "mock_change_token" {
		return nil, domain.ErrChangeTokenInvalid
	}
	return &domain.Account{ID: 1, Username: "mockuser", MustChangePassword: true}, nil
}

func (m *MockChangeTokenService) Consume(ctx context.Context, signedToken string) (*domain.Account, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, signedToken)
	}
	if signedToken != "mock_change_token" {
		return nil, domain.ErrChangeTokenInvalid
	}
	return &domain.Account{ID: 1, Username: "mockuser", MustChangePassword: true}, nil
}

func (m *MockChangeTokenService) PurgeExpired(ctx context.Context) (int64, error) {
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx)
	}
	return 0, nil
}
