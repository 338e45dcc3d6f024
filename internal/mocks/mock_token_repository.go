package mocks

import (
	"context"

	"github.com/you/authsvc/domain"
)

// MockChangeTokenRepository implements domain.ChangeTokenRepository for testing
type MockChangeTokenRepository struct {
	CreateFunc        func(ctx context.Context, token *domain.PasswordChangeToken) error
	FindActiveFunc    func(ctx context.Context, accountID uint, secret string) (*domain.PasswordChangeToken, error)
	ConsumeFunc       func(ctx context.Context, accountID uint, secret string) error
	InvalidateAllFunc func(ctx context.Context, accountID uint) error
	DeleteExpiredFunc func(ctx context.Context) (int64, error)
}

// NewMockChangeTokenRepository creates a new MockChangeTokenRepository with default behaviors
func NewMockChangeTokenRepository() *MockChangeTokenRepository {
	return &MockChangeTokenRepository{}
}

func (m *MockChangeTokenRepository) Create(ctx context.Context, token *domain.PasswordChangeToken) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	token.ID = 1
	return nil
}

func (m *MockChangeTokenRepository) FindActive(ctx context.Context, accountID uint, secret string) (*domain.PasswordChangeToken, error) {
	if m.FindActiveFunc != nil {
		return m.FindActiveFunc(ctx, accountID, secret)
	}
	return &domain.PasswordChangeToken{
		ID:        1,
		AccountID: accountID,
		Secret:    secret,
	}, nil
}

func (m *MockChangeTokenRepository) Consume(ctx context.Context, accountID uint, secret string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, accountID, secret)
	}
	return nil
}

func (m *MockChangeTokenRepository) InvalidateAll(ctx context.Context, accountID uint) error {
	if m.InvalidateAllFunc != nil {
		return m.InvalidateAllFunc(ctx, accountID)
	}
	return nil
}

func (m *MockChangeTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return 0, nil
}
