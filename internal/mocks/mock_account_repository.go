package mocks

import (
	"context"
	"time"

	"github.com/you/authsvc/domain"
)

// MockAccountRepository implements domain.AccountRepository for testing
type MockAccountRepository struct {
	CreateFunc         func(ctx context.Context, account *domain.Account) error
	FindByUsernameFunc func(ctx context.Context, username string) (*domain.Account, error)
	FindByIDFunc       func(ctx context.Context, id uint) (*domain.Account, error)
	UpdateFunc         func(ctx context.Context, account *domain.Account) error
	RecordFailureFunc  func(ctx context.Context, accountID uint, attempts uint, lockedUntil *time.Time) error
	RecordSuccessFunc  func(ctx context.Context, accountID uint, lastLoginIP string) error
	UpdatePasswordFunc func(ctx context.Context, accountID uint, passwordHash string) error
	UpdateTOTPFunc     func(ctx context.Context, account *domain.Account) error
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	account.ID = 1
	return nil
}

func (m *MockAccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return &domain.Account{
		ID:           1,
		Username:     username,
		PasswordHash: "hashed_password",
		Role:         "user",
	}, nil
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return &domain.Account{
		ID:           id,
		Username:     "mockuser",
		PasswordHash: "hashed_password",
		Role:         "user",
	}, nil
}

func (m *MockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, account)
	}
	return nil
}

func (m *MockAccountRepository) RecordFailure(ctx context.Context, accountID uint, attempts uint, lockedUntil *time.Time) error {
	if m.RecordFailureFunc != nil {
		return m.RecordFailureFunc(ctx, accountID, attempts, lockedUntil)
	}
	return nil
}

func (m *MockAccountRepository) RecordSuccess(ctx context.Context, accountID uint, lastLoginIP string) error {
	if m.RecordSuccessFunc != nil {
		return m.RecordSuccessFunc(ctx, accountID, lastLoginIP)
	}
	return nil
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, accountID uint, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, accountID, passwordHash)
	}
	return nil
}

func (m *MockAccountRepository) UpdateTOTP(ctx context.Context, account *domain.Account) error {
	if m.UpdateTOTPFunc != nil {
		return m.UpdateTOTPFunc(ctx, account)
	}
	return nil
}
