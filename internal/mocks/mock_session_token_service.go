package mocks

import (
	"time"

	"github.com/you/authsvc/domain"
)

// MockSessionTokenService implements domain.SessionTokenService for testing
type MockSessionTokenService struct {
	GenerateFunc func(accountID uint, role, sessionID string) (string, error)
	ValidateFunc func(token string) (*domain.SessionClaims, error)
}

// NewMockSessionTokenService creates a new MockSessionTokenService with default behaviors
func NewMockSessionTokenService() *MockSessionTokenService {
	return &MockSessionTokenService{}
}

func (m *MockSessionTokenService) Generate(accountID uint, role, sessionID string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(accountID, role, sessionID)
	}
	return "mock_access_token", nil
}

func (m *MockSessionTokenService) Validate(token string) (*domain.SessionClaims, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	if token != "mock_access_token" {
		return nil, domain.ErrUnauthorized
	}
	now := time.Now()
	return &domain.SessionClaims{
		AccountID: 1,
		Role:      "user",
		SessionID: "sess_mock",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}, nil
}
