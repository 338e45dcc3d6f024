package mocks

import (
	"context"

	"github.com/you/authsvc/domain"
)

// MockRateLimiter implements domain.RateLimiter for testing
type MockRateLimiter struct {
	CheckFunc func(ctx context.Context, key string) (*domain.RateDecision, error)
}

// NewMockRateLimiter creates a new MockRateLimiter with default behaviors
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

func (m *MockRateLimiter) Check(ctx context.Context, key string) (*domain.RateDecision, error) {
	if m.CheckFunc != nil {
		return m.CheckFunc(ctx, key)
	}
	return &domain.RateDecision{Allowed: true}, nil
}
