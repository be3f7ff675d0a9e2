package cache

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCache is a mock implementation of the Cache interface for testing.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetClaimResult(ctx context.Context, key string) (*ClaimResult, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClaimResult), args.Error(1)
}

func (m *MockCache) SetClaimResult(ctx context.Context, key string, result *ClaimResult, ttl time.Duration) error {
	args := m.Called(ctx, key, result, ttl)
	return args.Error(0)
}

func (m *MockCache) GetConversation(ctx context.Context, sessionID string) (*Conversation, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Conversation), args.Error(1)
}

func (m *MockCache) SetConversation(ctx context.Context, sessionID string, conv *Conversation, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, conv, ttl)
	return args.Error(0)
}

func (m *MockCache) ClearConversation(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}
