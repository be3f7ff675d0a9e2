package cache

import (
	"context"
	"sync"
	"time"
)

// NoOpCache is the fallback when Redis is unavailable. Claim lookups always
// miss; conversation state is held in process memory so a single chat session
// still works (and is lost on restart, which matches the session contract).
type NoOpCache struct {
	mu       sync.Mutex
	sessions map[string]*Conversation
}

// NewNoOpCache creates a new no-op cache instance.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{sessions: make(map[string]*Conversation)}
}

func (c *NoOpCache) GetClaimResult(ctx context.Context, key string) (*ClaimResult, error) {
	return nil, nil
}

func (c *NoOpCache) SetClaimResult(ctx context.Context, key string, result *ClaimResult, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) GetConversation(ctx context.Context, sessionID string) (*Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[sessionID], nil
}

func (c *NoOpCache) SetConversation(ctx context.Context, sessionID string, conv *Conversation, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = conv
	return nil
}

func (c *NoOpCache) ClearConversation(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
