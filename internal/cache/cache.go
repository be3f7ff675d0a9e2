package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"insurance-agents/internal/llm"
)

// Cache stores normalized-claim results and quote conversation state.
type Cache interface {
	// GetClaimResult retrieves a cached normalization result by key.
	// Returns nil on a miss.
	GetClaimResult(ctx context.Context, key string) (*ClaimResult, error)

	// SetClaimResult stores a normalization result with TTL.
	SetClaimResult(ctx context.Context, key string, result *ClaimResult, ttl time.Duration) error

	// GetConversation retrieves the quote-chat state for a session.
	// Returns nil when the session has no state.
	GetConversation(ctx context.Context, sessionID string) (*Conversation, error)

	// SetConversation stores the quote-chat state for a session with TTL.
	SetConversation(ctx context.Context, sessionID string, conv *Conversation, ttl time.Duration) error

	// ClearConversation drops the state for a session.
	ClearConversation(ctx context.Context, sessionID string) error

	// Close closes the cache connection.
	Close() error
}

// ClaimResult is a cached structured extraction for one claim text.
type ClaimResult struct {
	Extraction llm.ClaimExtraction `json:"extraction"`
}

// Conversation is the short-term state of one quote-comparison chat session.
// It lives only in the cache; losing it resets the conversation.
type Conversation struct {
	Turns         []llm.Turn `json:"turns"`
	PrevQuestions []string   `json:"prev_questions"`
	LastPlans     []string   `json:"last_plans"`
}

// ClaimKey derives a stable cache key from a claim text, so the same note
// normalized twice hits the cache regardless of surrounding whitespace.
func ClaimKey(claimText string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(claimText)))
	return hex.EncodeToString(sum[:])
}
