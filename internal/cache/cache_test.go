package cache

import (
	"context"
	"testing"
	"time"

	"insurance-agents/internal/llm"
)

func TestClaimKeyStable(t *testing.T) {
	a := ClaimKey("rear-ended at a red light, bumper damage")
	b := ClaimKey("rear-ended at a red light, bumper damage")
	if a != b {
		t.Error("expected identical texts to produce identical keys")
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char hex key, got %d chars", len(a))
	}
}

func TestClaimKeyIgnoresSurroundingWhitespace(t *testing.T) {
	a := ClaimKey("water leak in the kitchen")
	b := ClaimKey("  water leak in the kitchen \n")
	if a != b {
		t.Error("expected surrounding whitespace to not change the key")
	}
}

func TestClaimKeyDistinct(t *testing.T) {
	if ClaimKey("claim one") == ClaimKey("claim two") {
		t.Error("expected different texts to produce different keys")
	}
}

func TestNoOpCacheClaimsAlwaysMiss(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	if err := c.SetClaimResult(ctx, "key", &ClaimResult{}, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hit, err := c.GetClaimResult(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit != nil {
		t.Error("expected claim lookups to always miss in the no-op cache")
	}
}

func TestNoOpCacheHoldsConversations(t *testing.T) {
	c := NewNoOpCache()
	ctx := context.Background()

	conv := &Conversation{
		Turns:         []llm.Turn{{User: "compare 18000, 22500", Bot: "Plan A vs Plan B"}},
		PrevQuestions: []string{"compare 18000, 22500"},
		LastPlans:     []string{"Plan A", "Plan B"},
	}
	if err := c.SetConversation(ctx, "s1", conv, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.GetConversation(ctx, "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got.Turns) != 1 || got.Turns[0].User != "compare 18000, 22500" {
		t.Errorf("unexpected conversation state: %+v", got)
	}

	if err := c.ClearConversation(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = c.GetConversation(ctx, "s1")
	if got != nil {
		t.Error("expected conversation to be gone after clear")
	}

	// Unknown sessions read as nil, not an error.
	got, err = c.GetConversation(ctx, "never-seen")
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for unknown session, got %+v, %v", got, err)
	}
}
