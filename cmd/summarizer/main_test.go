package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"insurance-agents/internal/app"
	"insurance-agents/internal/chunker"
	"insurance-agents/internal/config"
	"insurance-agents/internal/llm"
	"insurance-agents/internal/store"
)

func newTestDeps(st store.Store, client llm.Client, mode string) app.WorkerDeps {
	return app.WorkerDeps{
		Config: config.Config{
			SummaryMode:    mode,
			SummaryWorkers: 4,
			ChunkWords:     10,
			ChunkOverlap:   2,
		},
		Log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store: st,
		LLM:   client,
	}
}

func TestHandleSummarize(t *testing.T) {
	policyID := uuid.New()

	tests := []struct {
		name    string
		payload summarizeTaskPayload
		mode    string
		setup   func(*store.MockStore, *llm.MockClient)
		wantErr bool
	}{
		{
			name: "successful summarization",
			payload: summarizeTaskPayload{
				PolicyID: policyID.String(),
				Filename: "policy.pdf",
				Content:  strings.Repeat("coverage terms apply here ", 20),
			},
			mode: "sequential",
			setup: func(s *store.MockStore, c *llm.MockClient) {
				c.On("SummarizeSection", mock.Anything, mock.Anything).Return("section summary", nil)
				c.On("FinalSummary", mock.Anything, mock.Anything).
					Return("Plain language summary. "+llm.SummaryDisclaimer, []string{"deductible 500"}, nil).Once()
				s.On("SavePolicySummary", mock.Anything, mock.MatchedBy(func(sum store.PolicySummary) bool {
					return sum.PolicyID == policyID && sum.Mode == "sequential" && sum.ChunkCount > 0
				})).Return(nil).Once()
				s.On("UpdatePolicyStatus", mock.Anything, policyID, store.StatusReady).Return(nil).Once()
			},
		},
		{
			name: "empty content marks policy failed",
			payload: summarizeTaskPayload{
				PolicyID: policyID.String(),
				Filename: "empty.pdf",
				Content:  "   \n\t ",
			},
			mode: "sequential",
			setup: func(s *store.MockStore, c *llm.MockClient) {
				s.On("UpdatePolicyStatus", mock.Anything, policyID, store.StatusFailed).Return(nil).Once()
			},
			wantErr: true,
		},
		{
			name: "chunk failure fails the whole run",
			payload: summarizeTaskPayload{
				PolicyID: policyID.String(),
				Filename: "policy.pdf",
				Content:  strings.Repeat("word ", 30),
			},
			mode: "concurrent",
			setup: func(s *store.MockStore, c *llm.MockClient) {
				c.On("SummarizeSection", mock.Anything, mock.Anything).
					Return("", errors.New("rate limited"))
				s.On("UpdatePolicyStatus", mock.Anything, policyID, store.StatusFailed).Return(nil).Once()
			},
			wantErr: true,
		},
		{
			name: "invalid policy id",
			payload: summarizeTaskPayload{
				PolicyID: "not-a-uuid",
				Content:  "some content",
			},
			mode:    "sequential",
			setup:   func(s *store.MockStore, c *llm.MockClient) {},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(store.MockStore)
			client := new(llm.MockClient)
			tt.setup(st, client)

			err := handleSummarize(context.Background(), newTestDeps(st, client, tt.mode), tt.payload)
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st.AssertExpectations(t)
			client.AssertExpectations(t)
		})
	}
}

func TestSummarizeConcurrentPreservesOrder(t *testing.T) {
	client := new(llm.MockClient)
	chunks := make([]chunker.Chunk, 8)
	for i := range chunks {
		text := fmt.Sprintf("chunk %d body", i)
		chunks[i] = chunker.Chunk{Index: i, Text: text, WordCount: 3}
		client.On("SummarizeSection", mock.Anything, text).Return(fmt.Sprintf("summary %d", i), nil).Once()
	}

	deps := newTestDeps(nil, client, "concurrent")
	sections, err := summarizeConcurrent(context.Background(), deps, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != len(chunks) {
		t.Fatalf("expected %d sections, got %d", len(chunks), len(sections))
	}
	// Sections line up with chunk indexes regardless of completion order.
	for i, s := range sections {
		if want := fmt.Sprintf("summary %d", i); s != want {
			t.Errorf("section %d: expected %q, got %q", i, want, s)
		}
	}
	client.AssertExpectations(t)
}

func TestSummarizeConcurrentFirstErrorWins(t *testing.T) {
	client := new(llm.MockClient)
	client.On("SummarizeSection", mock.Anything, "good").Return("ok", nil).Maybe()
	client.On("SummarizeSection", mock.Anything, "bad").Return("", errors.New("model error"))

	chunks := []chunker.Chunk{
		{Index: 0, Text: "good"},
		{Index: 1, Text: "bad"},
		{Index: 2, Text: "good"},
	}
	_, err := summarizeConcurrent(context.Background(), newTestDeps(nil, client, "concurrent"), chunks)
	if err == nil {
		t.Fatal("expected error when a chunk fails")
	}
	if !strings.Contains(err.Error(), "chunk 1") {
		t.Errorf("expected error to name the failed chunk, got %v", err)
	}
}
