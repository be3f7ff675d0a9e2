package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"insurance-agents/internal/app"
	"insurance-agents/internal/chunker"
	"insurance-agents/internal/httputil"
	"insurance-agents/internal/queue"
	"insurance-agents/internal/store"
	"insurance-agents/internal/textclean"
)

type summarizeTaskPayload struct {
	PolicyID string `json:"policy_id"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func main() {
	deps, err := app.BuildWorker("summarizer")
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("summarizer worker starting", "mode", deps.Config.SummaryMode)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeSummarize, func(ctx context.Context, task queue.Task) error {
			var payload summarizeTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleSummarize(ctx, deps, payload)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "summarizer")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("summarizer service stopped", "err", err)
	}
}

func handleSummarize(ctx context.Context, deps app.WorkerDeps, payload summarizeTaskPayload) error {
	policyID, err := uuid.Parse(payload.PolicyID)
	if err != nil {
		return err
	}
	log := deps.Log.With("policy_id", policyID, "filename", payload.Filename)

	summary, err := summarizePolicy(ctx, deps, log, payload.Content)
	if err != nil {
		// Terminal for this attempt; the queue decides whether to retry.
		if upErr := deps.Store.UpdatePolicyStatus(ctx, policyID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark policy failed", "err", upErr)
		}
		return err
	}
	summary.PolicyID = policyID

	if err := deps.Store.SavePolicySummary(ctx, summary); err != nil {
		return err
	}
	if err := deps.Store.UpdatePolicyStatus(ctx, policyID, store.StatusReady); err != nil {
		return err
	}
	log.Info("policy summarized", "chunks", summary.ChunkCount, "mode", summary.Mode)
	return nil
}

// summarizePolicy runs the map/reduce pipeline: clean, chunk, summarize each
// chunk, then reduce the section summaries into the final plain-language
// summary.
func summarizePolicy(ctx context.Context, deps app.WorkerDeps, log *slog.Logger, content string) (store.PolicySummary, error) {
	clean, stats := textclean.Clean(content)
	if clean == "" {
		return store.PolicySummary{}, fmt.Errorf("document contains no extractable text")
	}
	log.Debug("text cleaned", "original_chars", stats.OriginalChars, "cleaned_chars", stats.CleanedChars)

	chunks := chunker.Split(clean, chunker.Options{
		MaxWords: deps.Config.ChunkWords,
		Overlap:  deps.Config.ChunkOverlap,
	})

	mode := deps.Config.SummaryMode
	var sections []string
	var err error
	switch mode {
	case "sequential":
		sections, err = summarizeSequential(ctx, deps, chunks)
	default:
		mode = "concurrent"
		sections, err = summarizeConcurrent(ctx, deps, chunks)
	}
	if err != nil {
		return store.PolicySummary{}, err
	}

	summary, highlights, err := deps.LLM.FinalSummary(ctx, sections)
	if err != nil {
		return store.PolicySummary{}, err
	}
	return store.PolicySummary{
		Summary:    summary,
		Highlights: highlights,
		ChunkCount: len(chunks),
		Mode:       mode,
	}, nil
}

func summarizeSequential(ctx context.Context, deps app.WorkerDeps, chunks []chunker.Chunk) ([]string, error) {
	sections := make([]string, len(chunks))
	for i, c := range chunks {
		section, err := deps.LLM.SummarizeSection(ctx, c.Text)
		if err != nil {
			return nil, fmt.Errorf("summarize chunk %d: %w", i, err)
		}
		sections[i] = section
	}
	return sections, nil
}

// summarizeConcurrent fans the chunk calls out and joins them. Results are
// slotted by chunk index, so the final summary does not depend on completion
// order; the first failed chunk fails the whole run.
func summarizeConcurrent(ctx context.Context, deps app.WorkerDeps, chunks []chunker.Chunk) ([]string, error) {
	sections := make([]string, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deps.Config.SummaryWorkers)

	for _, c := range chunks {
		g.Go(func() error {
			section, err := deps.LLM.SummarizeSection(gctx, c.Text)
			if err != nil {
				return fmt.Errorf("summarize chunk %d: %w", c.Index, err)
			}
			sections[c.Index] = section
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sections, nil
}
