package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"insurance-agents/internal/app"
	"insurance-agents/internal/httputil"
	"insurance-agents/internal/queue"
	"insurance-agents/internal/store"
	"insurance-agents/internal/textclean"
)

type dossierDocument struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type underwriteTaskPayload struct {
	DossierID string            `json:"dossier_id"`
	Applicant string            `json:"applicant"`
	Documents []dossierDocument `json:"documents"`
}

func main() {
	deps, err := app.BuildWorker("underwriter")
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("underwriter worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeUnderwrite, func(ctx context.Context, task queue.Task) error {
			var payload underwriteTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleUnderwrite(ctx, deps, payload)
		})
	})

	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, deps.Config.Port, "underwriter")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("underwriter service stopped", "err", err)
	}
}

func handleUnderwrite(ctx context.Context, deps app.WorkerDeps, payload underwriteTaskPayload) error {
	dossierID, err := uuid.Parse(payload.DossierID)
	if err != nil {
		return err
	}
	log := deps.Log.With("dossier_id", dossierID, "applicant", payload.Applicant)

	combined := combineDocuments(payload.Documents, deps.Config.MaxDocChars)
	if combined == "" {
		if upErr := deps.Store.UpdateDossierStatus(ctx, dossierID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark dossier failed", "err", upErr)
		}
		return fmt.Errorf("no valid document content for dossier %s", dossierID)
	}

	assessment, err := deps.LLM.AssessRisk(ctx, combined)
	if err != nil {
		if upErr := deps.Store.UpdateDossierStatus(ctx, dossierID, store.StatusFailed); upErr != nil {
			log.Error("failed to mark dossier failed", "err", upErr)
		}
		return err
	}

	report := store.RiskReport{
		DossierID:          dossierID,
		RiskScore:          assessment.RiskScore,
		RiskLevel:          assessment.RiskLevel,
		RiskSummary:        assessment.RiskSummary,
		KeyRiskFactors:     assessment.KeyRiskFactors,
		PositiveIndicators: assessment.PositiveIndicators,
		UnderwriterNotes:   assessment.UnderwriterNotes,
	}
	if err := deps.Store.SaveRiskReport(ctx, report); err != nil {
		return err
	}
	if err := deps.Store.UpdateDossierStatus(ctx, dossierID, store.StatusReady); err != nil {
		return err
	}
	log.Info("risk report saved", "score", report.RiskScore, "level", report.RiskLevel)
	return nil
}

// combineDocuments labels and concatenates the dossier documents, cleaning
// and truncating each so one oversized report cannot drown the others.
func combineDocuments(docs []dossierDocument, maxChars int) string {
	var b strings.Builder
	for _, doc := range docs {
		clean, _ := textclean.Clean(doc.Content)
		if clean == "" {
			continue
		}
		b.WriteString("\n\n--- ")
		b.WriteString(doc.Name)
		b.WriteString(" ---\n")
		b.WriteString(textclean.Truncate(clean, maxChars))
	}
	return strings.TrimSpace(b.String())
}
