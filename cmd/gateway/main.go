package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"insurance-agents/internal/app"
	"insurance-agents/internal/httputil"
	"insurance-agents/internal/pdftext"
	"insurance-agents/internal/queue"
	"insurance-agents/internal/store"
)

type summarizeTaskPayload struct {
	PolicyID uuid.UUID `json:"policy_id"`
	Filename string    `json:"filename"`
	Content  string    `json:"content"`
}

type dossierDocument struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type underwriteTaskPayload struct {
	DossierID uuid.UUID         `json:"dossier_id"`
	Applicant string            `json:"applicant"`
	Documents []dossierDocument `json:"documents"`
}

func main() {
	deps, err := app.BuildGateway()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/policies/upload", uploadPolicyHandler(deps))
	r.Get("/api/policies/{id}/summary", summaryHandler(deps))
	r.Post("/api/dossiers/upload", uploadDossierHandler(deps))
	r.Get("/api/dossiers/{id}/report", reportHandler(deps))
	r.Post("/api/quotes/chat", forwardQuotesHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("gateway listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server failed", "err", err)
	}
}

func uploadPolicyHandler(deps app.GatewayDeps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if r.ContentLength > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}
		if !allowedUpload(header) {
			httputil.Fail(deps.Log, w, "unsupported file type (only PDF and TXT allowed)", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := pdftext.Extract(header.Filename, content)
		if err != nil {
			deps.Log.Warn("pdf extraction failed, using raw bytes", "err", err, "filename", header.Filename)
			text = string(content)
		}

		policy, err := deps.Store.CreatePolicy(ctx, header.Filename)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist policy", err, http.StatusInternalServerError)
			return
		}

		payload := summarizeTaskPayload{
			PolicyID: policy.ID,
			Filename: header.Filename,
			Content:  text,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			failPolicy(deps, ctx, w, "marshal payload failed", err, policy.ID, http.StatusInternalServerError)
			return
		}
		task := queue.Task{Type: queue.TaskTypeSummarize, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			failPolicy(deps, ctx, w, "failed to enqueue policy; please retry", err, policy.ID, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"policy_id": policy.ID.String(),
			"status":    policy.Status,
		})
	}
}

// failPolicy marks the policy failed before writing the error response.
func failPolicy(deps app.GatewayDeps, ctx context.Context, w http.ResponseWriter, message string, err error, policyID uuid.UUID, status int) {
	log := deps.Log.With("policy_id", policyID)
	if upErr := deps.Store.UpdatePolicyStatus(ctx, policyID, store.StatusFailed); upErr != nil {
		log.Error("failed to mark policy failed", "err", upErr)
	}
	httputil.Fail(log, w, message, err, status)
}

func summaryHandler(deps app.GatewayDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		policyID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid policy id", err, http.StatusBadRequest)
			return
		}
		sum, err := deps.Store.GetPolicySummary(r.Context(), policyID)
		if err != nil {
			httputil.Fail(deps.Log, w, "summary not ready", err, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"policy_id":  policyID,
			"summary":    sum.Summary,
			"highlights": sum.Highlights,
			"mode":       sum.Mode,
		})
	}
}

func uploadDossierHandler(deps app.GatewayDeps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			httputil.Fail(deps.Log, w, "invalid multipart form", err, http.StatusBadRequest)
			return
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			httputil.Fail(deps.Log, w, "at least one PDF is required in 'files'", nil, http.StatusBadRequest)
			return
		}

		applicant := r.FormValue("applicant")
		if applicant == "" {
			applicant = strings.TrimSuffix(headers[0].Filename, filepath.Ext(headers[0].Filename))
		}

		var docs []dossierDocument
		for _, h := range headers {
			if h.Size > maxFileSize {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file %s too large (max %d bytes)", h.Filename, maxFileSize), nil, http.StatusBadRequest)
				return
			}
			if !allowedUpload(h) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("file %s has an unsupported type (only PDF and TXT allowed)", h.Filename), nil, http.StatusBadRequest)
				return
			}
			text, err := readDossierFile(h)
			if err != nil {
				httputil.Fail(deps.Log, w, fmt.Sprintf("failed to read %s", h.Filename), err, http.StatusBadRequest)
				return
			}
			docs = append(docs, dossierDocument{Name: h.Filename, Content: text})
		}

		dossier, err := deps.Store.CreateDossier(ctx, applicant)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to persist dossier", err, http.StatusInternalServerError)
			return
		}

		body, err := json.Marshal(underwriteTaskPayload{
			DossierID: dossier.ID,
			Applicant: applicant,
			Documents: docs,
		})
		if err != nil {
			failDossier(deps, ctx, w, "marshal payload failed", err, dossier.ID, http.StatusInternalServerError)
			return
		}
		task := queue.Task{Type: queue.TaskTypeUnderwrite, Payload: body}
		if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
			failDossier(deps, ctx, w, "failed to enqueue dossier; please retry", err, dossier.ID, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{
			"dossier_id": dossier.ID.String(),
			"applicant":  applicant,
			"documents":  len(docs),
			"status":     dossier.Status,
		})
	}
}

func failDossier(deps app.GatewayDeps, ctx context.Context, w http.ResponseWriter, message string, err error, dossierID uuid.UUID, status int) {
	log := deps.Log.With("dossier_id", dossierID)
	if upErr := deps.Store.UpdateDossierStatus(ctx, dossierID, store.StatusFailed); upErr != nil {
		log.Error("failed to mark dossier failed", "err", upErr)
	}
	httputil.Fail(log, w, message, err, status)
}

func reportHandler(deps app.GatewayDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := chi.URLParam(r, "id")
		dossierID, err := uuid.Parse(idStr)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid dossier id", err, http.StatusBadRequest)
			return
		}
		report, err := deps.Store.GetRiskReport(r.Context(), dossierID)
		if err != nil {
			httputil.Fail(deps.Log, w, "risk report not ready", err, http.StatusNotFound)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"dossier_id":          dossierID,
			"risk_score":          report.RiskScore,
			"risk_level":          report.RiskLevel,
			"risk_summary":        report.RiskSummary,
			"key_risk_factors":    report.KeyRiskFactors,
			"positive_indicators": report.PositiveIndicators,
			"underwriter_notes":   report.UnderwriterNotes,
		})
	}
}

func forwardQuotesHandler(deps app.GatewayDeps) http.HandlerFunc {
	quotesURL := deps.Config.QuotesURL
	client := &http.Client{Timeout: 60 * time.Second}

	return func(w http.ResponseWriter, r *http.Request) {
		req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, quotesURL, r.Body)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to create request", err, http.StatusInternalServerError)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			httputil.Fail(deps.Log, w, "quotes service unavailable", err, http.StatusServiceUnavailable)
			return
		}
		defer resp.Body.Close()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			deps.Log.Error("failed to copy response", "err", err)
		}
	}
}

// allowedUpload accepts PDF and plain-text uploads, falling back to the file
// extension when Content-Type is missing or the generic octet-stream some
// clients send.
func allowedUpload(header *multipart.FileHeader) bool {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".txt":
			contentType = "text/plain"
		case ".pdf":
			contentType = "application/pdf"
		}
	}
	return contentType == "text/plain" || contentType == "application/pdf"
}

// readDossierFile opens one multipart file and extracts its text.
func readDossierFile(h *multipart.FileHeader) (string, error) {
	f, err := h.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return pdftext.Extract(h.Filename, content)
}
