package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"insurance-agents/internal/app"
	"insurance-agents/internal/cache"
	"insurance-agents/internal/httputil"
	"insurance-agents/internal/llm"
	"insurance-agents/internal/store"
)

type normalizeRequest struct {
	ClaimRef  string `json:"claim_ref"`
	ClaimText string `json:"claim_text" validate:"required,min=10,max=5000"`
}

type normalizeResponse struct {
	ClaimID       string  `json:"claim_id,omitempty"`
	ClaimRef      string  `json:"claim_ref,omitempty"`
	LossType      *string `json:"loss_type"`
	Severity      *string `json:"severity"`
	AffectedAsset *string `json:"affected_asset"`
	Cached        bool    `json:"cached"`
	Error         string  `json:"error,omitempty"`
}

func main() {
	deps, err := app.BuildClaims()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/claims/normalize", normalizeHandler(deps))
	r.Post("/api/claims/normalize-batch", normalizeBatchHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("claims service listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server error", "err", err)
	}
}

func normalizeHandler(deps app.ClaimsDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req normalizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		resp, err := normalizeClaim(r.Context(), deps, req.ClaimRef, req.ClaimText)
		if err != nil {
			httputil.Fail(deps.Log, w, "claim normalization failed", err, http.StatusBadGateway)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

// normalizeClaim runs one extraction: cache lookup, LLM call on miss, persist,
// cache fill. The extraction either fits the constrained schema or errors.
func normalizeClaim(ctx context.Context, deps app.ClaimsDeps, claimRef, claimText string) (normalizeResponse, error) {
	key := cache.ClaimKey(claimText)

	var extraction llm.ClaimExtraction
	cached := false
	if hit, err := deps.Cache.GetClaimResult(ctx, key); err == nil && hit != nil {
		extraction = hit.Extraction
		cached = true
	} else {
		if err != nil {
			deps.Log.Warn("claim cache lookup failed", "err", err)
		}
		extraction, err = deps.LLM.NormalizeClaim(ctx, claimText)
		if err != nil {
			return normalizeResponse{}, err
		}
		ttl := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetClaimResult(ctx, key, &cache.ClaimResult{Extraction: extraction}, ttl); err != nil {
			deps.Log.Warn("failed to cache claim result", "err", err)
		}
	}

	saved, err := deps.Store.SaveClaim(ctx, store.Claim{
		ClaimRef:      claimRef,
		ClaimText:     claimText,
		LossType:      extraction.LossType,
		Severity:      extraction.Severity,
		AffectedAsset: extraction.AffectedAsset,
	})
	if err != nil {
		return normalizeResponse{}, fmt.Errorf("failed to persist claim: %w", err)
	}

	return normalizeResponse{
		ClaimID:       saved.ID.String(),
		ClaimRef:      claimRef,
		LossType:      extraction.LossType,
		Severity:      extraction.Severity,
		AffectedAsset: extraction.AffectedAsset,
		Cached:        cached,
	}, nil
}

func normalizeBatchHandler(deps app.ClaimsDeps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "CSV file is required", err, http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Size > maxFileSize {
			httputil.Fail(deps.Log, w, fmt.Sprintf("file too large (max %d bytes)", maxFileSize), nil, http.StatusBadRequest)
			return
		}

		rows, err := readClaimsCSV(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid CSV", err, http.StatusBadRequest)
			return
		}
		if len(rows) == 0 {
			httputil.Fail(deps.Log, w, "CSV contains no claims", nil, http.StatusBadRequest)
			return
		}

		// A failed item does not stop the batch; its error is reported in place.
		results := make([]normalizeResponse, 0, len(rows))
		failed := 0
		for _, row := range rows {
			resp, err := normalizeClaim(r.Context(), deps, row.claimRef, row.claimText)
			if err != nil {
				deps.Log.Warn("batch item failed", "claim_ref", row.claimRef, "err", err)
				results = append(results, normalizeResponse{ClaimRef: row.claimRef, Error: err.Error()})
				failed++
				continue
			}
			results = append(results, resp)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"total":     len(rows),
			"processed": len(rows) - failed,
			"failed":    failed,
			"results":   results,
		})
	}
}

type claimRow struct {
	claimRef  string
	claimText string
}

// readClaimsCSV parses rows of (claim_id, claim_text) with a header line.
func readClaimsCSV(r io.Reader) ([]claimRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header: %w", err)
	}
	if header[0] != "claim_id" || header[1] != "claim_text" {
		return nil, errors.New("expected header: claim_id,claim_text")
	}

	var rows []claimRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, claimRow{claimRef: record[0], claimText: record[1]})
	}
	return rows, nil
}
