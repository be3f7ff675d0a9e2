package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"insurance-agents/internal/app"
	"insurance-agents/internal/httputil"
	"insurance-agents/internal/pdftext"
	"insurance-agents/internal/store"
	"insurance-agents/internal/textclean"
)

const classifyTopK = 3

func main() {
	deps, err := app.BuildClassifier()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/reference", referenceHandler(deps))
	r.Post("/api/classify", classifyHandler(deps))
	r.Post("/api/classify-batch", classifyBatchHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("classifier service listening", "addr", addr, "collection", deps.Config.ReferenceCollection)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server error", "err", err)
	}
}

// referenceHandler runs the one-time reference ingestion. mode=keep leaves an
// existing collection untouched; mode=recreate replaces it wholesale.
func referenceHandler(deps app.ClassifierDeps) http.HandlerFunc {
	collection := deps.Config.ReferenceCollection
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			httputil.Fail(deps.Log, w, "invalid multipart form", err, http.StatusBadRequest)
			return
		}
		mode := r.FormValue("mode")
		if mode == "" {
			mode = "keep"
		}
		if mode != "keep" && mode != "recreate" {
			httputil.Fail(deps.Log, w, "mode must be 'keep' or 'recreate'", nil, http.StatusBadRequest)
			return
		}

		if mode == "keep" {
			existing, err := deps.Store.CountReferenceDocs(ctx, collection)
			if err != nil {
				httputil.Fail(deps.Log, w, "failed to inspect collection", err, http.StatusInternalServerError)
				return
			}
			if existing > 0 {
				httputil.WriteJSON(w, http.StatusOK, map[string]any{
					"collection": collection,
					"documents":  existing,
					"kept":       true,
				})
				return
			}
		}

		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			httputil.Fail(deps.Log, w, "at least one reference PDF is required in 'files'", nil, http.StatusBadRequest)
			return
		}

		docs := make([]store.ReferenceDoc, 0, len(headers))
		texts := make([]string, 0, len(headers))
		for _, h := range headers {
			text, err := readUploadText(h)
			if err != nil {
				httputil.Fail(deps.Log, w, fmt.Sprintf("failed to read %s", h.Filename), err, http.StatusBadRequest)
				return
			}
			clean, _ := textclean.Clean(text)
			if clean == "" {
				httputil.Fail(deps.Log, w, fmt.Sprintf("%s contains no extractable text", h.Filename), nil, http.StatusBadRequest)
				return
			}
			docs = append(docs, store.ReferenceDoc{
				Collection: collection,
				Label:      labelFromFilename(h.Filename),
				Content:    clean,
			})
			texts = append(texts, clean)
		}

		vectors, err := deps.Embedder.EmbedBatch(texts)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed reference documents", err, http.StatusBadGateway)
			return
		}
		for i := range docs {
			docs[i].Vector = vectors[i]
		}

		if err := deps.Store.ReplaceReferenceDocs(ctx, collection, docs, deps.Config.EmbeddingModel); err != nil {
			httputil.Fail(deps.Log, w, "failed to store reference documents", err, http.StatusInternalServerError)
			return
		}

		deps.Log.Info("reference collection populated", "collection", collection, "documents", len(docs), "mode", mode)
		httputil.WriteJSON(w, http.StatusCreated, map[string]any{
			"collection": collection,
			"documents":  len(docs),
			"kept":       false,
		})
	}
}

func classifyHandler(deps app.ClassifierDeps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
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

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read file", err, http.StatusInternalServerError)
			return
		}
		text, err := pdftext.Extract(header.Filename, content)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to extract document text", err, http.StatusBadRequest)
			return
		}
		clean, _ := textclean.Clean(text)
		if clean == "" {
			httputil.Fail(deps.Log, w, "document contains no extractable text", nil, http.StatusBadRequest)
			return
		}

		result, err := classifyDocument(r.Context(), deps, header.Filename, clean)
		if err != nil {
			if errors.Is(err, store.ErrCollectionEmpty) {
				httputil.Fail(deps.Log, w, "reference collection not initialized; ingest reference documents first", err, http.StatusConflict)
				return
			}
			if errors.Is(err, errNoMatch) {
				httputil.Fail(deps.Log, w, "no reference match found", err, http.StatusNotFound)
				return
			}
			httputil.Fail(deps.Log, w, "classification failed", err, http.StatusBadGateway)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, result)
	}
}

// classifyBatchHandler classifies several uploaded documents in one request.
// A failed file does not stop the batch; its error is reported in place. An
// uninitialized reference collection fails the whole request, since no file
// could succeed.
func classifyBatchHandler(deps app.ClassifierDeps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(maxFileSize); err != nil {
			httputil.Fail(deps.Log, w, "invalid multipart form", err, http.StatusBadRequest)
			return
		}
		headers := r.MultipartForm.File["files"]
		if len(headers) == 0 {
			httputil.Fail(deps.Log, w, "at least one document is required in 'files'", nil, http.StatusBadRequest)
			return
		}

		results := make([]classifyResult, 0, len(headers))
		failed := 0
		for _, h := range headers {
			result, err := classifyUpload(ctx, deps, h)
			if err != nil {
				if errors.Is(err, store.ErrCollectionEmpty) {
					httputil.Fail(deps.Log, w, "reference collection not initialized; ingest reference documents first", err, http.StatusConflict)
					return
				}
				deps.Log.Warn("batch item failed", "filename", h.Filename, "err", err)
				results = append(results, classifyResult{Filename: h.Filename, Error: err.Error()})
				failed++
				continue
			}
			results = append(results, result)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"total":     len(headers),
			"processed": len(headers) - failed,
			"failed":    failed,
			"results":   results,
		})
	}
}

type classifyResult struct {
	Filename   string              `json:"filename"`
	Label      string              `json:"label,omitempty"`
	Confidence float32             `json:"confidence,omitempty"`
	Method     string              `json:"method,omitempty"`
	Candidates []classifyCandidate `json:"candidates,omitempty"`
	Error      string              `json:"error,omitempty"`
}

type classifyCandidate struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

var errNoMatch = errors.New("no reference match found")

// classifyUpload runs the full per-file pipeline: read, extract, clean,
// embed, search.
func classifyUpload(ctx context.Context, deps app.ClassifierDeps, h *multipart.FileHeader) (classifyResult, error) {
	if h.Size > deps.Config.MaxUploadSize {
		return classifyResult{}, fmt.Errorf("file too large (max %d bytes)", deps.Config.MaxUploadSize)
	}
	text, err := readUploadText(h)
	if err != nil {
		return classifyResult{}, err
	}
	clean, _ := textclean.Clean(text)
	if clean == "" {
		return classifyResult{}, errors.New("document contains no extractable text")
	}
	return classifyDocument(ctx, deps, h.Filename, clean)
}

// classifyDocument embeds the cleaned text and picks the nearest reference
// label. Matches come back ordered by similarity with label as tie-break, so
// the first entry is the classification.
func classifyDocument(ctx context.Context, deps app.ClassifierDeps, filename, text string) (classifyResult, error) {
	vec, err := deps.Embedder.Embed(text)
	if err != nil {
		return classifyResult{}, fmt.Errorf("embed document: %w", err)
	}
	matches, err := deps.Store.SearchReference(ctx, deps.Config.ReferenceCollection, vec, classifyTopK)
	if err != nil {
		return classifyResult{}, err
	}
	if len(matches) == 0 {
		return classifyResult{}, errNoMatch
	}

	candidates := make([]classifyCandidate, len(matches))
	for i, m := range matches {
		candidates[i] = classifyCandidate{Label: m.Label, Score: m.Score}
	}
	return classifyResult{
		Filename:   filename,
		Label:      matches[0].Label,
		Confidence: matches[0].Score,
		Method:     "embedding-similarity",
		Candidates: candidates,
	}, nil
}

// labelFromFilename derives the reference label from the uploaded filename.
func labelFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func readUploadText(h *multipart.FileHeader) (string, error) {
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
