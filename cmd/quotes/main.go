package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"insurance-agents/internal/app"
	"insurance-agents/internal/cache"
	"insurance-agents/internal/httputil"
	"insurance-agents/internal/llm"
	"insurance-agents/internal/store"
)

type chatRequest struct {
	SessionID string `json:"session_id" validate:"required,min=1,max=128"`
	Question  string `json:"question" validate:"required,min=3,max=500"`
}

type resetRequest struct {
	SessionID string `json:"session_id" validate:"required,min=1,max=128"`
}

type planEntry struct {
	Content    string  `json:"content" validate:"required"`
	Premium    float64 `json:"premium" validate:"required,gt=0"`
	SumInsured float64 `json:"sum_insured"`
	Deductible float64 `json:"deductible"`
	FamilySize int     `json:"family_size"`
	Source     string  `json:"source"`
}

const invalidGuidance = "Please provide 2-3 premium amounts to compare.\nExample: 'compare 18000, 22500, 28000'"

func main() {
	deps, err := app.BuildQuotes()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/chat", chatHandler(deps))
	r.Post("/api/reset", resetHandler(deps))
	r.Post("/api/plans", ingestPlansHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("quotes service listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server error", "err", err)
	}
}

func chatHandler(deps app.QuotesDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		ctx := r.Context()

		conv, err := deps.Cache.GetConversation(ctx, req.SessionID)
		if err != nil {
			deps.Log.Warn("conversation lookup failed", "err", err)
		}
		if conv == nil {
			conv = &cache.Conversation{}
		}

		intent, err := deps.LLM.ClassifyQuestion(ctx, req.Question, conv.PrevQuestions)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to classify question", err, http.StatusBadGateway)
			return
		}

		switch intent.QuestionType {
		case llm.IntentInvalid:
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"question_type": intent.QuestionType,
				"answer":        fmt.Sprintf("%s\n\nReason: %s", invalidGuidance, intent.Reason),
				"reason":        intent.Reason,
			})
			return

		case llm.IntentNew:
			plans, err := retrievePlans(ctx, deps, intent.PremiumAmounts)
			if err != nil {
				httputil.Fail(deps.Log, w, "plan search failed", err, http.StatusInternalServerError)
				return
			}
			if len(plans) == 0 {
				httputil.WriteJSON(w, http.StatusOK, map[string]any{
					"question_type": intent.QuestionType,
					"answer":        fmt.Sprintf("No plans found for premiums: %v", intent.PremiumAmounts),
					"premiums":      intent.PremiumAmounts,
				})
				return
			}
			answerAndRespond(ctx, deps, w, req, conv, intent, plans)

		case llm.IntentFollowUp:
			if len(conv.Turns) == 0 {
				httputil.WriteJSON(w, http.StatusOK, map[string]any{
					"question_type": intent.QuestionType,
					"answer":        "Please ask a comparison question first with 2-3 premiums.",
				})
				return
			}
			// Reuse the plans retrieved for the previous comparison.
			answerAndRespond(ctx, deps, w, req, conv, intent, conv.LastPlans)
		}
	}
}

// answerAndRespond generates the comparison answer, persists the updated
// conversation, and writes the response.
func answerAndRespond(ctx context.Context, deps app.QuotesDeps, w http.ResponseWriter, req chatRequest, conv *cache.Conversation, intent llm.QuestionIntent, plans []string) {
	planText := strings.Join(plans, "\n\n")
	answer, err := deps.LLM.CompareQuotes(ctx, req.Question, planText, conv.Turns)
	if err != nil {
		httputil.Fail(deps.Log, w, "failed to generate answer", err, http.StatusBadGateway)
		return
	}

	conv.Turns = append(conv.Turns, llm.Turn{User: req.Question, Bot: answer})
	conv.PrevQuestions = append(conv.PrevQuestions, req.Question)
	conv.LastPlans = plans
	ttl := time.Duration(deps.Config.SessionTTL) * time.Second
	if err := deps.Cache.SetConversation(ctx, req.SessionID, conv, ttl); err != nil {
		deps.Log.Warn("failed to save conversation", "err", err)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"question_type": intent.QuestionType,
		"answer":        answer,
		"premiums":      intent.PremiumAmounts,
	})
}

// retrievePlans fetches the nearest plan for each premium amount, filtered by
// exact premium match.
func retrievePlans(ctx context.Context, deps app.QuotesDeps, premiums []float64) ([]string, error) {
	var plans []string
	for _, premium := range premiums {
		vec, err := deps.Embedder.Embed(fmt.Sprintf("insurance plan %v", premium))
		if err != nil {
			return nil, fmt.Errorf("embed query: %w", err)
		}
		matches, err := deps.Store.SearchPlans(ctx, vec, premium, 1)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			plans = append(plans, matches[0].Plan.Content)
		}
	}
	return plans, nil
}

func resetHandler(deps app.QuotesDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if err := deps.Cache.ClearConversation(r.Context(), req.SessionID); err != nil {
			httputil.Fail(deps.Log, w, "failed to reset conversation", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"reset": true})
	}
}

// ingestPlansHandler loads the static plan reference set. The set is replaced
// wholesale; plans are never patched in place.
func ingestPlansHandler(deps app.QuotesDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var entries []planEntry
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if len(entries) == 0 {
			httputil.Fail(deps.Log, w, "at least one plan is required", nil, http.StatusBadRequest)
			return
		}
		for i := range entries {
			if err := httputil.Validator.Struct(&entries[i]); err != nil {
				httputil.ValidationError(deps.Log, w, err)
				return
			}
		}

		texts := make([]string, len(entries))
		for i, e := range entries {
			texts[i] = e.Content
		}
		vectors, err := deps.Embedder.EmbedBatch(texts)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed plans", err, http.StatusBadGateway)
			return
		}

		plans := make([]store.Plan, len(entries))
		for i, e := range entries {
			plans[i] = store.Plan{
				Premium:    e.Premium,
				SumInsured: e.SumInsured,
				Deductible: e.Deductible,
				FamilySize: e.FamilySize,
				Content:    e.Content,
				Source:     e.Source,
				Vector:     vectors[i],
			}
		}
		if err := deps.Store.ReplacePlans(r.Context(), plans, deps.Config.EmbeddingModel); err != nil {
			httputil.Fail(deps.Log, w, "failed to store plans", err, http.StatusInternalServerError)
			return
		}

		deps.Log.Info("plan reference set replaced", "plans", len(plans))
		httputil.WriteJSON(w, http.StatusCreated, map[string]any{"plans": len(plans)})
	}
}
