package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"insurance-agents/internal/app"
	"insurance-agents/internal/config"
	"insurance-agents/internal/llm"
	"insurance-agents/internal/store"
)

func newTestDeps(st store.Store, client llm.Client) app.WorkerDeps {
	return app.WorkerDeps{
		Config: config.Config{MaxDocChars: 5000},
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:  st,
		LLM:    client,
	}
}

func TestHandleUnderwrite(t *testing.T) {
	dossierID := uuid.New()
	assessment := llm.RiskAssessment{
		RiskScore:      68,
		RiskLevel:      "MEDIUM",
		RiskSummary:    "Applicant has a mixed claims history.",
		KeyRiskFactors: []string{"two claims in three years"},
	}

	tests := []struct {
		name    string
		payload underwriteTaskPayload
		setup   func(*store.MockStore, *llm.MockClient)
		wantErr bool
	}{
		{
			name: "successful assessment",
			payload: underwriteTaskPayload{
				DossierID: dossierID.String(),
				Applicant: "Jordan Reyes",
				Documents: []dossierDocument{
					{Name: "credit_report.pdf", Content: "Credit score 640, two late payments."},
					{Name: "claims_history.pdf", Content: "Two claims filed, both settled."},
				},
			},
			setup: func(s *store.MockStore, c *llm.MockClient) {
				c.On("AssessRisk", mock.Anything, mock.MatchedBy(func(docs string) bool {
					return strings.Contains(docs, "credit_report.pdf") && strings.Contains(docs, "claims_history.pdf")
				})).Return(assessment, nil).Once()
				s.On("SaveRiskReport", mock.Anything, mock.MatchedBy(func(r store.RiskReport) bool {
					return r.DossierID == dossierID && r.RiskScore == 68 && r.RiskLevel == "MEDIUM"
				})).Return(nil).Once()
				s.On("UpdateDossierStatus", mock.Anything, dossierID, store.StatusReady).Return(nil).Once()
			},
		},
		{
			name: "empty documents mark dossier failed",
			payload: underwriteTaskPayload{
				DossierID: dossierID.String(),
				Applicant: "Jordan Reyes",
				Documents: []dossierDocument{{Name: "blank.pdf", Content: "  \n\t "}},
			},
			setup: func(s *store.MockStore, c *llm.MockClient) {
				s.On("UpdateDossierStatus", mock.Anything, dossierID, store.StatusFailed).Return(nil).Once()
			},
			wantErr: true,
		},
		{
			name: "assessment failure marks dossier failed",
			payload: underwriteTaskPayload{
				DossierID: dossierID.String(),
				Documents: []dossierDocument{{Name: "report.pdf", Content: "Some report content here."}},
			},
			setup: func(s *store.MockStore, c *llm.MockClient) {
				c.On("AssessRisk", mock.Anything, mock.Anything).
					Return(llm.RiskAssessment{}, errors.New("model error")).Once()
				s.On("UpdateDossierStatus", mock.Anything, dossierID, store.StatusFailed).Return(nil).Once()
			},
			wantErr: true,
		},
		{
			name:    "invalid dossier id",
			payload: underwriteTaskPayload{DossierID: "not-a-uuid"},
			setup:   func(s *store.MockStore, c *llm.MockClient) {},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(store.MockStore)
			client := new(llm.MockClient)
			tt.setup(st, client)

			err := handleUnderwrite(context.Background(), newTestDeps(st, client), tt.payload)
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

func TestCombineDocuments(t *testing.T) {
	docs := []dossierDocument{
		{Name: "a.pdf", Content: "first   document\t\tcontent"},
		{Name: "empty.pdf", Content: "   "},
		{Name: "b.pdf", Content: strings.Repeat("x", 200)},
	}
	combined := combineDocuments(docs, 100)

	if !strings.Contains(combined, "--- a.pdf ---") || !strings.Contains(combined, "--- b.pdf ---") {
		t.Error("expected each document to be labeled")
	}
	if strings.Contains(combined, "empty.pdf") {
		t.Error("expected empty documents to be skipped")
	}
	if !strings.Contains(combined, "truncated 100 characters") {
		t.Error("expected oversized document to be truncated")
	}
	if strings.Contains(combined, "first   document") {
		t.Error("expected whitespace to be cleaned")
	}
}

func TestCombineDocumentsAllEmpty(t *testing.T) {
	combined := combineDocuments([]dossierDocument{{Name: "x.pdf", Content: "\n\t"}}, 100)
	if combined != "" {
		t.Errorf("expected empty result, got %q", combined)
	}
}
