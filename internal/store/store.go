package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"insurance-agents/internal/embeddings"
)

// Status tracks async pipeline progress for policies and dossiers.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

var (
	ErrSummaryNotFound = errors.New("summary not found")
	ErrReportNotFound  = errors.New("risk report not found")
	// ErrCollectionEmpty signals that the reference set has not been ingested
	// yet; the caller must run the one-time embedding step first.
	ErrCollectionEmpty = errors.New("reference collection not initialized")
)

// Policy is an uploaded policy document awaiting or holding a summary.
type Policy struct {
	ID        uuid.UUID
	Filename  string
	Status    Status
	CreatedAt time.Time
}

// PolicySummary is the final plain-language summary of a policy.
type PolicySummary struct {
	PolicyID   uuid.UUID
	Summary    string
	Highlights []string
	ChunkCount int
	Mode       string // "concurrent" or "sequential"
}

// Claim is a normalized claim note.
type Claim struct {
	ID            uuid.UUID
	ClaimRef      string
	ClaimText     string
	LossType      *string
	Severity      *string
	AffectedAsset *string
	CreatedAt     time.Time
}

// Plan is a static insurance plan reference entry with its embedding.
type Plan struct {
	ID         uuid.UUID
	Premium    float64
	SumInsured float64
	Deductible float64
	FamilySize int
	Content    string
	Source     string
	Vector     embeddings.Vector
}

// PlanMatch is a plan returned from similarity search.
type PlanMatch struct {
	Plan  Plan
	Score float32
}

// ReferenceDoc is one labelled document in a classifier reference collection.
type ReferenceDoc struct {
	ID         uuid.UUID
	Collection string
	Label      string
	Content    string
	Vector     embeddings.Vector
}

// ReferenceMatch is a classification candidate with its similarity score.
type ReferenceMatch struct {
	Label string
	Score float32
}

// Dossier groups the uploaded documents for one underwriting applicant.
type Dossier struct {
	ID        uuid.UUID
	Applicant string
	Status    Status
	CreatedAt time.Time
}

// RiskReport is the structured underwriting output for a dossier.
type RiskReport struct {
	DossierID          uuid.UUID
	RiskScore          int
	RiskLevel          string
	RiskSummary        string
	KeyRiskFactors     []string
	PositiveIndicators []string
	UnderwriterNotes   string
}

// Store defines the persistence contract shared by all services.
type Store interface {
	// Policy summarizer
	CreatePolicy(ctx context.Context, filename string) (Policy, error)
	UpdatePolicyStatus(ctx context.Context, id uuid.UUID, status Status) error
	SavePolicySummary(ctx context.Context, s PolicySummary) error
	GetPolicySummary(ctx context.Context, policyID uuid.UUID) (PolicySummary, error)

	// Claims normalizer
	SaveClaim(ctx context.Context, c Claim) (Claim, error)

	// Quote comparison
	ReplacePlans(ctx context.Context, plans []Plan, model string) error
	SearchPlans(ctx context.Context, vector embeddings.Vector, premium float64, k int) ([]PlanMatch, error)

	// Document classifier
	CountReferenceDocs(ctx context.Context, collection string) (int, error)
	ReplaceReferenceDocs(ctx context.Context, collection string, docs []ReferenceDoc, model string) error
	SearchReference(ctx context.Context, collection string, vector embeddings.Vector, k int) ([]ReferenceMatch, error)

	// Underwriting
	CreateDossier(ctx context.Context, applicant string) (Dossier, error)
	UpdateDossierStatus(ctx context.Context, id uuid.UUID, status Status) error
	SaveRiskReport(ctx context.Context, r RiskReport) error
	GetRiskReport(ctx context.Context, dossierID uuid.UUID) (RiskReport, error)
}
