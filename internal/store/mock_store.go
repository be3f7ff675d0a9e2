package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"insurance-agents/internal/embeddings"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreatePolicy(ctx context.Context, filename string) (Policy, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(Policy), args.Error(1)
}

func (m *MockStore) UpdatePolicyStatus(ctx context.Context, id uuid.UUID, status Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SavePolicySummary(ctx context.Context, s PolicySummary) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockStore) GetPolicySummary(ctx context.Context, policyID uuid.UUID) (PolicySummary, error) {
	args := m.Called(ctx, policyID)
	return args.Get(0).(PolicySummary), args.Error(1)
}

func (m *MockStore) SaveClaim(ctx context.Context, c Claim) (Claim, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(Claim), args.Error(1)
}

func (m *MockStore) ReplacePlans(ctx context.Context, plans []Plan, model string) error {
	args := m.Called(ctx, plans, model)
	return args.Error(0)
}

func (m *MockStore) SearchPlans(ctx context.Context, vector embeddings.Vector, premium float64, k int) ([]PlanMatch, error) {
	args := m.Called(ctx, vector, premium, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]PlanMatch), args.Error(1)
}

func (m *MockStore) CountReferenceDocs(ctx context.Context, collection string) (int, error) {
	args := m.Called(ctx, collection)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ReplaceReferenceDocs(ctx context.Context, collection string, docs []ReferenceDoc, model string) error {
	args := m.Called(ctx, collection, docs, model)
	return args.Error(0)
}

func (m *MockStore) SearchReference(ctx context.Context, collection string, vector embeddings.Vector, k int) ([]ReferenceMatch, error) {
	args := m.Called(ctx, collection, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ReferenceMatch), args.Error(1)
}

func (m *MockStore) CreateDossier(ctx context.Context, applicant string) (Dossier, error) {
	args := m.Called(ctx, applicant)
	return args.Get(0).(Dossier), args.Error(1)
}

func (m *MockStore) UpdateDossierStatus(ctx context.Context, id uuid.UUID, status Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) SaveRiskReport(ctx context.Context, r RiskReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockStore) GetRiskReport(ctx context.Context, dossierID uuid.UUID) (RiskReport, error) {
	args := m.Called(ctx, dossierID)
	return args.Get(0).(RiskReport), args.Error(1)
}
