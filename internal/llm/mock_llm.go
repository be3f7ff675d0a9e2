package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) SummarizeSection(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockClient) FinalSummary(ctx context.Context, sections []string) (string, []string, error) {
	args := m.Called(ctx, sections)
	var highlights []string
	if args.Get(1) != nil {
		highlights = args.Get(1).([]string)
	}
	return args.String(0), highlights, args.Error(2)
}

func (m *MockClient) NormalizeClaim(ctx context.Context, claimText string) (ClaimExtraction, error) {
	args := m.Called(ctx, claimText)
	return args.Get(0).(ClaimExtraction), args.Error(1)
}

func (m *MockClient) ClassifyQuestion(ctx context.Context, question string, prevQuestions []string) (QuestionIntent, error) {
	args := m.Called(ctx, question, prevQuestions)
	return args.Get(0).(QuestionIntent), args.Error(1)
}

func (m *MockClient) CompareQuotes(ctx context.Context, question, planText string, history []Turn) (string, error) {
	args := m.Called(ctx, question, planText, history)
	return args.String(0), args.Error(1)
}

func (m *MockClient) AssessRisk(ctx context.Context, documents string) (RiskAssessment, error) {
	args := m.Called(ctx, documents)
	return args.Get(0).(RiskAssessment), args.Error(1)
}
