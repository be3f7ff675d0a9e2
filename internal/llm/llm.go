package llm

import "context"

// Client covers the language-model operations behind the insurance tools.
// Methods returning structs parse schema-constrained JSON output; a response
// that does not fit the schema is an error, never a partial result.
type Client interface {
	// SummarizeSection condenses one section of a policy document (map step).
	SummarizeSection(ctx context.Context, text string) (string, error)
	// FinalSummary merges section summaries into a plain-language policy
	// summary plus extracted highlight bullets (reduce step).
	FinalSummary(ctx context.Context, sections []string) (string, []string, error)
	// NormalizeClaim extracts loss_type, severity, and affected_asset from a
	// free-text claim note.
	NormalizeClaim(ctx context.Context, claimText string) (ClaimExtraction, error)
	// ClassifyQuestion labels a quote-chat question as NEW, FOLLOW_UP, or
	// INVALID and pulls out premium amounts.
	ClassifyQuestion(ctx context.Context, question string, prevQuestions []string) (QuestionIntent, error)
	// CompareQuotes answers a quote-comparison question over the retrieved
	// plan texts, carrying the conversation history.
	CompareQuotes(ctx context.Context, question, planText string, history []Turn) (string, error)
	// AssessRisk produces a structured underwriting risk report from the
	// combined applicant documents.
	AssessRisk(ctx context.Context, documents string) (RiskAssessment, error)
}

// Question types returned by ClassifyQuestion.
const (
	IntentNew      = "NEW"
	IntentFollowUp = "FOLLOW_UP"
	IntentInvalid  = "INVALID"
)

// SummaryDisclaimer is appended to every final policy summary.
const SummaryDisclaimer = "This summary is for informational purposes only and does not replace the full policy document."

// Turn is one user/bot exchange in a quote conversation.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}
