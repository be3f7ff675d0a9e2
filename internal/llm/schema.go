package llm

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ClaimExtraction is the structured form of a free-text claim note. Fields are
// pointers because the note may simply not contain the information; the model
// is instructed to return null rather than guess.
type ClaimExtraction struct {
	LossType      *string `json:"loss_type" validate:"omitempty,oneof=Accident Theft Fire 'Water Damage' Health Electronics Liability 'Natural Disaster'"`
	Severity      *string `json:"severity" validate:"omitempty,oneof=Low Medium High"`
	AffectedAsset *string `json:"affected_asset" validate:"omitempty,oneof=Vehicle Property Health Electronics Jewelry Other"`
}

// QuestionIntent is the classifier verdict for a quote-chat question.
type QuestionIntent struct {
	QuestionType   string    `json:"question_type" validate:"required,oneof=NEW FOLLOW_UP INVALID"`
	PremiumAmounts []float64 `json:"premium_amounts"`
	Reason         string    `json:"reason"`
}

// RiskAssessment is the structured underwriting report.
type RiskAssessment struct {
	RiskScore          int      `json:"risk_score" validate:"min=0,max=100"`
	RiskLevel          string   `json:"risk_level" validate:"required,oneof=LOW MEDIUM HIGH"`
	RiskSummary        string   `json:"risk_summary" validate:"required"`
	KeyRiskFactors     []string `json:"key_risk_factors"`
	PositiveIndicators []string `json:"positive_indicators"`
	UnderwriterNotes   string   `json:"underwriter_notes"`
}

// decodeStructured parses model output into dst and validates it against the
// schema tags. Both failure modes collapse into one terminal error.
func decodeStructured(content string, dst any) error {
	if err := json.Unmarshal([]byte(content), dst); err != nil {
		return fmt.Errorf("response is not valid JSON: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("response did not match expected structure: %w", err)
	}
	return nil
}
