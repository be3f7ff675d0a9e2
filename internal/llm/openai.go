package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient calls the OpenAI Chat Completions API.
type OpenAIClient struct {
	model  openai.ChatModel
	client *openai.Client
}

const (
	defaultChatTimeout = 60 * time.Second

	summaryTemperature    = 0.1
	answerTemperature     = 0.2
	structuredTemperature = 0.0
)

const sectionSystemPrompt = "You are an insurance domain expert. " +
	"Summarize the following section of a policy document. " +
	"Extract facts only. Do NOT add assumptions. " +
	"Focus on coverage, exclusions, limits, waiting periods, and conditions."

const finalSummarySystemPrompt = "You are an insurance expert. " +
	"Using the following section summaries, generate a concise, plain-language insurance policy summary.\n\n" +
	"Clearly explain:\n" +
	"1. What is covered\n" +
	"2. What is NOT covered (exclusions)\n" +
	"3. Important limits, waiting periods, and conditions\n\n" +
	"For the most important points add bullet points (using - or *). " +
	"Keep it under 200 words and easy for a non-technical reader. " +
	"Add this line at the end: " + SummaryDisclaimer

const claimSystemPrompt = `You are an insurance claims expert.

From the claim description, extract:
- loss_type (one of: Accident, Theft, Fire, Water Damage, Health, Electronics, Liability, Natural Disaster)
- severity (one of: Low, Medium, High)
- affected_asset (one of: Vehicle, Property, Health, Electronics, Jewelry, Other)

Rules:
- Respond with a JSON object containing exactly those three keys
- If information is missing, use null for that key
- Do NOT add assumptions`

const intentSystemPrompt = `You are a query classifier for an insurance comparison chatbot.

Your job: Analyze user questions and extract premium amounts.

Classification rules:
1. NEW: User provides 2-3 premium amounts to compare
   - Must have at least 2 numbers
   - Can be any format: "18000, 22500" or "compare 18k and 22.5k" or "18000 vs 22500"
2. FOLLOW_UP: User asks about previously shown results
   - Questions like "which is cheaper?", "which has no deductible?", "best for family of 4?"
   - NO new premium amounts mentioned
3. INVALID:
   - Only 1 premium amount (need at least 2)
   - No premium amounts at all
   - Not insurance related
   - More than 3 premiums

Respond with JSON only:
{"question_type": "NEW" | "FOLLOW_UP" | "INVALID", "premium_amounts": [numbers] or null, "reason": "brief explanation"}`

const advisorSystemPrompt = `You are an expert insurance advisor who explains insurance plans in simple, easy-to-understand language.

Your job: Compare insurance plans and help users make informed decisions.

Focus on premium, sum insured, deductible, family size, waiting periods, room rent limits, and co-payment. Use simple language, bullet points, and specific numbers. Explain trade-offs clearly and make a recommendation based on the user's needs.

Do not make up information, do not mention plans that are not provided, and do not use complex insurance terms without explaining them.`

const underwritingSystemPrompt = `You are an insurance underwriting co-pilot.

Your job is to assist a human underwriter by analyzing:
1. Applicant data
2. Prior claims history
3. External verification reports

You must:
- Summarize overall risk clearly
- Highlight key risk factors
- Highlight positive indicators
- Assign a risk score from 0 to 100
- Classify risk as LOW, MEDIUM, or HIGH
- Do NOT approve or reject the policy
- Do NOT invent facts
- Base conclusions ONLY on the provided data

Respond with JSON only:
{"risk_score": 0-100, "risk_level": "LOW"|"MEDIUM"|"HIGH", "risk_summary": "2-3 sentences", "key_risk_factors": [strings], "positive_indicators": [strings], "underwriter_notes": "short actionable note"}`

// NewOpenAIClient builds a client with defaults against api.openai.com.
func NewOpenAIClient(apiKey string, model openai.ChatModel) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{
		model:  model,
		client: &cli,
	}, nil
}

func (c *OpenAIClient) SummarizeSection(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, buildMessages(sectionSystemPrompt, text), summaryTemperature, false)
}

func (c *OpenAIClient) FinalSummary(ctx context.Context, sections []string) (string, []string, error) {
	combined := strings.Join(sections, "\n")
	content, err := c.complete(ctx, buildMessages(finalSummarySystemPrompt, combined), summaryTemperature, false)
	if err != nil {
		return "", nil, err
	}
	summary, highlights := splitHighlights(content)
	return summary, highlights, nil
}

func (c *OpenAIClient) NormalizeClaim(ctx context.Context, claimText string) (ClaimExtraction, error) {
	content, err := c.complete(ctx, buildMessages(claimSystemPrompt, "Claim description:\n"+claimText), structuredTemperature, true)
	if err != nil {
		return ClaimExtraction{}, err
	}
	var out ClaimExtraction
	if err := decodeStructured(content, &out); err != nil {
		return ClaimExtraction{}, err
	}
	return out, nil
}

func (c *OpenAIClient) ClassifyQuestion(ctx context.Context, question string, prevQuestions []string) (QuestionIntent, error) {
	prevContext := "None"
	if len(prevQuestions) > 0 {
		var b strings.Builder
		for _, q := range prevQuestions {
			b.WriteString("- ")
			b.WriteString(q)
			b.WriteString("\n")
		}
		prevContext = b.String()
	}
	user := fmt.Sprintf("Previous questions asked by user:\n%s\nCurrent question: %q\nClassify this question and extract premium amounts.", prevContext, question)

	content, err := c.complete(ctx, buildMessages(intentSystemPrompt, user), structuredTemperature, true)
	if err != nil {
		return QuestionIntent{}, err
	}
	var out QuestionIntent
	if err := decodeStructured(content, &out); err != nil {
		return QuestionIntent{}, err
	}
	return out, nil
}

func (c *OpenAIClient) CompareQuotes(ctx context.Context, question, planText string, history []Turn) (string, error) {
	if planText == "" {
		planText = "No plans available"
	}
	messages := []openai.ChatCompletionMessageParamUnion{systemMessage(advisorSystemPrompt)}
	for _, turn := range history {
		messages = append(messages, userMessage(turn.User), assistantMessage(turn.Bot))
	}
	current := fmt.Sprintf("Here are the insurance plans to compare:\n%s\nUser's question: %s\nPlease compare these plans and answer the user's question in simple, clear terms.", planText, question)
	messages = append(messages, userMessage(current))

	return c.complete(ctx, messages, answerTemperature, false)
}

func (c *OpenAIClient) AssessRisk(ctx context.Context, documents string) (RiskAssessment, error) {
	user := fmt.Sprintf("Below are the underwriting documents for a single applicant.\n\nAnalyze them carefully and provide a structured risk assessment.\n\nDOCUMENTS:\n%s", documents)
	content, err := c.complete(ctx, buildMessages(underwritingSystemPrompt, user), structuredTemperature, true)
	if err != nil {
		return RiskAssessment{}, err
	}
	var out RiskAssessment
	if err := decodeStructured(content, &out); err != nil {
		return RiskAssessment{}, err
	}
	return out, nil
}

// complete runs one chat completion and returns the first choice's content.
func (c *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, temperature float64, jsonOutput bool) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: openai.Float(temperature),
	}
	if jsonOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(reqCtx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		systemMessage(system),
		userMessage(user),
	}
}

func systemMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfSystem: &openai.ChatCompletionSystemMessageParam{
			Content: openai.ChatCompletionSystemMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func userMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

func assistantMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{
			Content: openai.ChatCompletionAssistantMessageParamContentUnion{
				OfString: openai.String(content),
			},
		},
	}
}

// splitHighlights separates bullet lines from the summary prose.
func splitHighlights(content string) (string, []string) {
	lines := strings.Split(content, "\n")
	var highlights []string
	var summaryLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "*") {
			highlights = append(highlights, strings.TrimLeft(trimmed, "-* "))
		} else {
			summaryLines = append(summaryLines, trimmed)
		}
	}
	return strings.Join(summaryLines, " "), highlights
}
