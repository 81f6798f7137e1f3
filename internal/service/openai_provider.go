package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"mindfullens/internal/apperr"
	"mindfullens/internal/config"
	"mindfullens/internal/content"
	"mindfullens/internal/logging"
	"mindfullens/internal/model"
)

var openAISystemPrompt = `You are a supportive language-pattern assistant. You read a person's free-form
writing and estimate PHQ-9 style emotional patterns. You never diagnose.
Return ONLY valid JSON matching this schema:
{
  "phq9_score": 0 to 27,
  "confidence": 0.0 to 1.0,
  "interpretation": "one gentle paragraph",
  "suggestions": ["self-care suggestion", "..."],
  "coping_strategies": ["coping strategy", "..."],
  "professional_guidance": "one paragraph",
  "confidence_note": "one sentence caveat",
  "phq_patterns": [{"area": "Interest|Mood|Sleep|Energy|Self-worth|Concentration|Psychomotor|Self-harm", "signal": "High|Moderate|Low|Not detected"}]
}`

// OpenAIProvider asks an OpenAI-compatible chat model for the report and then
// normalises it so severity and pattern invariants hold regardless of the model.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	pack   *content.Pack
	logger *zap.Logger
}

// NewOpenAIProvider creates the LLM-backed provider
func NewOpenAIProvider(cfg config.OpenAIConfig, pack *content.Pack, logger *zap.Logger) *OpenAIProvider {
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithMaxRetries(0),
	)
	return &OpenAIProvider{
		client: client,
		model:  cfg.Model,
		pack:   pack,
		logger: logging.OrNop(logger).Named("openai"),
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.F(p.model),
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(openAISystemPrompt),
			openai.UserMessage(req.Text),
		}),
		Temperature: openai.F(0.2),
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("chat completion failed", zap.Error(err))
		return nil, apperr.AnalysisFailed(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.AnalysisFailed(fmt.Errorf("empty response from model"))
	}

	result, err := p.parse(resp.Choices[0].Message.Content)
	if err != nil {
		p.logger.Warn("unparseable model output", zap.Error(err))
		return nil, apperr.AnalysisFailed(err)
	}
	return result, nil
}

func (p *OpenAIProvider) parse(raw string) (*model.AnalysisResponse, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var result model.AnalysisResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &result); err != nil {
		return nil, fmt.Errorf("decoding model output: %w", err)
	}
	result.Normalize()

	if len(result.Suggestions) == 0 {
		result.Suggestions = p.pack.SuggestionList()
	}
	if len(result.CopingStrategies) == 0 {
		result.CopingStrategies = p.pack.CopingList()
	}
	if result.ProfessionalGuidance == "" {
		result.ProfessionalGuidance = p.pack.GuidanceFor(result.Severity.IsElevated())
	}
	if result.ConfidenceNote == "" {
		result.ConfidenceNote = p.pack.ConfidenceNoteFor(result.Confidence)
	}
	return &result, nil
}
