package service

import (
	"context"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"time"

	"mindfullens/internal/content"
	"mindfullens/internal/model"
)

var negativeWords = regexp.MustCompile(`(?i)tired|sad|hopeless|anxious|worried|stressed|alone|empty`)

// HeuristicScore is the intermediate result of the keyword/length heuristic
type HeuristicScore struct {
	WordCount        int
	HasNegativeWords bool
	Score            int
	Severity         model.Severity
}

// ScoreText applies the placeholder heuristic:
// score = min(27, floor(words/10) + (negative keywords ? 8 : 3)).
func ScoreText(text string) HeuristicScore {
	words := len(strings.Fields(text))
	negative := negativeWords.MatchString(text)

	base := 3
	if negative {
		base = 8
	}
	score := min(model.MaxPHQ9Score, words/10+base)

	return HeuristicScore{
		WordCount:        words,
		HasNegativeWords: negative,
		Score:            score,
		Severity:         model.SeverityForScore(score),
	}
}

// MockProvider stands in for a real model. It scores text with ScoreText after
// a simulated latency and draws confidence uniformly from [0.75, 0.95).
type MockProvider struct {
	pack    *content.Pack
	latency time.Duration

	mu   sync.Mutex
	rand *rand.Rand
}

// MockOption customises a MockProvider
type MockOption func(*MockProvider)

// WithRand makes confidence draws reproducible
func WithRand(r *rand.Rand) MockOption {
	return func(p *MockProvider) {
		p.rand = r
	}
}

// NewMockProvider creates the heuristic provider
func NewMockProvider(pack *content.Pack, latency time.Duration, opts ...MockOption) *MockProvider {
	p := &MockProvider{
		pack:    pack,
		latency: latency,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *MockProvider) Name() string {
	return "mock"
}

// Analyze never fails on valid input; it only returns early when ctx is cancelled.
func (p *MockProvider) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, p.latency); err != nil {
		return nil, err
	}
	return p.Build(req.Text), nil
}

// Build produces the response for text without any delay
func (p *MockProvider) Build(text string) *model.AnalysisResponse {
	h := ScoreText(text)
	confidence := p.confidence()

	return &model.AnalysisResponse{
		PHQ9Score:            h.Score,
		Severity:             h.Severity,
		Confidence:           confidence,
		Interpretation:       p.pack.InterpretationFor(string(h.Severity), h.HasNegativeWords),
		Suggestions:          p.pack.SuggestionList(),
		CopingStrategies:     p.pack.CopingList(),
		ProfessionalGuidance: p.pack.GuidanceFor(h.Severity.IsElevated()),
		ConfidenceNote:       p.pack.ConfidenceNoteFor(confidence),
		PHQPatterns:          mockPatterns(h.HasNegativeWords),
	}
}

// confidence maps a draw onto [0.75, 0.95). Rounding can land a draw near 1
// exactly on 0.95, so the top is clamped.
func (p *MockProvider) confidence() float64 {
	c := 0.75 + p.draw()*0.2
	if c >= 0.95 {
		c = math.Nextafter(0.95, 0)
	}
	return c
}

func (p *MockProvider) draw() float64 {
	if p.rand == nil {
		return rand.Float64()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rand.Float64()
}

// mockPatterns keeps the exact source mapping: Mood follows the keywords while
// Self-worth stays Moderate.
func mockPatterns(negative bool) []model.PHQPattern {
	pick := func(ifNegative, otherwise model.Signal) model.Signal {
		if negative {
			return ifNegative
		}
		return otherwise
	}
	return []model.PHQPattern{
		{Area: "Interest", Signal: pick(model.SignalHigh, model.SignalLow)},
		{Area: "Mood", Signal: pick(model.SignalHigh, model.SignalModerate)},
		{Area: "Sleep", Signal: model.SignalModerate},
		{Area: "Energy", Signal: pick(model.SignalHigh, model.SignalLow)},
		{Area: "Self-worth", Signal: model.SignalModerate},
		{Area: "Concentration", Signal: model.SignalLow},
		{Area: "Psychomotor", Signal: model.SignalLow},
		{Area: "Self-harm", Signal: model.SignalNotDetected},
	}
}
