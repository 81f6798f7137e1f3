package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindfullens/internal/apperr"
	"mindfullens/internal/content"
	"mindfullens/internal/model"
)

func TestScoreTextScenarios(t *testing.T) {
	h := ScoreText("I feel tired and hopeless every day")
	assert.Equal(t, 7, h.WordCount)
	assert.True(t, h.HasNegativeWords)
	assert.Equal(t, 8, h.Score)
	assert.Equal(t, model.SeverityMild, h.Severity)

	neutral := strings.TrimSpace(strings.Repeat("word ", 150))
	h = ScoreText(neutral)
	assert.Equal(t, 150, h.WordCount)
	assert.False(t, h.HasNegativeWords)
	assert.Equal(t, 18, h.Score)
	assert.Equal(t, model.SeverityModeratelySevere, h.Severity)
}

func TestScoreTextFormula(t *testing.T) {
	for words := 0; words <= 400; words += 7 {
		for _, negative := range []bool{false, true} {
			tokens := make([]string, words)
			for i := range tokens {
				tokens[i] = "calm"
			}
			if negative && words > 0 {
				tokens[0] = "Worried"
			}
			h := ScoreText(strings.Join(tokens, " "))

			base := 3
			if negative && words > 0 {
				base = 8
			}
			want := min(27, words/10+base)
			assert.Equal(t, want, h.Score, "words=%d negative=%v", words, negative)
			assert.GreaterOrEqual(t, h.Score, 0)
			assert.LessOrEqual(t, h.Score, model.MaxPHQ9Score)
			assert.Equal(t, model.SeverityForScore(h.Score), h.Severity)
		}
	}
}

func TestScoreTextKeywordIsSubstringAndCaseInsensitive(t *testing.T) {
	assert.True(t, ScoreText("feeling EMPTY").HasNegativeWords)
	assert.True(t, ScoreText("sadness lingers").HasNegativeWords)
	assert.False(t, ScoreText("a bright afternoon").HasNegativeWords)
}

func TestMockBuildConfidenceAndPatterns(t *testing.T) {
	p := NewMockProvider(content.Default(), 0, WithRand(rand.New(rand.NewPCG(1, 2))))

	for i := 0; i < 200; i++ {
		resp := p.Build("I have been worried and alone")
		assert.GreaterOrEqual(t, resp.Confidence, 0.75)
		assert.Less(t, resp.Confidence, 0.95)

		pack := content.Default()
		if resp.Confidence > 0.8 {
			assert.Equal(t, pack.ConfidenceNotes.High, resp.ConfidenceNote)
		} else {
			assert.Equal(t, pack.ConfidenceNotes.Moderate, resp.ConfidenceNote)
		}

		require.Len(t, resp.PHQPatterns, len(model.PatternAreas))
		for j, area := range model.PatternAreas {
			assert.Equal(t, area, resp.PHQPatterns[j].Area)
		}
	}
}

// fixedSource always yields the same 64 random bits
type fixedSource uint64

func (s fixedSource) Uint64() uint64 { return uint64(s) }

func TestMockConfidenceBounds(t *testing.T) {
	top := NewMockProvider(content.Default(), 0, WithRand(rand.New(fixedSource(^uint64(0)))))
	c := top.Build("hello").Confidence
	assert.Less(t, c, 0.95)
	assert.Greater(t, c, 0.94)

	bottom := NewMockProvider(content.Default(), 0, WithRand(rand.New(fixedSource(0))))
	assert.Equal(t, 0.75, bottom.Build("hello").Confidence)
}

func TestMockPatternMapping(t *testing.T) {
	p := NewMockProvider(content.Default(), 0)

	signals := func(text string) []model.Signal {
		var out []model.Signal
		for _, pat := range p.Build(text).PHQPatterns {
			out = append(out, pat.Signal)
		}
		return out
	}

	assert.Equal(t, []model.Signal{
		model.SignalHigh, model.SignalHigh, model.SignalModerate, model.SignalHigh,
		model.SignalModerate, model.SignalLow, model.SignalLow, model.SignalNotDetected,
	}, signals("so tired"))

	assert.Equal(t, []model.Signal{
		model.SignalLow, model.SignalModerate, model.SignalModerate, model.SignalLow,
		model.SignalModerate, model.SignalLow, model.SignalLow, model.SignalNotDetected,
	}, signals("a good day"))
}

func TestMockGuidanceFollowsSeverity(t *testing.T) {
	pack := content.Default()
	p := NewMockProvider(pack, 0)

	resp := p.Build(strings.Repeat("hopeless ", 200))
	assert.Equal(t, model.SeveritySevere, resp.Severity)
	assert.Equal(t, pack.Guidance.Elevated, resp.ProfessionalGuidance)

	resp = p.Build("fine")
	assert.Equal(t, model.SeverityMinimal, resp.Severity)
	assert.Equal(t, pack.Guidance.Standard, resp.ProfessionalGuidance)
	assert.Equal(t, pack.Suggestions, resp.Suggestions)
	assert.Equal(t, pack.CopingStrategies, resp.CopingStrategies)
}

func TestMockAnalyzeRejectsEmptyText(t *testing.T) {
	p := NewMockProvider(content.Default(), time.Hour)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := p.Analyze(context.Background(), model.AnalysisRequest{Text: text})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
}

func TestMockAnalyzeHonoursCancellation(t *testing.T) {
	p := NewMockProvider(content.Default(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Analyze(ctx, model.AnalysisRequest{Text: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
}
