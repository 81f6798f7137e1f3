package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityForScoreStaircase(t *testing.T) {
	cases := map[int]Severity{
		0:  SeverityMinimal,
		4:  SeverityMinimal,
		5:  SeverityMild,
		9:  SeverityMild,
		10: SeverityModerate,
		14: SeverityModerate,
		15: SeverityModeratelySevere,
		19: SeverityModeratelySevere,
		20: SeveritySevere,
		27: SeveritySevere,
	}
	for score, want := range cases {
		assert.Equal(t, want, SeverityForScore(score), "score %d", score)
	}
}

func TestSeverityIsElevated(t *testing.T) {
	assert.True(t, SeveritySevere.IsElevated())
	assert.True(t, SeverityModeratelySevere.IsElevated())
	assert.False(t, SeverityModerate.IsElevated())
	assert.False(t, SeverityMinimal.IsElevated())
	assert.False(t, Severity("Extreme").Valid())
}

func TestNormalizeRepairsUntrustedResponse(t *testing.T) {
	r := &AnalysisResponse{
		PHQ9Score:  40,
		Severity:   SeverityMild,
		Confidence: 1.4,
		PHQPatterns: []PHQPattern{
			{Area: "Sleep", Signal: SignalHigh},
			{Area: "Appetite", Signal: SignalHigh},
			{Area: "Mood", Signal: "Very high"},
			{Area: "Interest", Signal: SignalLow},
		},
	}
	r.Normalize()

	assert.Equal(t, MaxPHQ9Score, r.PHQ9Score)
	assert.Equal(t, SeveritySevere, r.Severity)
	assert.Equal(t, 1.0, r.Confidence)
	require.Len(t, r.PHQPatterns, len(PatternAreas))
	for i, area := range PatternAreas {
		assert.Equal(t, area, r.PHQPatterns[i].Area)
	}
	assert.Equal(t, SignalLow, r.PHQPatterns[0].Signal)
	assert.Equal(t, SignalNotDetected, r.PHQPatterns[1].Signal)
	assert.Equal(t, SignalHigh, r.PHQPatterns[2].Signal)
	assert.NotNil(t, r.Suggestions)
	assert.NotNil(t, r.CopingStrategies)

	r = &AnalysisResponse{PHQ9Score: -3, Confidence: -1}
	r.Normalize()
	assert.Equal(t, 0, r.PHQ9Score)
	assert.Equal(t, SeverityMinimal, r.Severity)
	assert.Equal(t, 0.0, r.Confidence)
}

func TestAnalysisResponseWireNames(t *testing.T) {
	data, err := json.Marshal(AnalysisResponse{PHQ9Score: 8, Severity: SeverityMild})
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"phq9_score", "severity", "confidence", "interpretation", "suggestions",
		"coping_strategies", "professional_guidance", "confidence_note", "phq_patterns"} {
		assert.Contains(t, fields, key)
	}
}
