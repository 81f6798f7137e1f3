package model

import "math"

// ConfidenceLabel buckets a confidence value for display
func ConfidenceLabel(confidence float64) string {
	switch {
	case confidence >= 0.85:
		return "High"
	case confidence >= 0.70:
		return "Moderate"
	default:
		return "Low"
	}
}

// PatternConsistency describes how uniform the language indicators were
func PatternConsistency(confidence float64) string {
	if confidence >= 0.8 {
		return "consistent"
	}
	return "mixed"
}

// ConfidencePercent rounds a confidence to a whole percentage
func ConfidencePercent(confidence float64) int {
	return int(math.Round(confidence * 100))
}

// ReportSummary is the headline card of the Results screen
type ReportSummary struct {
	Score              int      `json:"score"`
	MaxScore           int      `json:"maxScore"`
	Severity           Severity `json:"severity"`
	Confidence         float64  `json:"confidence"`
	ConfidencePercent  int      `json:"confidencePercent"`
	ConfidenceLabel    string   `json:"confidenceLabel"`
	PatternConsistency string   `json:"patternConsistency"`
	Message            string   `json:"message"`
}

// ReportGuidance is the professional guidance panel
type ReportGuidance struct {
	Text           string `json:"text"`
	ConfidenceNote string `json:"confidenceNote"`
	Elevated       bool   `json:"elevated"`
}

// Report is the Results screen composed from an AnalysisResponse
type Report struct {
	Summary          ReportSummary  `json:"summary"`
	Interpretation   string         `json:"interpretation"`
	Patterns         []PHQPattern   `json:"patterns"`
	Suggestions      []string       `json:"suggestions"`
	CopingStrategies []string       `json:"copingStrategies"`
	Guidance         ReportGuidance `json:"guidance"`
	Disclaimer       string         `json:"disclaimer"`
	About            []string       `json:"about"`
}

// ResultView is returned by GET /v1/session/result. Report is nil when the
// session has no usable result and the client should go back to Landing.
type ResultView struct {
	WorkflowView
	Report *Report `json:"report,omitempty"`
}
