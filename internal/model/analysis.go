package model

// Severity is the PHQ-9 severity bucket derived from a score
type Severity string

const (
	SeverityMinimal          Severity = "Minimal"
	SeverityMild             Severity = "Mild"
	SeverityModerate         Severity = "Moderate"
	SeverityModeratelySevere Severity = "Moderately Severe"
	SeveritySevere           Severity = "Severe"
)

// Signal is the coarse strength of one symptom area
type Signal string

const (
	SignalHigh        Signal = "High"
	SignalModerate    Signal = "Moderate"
	SignalLow         Signal = "Low"
	SignalNotDetected Signal = "Not detected"
)

// MaxPHQ9Score is the sum of nine items scored 0-3
const MaxPHQ9Score = 27

// PatternAreas lists the symptom areas in the order every response carries them.
var PatternAreas = []string{
	"Interest",
	"Mood",
	"Sleep",
	"Energy",
	"Self-worth",
	"Concentration",
	"Psychomotor",
	"Self-harm",
}

// SeverityForScore maps a score onto its bucket. Thresholds are 20/15/10/5.
func SeverityForScore(score int) Severity {
	switch {
	case score >= 20:
		return SeveritySevere
	case score >= 15:
		return SeverityModeratelySevere
	case score >= 10:
		return SeverityModerate
	case score >= 5:
		return SeverityMild
	default:
		return SeverityMinimal
	}
}

// IsElevated reports whether the severity warrants professional follow-up wording
func (s Severity) IsElevated() bool {
	return s == SeveritySevere || s == SeverityModeratelySevere
}

// Valid reports whether s is one of the five known buckets
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinimal, SeverityMild, SeverityModerate, SeverityModeratelySevere, SeveritySevere:
		return true
	}
	return false
}

// Valid reports whether s is one of the four known signals
func (s Signal) Valid() bool {
	switch s {
	case SignalHigh, SignalModerate, SignalLow, SignalNotDetected:
		return true
	}
	return false
}

// AnalysisRequest is the body of POST /predict
type AnalysisRequest struct {
	Text string `json:"text"`
}

// PHQPattern is the signal detected for one symptom area
type PHQPattern struct {
	Area   string `json:"area" bson:"area"`
	Signal Signal `json:"signal" bson:"signal"`
}

// AnalysisResponse is the full emotional-pattern report returned by a provider
type AnalysisResponse struct {
	PHQ9Score            int          `json:"phq9_score" bson:"phq9Score"`
	Severity             Severity     `json:"severity" bson:"severity"`
	Confidence           float64      `json:"confidence" bson:"confidence"`
	Interpretation       string       `json:"interpretation" bson:"interpretation"`
	Suggestions          []string     `json:"suggestions" bson:"suggestions"`
	CopingStrategies     []string     `json:"coping_strategies" bson:"copingStrategies"`
	ProfessionalGuidance string       `json:"professional_guidance" bson:"professionalGuidance"`
	ConfidenceNote       string       `json:"confidence_note" bson:"confidenceNote"`
	PHQPatterns          []PHQPattern `json:"phq_patterns" bson:"phqPatterns"`
}

// Normalize enforces the response invariants on output from an untrusted provider:
// the score is clamped to 0-27, severity is recomputed from it, confidence is clamped
// to [0,1] and patterns are rebuilt in canonical order with unknown areas dropped.
func (r *AnalysisResponse) Normalize() {
	if r.PHQ9Score < 0 {
		r.PHQ9Score = 0
	}
	if r.PHQ9Score > MaxPHQ9Score {
		r.PHQ9Score = MaxPHQ9Score
	}
	r.Severity = SeverityForScore(r.PHQ9Score)

	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}

	byArea := make(map[string]Signal, len(r.PHQPatterns))
	for _, p := range r.PHQPatterns {
		if p.Signal.Valid() {
			byArea[p.Area] = p.Signal
		}
	}
	patterns := make([]PHQPattern, 0, len(PatternAreas))
	for _, area := range PatternAreas {
		signal, ok := byArea[area]
		if !ok {
			signal = SignalNotDetected
		}
		patterns = append(patterns, PHQPattern{Area: area, Signal: signal})
	}
	r.PHQPatterns = patterns

	if r.Suggestions == nil {
		r.Suggestions = []string{}
	}
	if r.CopingStrategies == nil {
		r.CopingStrategies = []string{}
	}
}
