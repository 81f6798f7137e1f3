package service

import (
	"mindfullens/internal/content"
	"mindfullens/internal/model"
)

// BuildReport composes the Results screen from an analysis response
func BuildReport(resp *model.AnalysisResponse, pack *content.Pack) *model.Report {
	label := model.ConfidenceLabel(resp.Confidence)
	consistency := model.PatternConsistency(resp.Confidence)

	guidance := resp.ProfessionalGuidance
	if guidance == "" {
		guidance = pack.GuidanceFor(resp.Severity.IsElevated())
	}
	note := resp.ConfidenceNote
	if note == "" {
		note = pack.ConfidenceNoteFor(resp.Confidence)
	}

	return &model.Report{
		Summary: model.ReportSummary{
			Score:              resp.PHQ9Score,
			MaxScore:           model.MaxPHQ9Score,
			Severity:           resp.Severity,
			Confidence:         resp.Confidence,
			ConfidencePercent:  model.ConfidencePercent(resp.Confidence),
			ConfidenceLabel:    label,
			PatternConsistency: consistency,
			Message:            pack.SummaryFor(label, consistency),
		},
		Interpretation:   resp.Interpretation,
		Patterns:         append([]model.PHQPattern(nil), resp.PHQPatterns...),
		Suggestions:      append([]string(nil), resp.Suggestions...),
		CopingStrategies: append([]string(nil), resp.CopingStrategies...),
		Guidance: model.ReportGuidance{
			Text:           guidance,
			ConfidenceNote: note,
			Elevated:       resp.Severity.IsElevated(),
		},
		Disclaimer: pack.Disclaimer,
		About:      append([]string(nil), pack.About...),
	}
}
