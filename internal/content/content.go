// Package content holds the user-facing wording of reports, loaded from a YAML pack.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultPack []byte

// Pack is the wording used to build analysis responses and reports
type Pack struct {
	Interpretation string `yaml:"interpretation"`
	Themes         struct {
		Negative string `yaml:"negative"`
		Neutral  string `yaml:"neutral"`
	} `yaml:"themes"`
	Suggestions      []string `yaml:"suggestions"`
	CopingStrategies []string `yaml:"coping_strategies"`
	Guidance         struct {
		Elevated string `yaml:"elevated"`
		Standard string `yaml:"standard"`
	} `yaml:"guidance"`
	ConfidenceNotes struct {
		High     string `yaml:"high"`
		Moderate string `yaml:"moderate"`
	} `yaml:"confidence_notes"`
	SummaryMessage        string   `yaml:"summary_message"`
	Disclaimer            string   `yaml:"disclaimer"`
	About                 []string `yaml:"about"`
	ExtractionPlaceholder string   `yaml:"extraction_placeholder"`
}

// Default returns the embedded pack
func Default() *Pack {
	p, err := Parse(defaultPack)
	if err != nil {
		panic(fmt.Sprintf("embedded content pack is invalid: %v", err))
	}
	return p
}

// Load reads a pack from path, or returns the embedded one when path is empty
func Load(path string) (*Pack, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content pack: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a pack
func Parse(data []byte) (*Pack, error) {
	var p Pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing content pack: %w", err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Pack) validate() error {
	var missing []string
	if strings.Count(p.Interpretation, "%s") != 2 {
		missing = append(missing, "interpretation (needs two %s)")
	}
	if strings.Count(p.SummaryMessage, "%s") != 2 {
		missing = append(missing, "summary_message (needs two %s)")
	}
	if strings.Count(p.ExtractionPlaceholder, "%s") != 1 {
		missing = append(missing, "extraction_placeholder (needs one %s)")
	}
	if len(p.Suggestions) == 0 {
		missing = append(missing, "suggestions")
	}
	if len(p.CopingStrategies) == 0 {
		missing = append(missing, "coping_strategies")
	}
	if p.Guidance.Elevated == "" || p.Guidance.Standard == "" {
		missing = append(missing, "guidance")
	}
	if p.ConfidenceNotes.High == "" || p.ConfidenceNotes.Moderate == "" {
		missing = append(missing, "confidence_notes")
	}
	if len(missing) > 0 {
		return fmt.Errorf("content pack incomplete: %s", strings.Join(missing, ", "))
	}
	return nil
}

// InterpretationFor renders the interpretation paragraph
func (p *Pack) InterpretationFor(severity string, negative bool) string {
	theme := p.Themes.Neutral
	if negative {
		theme = p.Themes.Negative
	}
	return fmt.Sprintf(p.Interpretation, strings.ToLower(severity), theme)
}

// GuidanceFor picks the professional guidance tone
func (p *Pack) GuidanceFor(elevated bool) string {
	if elevated {
		return p.Guidance.Elevated
	}
	return p.Guidance.Standard
}

// ConfidenceNoteFor picks the caveat for a confidence value
func (p *Pack) ConfidenceNoteFor(confidence float64) string {
	if confidence > 0.8 {
		return p.ConfidenceNotes.High
	}
	return p.ConfidenceNotes.Moderate
}

// SummaryFor renders the summary card message
func (p *Pack) SummaryFor(label, consistency string) string {
	return fmt.Sprintf(p.SummaryMessage, strings.ToLower(label), consistency)
}

// PlaceholderFor renders the stub extraction text for a file name
func (p *Pack) PlaceholderFor(name string) string {
	return fmt.Sprintf(p.ExtractionPlaceholder, name)
}

// Suggestions and coping strategies are copied so callers can't mutate the pack.
func (p *Pack) SuggestionList() []string {
	return append([]string(nil), p.Suggestions...)
}

func (p *Pack) CopingList() []string {
	return append([]string(nil), p.CopingStrategies...)
}
