package config

import "time"

// Analysis provider names
const (
	ProviderMock   = "mock"
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// AnalysisConfig selects and tunes the analysis provider
type AnalysisConfig struct {
	Provider string `mapstructure:"provider"`

	// Latency is the simulated delay of the mock provider
	Latency time.Duration `mapstructure:"latency"`

	// Timeout bounds a single remote call. Zero means no timeout.
	Timeout time.Duration `mapstructure:"timeout"`
}

// OpenAIConfig holds the settings of the OpenAI-compatible provider
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" json:"-"` // Never serialize
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// IsEnabled returns true if the OpenAI API is configured
func (c OpenAIConfig) IsEnabled() bool {
	return c.APIKey != ""
}
