package config

import "time"

// Config is the top-level application configuration, loaded from TOML
// (spec §6 "Config knobs").
type Config struct {
	Gmail     GmailConfig     `toml:"gmail"`
	Database  DatabaseConfig  `toml:"database"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	LLM       LLMConfig       `toml:"llm"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Extractor ExtractorConfig `toml:"extractor"`
	Prompts   PromptConfig    `toml:"prompts"`
}

// GmailConfig contains Gmail-specific settings (the EmailProvider
// binding this repo ships, per SPEC_FULL §11).
type GmailConfig struct {
	CredentialsPath string `toml:"credentials_path"`
	TokenPath       string `toml:"token_path"`
	MaxResults      int    `toml:"max_results"`
}

// DatabaseConfig contains persistence settings.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// PipelineConfig controls the Pipeline Scheduler (spec §4.F / §6).
type PipelineConfig struct {
	PageSize     int `toml:"page_size"`
	ParallelPages int `toml:"parallel_pages"`
}

// LLMConfig controls the LLM Gateway's pacing, retries, and per-call
// timeout (spec §4.B / §6).
type LLMConfig struct {
	Endpoint                 string `toml:"endpoint"`
	Model                    string `toml:"model"`
	MinDelayClassificationMS int    `toml:"min_delay_classification_ms"`
	MinDelayExtractionMS     int    `toml:"min_delay_extraction_ms"`
	MaxRetries               int    `toml:"max_retries"`
	TimeoutSeconds           int    `toml:"timeout_seconds"`
}

// MinDelayClassification returns the classification pacing delay as a
// time.Duration.
func (l LLMConfig) MinDelayClassification() time.Duration {
	return time.Duration(l.MinDelayClassificationMS) * time.Millisecond
}

// MinDelayExtraction returns the extraction pacing delay as a
// time.Duration.
func (l LLMConfig) MinDelayExtraction() time.Duration {
	return time.Duration(l.MinDelayExtractionMS) * time.Millisecond
}

// Timeout returns the per-call timeout as a time.Duration.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}

// MetricsConfig controls the Accuracy Ledger's windowing (spec §4.G /
// §6).
type MetricsConfig struct {
	WindowDays    int `toml:"window_days"`
	RetentionDays int `toml:"retention_days"`
}

// ExtractorConfig names the extractor_version baked into every Task id
// (spec invariant I2). Bumping this invalidates existing Task ids and
// triggers re-materialization.
type ExtractorConfig struct {
	Version string `toml:"version"`
}

// PromptConfig toggles the Prompt Registry's per-user override
// mechanism (spec §4.A).
type PromptConfig struct {
	CustomOverridesEnabled bool `toml:"custom_overrides_enabled"`
}

// Default returns a Config with the spec's documented defaults (§6).
func Default() *Config {
	return &Config{
		Gmail: GmailConfig{
			CredentialsPath: "~/.config/triagekit/credentials.json",
			TokenPath:       "~/.config/triagekit/token.json",
			MaxResults:      100,
		},
		Database: DatabaseConfig{
			Path: "~/.local/share/triagekit/triagekit.db",
		},
		Pipeline: PipelineConfig{
			PageSize:      10,
			ParallelPages: 1,
		},
		LLM: LLMConfig{
			Endpoint:                 "http://localhost:11434/api/generate",
			Model:                    "llama3.2:1b",
			MinDelayClassificationMS: 1500,
			MinDelayExtractionMS:     2000,
			MaxRetries:               3,
			TimeoutSeconds:           60,
		},
		Metrics: MetricsConfig{
			WindowDays:    90,
			RetentionDays: 730,
		},
		Extractor: ExtractorConfig{
			Version: "v1",
		},
		Prompts: PromptConfig{
			CustomOverridesEnabled: true,
		},
	}
}
