package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	// Expand path
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	// Read file
	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'triagekit config init' to create)", expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// Parse TOML
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Expand paths in config
	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads config or exits with error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Gmail.CredentialsPath, err = expandPath(c.Gmail.CredentialsPath)
	if err != nil {
		return err
	}

	c.Gmail.TokenPath, err = expandPath(c.Gmail.TokenPath)
	if err != nil {
		return err
	}

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration is valid, joining every field
// error so a user sees all problems in one run (spec §10 "Validate...
// joins field errors with errors.Join").
func (c *Config) Validate() error {
	var errs []error

	// Gmail validation
	if c.Gmail.CredentialsPath == "" {
		errs = append(errs, errors.New("gmail.credentials_path is required"))
	}
	if c.Gmail.TokenPath == "" {
		errs = append(errs, errors.New("gmail.token_path is required"))
	}
	if c.Gmail.MaxResults < 1 || c.Gmail.MaxResults > 5000 {
		errs = append(errs, errors.New("gmail.max_results must be between 1 and 5000"))
	}

	// Database validation
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}

	// Pipeline validation (spec §4.F "bounded worker pool... 1..4")
	if c.Pipeline.PageSize < 1 {
		errs = append(errs, errors.New("pipeline.page_size must be at least 1"))
	}
	if c.Pipeline.ParallelPages < 1 || c.Pipeline.ParallelPages > 4 {
		errs = append(errs, errors.New("pipeline.parallel_pages must be between 1 and 4"))
	}

	// LLM validation (spec §4.B pacing/retry/timeout)
	if c.LLM.Endpoint == "" {
		errs = append(errs, errors.New("llm.endpoint is required"))
	}
	if c.LLM.MinDelayClassificationMS < 0 {
		errs = append(errs, errors.New("llm.min_delay_classification_ms must be non-negative"))
	}
	if c.LLM.MinDelayExtractionMS < 0 {
		errs = append(errs, errors.New("llm.min_delay_extraction_ms must be non-negative"))
	}
	if c.LLM.MaxRetries < 0 {
		errs = append(errs, errors.New("llm.max_retries must be non-negative"))
	}
	if c.LLM.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("llm.timeout_seconds must be at least 1"))
	}

	// Metrics validation
	if c.Metrics.WindowDays < 1 {
		errs = append(errs, errors.New("metrics.window_days must be at least 1"))
	}
	if c.Metrics.RetentionDays < c.Metrics.WindowDays {
		errs = append(errs, errors.New("metrics.retention_days must be at least metrics.window_days"))
	}

	// Extractor validation
	if c.Extractor.Version == "" {
		errs = append(errs, errors.New("extractor.version is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates necessary directories for database and config
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		filepath.Dir(c.Database.Path),
		filepath.Dir(c.Gmail.TokenPath),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
