package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds process configuration for a scoring run
type Config struct {
	// Backend settings
	PrometheusURL  string
	QueryTimeout   time.Duration
	MaxConcurrency int64

	// SLO definitions. Inline content takes precedence over the path.
	DefinitionsPath    string
	DefinitionsContent string
	SchemaPath         string

	// Scoring settings
	StepSeconds     int
	WeightOverrides map[string]int

	// Optional report archive
	ArchivePath string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		QueryTimeout:   10 * time.Second,
		MaxConcurrency: 10,
		StepSeconds:    30,
	}
}

// FromEnv overlays RESIL_* environment variables onto the config.
// Flags bound afterwards take precedence over both.
func (c *Config) FromEnv() error {
	if v := os.Getenv("RESIL_PROMETHEUS_URL"); v != "" {
		c.PrometheusURL = v
	}
	if v := os.Getenv("RESIL_DEFINITIONS_PATH"); v != "" {
		c.DefinitionsPath = v
	}
	if v := os.Getenv("RESIL_DEFINITIONS"); v != "" {
		c.DefinitionsContent = v
	}
	if v := os.Getenv("RESIL_SCHEMA_PATH"); v != "" {
		c.SchemaPath = v
	}
	if v := os.Getenv("RESIL_ARCHIVE_PATH"); v != "" {
		c.ArchivePath = v
	}
	if v := os.Getenv("RESIL_STEP_SECONDS"); v != "" {
		step, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RESIL_STEP_SECONDS: %w", err)
		}
		c.StepSeconds = step
	}
	if v := os.Getenv("RESIL_WEIGHTS"); v != "" {
		weights, err := ParseWeights(v)
		if err != nil {
			return fmt.Errorf("RESIL_WEIGHTS: %w", err)
		}
		c.WeightOverrides = weights
	}
	return nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.PrometheusURL == "" {
		return fmt.Errorf("prometheus URL is required")
	}

	if c.DefinitionsPath == "" && c.DefinitionsContent == "" {
		return fmt.Errorf("SLO definitions are required (path or inline content)")
	}

	if c.StepSeconds <= 0 {
		return fmt.Errorf("invalid step: %d seconds", c.StepSeconds)
	}

	for severity, weight := range c.WeightOverrides {
		if weight < 0 {
			return fmt.Errorf("negative weight for severity %q", severity)
		}
	}

	return nil
}

// Step returns the range-query granularity as a duration.
func (c *Config) Step() time.Duration {
	return time.Duration(c.StepSeconds) * time.Second
}

// ParseWeights parses a "severity=weight,severity=weight" override list.
func ParseWeights(s string) (map[string]int, error) {
	weights := make(map[string]int)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight entry %q (want severity=weight)", pair)
		}
		w, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid weight for severity %q: %w", key, err)
		}
		weights[strings.ToLower(strings.TrimSpace(key))] = w
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weight entries in %q", s)
	}
	return weights, nil
}
