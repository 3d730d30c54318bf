package config

import (
	"fmt"
	"strings"
)

// knownFormats are the accepted values for the formats list.
var knownFormats = map[string]bool{
	"text": true,
	"uml":  true,
	"json": true,
	"yaml": true,
	"csv":  true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}

	switch strings.ToLower(c.InputFormat) {
	case "", "csv", "json":
	default:
		return fmt.Errorf("unsupported input format: %s (expected csv or json)", c.InputFormat)
	}

	for _, format := range c.Formats {
		if !knownFormats[strings.ToLower(format)] {
			return fmt.Errorf("unknown output format: %s (expected text, uml, json, yaml, or csv)", format)
		}
	}

	if c.Simplified.MinRelationships < 0 {
		return fmt.Errorf("simplified.min_relationships must not be negative, got %d", c.Simplified.MinRelationships)
	}
	if c.Simplified.TopN < 0 {
		return fmt.Errorf("simplified.top_n must not be negative, got %d", c.Simplified.TopN)
	}

	return nil
}

// HasFormat reports whether the named output format is enabled.
func (c *Config) HasFormat(name string) bool {
	for _, format := range c.Formats {
		if strings.EqualFold(format, name) {
			return true
		}
	}
	return false
}
