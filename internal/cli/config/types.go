// Package config provides configuration management for the schemadoc CLI.
//
// Configuration is layered with koanf: defaults, then an optional
// schemadoc.yaml file, then SCHEMADOC_ environment variables, then CLI
// flags. Later layers win.
package config

// Config holds all CLI configuration options.
type Config struct {
	Input       string           `koanf:"input"`
	InputFormat string           `koanf:"input_format"`
	OutputDir   string           `koanf:"output_dir"`
	Formats     []string         `koanf:"formats"`
	DatasetName string           `koanf:"dataset_name"`
	Verbose     bool             `koanf:"verbose"`
	Simplified  SimplifiedConfig `koanf:"simplified"`
}

// SimplifiedConfig mirrors the filter configuration in the config file.
// The include_tables list is where a project pins the tables its workshop
// diagrams must always show.
type SimplifiedConfig struct {
	MinRelationships int      `koanf:"min_relationships"`
	IncludeTables    []string `koanf:"include_tables"`
	IncludePatterns  []string `koanf:"include_patterns"`
	ExcludePatterns  []string `koanf:"exclude_patterns"`
	TopN             int      `koanf:"top_n"`
	IncludeConnected bool     `koanf:"include_connected"`
}

// Default configuration values.
const (
	DefaultOutputDir        = "./schema-docs"
	DefaultMinRelationships = 2
)

// DefaultFormats is the output selection used when none is configured.
// CSV export is opt-in.
var DefaultFormats = []string{"text", "uml", "json", "yaml"}
