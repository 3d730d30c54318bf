package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Stiksels/bigquery-schema-doc/internal/cli/config"
	"github.com/Stiksels/bigquery-schema-doc/internal/filter"
	"github.com/Stiksels/bigquery-schema-doc/internal/generator"
	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// GenerateOptions holds the simplification overrides of the generate command.
type GenerateOptions struct {
	Formats          []string
	Simplified       bool
	MinRelationships int
	IncludeTables    []string
	IncludePatterns  []string
	ExcludePatterns  []string
	TopN             int
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate [input]",
		Short: "Generate schema documentation",
		Long: `Parse schema export files, infer relationships, and write documentation.

The input is a CSV or JSON schema export file, or a directory of them.
Multiple files are merged into a single dataset before inference.`,
		Example: `  # Document a single export file
  schemadoc generate schema_export.csv

  # Document a directory of exports into ./docs
  schemadoc generate ./exports -o ./docs

  # Only Markdown and diagrams
  schemadoc generate schema_export.csv --formats text,uml

  # Also write a simplified schema for workshop diagrams
  schemadoc generate schema_export.csv --simplified --min-relationships 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Formats, "formats", nil, "Output formats (text|uml|json|yaml|csv)")
	cmd.Flags().BoolVar(&opts.Simplified, "simplified", false, "Also generate a simplified schema")
	cmd.Flags().IntVar(&opts.MinRelationships, "min-relationships", config.DefaultMinRelationships, "Minimum relationship count for simplified selection")
	cmd.Flags().StringSliceVar(&opts.IncludeTables, "include-tables", nil, "Tables always kept in the simplified schema")
	cmd.Flags().StringSliceVar(&opts.IncludePatterns, "include-patterns", nil, "Glob patterns of tables to keep in the simplified schema")
	cmd.Flags().StringSliceVar(&opts.ExcludePatterns, "exclude-patterns", nil, "Glob patterns of tables to drop from the simplified schema")
	cmd.Flags().IntVar(&opts.TopN, "top-n", 0, "Additionally keep the N most connected tables")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts *GenerateOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	ds, err := loadDataset(cmd, cfg, logger)
	if err != nil {
		return err
	}

	formats := cfg.Formats
	if cmd.Flags().Changed("formats") {
		formats = opts.Formats
	}
	selection := config.Config{OutputDir: cfg.OutputDir, Formats: formats}
	if err := selection.Validate(); err != nil {
		return err
	}

	if err := writeOutputs(ds, cfg.OutputDir, &selection, "", logger); err != nil {
		return err
	}

	if opts.Simplified {
		simplified, err := filter.NewSimplifier(logger).Simplify(ds, simplifyConfig(cmd, cfg, opts))
		if err != nil {
			return err
		}
		stats := simplified.Stats()
		logger.Info("simplified schema built",
			"tables", stats.TableCount,
			"relationships", stats.RelationshipCount)

		if err := writeOutputs(simplified, cfg.OutputDir, &selection, "_simplified", logger); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Documentation written to %s\n", cfg.OutputDir)
	return nil
}

// simplifyConfig merges the config-file simplified block with command flags.
// Explicitly set flags override file values; include_tables lists are merged
// so a project's pinned tables survive ad-hoc additions.
func simplifyConfig(cmd *cobra.Command, cfg *config.Config, opts *GenerateOptions) filter.Config {
	fc := filter.Config{
		MinRelationships: cfg.Simplified.MinRelationships,
		IncludeTables:    cfg.Simplified.IncludeTables,
		IncludePatterns:  cfg.Simplified.IncludePatterns,
		ExcludePatterns:  cfg.Simplified.ExcludePatterns,
		TopN:             cfg.Simplified.TopN,
		IncludeConnected: cfg.Simplified.IncludeConnected,
	}

	flags := cmd.Flags()
	if flags.Changed("min-relationships") {
		fc.MinRelationships = opts.MinRelationships
	}
	if flags.Changed("include-tables") {
		fc.IncludeTables = mergeUnique(fc.IncludeTables, opts.IncludeTables)
	}
	if flags.Changed("include-patterns") {
		fc.IncludePatterns = opts.IncludePatterns
	}
	if flags.Changed("exclude-patterns") {
		fc.ExcludePatterns = opts.ExcludePatterns
	}
	if flags.Changed("top-n") {
		fc.TopN = opts.TopN
	}

	return fc
}

func mergeUnique(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	merged := append([]string(nil), base...)
	for _, name := range base {
		seen[name] = true
	}
	for _, name := range extra {
		if !seen[name] {
			seen[name] = true
			merged = append(merged, name)
		}
	}
	return merged
}

// Output file names. The suffix distinguishes the simplified variants.
func outputFiles(suffix string) map[string][]string {
	return map[string][]string{
		"text": {"schema_documentation" + suffix + ".md"},
		"uml":  {"schema_diagram" + suffix + ".puml", "schema_diagram" + suffix + ".mmd"},
		"json": {"schema" + suffix + ".json"},
		"yaml": {"schema" + suffix + ".yaml"},
		"csv":  {"schema_export" + suffix + ".csv"},
	}
}

func writeOutputs(ds *schema.Dataset, outputDir string, selection *config.Config, suffix string, logger *slog.Logger) error {
	files := outputFiles(suffix)

	type renderer struct {
		format string
		path   string
		write  func(*schema.Dataset, string, *slog.Logger) error
	}
	renderers := []renderer{
		{"text", files["text"][0], generator.WriteMarkdown},
		{"uml", files["uml"][0], generator.WritePlantUML},
		{"uml", files["uml"][1], generator.WriteMermaid},
		{"json", files["json"][0], generator.WriteJSON},
		{"yaml", files["yaml"][0], generator.WriteYAML},
		{"csv", files["csv"][0], generator.WriteCSV},
	}

	for _, r := range renderers {
		if !selection.HasFormat(r.format) {
			continue
		}
		path := filepath.Join(outputDir, r.path)
		if err := r.write(ds, path, logger); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return nil
}
