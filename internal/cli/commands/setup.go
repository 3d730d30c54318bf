// Package commands implements the schemadoc subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Stiksels/bigquery-schema-doc/internal/cli/config"
	"github.com/Stiksels/bigquery-schema-doc/internal/inference"
	"github.com/Stiksels/bigquery-schema-doc/internal/parser"
	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// getConfig returns the current configuration.
// Falls back to defaults when no load has happened (direct command tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		OutputDir: config.DefaultOutputDir,
		Formats:   config.DefaultFormats,
		Simplified: config.SimplifiedConfig{
			MinRelationships: config.DefaultMinRelationships,
			IncludeConnected: true,
		},
	}
}

// loadDataset runs the shared front half of the pipeline: collect input
// files, parse and merge them, then infer relationships.
func loadDataset(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*schema.Dataset, error) {
	input := cfg.Input
	if len(cmd.Flags().Args()) > 0 {
		input = cmd.Flags().Args()[0]
	}
	if input == "" {
		return nil, fmt.Errorf("no input specified: pass a schema export file or directory, or set input in schemadoc.yaml")
	}

	files, err := parser.CollectInputFiles(input)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no schema export files found in %s", input)
	}
	logger.Debug("collected input files", "count", len(files))

	ds, err := parser.NewLoader(logger).Load(files, strings.ToLower(cfg.InputFormat))
	if err != nil {
		return nil, err
	}
	if cfg.DatasetName != "" {
		ds.Name = cfg.DatasetName
	}

	inference.NewDetector(logger).Detect(ds)

	stats := ds.Stats()
	logger.Info("schema loaded",
		"tables", stats.TableCount,
		"columns", stats.ColumnCount,
		"relationships", stats.RelationshipCount)

	return ds, nil
}
