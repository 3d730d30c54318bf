package commands

import (
	"fmt"
	"io"
	"sort"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Stiksels/bigquery-schema-doc/internal/analyzer"
	"github.com/Stiksels/bigquery-schema-doc/internal/cli/config"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "stats [input]",
		Short: "Show relationship statistics for a schema",
		Long: `Parse schema export files, infer relationships, and print statistics
about the relationship structure of the dataset.`,
		Example: `  # Print a statistics table
  schemadoc stats schema_export.csv

  # Machine-readable output
  schemadoc stats schema_export.csv --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, format)
		},
	}

	cmd.Flags().StringVar(&format, "output", "table", "Output format (table|json)")

	return cmd
}

func runStats(cmd *cobra.Command, format string) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	ds, err := loadDataset(cmd, cfg, logger)
	if err != nil {
		return err
	}

	stats := analyzer.Summarize(ds)

	switch format {
	case "json":
		return renderStatsJSON(cmd.OutOrStdout(), stats)
	case "table":
		renderStatsTable(cmd.OutOrStdout(), stats)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s (expected table or json)", format)
	}
}

// statsDoc is the JSON shape of the stats output.
type statsDoc struct {
	TotalTables                int            `json:"total_tables"`
	TablesWithRelationships    int            `json:"tables_with_relationships"`
	TablesWithoutRelationships int            `json:"tables_without_relationships"`
	AverageRelationships       float64        `json:"average_relationships"`
	Distribution               map[string]int `json:"distribution"`
	TopTables                  []topTableDoc  `json:"top_tables"`
}

type topTableDoc struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Incoming int    `json:"incoming"`
	Outgoing int    `json:"outgoing"`
}

func renderStatsJSON(w io.Writer, stats analyzer.Statistics) error {
	doc := statsDoc{
		TotalTables:                stats.TotalTables,
		TablesWithRelationships:    stats.TablesWithRelationships,
		TablesWithoutRelationships: stats.TablesWithoutRelationships,
		AverageRelationships:       stats.AverageRelationships,
		Distribution:               make(map[string]int, len(stats.Distribution)),
		TopTables:                  make([]topTableDoc, 0, len(stats.TopTables)),
	}
	for count, tables := range stats.Distribution {
		doc.Distribution[fmt.Sprintf("%d", count)] = tables
	}
	for _, rank := range stats.TopTables {
		doc.TopTables = append(doc.TopTables, topTableDoc{
			Name:     rank.Name,
			Total:    rank.Counts.Total,
			Incoming: rank.Counts.Incoming,
			Outgoing: rank.Counts.Outgoing,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderStatsTable(w io.Writer, stats analyzer.Statistics) {
	fmt.Fprintf(w, "Tables: %d total, %d with relationships, %d without\n",
		stats.TotalTables, stats.TablesWithRelationships, stats.TablesWithoutRelationships)
	fmt.Fprintf(w, "Average relationships per table: %.2f\n\n", stats.AverageRelationships)

	if len(stats.Distribution) > 0 {
		counts := make([]int, 0, len(stats.Distribution))
		for count := range stats.Distribution {
			counts = append(counts, count)
		}
		sort.Ints(counts)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Relationships", "Tables"})
		for _, count := range counts {
			t.AppendRow(table.Row{count, stats.Distribution[count]})
		}
		t.Render()
		fmt.Fprintln(w)
	}

	if len(stats.TopTables) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Table", "Total", "Incoming", "Outgoing"})
		for _, rank := range stats.TopTables {
			t.AppendRow(table.Row{rank.Name, rank.Counts.Total, rank.Counts.Incoming, rank.Counts.Outgoing})
		}
		t.Render()
	}
}
