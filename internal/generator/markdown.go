// Package generator renders a dataset model into the documentation formats:
// Markdown, PlantUML, Mermaid, JSON, YAML, and CSV. Renderers only read the
// model's public fields. The Markdown renderer deduplicates the relationship
// union; the structured and CSV renderers deliberately do not.
package generator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// writeLines joins lines and writes the file, creating parent directories.
func writeLines(path string, lines []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644)
}

// datasetTitle falls back to a generic name for unnamed datasets.
func datasetTitle(ds *schema.Dataset) string {
	if ds.Name != "" {
		return ds.Name
	}
	return "BigQuery Dataset"
}

// sortedColumns returns the table's columns in name order without touching
// the parse-ordered slice.
func sortedColumns(t *schema.Table) []*schema.Column {
	cols := append([]*schema.Column(nil), t.Columns...)
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols
}

// dedupeRelationships keeps the first occurrence of each endpoint key.
func dedupeRelationships(rels []*schema.Relationship) []*schema.Relationship {
	seen := make(map[schema.RelationshipKey]bool, len(rels))
	unique := make([]*schema.Relationship, 0, len(rels))
	for _, rel := range rels {
		if key := rel.Key(); !seen[key] {
			seen[key] = true
			unique = append(unique, rel)
		}
	}
	return unique
}

// WriteMarkdown renders the full Markdown documentation for a dataset.
func WriteMarkdown(ds *schema.Dataset, path string, logger *slog.Logger) error {
	logger.Info("generating markdown documentation", "path", path)

	stats := ds.Stats()
	lines := []string{
		fmt.Sprintf("# %s Schema Documentation\n", datasetTitle(ds)),
		"*Generated schema documentation for semantic mapping workshop*\n",
		"## Overview\n",
		fmt.Sprintf("This dataset contains **%d** tables with **%d** columns.", stats.TableCount, stats.ColumnCount),
	}
	if stats.RelationshipCount > 0 {
		lines = append(lines, fmt.Sprintf("**%d** relationships have been detected between tables.\n", stats.RelationshipCount))
	} else {
		lines = append(lines, "\n")
	}

	names := ds.TableNames()

	lines = append(lines,
		"## Table of Contents\n",
		"- [Overview](#overview)",
		"- [Index](#index)",
		"- [Relationships](#relationships)",
		"- [Tables](#tables)")
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  - [%s](#%s)", name, anchor(name)))
	}
	lines = append(lines, "")

	lines = append(lines, "## Index\n", "### Tables\n")
	for _, name := range names {
		table := ds.Tables[name]
		desc := ""
		if table.Description != "" {
			desc = " - " + table.Description
		}
		lines = append(lines, fmt.Sprintf("- **%s** (%d columns)%s", name, len(table.Columns), desc))
	}
	lines = append(lines, "")

	if unique := dedupeRelationships(ds.AllRelationships()); len(unique) > 0 {
		lines = append(lines,
			"## Relationships\n",
			"The following relationships have been detected between tables:\n",
			"| From Table | From Column | To Table | To Column | Type | Confidence |",
			"|------------|-------------|----------|-----------|------|------------|")
		for _, rel := range unique {
			confidence := fmt.Sprintf("%.1f", rel.Confidence)
			if rel.Confidence >= 1.0 {
				confidence = "High"
			}
			lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s | %s |",
				rel.FromTable, rel.FromColumn, rel.ToTable, rel.ToColumn, rel.Type, confidence))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "## Tables\n")
	for _, name := range names {
		lines = append(lines, tableSection(ds.Tables[name])...)
	}

	return writeLines(path, lines)
}

// tableSection renders the documentation section for a single table.
func tableSection(t *schema.Table) []string {
	lines := []string{fmt.Sprintf("### %s\n", t.Name)}

	if t.Description != "" {
		lines = append(lines, t.Description+"\n")
	}

	meta := fmt.Sprintf("**Columns:** %d", len(t.Columns))
	if t.PrimaryKey != "" {
		meta += " | **Primary Key:** " + t.PrimaryKey
	}
	lines = append(lines, meta, "")

	lines = append(lines,
		"| Column Name | Data Type | Mode | Description |",
		"|------------|----------|------|-------------|")
	for _, col := range sortedColumns(t) {
		name := col.Name
		if col.IsForeignKey {
			name = fmt.Sprintf("%s → %s", col.Name, col.ForeignKeyTable)
		}
		desc := strings.ReplaceAll(col.Description, "|", "\\|")
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s |", name, col.DataType, col.Mode, desc))
	}
	lines = append(lines, "")

	if len(t.Relationships) > 0 {
		lines = append(lines, "#### Relationships\n")
		for _, rel := range t.Relationships {
			lines = append(lines, fmt.Sprintf("- `%s` references `%s.%s`", rel.FromColumn, rel.ToTable, rel.ToColumn))
		}
		lines = append(lines, "")
	}

	return lines
}

// anchor derives a Markdown heading anchor from a table name.
func anchor(name string) string {
	a := strings.ToLower(name)
	a = strings.ReplaceAll(a, " ", "-")
	return strings.ReplaceAll(a, "_", "-")
}
