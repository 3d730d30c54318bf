package generator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// WritePlantUML renders a PlantUML class diagram for the dataset.
func WritePlantUML(ds *schema.Dataset, path string, logger *slog.Logger) error {
	logger.Info("generating PlantUML diagram", "path", path)

	lines := []string{
		"@startuml",
		fmt.Sprintf("title %s Schema Diagram", datasetTitle(ds)),
		"",
	}

	for _, name := range ds.TableNames() {
		lines = append(lines, plantumlClass(ds.Tables[name])...)
		lines = append(lines, "")
	}

	if rels := ds.AllRelationships(); len(rels) > 0 {
		lines = append(lines, "' Relationships")
		for _, rel := range rels {
			arrow := "--"
			if rel.Type == schema.RelTypeForeignKey {
				arrow = "-->"
			}
			lines = append(lines, fmt.Sprintf("%s %s %s : %s", rel.FromTable, arrow, rel.ToTable, rel.FromColumn))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "@enduml")
	return writeLines(path, lines)
}

func plantumlClass(t *schema.Table) []string {
	lines := []string{fmt.Sprintf("class %s {", t.Name)}

	if t.Description != "" {
		desc := strings.ReplaceAll(t.Description, `"`, `\"`)
		lines = append(lines, "  note top : "+desc, "")
	}
	if t.PrimaryKey != "" {
		lines = append(lines, fmt.Sprintf("  ** Primary Key: %s **", t.PrimaryKey), "")
	}

	for _, col := range sortedColumns(t) {
		mode := ""
		switch col.Mode {
		case schema.ModeRequired:
			mode = " [required]"
		case schema.ModeRepeated:
			mode = " [repeated]"
		}
		fk := ""
		if col.IsForeignKey {
			fk = " -> " + col.ForeignKeyTable
		}
		lines = append(lines, fmt.Sprintf("  +%s: %s%s%s", col.Name, col.DataType, mode, fk))
	}

	lines = append(lines, "}")
	return lines
}

// WriteMermaid renders a Mermaid ER diagram for the dataset.
func WriteMermaid(ds *schema.Dataset, path string, logger *slog.Logger) error {
	logger.Info("generating Mermaid diagram", "path", path)

	lines := []string{"erDiagram", ""}

	for _, name := range ds.TableNames() {
		lines = append(lines, mermaidEntity(ds.Tables[name])...)
		lines = append(lines, "")
	}

	if rels := ds.AllRelationships(); len(rels) > 0 {
		lines = append(lines, "    %% Relationships")
		for _, rel := range rels {
			lines = append(lines, fmt.Sprintf(`    %s ||--o{ %s : "%s -> %s"`,
				rel.FromTable, rel.ToTable, rel.FromColumn, rel.ToColumn))
		}
		lines = append(lines, "")
	}

	return writeLines(path, lines)
}

func mermaidEntity(t *schema.Table) []string {
	lines := []string{fmt.Sprintf("    %s {", t.Name)}
	for _, col := range sortedColumns(t) {
		// Mermaid attribute names cannot contain spaces.
		name := strings.ReplaceAll(col.Name, " ", "_")
		lines = append(lines, fmt.Sprintf("        %s %s", col.DataType, name))
	}
	lines = append(lines, "    }")
	return lines
}
