package generator

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// DatasetDoc is the shared export shape for JSON and YAML output.
type DatasetDoc struct {
	DatasetName   string            `json:"dataset_name" yaml:"dataset_name"`
	Metadata      MetadataDoc       `json:"metadata" yaml:"metadata"`
	Tables        []TableDoc        `json:"tables" yaml:"tables"`
	Relationships []RelationshipDoc `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// MetadataDoc carries dataset-level counts.
type MetadataDoc struct {
	TableCount         int `json:"table_count" yaml:"table_count"`
	TotalColumns       int `json:"total_columns" yaml:"total_columns"`
	TotalRelationships int `json:"total_relationships" yaml:"total_relationships"`
}

// TableDoc is one exported table.
type TableDoc struct {
	Name          string        `json:"name" yaml:"name"`
	Description   string        `json:"description,omitempty" yaml:"description,omitempty"`
	PrimaryKey    string        `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
	Columns       []ColumnDoc   `json:"columns" yaml:"columns"`
	Relationships []TableRelDoc `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

// ColumnDoc is one exported column.
type ColumnDoc struct {
	Name         string      `json:"name" yaml:"name"`
	DataType     string      `json:"data_type" yaml:"data_type"`
	Mode         string      `json:"mode" yaml:"mode"`
	Description  string      `json:"description,omitempty" yaml:"description,omitempty"`
	IsPrimaryKey bool        `json:"is_primary_key" yaml:"is_primary_key"`
	IsForeignKey bool        `json:"is_foreign_key" yaml:"is_foreign_key"`
	ForeignKey   *ForeignKey `json:"foreign_key,omitempty" yaml:"foreign_key,omitempty"`
}

// ForeignKey is the FK annotation of an exported column.
type ForeignKey struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// RelationshipDoc is one exported dataset-level relationship. The type tag
// is passed through unmodified, including tags other than "foreign_key".
type RelationshipDoc struct {
	FromTable  string  `json:"from_table" yaml:"from_table"`
	FromColumn string  `json:"from_column" yaml:"from_column"`
	ToTable    string  `json:"to_table" yaml:"to_table"`
	ToColumn   string  `json:"to_column" yaml:"to_column"`
	Type       string  `json:"relationship_type" yaml:"relationship_type"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// TableRelDoc is a relationship listed under its source table.
type TableRelDoc struct {
	FromColumn string  `json:"from_column" yaml:"from_column"`
	ToTable    string  `json:"to_table" yaml:"to_table"`
	ToColumn   string  `json:"to_column" yaml:"to_column"`
	Type       string  `json:"relationship_type" yaml:"relationship_type"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// BuildDoc converts a dataset into its export shape. Tables and columns are
// sorted by name; the relationship list is the raw union, not deduplicated.
func BuildDoc(ds *schema.Dataset) DatasetDoc {
	stats := ds.Stats()
	doc := DatasetDoc{
		DatasetName: ds.Name,
		Metadata: MetadataDoc{
			TableCount:         stats.TableCount,
			TotalColumns:       stats.ColumnCount,
			TotalRelationships: stats.RelationshipCount,
		},
		Tables: make([]TableDoc, 0, stats.TableCount),
	}

	for _, name := range ds.TableNames() {
		doc.Tables = append(doc.Tables, buildTableDoc(ds.Tables[name]))
	}

	for _, rel := range ds.AllRelationships() {
		doc.Relationships = append(doc.Relationships, RelationshipDoc{
			FromTable:  rel.FromTable,
			FromColumn: rel.FromColumn,
			ToTable:    rel.ToTable,
			ToColumn:   rel.ToColumn,
			Type:       rel.Type,
			Confidence: rel.Confidence,
		})
	}

	return doc
}

func buildTableDoc(t *schema.Table) TableDoc {
	doc := TableDoc{
		Name:        t.Name,
		Description: t.Description,
		PrimaryKey:  t.PrimaryKey,
		Columns:     make([]ColumnDoc, 0, len(t.Columns)),
	}

	for _, col := range sortedColumns(t) {
		c := ColumnDoc{
			Name:         col.Name,
			DataType:     col.DataType,
			Mode:         string(col.Mode),
			Description:  col.Description,
			IsPrimaryKey: col.IsPrimaryKey || (t.PrimaryKey != "" && col.Name == t.PrimaryKey),
			IsForeignKey: col.IsForeignKey,
		}
		if col.IsForeignKey {
			c.ForeignKey = &ForeignKey{Table: col.ForeignKeyTable, Column: col.ForeignKeyColumn}
		}
		doc.Columns = append(doc.Columns, c)
	}

	for _, rel := range t.Relationships {
		doc.Relationships = append(doc.Relationships, TableRelDoc{
			FromColumn: rel.FromColumn,
			ToTable:    rel.ToTable,
			ToColumn:   rel.ToColumn,
			Type:       rel.Type,
			Confidence: rel.Confidence,
		})
	}

	return doc
}

// WriteJSON renders the dataset as an indented JSON document.
func WriteJSON(ds *schema.Dataset, path string, logger *slog.Logger) error {
	logger.Info("generating JSON schema", "path", path)

	data, err := json.MarshalIndent(BuildDoc(ds), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON schema: %w", err)
	}
	return writeBytes(path, data)
}

// WriteYAML renders the dataset as a YAML document.
func WriteYAML(ds *schema.Dataset, path string, logger *slog.Logger) error {
	logger.Info("generating YAML schema", "path", path)

	data, err := yaml.Marshal(BuildDoc(ds))
	if err != nil {
		return fmt.Errorf("failed to encode YAML schema: %w", err)
	}
	return writeBytes(path, data)
}

// csvHeader is the column-row header of the CSV export.
var csvHeader = []string{
	"table_name", "table_description", "column_name", "data_type", "mode",
	"column_description", "is_primary_key", "is_foreign_key",
	"foreign_key_table", "foreign_key_column",
}

// WriteCSV renders the dataset as a flat CSV export: one row per column,
// then a relationships section separated by a blank row.
func WriteCSV(ds *schema.Dataset, path string, logger *slog.Logger) error {
	logger.Info("generating CSV export", "path", path)

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}

	for _, name := range ds.TableNames() {
		table := ds.Tables[name]
		for _, col := range sortedColumns(table) {
			record := []string{
				name,
				table.Description,
				col.Name,
				col.DataType,
				string(col.Mode),
				col.Description,
				yesNo(table.PrimaryKey != "" && col.Name == table.PrimaryKey),
				yesNo(col.IsForeignKey),
				col.ForeignKeyTable,
				col.ForeignKeyColumn,
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}

	if rels := ds.AllRelationships(); len(rels) > 0 {
		if err := w.Write([]string{""}); err != nil {
			return err
		}
		if err := w.Write([]string{"Relationships"}); err != nil {
			return err
		}
		if err := w.Write([]string{"from_table", "from_column", "to_table", "to_column", "relationship_type", "confidence"}); err != nil {
			return err
		}
		for _, rel := range rels {
			record := []string{
				rel.FromTable, rel.FromColumn, rel.ToTable, rel.ToColumn,
				rel.Type, strconv.FormatFloat(rel.Confidence, 'g', -1, 64),
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
	}

	w.Flush()
	return w.Error()
}

func writeBytes(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
