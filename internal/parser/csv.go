package parser

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// Canonical CSV field names after header normalization.
const (
	fieldTableName        = "table_name"
	fieldColumnName       = "column_name"
	fieldDataType         = "data_type"
	fieldMode             = "mode"
	fieldDescription      = "description"
	fieldTableDescription = "table_description"
)

// ParseCSV parses a CSV schema export. Expected columns (header names are
// normalized, so INFORMATION_SCHEMA-style variants work): table_name,
// column_name, data_type, plus optional mode, description, and
// table_description.
func (l *Loader) ParseCSV(path string) (*schema.Dataset, error) {
	l.logger.Info("parsing CSV file", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file %s: %w", path, err)
	}
	if len(records) == 0 {
		return schema.NewDataset(""), nil
	}

	fields := normalizeHeader(records[0])
	if err := requireFields(fields, fieldTableName, fieldColumnName, fieldDataType); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ds := schema.NewDataset("")
	for _, record := range records[1:] {
		row := recordFields(fields, record)

		tableName := tableNameFromIdentifier(strings.TrimSpace(row[fieldTableName]))
		columnName := strings.TrimSpace(row[fieldColumnName])
		if tableName == "" || columnName == "" {
			continue
		}

		table := ds.Table(tableName)
		if table == nil {
			table = schema.NewTable(tableName)
			ds.AddTable(table)
		}
		if desc := strings.TrimSpace(row[fieldTableDescription]); desc != "" && table.Description == "" {
			table.Description = desc
		}

		table.AddColumn(&schema.Column{
			Name:        columnName,
			DataType:    strings.TrimSpace(row[fieldDataType]),
			Mode:        schema.ParseColumnMode(strings.ToUpper(strings.TrimSpace(row[fieldMode]))),
			Description: strings.TrimSpace(row[fieldDescription]),
		})
	}

	l.logger.Info("parsed CSV file", "path", path, "tables", len(ds.Tables))
	return ds, nil
}

// normalizeHeader maps column indexes to canonical field names, tolerating
// the naming variations of different export paths (table_id, full
// table_catalog identifiers, bare "type", and so on).
func normalizeHeader(header []string) map[int]string {
	fields := make(map[int]string, len(header))
	for i, name := range header {
		lower := strings.ToLower(strings.TrimSpace(name))
		switch {
		case strings.Contains(lower, "table") && strings.Contains(lower, "name"):
			fields[i] = fieldTableName
		case lower == "table_id":
			fields[i] = fieldTableName
		case strings.Contains(lower, "column") && strings.Contains(lower, "name"):
			fields[i] = fieldColumnName
		case strings.Contains(lower, "data_type") || strings.Contains(lower, "type"):
			fields[i] = fieldDataType
		case strings.Contains(lower, "mode"):
			fields[i] = fieldMode
		case strings.Contains(lower, "description") && strings.Contains(lower, "table"):
			fields[i] = fieldTableDescription
		case strings.Contains(lower, "description"):
			fields[i] = fieldDescription
		}
	}
	return fields
}

func requireFields(fields map[int]string, required ...string) error {
	present := make(map[string]bool, len(fields))
	for _, name := range fields {
		present[name] = true
	}
	var missing []string
	for _, name := range required {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// recordFields projects a CSV record onto the canonical field names.
func recordFields(fields map[int]string, record []string) map[string]string {
	row := make(map[string]string, len(fields))
	for i, name := range fields {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	return row
}
