package parser

import (
	"fmt"
	"os"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// jsonShape identifies the recognized JSON export layouts. Shapes are
// resolved up front by classifyJSON rather than by ad hoc field probing
// during decoding.
type jsonShape int

const (
	shapeUnknown jsonShape = iota
	// shapeTableArray is an array of table objects, each with a columns list.
	shapeTableArray
	// shapeColumnArray is the BigQuery schema format: a bare array of column
	// definitions. The table name comes from the file name.
	shapeColumnArray
	// shapeSingleTable is one table object with a columns list.
	shapeSingleTable
	// shapeDatasetWrapper is an object with a tables array.
	shapeDatasetWrapper
)

type jsonColumn struct {
	Name        string `json:"name"`
	ColumnName  string `json:"column_name"`
	Type        string `json:"type"`
	DataType    string `json:"data_type"`
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

type jsonTable struct {
	Name             string       `json:"name"`
	TableName        string       `json:"table_name"`
	Description      string       `json:"description"`
	TableDescription string       `json:"table_description"`
	Columns          []jsonColumn `json:"columns"`
}

type jsonDataset struct {
	Name   string      `json:"name"`
	Tables []jsonTable `json:"tables"`
}

// ParseJSON parses a JSON schema export in any of the recognized shapes.
func (l *Loader) ParseJSON(path string) (*schema.Dataset, error) {
	l.logger.Info("parsing JSON file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON file: %w", err)
	}

	shape, err := classifyJSON(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON file %s: %w", path, err)
	}

	ds := schema.NewDataset("")
	switch shape {
	case shapeTableArray:
		var tables []jsonTable
		if err := json.Unmarshal(data, &tables); err != nil {
			return nil, fmt.Errorf("failed to parse JSON file %s: %w", path, err)
		}
		for _, t := range tables {
			addJSONTable(ds, t)
		}

	case shapeColumnArray:
		var columns []jsonColumn
		if err := json.Unmarshal(data, &columns); err != nil {
			return nil, fmt.Errorf("failed to parse JSON file %s: %w", path, err)
		}
		addJSONTable(ds, jsonTable{Name: tableNameFromPath(path), Columns: columns})

	case shapeSingleTable:
		var table jsonTable
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("failed to parse JSON file %s: %w", path, err)
		}
		addJSONTable(ds, table)

	case shapeDatasetWrapper:
		var wrapper jsonDataset
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse JSON file %s: %w", path, err)
		}
		ds.Name = wrapper.Name
		for _, t := range wrapper.Tables {
			addJSONTable(ds, t)
		}

	default:
		l.logger.Warn("unrecognized JSON shape, no tables parsed", "path", path)
	}

	l.logger.Info("parsed JSON file", "path", path, "tables", len(ds.Tables))
	return ds, nil
}

// classifyJSON resolves the export layout from the document's top-level
// structure. Empty arrays classify as a table array, which parses to an
// empty dataset.
func classifyJSON(data []byte) (jsonShape, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return shapeUnknown, err
	}

	switch doc := v.(type) {
	case []any:
		if len(doc) == 0 {
			return shapeTableArray, nil
		}
		first, ok := doc[0].(map[string]any)
		if !ok {
			return shapeUnknown, nil
		}
		if _, hasColumns := first["columns"]; hasColumns {
			return shapeTableArray, nil
		}
		if _, hasName := first["name"]; hasName {
			return shapeColumnArray, nil
		}
		if _, hasName := first["column_name"]; hasName {
			return shapeColumnArray, nil
		}
		return shapeUnknown, nil

	case map[string]any:
		if _, hasColumns := doc["columns"]; hasColumns {
			return shapeSingleTable, nil
		}
		if _, hasTables := doc["tables"]; hasTables {
			return shapeDatasetWrapper, nil
		}
		return shapeUnknown, nil

	default:
		return shapeUnknown, nil
	}
}

// addJSONTable converts a decoded table object and registers it. Tables
// without columns are dropped.
func addJSONTable(ds *schema.Dataset, t jsonTable) {
	name := t.TableName
	if name == "" {
		name = t.Name
	}
	if name == "" || len(t.Columns) == 0 {
		return
	}

	description := t.TableDescription
	if description == "" {
		description = t.Description
	}

	table := schema.NewTable(tableNameFromIdentifier(name))
	table.Description = description

	for _, c := range t.Columns {
		columnName := c.Name
		if columnName == "" {
			columnName = c.ColumnName
		}
		if columnName == "" {
			continue
		}
		dataType := c.Type
		if dataType == "" {
			dataType = c.DataType
		}
		if dataType == "" {
			dataType = "STRING"
		}
		table.AddColumn(&schema.Column{
			Name:        columnName,
			DataType:    dataType,
			Mode:        schema.ParseColumnMode(strings.ToUpper(c.Mode)),
			Description: c.Description,
		})
	}

	if len(table.Columns) > 0 {
		ds.AddTable(table)
	}
}
