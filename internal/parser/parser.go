// Package parser reads manually exported schema files (CSV or JSON) and
// builds the in-memory dataset model. Parsers only populate tables and
// columns; relationship inference happens downstream.
package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// Supported input formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Loader parses export files into datasets.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{logger: logger}
}

// CollectInputFiles resolves an input path to the list of files to parse.
// A file is returned as-is; a directory yields its CSV and JSON files,
// sorted for deterministic merge order.
func CollectInputFiles(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input path does not exist: %s", input)
	}
	if !info.IsDir() {
		return []string{input}, nil
	}

	var files []string
	for _, pattern := range []string{"*.csv", "*.json", "*.CSV", "*.JSON"} {
		matches, err := filepath.Glob(filepath.Join(input, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// Load parses one or more export files and merges them into a single
// dataset. Missing files are skipped with a warning. When format is empty it
// is detected per file from the extension.
func (l *Loader) Load(paths []string, format string) (*schema.Dataset, error) {
	combined := schema.NewDataset("")

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			l.logger.Warn("file not found, skipping", "path", path)
			continue
		}

		ds, err := l.parseFile(path, format)
		if err != nil {
			return nil, err
		}
		mergeDataset(combined, ds)
	}

	return combined, nil
}

// parseFile dispatches on the explicit or detected format.
func (l *Loader) parseFile(path, format string) (*schema.Dataset, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			format = FormatCSV
		case ".json":
			format = FormatJSON
		default:
			return nil, fmt.Errorf("cannot detect format for file: %s", path)
		}
	}

	switch strings.ToLower(format) {
	case FormatCSV:
		return l.ParseCSV(path)
	case FormatJSON:
		return l.ParseJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", format)
	}
}

// mergeDataset merges src into dst. Same-named tables union their columns;
// a column name already present in the accumulating table is skipped.
func mergeDataset(dst, src *schema.Dataset) {
	for _, name := range src.TableNames() {
		table := src.Tables[name]
		existing := dst.Table(name)
		if existing == nil {
			dst.AddTable(table)
			continue
		}
		for _, col := range table.Columns {
			if existing.Column(col.Name) == nil {
				existing.AddColumn(col)
			}
		}
	}
}

// tableNameFromIdentifier strips a project.dataset prefix from a full table
// identifier like "my-project.analytics.users".
func tableNameFromIdentifier(identifier string) string {
	parts := strings.Split(identifier, ".")
	return parts[len(parts)-1]
}

var tableNameSuffixes = regexp.MustCompile(`(?i)(_schema|_export)$`)

// tableNameFromPath derives a table name from a file path, dropping common
// export suffixes: "users_schema.json" -> "users".
func tableNameFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return tableNameSuffixes.ReplaceAllString(name, "")
}
