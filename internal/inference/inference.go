// Package inference detects foreign-key relationships between tables from
// column naming conventions. Detection is a best-effort heuristic over
// naming text only; it never inspects data or live warehouse metadata, and a
// failed match is a silent miss, not an error.
package inference

import (
	"io"
	"log/slog"
	"strings"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// Confidence levels assigned to matches, most to least certain.
const (
	confidenceSpecialCase = 1.0
	confidenceExact       = 0.9
	confidenceInflected   = 0.7
)

// defaultSpecialCases maps column names that don't follow the usual
// <table>_id convention to their known target table. These come from vendor
// exports whose place identifiers reference the places table.
var defaultSpecialCases = map[string]string{
	"placekey":           "places",
	"place_key":          "places",
	"parent_placekey":    "places",
	"safegraph_place_id": "places",
}

// defaultSuffixes are the foreign-key suffix patterns, most specific first.
// The bare "id" suffix is last so compact names like "userid" are only tried
// after the underscore forms.
var defaultSuffixes = []string{"_id", "_uuid", "_key", "id"}

// Detector infers foreign-key relationships for a dataset. The lookup tables
// are explicit fields rather than package state so tests can substitute them.
type Detector struct {
	logger       *slog.Logger
	specialCases map[string]string
	suffixes     []string
}

// NewDetector creates a detector with the default special-case mappings and
// suffix patterns. A nil logger discards output.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Detector{
		logger:       logger,
		specialCases: defaultSpecialCases,
		suffixes:     defaultSuffixes,
	}
}

// Detect annotates the dataset in place: every column matching a foreign-key
// naming pattern gains a relationship on its source table and FK fields,
// provided a plausible target table exists. Columns already annotated are
// skipped, so Detect is idempotent.
func (d *Detector) Detect(ds *schema.Dataset) {
	d.logger.Info("detecting relationships", "tables", len(ds.Tables))

	detected := 0
	for _, name := range ds.TableNames() {
		table := ds.Tables[name]
		for _, col := range table.Columns {
			if col.IsForeignKey {
				continue
			}
			if d.detectColumn(ds, table, col) {
				detected++
			}
		}
	}

	d.logger.Info("relationship detection complete", "detected", detected)
}

// detectColumn tries the special-case mappings first, then the suffix
// patterns in order. Reports whether a relationship was created.
func (d *Detector) detectColumn(ds *schema.Dataset, table *schema.Table, col *schema.Column) bool {
	name := strings.ToLower(col.Name)

	if target, ok := d.specialCases[name]; ok {
		if ds.Table(target) != nil {
			d.annotate(table, col, target, confidenceSpecialCase)
			return true
		}
		// Known special token but the target table isn't in this dataset;
		// fall through to the generic patterns.
	}

	for _, suffix := range d.suffixes {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		prefix := strings.TrimSuffix(name, suffix)
		if prefix == "" {
			continue
		}

		target, confidence := d.resolveTarget(ds, prefix)
		if target == "" {
			continue
		}
		d.annotate(table, col, target, confidence)
		return true
	}

	return false
}

// resolveTarget matches a stripped column prefix against known table names:
// exact match first, then naive singular/plural variations.
func (d *Detector) resolveTarget(ds *schema.Dataset, prefix string) (string, float64) {
	if ds.Table(prefix) != nil {
		return prefix, confidenceExact
	}
	if strings.HasSuffix(prefix, "s") {
		if singular := prefix[:len(prefix)-1]; ds.Table(singular) != nil {
			return singular, confidenceInflected
		}
	}
	if plural := prefix + "s"; ds.Table(plural) != nil {
		return plural, confidenceInflected
	}
	return "", 0
}

// annotate records the relationship on the source table only and marks the
// column. The target column is always "id"; the target table's actual
// primary key is never inspected.
func (d *Detector) annotate(table *schema.Table, col *schema.Column, target string, confidence float64) {
	rel := &schema.Relationship{
		FromTable:  table.Name,
		FromColumn: col.Name,
		ToTable:    target,
		ToColumn:   "id",
		Type:       schema.RelTypeForeignKey,
		Confidence: confidence,
	}
	table.AddRelationship(rel)
	col.IsForeignKey = true
	col.ForeignKeyTable = target
	col.ForeignKeyColumn = "id"

	d.logger.Debug("detected foreign key",
		"from", table.Name+"."+col.Name,
		"to", target+".id",
		"confidence", confidence)
}
