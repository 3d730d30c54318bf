// Package filter derives a simplified dataset for workshop-scale diagrams:
// a subset of tables selected by relationship count, explicit inclusion,
// name patterns, and top-N ranking, with relationships pruned to the
// selection and deduplicated.
package filter

import (
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/Stiksels/bigquery-schema-doc/internal/analyzer"
	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// Config controls table selection for the simplified schema.
type Config struct {
	// MinRelationships selects tables with at least this many relationships.
	// 0 disables the count filter.
	MinRelationships int
	// IncludeTables are always added to the selection when they exist.
	IncludeTables []string
	// IncludePatterns and ExcludePatterns are glob patterns ('*' any
	// sequence, '?' one character) matched case-insensitively against the
	// full table name. When either list is non-empty the pattern-filtered
	// set replaces the running selection by intersection, so an exclude
	// pattern can drop an explicitly included table.
	IncludePatterns []string
	ExcludePatterns []string
	// TopN additionally selects the N tables with the most relationships,
	// after pattern filtering. 0 disables it.
	TopN int
	// IncludeConnected is accepted for configuration compatibility but is
	// not consulted by the selection algorithm.
	IncludeConnected bool
}

// DefaultConfig returns the default filter configuration.
func DefaultConfig() Config {
	return Config{
		MinRelationships: 2,
		IncludeConnected: true,
	}
}

// Validate rejects configurations the selection algorithm cannot honor.
func (c Config) Validate() error {
	if c.MinRelationships < 0 {
		return fmt.Errorf("min_relationships must not be negative, got %d", c.MinRelationships)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must not be negative, got %d", c.TopN)
	}
	return nil
}

// active reports whether any selection strategy is enabled. An inactive
// configuration selects every table.
func (c Config) active() bool {
	return c.MinRelationships > 0 ||
		len(c.IncludeTables) > 0 ||
		len(c.IncludePatterns) > 0 ||
		len(c.ExcludePatterns) > 0 ||
		c.TopN > 0
}

// Simplifier builds simplified datasets. It never mutates the source.
type Simplifier struct {
	logger *slog.Logger
}

// NewSimplifier creates a simplifier. A nil logger discards output.
func NewSimplifier(logger *slog.Logger) *Simplifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Simplifier{logger: logger}
}

// Simplify returns a new, independent dataset restricted to the selected
// tables, keeping only relationships with both endpoints in the selection,
// deduplicated by endpoint key (first occurrence wins). An empty selection
// yields a valid empty dataset, never an error.
func (s *Simplifier) Simplify(ds *schema.Dataset, cfg Config) (*schema.Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	selected := s.selectTables(ds, cfg)
	simplified := s.build(ds, selected)

	from := ds.Stats()
	to := simplified.Stats()
	s.logger.Info("simplified schema",
		"tables", to.TableCount, "from_tables", from.TableCount,
		"relationships", to.RelationshipCount, "from_relationships", from.RelationshipCount)

	return simplified, nil
}

// selectTables combines the filter strategies. The strategies are not
// mutually exclusive: explicit includes and core entities accumulate,
// patterns intersect, top-N accumulates again, and an empty result falls
// back to core entities alone. With every strategy disabled the selection
// is the whole dataset.
func (s *Simplifier) selectTables(ds *schema.Dataset, cfg Config) map[string]bool {
	if !cfg.active() {
		return analyzer.CoreEntities(ds, 0)
	}

	selected := make(map[string]bool)

	for _, name := range cfg.IncludeTables {
		if ds.Table(name) == nil {
			s.logger.Warn("requested table not found in dataset", "table", name)
			continue
		}
		selected[name] = true
	}

	if cfg.MinRelationships > 0 {
		for name := range analyzer.CoreEntities(ds, cfg.MinRelationships) {
			selected[name] = true
		}
	}

	if len(cfg.IncludePatterns) > 0 || len(cfg.ExcludePatterns) > 0 {
		matched := byPatterns(ds, cfg.IncludePatterns, cfg.ExcludePatterns)
		for name := range selected {
			if !matched[name] {
				delete(selected, name)
			}
		}
	}

	if cfg.TopN > 0 {
		for _, name := range analyzer.TopTablesByRelationships(ds, cfg.TopN) {
			selected[name] = true
		}
	}

	if len(selected) == 0 && cfg.MinRelationships > 0 {
		selected = analyzer.CoreEntities(ds, cfg.MinRelationships)
	}

	return selected
}

// byPatterns returns the tables matching the include patterns (all tables
// when none are given) minus the tables matching any exclude pattern.
func byPatterns(ds *schema.Dataset, include, exclude []string) map[string]bool {
	matched := make(map[string]bool)
	if len(include) > 0 {
		for name := range ds.Tables {
			for _, pattern := range include {
				if matchGlob(pattern, name) {
					matched[name] = true
					break
				}
			}
		}
	} else {
		for name := range ds.Tables {
			matched[name] = true
		}
	}

	for name := range matched {
		for _, pattern := range exclude {
			if matchGlob(pattern, name) {
				delete(matched, name)
				break
			}
		}
	}

	return matched
}

// matchGlob reports whether the glob pattern matches the full table name,
// case-insensitively. Malformed patterns match nothing.
func matchGlob(pattern, name string) bool {
	ok, err := path.Match(strings.ToLower(pattern), strings.ToLower(name))
	return err == nil && ok
}

// build constructs the simplified dataset: table copies with fresh, empty
// relationship lists, then one pass over the source relationships keeping
// edges inside the selection. Surviving relationships attach to the source
// table's copy only, mirroring the inference engine's convention.
func (s *Simplifier) build(ds *schema.Dataset, selected map[string]bool) *schema.Dataset {
	simplified := schema.NewDataset(ds.Name)

	for name := range selected {
		original := ds.Table(name)
		if original == nil {
			continue
		}
		copied := &schema.Table{
			Name:        original.Name,
			Columns:     append([]*schema.Column(nil), original.Columns...),
			Description: original.Description,
			PrimaryKey:  original.PrimaryKey,
		}
		simplified.AddTable(copied)
	}

	seen := make(map[schema.RelationshipKey]bool)
	for _, rel := range ds.AllRelationships() {
		if !selected[rel.FromTable] || !selected[rel.ToTable] {
			continue
		}
		key := rel.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		simplified.Table(rel.FromTable).AddRelationship(rel)
	}

	return simplified
}
