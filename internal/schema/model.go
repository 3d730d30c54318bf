// Package schema defines the in-memory model for a BigQuery dataset:
// tables, columns, and the foreign-key relationships inferred between them.
// The model is built once by the parser layer and then annotated in place by
// the inference engine; the filter layer always derives new Datasets instead
// of mutating its input.
package schema

import (
	"fmt"
	"sort"
)

// ColumnMode is the BigQuery column mode.
type ColumnMode string

const (
	ModeNullable ColumnMode = "NULLABLE"
	ModeRequired ColumnMode = "REQUIRED"
	ModeRepeated ColumnMode = "REPEATED"
)

// ParseColumnMode maps an exported mode string to a ColumnMode.
// Unknown or empty values default to NULLABLE, matching BigQuery's default.
func ParseColumnMode(s string) ColumnMode {
	switch s {
	case string(ModeRequired):
		return ModeRequired
	case string(ModeRepeated):
		return ModeRepeated
	default:
		return ModeNullable
	}
}

// RelTypeForeignKey is the only relationship type produced by inference.
// Renderers treat other type tags as pass-through data.
const RelTypeForeignKey = "foreign_key"

// Column is a single column of a table. The three foreign-key fields are set
// by the inference engine when a naming pattern matches; everything else is
// immutable after parsing.
type Column struct {
	Name             string
	DataType         string
	Mode             ColumnMode
	Description      string
	IsPrimaryKey     bool
	IsForeignKey     bool
	ForeignKeyTable  string
	ForeignKeyColumn string
}

func (c *Column) String() string {
	s := fmt.Sprintf("%s: %s", c.Name, c.DataType)
	if c.Mode != ModeNullable {
		s += " " + string(c.Mode)
	}
	if c.Description != "" {
		s += " - " + c.Description
	}
	return s
}

// Relationship is a directed edge between two table/column pairs with a
// confidence score in [0.0, 1.0].
type Relationship struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
	Type       string
	Confidence float64
}

// RelationshipKey identifies a relationship by its four endpoints. Type and
// confidence are deliberately excluded so duplicates from different sources
// collapse to one.
type RelationshipKey struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// Key returns the deduplication key for the relationship.
func (r *Relationship) Key() RelationshipKey {
	return RelationshipKey{
		FromTable:  r.FromTable,
		FromColumn: r.FromColumn,
		ToTable:    r.ToTable,
		ToColumn:   r.ToColumn,
	}
}

func (r *Relationship) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", r.FromTable, r.FromColumn, r.ToTable, r.ToColumn)
}

// Table is a single table schema. Columns keep their parse order. The
// relationship list holds edges attached to this table by the inference
// engine (source side only) and is not a strict ownership partition.
type Table struct {
	Name          string
	Columns       []*Column
	Description   string
	PrimaryKey    string
	Relationships []*Relationship
}

// NewTable creates an empty table schema.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddColumn appends a column to the table.
func (t *Table) AddColumn(c *Column) {
	t.Columns = append(t.Columns, c)
}

// AddRelationship appends a relationship to the table's own list.
func (t *Table) AddRelationship(r *Relationship) {
	t.Relationships = append(t.Relationships, r)
}

func (t *Table) String() string {
	s := "Table: " + t.Name
	if t.Description != "" {
		s += " - " + t.Description
	}
	return fmt.Sprintf("%s (%d columns)", s, len(t.Columns))
}

// Dataset is the complete schema model for one dataset. Table names are
// case-sensitive unique keys.
type Dataset struct {
	Name          string
	Tables        map[string]*Table
	Relationships []*Relationship
}

// NewDataset creates an empty dataset.
func NewDataset(name string) *Dataset {
	return &Dataset{
		Name:   name,
		Tables: make(map[string]*Table),
	}
}

// AddTable registers a table under its name, replacing any previous entry.
func (d *Dataset) AddTable(t *Table) {
	d.Tables[t.Name] = t
}

// Table returns the table with the given name, or nil.
func (d *Dataset) Table(name string) *Table {
	return d.Tables[name]
}

// AddRelationship appends a dataset-level relationship. Most relationships
// live on their source table; this list is used rarely.
func (d *Dataset) AddRelationship(r *Relationship) {
	d.Relationships = append(d.Relationships, r)
}

// AllRelationships returns the union of dataset-level relationships and
// every table's own list. The union may contain duplicates; callers that
// need uniqueness must deduplicate by Key themselves.
func (d *Dataset) AllRelationships() []*Relationship {
	all := make([]*Relationship, 0, len(d.Relationships))
	all = append(all, d.Relationships...)
	for _, name := range d.TableNames() {
		all = append(all, d.Tables[name].Relationships...)
	}
	return all
}

// TableNames returns all table names in ascending order.
func (d *Dataset) TableNames() []string {
	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats summarizes a dataset's size.
type Stats struct {
	TableCount        int
	ColumnCount       int
	RelationshipCount int
}

// Stats returns table, column, and relationship counts for the dataset.
func (d *Dataset) Stats() Stats {
	s := Stats{
		TableCount:        len(d.Tables),
		RelationshipCount: len(d.AllRelationships()),
	}
	for _, t := range d.Tables {
		s.ColumnCount += len(t.Columns)
	}
	return s
}

func (d *Dataset) String() string {
	s := d.Stats()
	prefix := ""
	if d.Name != "" {
		prefix = "Dataset: " + d.Name + "\n"
	}
	return fmt.Sprintf("%sTables: %d, Columns: %d, Relationships: %d",
		prefix, s.TableCount, s.ColumnCount, s.RelationshipCount)
}
