package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
	"github.com/Stiksels/bigquery-schema-doc/internal/testutil"
)

func shopDataset() *schema.Dataset {
	ds := schema.NewDataset("shop")
	for _, name := range []string{"users", "orders", "order_items", "products", "audit_log"} {
		t := schema.NewTable(name)
		t.AddColumn(&schema.Column{Name: "id", DataType: "INTEGER"})
		ds.AddTable(t)
	}
	addRel(ds, "orders", "user_id", "users")
	addRel(ds, "order_items", "order_id", "orders")
	addRel(ds, "order_items", "product_id", "products")
	return ds
}

func addRel(ds *schema.Dataset, from, col, to string) {
	ds.Table(from).AddRelationship(&schema.Relationship{
		FromTable: from, FromColumn: col,
		ToTable: to, ToColumn: "id",
		Type: schema.RelTypeForeignKey, Confidence: 0.9,
	})
}

func TestSimplify_IdentityFilter(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(testutil.NewTestLogger(t))

	// min_relationships 0, no patterns, no top-N: every table and every
	// relationship survives.
	simplified, err := s.Simplify(ds, Config{})
	require.NoError(t, err)

	assert.Len(t, simplified.Tables, 5)
	assert.Len(t, simplified.AllRelationships(), 3)
}

func TestSimplify_CoreEntities(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(nil)

	simplified, err := s.Simplify(ds, Config{MinRelationships: 2})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"orders", "order_items"}, simplified.TableNames())
	// Only order_items -> orders has both endpoints selected.
	rels := simplified.AllRelationships()
	require.Len(t, rels, 1)
	assert.Equal(t, "order_items", rels[0].FromTable)
	assert.Equal(t, "orders", rels[0].ToTable)
}

func TestSimplify_ExcludePatternOverridesInclude(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(nil)

	simplified, err := s.Simplify(ds, Config{
		IncludeTables:   []string{"orders"},
		ExcludePatterns: []string{"order*"},
	})
	require.NoError(t, err)

	// The pattern step intersects the running selection, so the explicit
	// include does not survive the exclude pattern.
	assert.NotContains(t, simplified.Tables, "orders")
}

func TestSimplify_PatternsAreCaseInsensitive(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(nil)

	simplified, err := s.Simplify(ds, Config{
		IncludeTables:   ds.TableNames(),
		IncludePatterns: []string{"ORDER?ITEMS", "users"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"order_items", "users"}, simplified.TableNames())
}

func TestSimplify_TopNAddedAfterPatterns(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(nil)

	// Patterns keep only users; top-1 (order_items by name tie-break) is
	// added afterwards and is never filtered out by patterns.
	simplified, err := s.Simplify(ds, Config{
		IncludeTables:   []string{"users"},
		IncludePatterns: []string{"users"},
		TopN:            1,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"users", "order_items"}, simplified.TableNames())
}

func TestSimplify_FallbackToCoreEntities(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(nil)

	// The exclude pattern empties the selection; the fallback re-selects
	// core entities alone.
	simplified, err := s.Simplify(ds, Config{
		MinRelationships: 2,
		ExcludePatterns:  []string{"*"},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"orders", "order_items"}, simplified.TableNames())
}

func TestSimplify_MissingIncludeTableIsNotFatal(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(testutil.NewTestLogger(t))

	simplified, err := s.Simplify(ds, Config{IncludeTables: []string{"users", "no_such_table"}})
	require.NoError(t, err)

	assert.Contains(t, simplified.Tables, "users")
	assert.NotContains(t, simplified.Tables, "no_such_table")
}

func TestSimplify_DeduplicatesByEndpoints(t *testing.T) {
	ds := shopDataset()
	// The same edge registered both at dataset level and on the source
	// table must collapse to one.
	ds.AddRelationship(&schema.Relationship{
		FromTable: "orders", FromColumn: "user_id",
		ToTable: "users", ToColumn: "id",
		Type: schema.RelTypeForeignKey, Confidence: 0.7,
	})
	s := NewSimplifier(nil)

	simplified, err := s.Simplify(ds, Config{IncludeTables: []string{"orders", "users"}})
	require.NoError(t, err)

	rels := simplified.AllRelationships()
	require.Len(t, rels, 1)
	// First occurrence wins; its confidence is whatever that copy carried.
	assert.InDelta(t, 0.7, rels[0].Confidence, 1e-9)
}

func TestSimplify_SourceDatasetUntouched(t *testing.T) {
	ds := shopDataset()
	before := len(ds.AllRelationships())
	s := NewSimplifier(nil)

	simplified, err := s.Simplify(ds, Config{MinRelationships: 2})
	require.NoError(t, err)

	assert.Len(t, ds.AllRelationships(), before)
	assert.Len(t, ds.Tables, 5)

	// Mutating the copy must not leak back into the source.
	simplified.Table("orders").AddColumn(&schema.Column{Name: "extra", DataType: "STRING"})
	assert.Nil(t, ds.Table("orders").Column("extra"))
}

func TestSimplify_Deterministic(t *testing.T) {
	ds := shopDataset()
	s := NewSimplifier(nil)
	cfg := Config{MinRelationships: 1, TopN: 2}

	first, err := s.Simplify(ds, cfg)
	require.NoError(t, err)
	second, err := s.Simplify(ds, cfg)
	require.NoError(t, err)

	assert.Equal(t, first.TableNames(), second.TableNames())
	assert.Equal(t, len(first.AllRelationships()), len(second.AllRelationships()))
}

func TestSimplify_EmptyDataset(t *testing.T) {
	s := NewSimplifier(nil)
	simplified, err := s.Simplify(schema.NewDataset(""), Config{MinRelationships: 2})
	require.NoError(t, err)
	assert.Empty(t, simplified.Tables)
	assert.Empty(t, simplified.AllRelationships())
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MinRelationships: -1}.Validate())
	assert.Error(t, Config{TopN: -1}.Validate())
}
