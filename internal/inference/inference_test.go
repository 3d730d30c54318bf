package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
	"github.com/Stiksels/bigquery-schema-doc/internal/testutil"
)

func buildDataset(tables map[string][]string) *schema.Dataset {
	ds := schema.NewDataset("test")
	for name, cols := range tables {
		t := schema.NewTable(name)
		for _, c := range cols {
			t.AddColumn(&schema.Column{Name: c, DataType: "STRING"})
		}
		ds.AddTable(t)
	}
	return ds
}

func findRelationship(ds *schema.Dataset, from, col string) *schema.Relationship {
	for _, rel := range ds.AllRelationships() {
		if rel.FromTable == from && rel.FromColumn == col {
			return rel
		}
	}
	return nil
}

func TestDetect_OrderScenario(t *testing.T) {
	ds := buildDataset(map[string][]string{
		"users":       {"id", "email"},
		"orders":      {"id", "user_id", "total"},
		"order_items": {"id", "order_id", "product_id", "quantity"},
		"products":    {"id", "name"},
	})

	NewDetector(testutil.NewTestLogger(t)).Detect(ds)

	all := ds.AllRelationships()
	require.Len(t, all, 3)

	cases := []struct {
		fromTable, fromColumn, toTable string
	}{
		{"orders", "user_id", "users"},
		{"order_items", "order_id", "orders"},
		{"order_items", "product_id", "products"},
	}
	for _, tc := range cases {
		rel := findRelationship(ds, tc.fromTable, tc.fromColumn)
		require.NotNil(t, rel, "expected relationship from %s.%s", tc.fromTable, tc.fromColumn)
		assert.Equal(t, tc.toTable, rel.ToTable)
		assert.Equal(t, "id", rel.ToColumn)
		assert.Equal(t, schema.RelTypeForeignKey, rel.Type)
		// All three targets are the pluralized form of the column prefix,
		// so they score as inflected matches rather than exact ones.
		assert.InDelta(t, 0.7, rel.Confidence, 1e-9)
	}

	// Column annotation mirrors the relationship.
	col := ds.Table("orders").Column("user_id")
	require.True(t, col.IsForeignKey)
	assert.Equal(t, "users", col.ForeignKeyTable)
	assert.Equal(t, "id", col.ForeignKeyColumn)
}

func TestDetect_SingularAndPluralVariants(t *testing.T) {
	ds := buildDataset(map[string][]string{
		"user":    {"id"},
		"invoice": {"id", "users_id"}, // users_id -> user via trailing-s strip
		"payment": {"id", "invoice_id", "account_id"},
		"accounts": {"id"}, // account_id -> accounts via pluralization
	})

	NewDetector(nil).Detect(ds)

	rel := findRelationship(ds, "invoice", "users_id")
	require.NotNil(t, rel)
	assert.Equal(t, "user", rel.ToTable)
	assert.InDelta(t, 0.7, rel.Confidence, 1e-9)

	rel = findRelationship(ds, "payment", "account_id")
	require.NotNil(t, rel)
	assert.Equal(t, "accounts", rel.ToTable)
	assert.InDelta(t, 0.7, rel.Confidence, 1e-9)

	// Exact match keeps the higher confidence.
	rel = findRelationship(ds, "payment", "invoice_id")
	require.NotNil(t, rel)
	assert.InDelta(t, 0.9, rel.Confidence, 1e-9)
}

func TestDetect_SuffixVariants(t *testing.T) {
	ds := buildDataset(map[string][]string{
		"sessions": {"id"},
		"users":    {"id"},
		"events": {
			"id",
			"session_uuid", // _uuid suffix
			"user_key",     // _key suffix
			"userid",       // compact form, lenient id suffix
		},
	})

	NewDetector(nil).Detect(ds)

	for _, col := range []string{"session_uuid", "user_key", "userid"} {
		rel := findRelationship(ds, "events", col)
		require.NotNil(t, rel, "expected relationship from events.%s", col)
		assert.Equal(t, "id", rel.ToColumn)
		assert.InDelta(t, 0.7, rel.Confidence, 1e-9, "naive inflection match for %s", col)
	}
}

func TestDetect_SpecialCaseWinsOverPattern(t *testing.T) {
	// place_key would also match the _key pattern (place -> places, 0.7);
	// the special-case mapping must take precedence at confidence 1.0.
	ds := buildDataset(map[string][]string{
		"places": {"id"},
		"visits": {"id", "place_key", "placekey"},
	})

	NewDetector(nil).Detect(ds)

	for _, col := range []string{"place_key", "placekey"} {
		rel := findRelationship(ds, "visits", col)
		require.NotNil(t, rel, "expected relationship from visits.%s", col)
		assert.Equal(t, "places", rel.ToTable)
		assert.Equal(t, "id", rel.ToColumn)
		assert.InDelta(t, 1.0, rel.Confidence, 1e-9)
	}
}

func TestDetect_SpecialCaseMissingTargetFallsThrough(t *testing.T) {
	// No places table: the special token degrades to the generic patterns,
	// and with no matching table at all the column stays a plain attribute.
	ds := buildDataset(map[string][]string{
		"visits": {"id", "placekey"},
	})

	NewDetector(nil).Detect(ds)

	assert.Empty(t, ds.AllRelationships())
	assert.False(t, ds.Table("visits").Column("placekey").IsForeignKey)
}

func TestDetect_NoMatchIsSilent(t *testing.T) {
	ds := buildDataset(map[string][]string{
		"users":  {"id", "email", "created_at"},
		"orders": {"id", "warehouse_id"}, // no warehouse table
	})

	NewDetector(nil).Detect(ds)

	assert.Empty(t, ds.AllRelationships())
	assert.False(t, ds.Table("orders").Column("warehouse_id").IsForeignKey)
}

func TestDetect_BareIDColumnIsNotForeignKey(t *testing.T) {
	ds := buildDataset(map[string][]string{
		"users": {"id"},
	})

	NewDetector(nil).Detect(ds)

	assert.Empty(t, ds.AllRelationships())
}

func TestDetect_Idempotent(t *testing.T) {
	ds := buildDataset(map[string][]string{
		"users":  {"id"},
		"orders": {"id", "user_id"},
	})

	det := NewDetector(nil)
	det.Detect(ds)
	det.Detect(ds)

	assert.Len(t, ds.AllRelationships(), 1, "re-running must not duplicate relationships")
}
