package generator

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
	"github.com/Stiksels/bigquery-schema-doc/internal/testutil"
)

func sampleDataset() *schema.Dataset {
	ds := schema.NewDataset("shop")

	users := schema.NewTable("users")
	users.Description = "Registered users"
	users.PrimaryKey = "id"
	users.AddColumn(&schema.Column{Name: "id", DataType: "INTEGER", Mode: schema.ModeRequired})
	users.AddColumn(&schema.Column{Name: "email", DataType: "STRING", Mode: schema.ModeNullable, Description: "Login | contact address"})

	orders := schema.NewTable("orders")
	orders.AddColumn(&schema.Column{Name: "id", DataType: "INTEGER", Mode: schema.ModeRequired})
	orders.AddColumn(&schema.Column{
		Name: "user_id", DataType: "INTEGER", Mode: schema.ModeNullable,
		IsForeignKey: true, ForeignKeyTable: "users", ForeignKeyColumn: "id",
	})
	orders.AddRelationship(&schema.Relationship{
		FromTable: "orders", FromColumn: "user_id",
		ToTable: "users", ToColumn: "id",
		Type: schema.RelTypeForeignKey, Confidence: 0.9,
	})

	ds.AddTable(users)
	ds.AddTable(orders)
	return ds
}

func TestWriteMarkdown(t *testing.T) {
	ds := sampleDataset()
	path := filepath.Join(t.TempDir(), "docs", "schema_documentation.md")

	require.NoError(t, WriteMarkdown(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "# shop Schema Documentation")
	assert.Contains(t, out, "This dataset contains **2** tables with **4** columns.")
	assert.Contains(t, out, "**1** relationships have been detected")
	assert.Contains(t, out, "## Relationships")
	assert.Contains(t, out, "| orders | user_id | users | id | foreign_key | 0.9 |")
	assert.Contains(t, out, "### users")
	assert.Contains(t, out, "**Primary Key:** id")
	assert.Contains(t, out, "user_id → users")
	assert.Contains(t, out, "- `user_id` references `users.id`")
	// Pipes in descriptions are escaped so the column table stays intact.
	assert.Contains(t, out, `Login \| contact address`)
}

func TestWriteMarkdown_DeduplicatesRelationshipTable(t *testing.T) {
	ds := sampleDataset()
	// Same edge again at dataset level.
	ds.AddRelationship(ds.Table("orders").Relationships[0])

	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "| orders | user_id | users | id |"))
}

func TestWriteMarkdown_HighConfidenceLabel(t *testing.T) {
	ds := sampleDataset()
	ds.Table("orders").Relationships[0].Confidence = 1.0

	path := filepath.Join(t.TempDir(), "out.md")
	require.NoError(t, WriteMarkdown(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "| foreign_key | High |")
}

func TestWritePlantUML(t *testing.T) {
	ds := sampleDataset()
	path := filepath.Join(t.TempDir(), "schema_diagram.puml")

	require.NoError(t, WritePlantUML(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "@startuml"))
	assert.True(t, strings.HasSuffix(out, "@enduml"))
	assert.Contains(t, out, "class users {")
	assert.Contains(t, out, "  ** Primary Key: id **")
	assert.Contains(t, out, "  +id: INTEGER [required]")
	assert.Contains(t, out, "  +user_id: INTEGER -> users")
	assert.Contains(t, out, "orders --> users : user_id")
}

func TestWriteMermaid(t *testing.T) {
	ds := sampleDataset()
	path := filepath.Join(t.TempDir(), "schema_diagram.mmd")

	require.NoError(t, WriteMermaid(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "erDiagram"))
	assert.Contains(t, out, "    users {")
	assert.Contains(t, out, "        INTEGER id")
	assert.Contains(t, out, `    orders ||--o{ users : "user_id -> id"`)
}

func TestWriteJSON(t *testing.T) {
	ds := sampleDataset()
	path := filepath.Join(t.TempDir(), "schema.json")

	require.NoError(t, WriteJSON(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc DatasetDoc
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "shop", doc.DatasetName)
	assert.Equal(t, 2, doc.Metadata.TableCount)
	assert.Equal(t, 4, doc.Metadata.TotalColumns)
	assert.Equal(t, 1, doc.Metadata.TotalRelationships)

	require.Len(t, doc.Tables, 2)
	// Tables sorted by name: orders first.
	orders := doc.Tables[0]
	assert.Equal(t, "orders", orders.Name)
	userID := orders.Columns[1]
	assert.Equal(t, "user_id", userID.Name)
	require.NotNil(t, userID.ForeignKey)
	assert.Equal(t, "users", userID.ForeignKey.Table)
	assert.Equal(t, "id", userID.ForeignKey.Column)

	users := doc.Tables[1]
	// Columns sorted by name: email then id; is_primary_key derives from
	// the table primary key.
	require.Len(t, users.Columns, 2)
	assert.Equal(t, "id", users.Columns[1].Name)
	assert.True(t, users.Columns[1].IsPrimaryKey)
	assert.False(t, users.Columns[0].IsPrimaryKey)

	require.Len(t, doc.Relationships, 1)
	assert.Equal(t, "foreign_key", doc.Relationships[0].Type)
}

func TestWriteYAML(t *testing.T) {
	ds := sampleDataset()
	path := filepath.Join(t.TempDir(), "schema.yaml")

	require.NoError(t, WriteYAML(ds, path, testutil.NewTestLogger(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc DatasetDoc
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "shop", doc.DatasetName)
	assert.Len(t, doc.Tables, 2)
}

func TestWriteCSV(t *testing.T) {
	ds := sampleDataset()
	path := filepath.Join(t.TempDir(), "schema_export.csv")

	require.NoError(t, WriteCSV(ds, path, testutil.NewTestLogger(t)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	// Header + 4 column rows + section title + rel header + 1 rel. The blank
	// separator line is skipped by the reader.
	require.Len(t, records, 8)
	assert.Equal(t, csvHeader, records[0])

	// orders sorts before users; its id row comes first.
	assert.Equal(t, "orders", records[1][0])
	assert.Equal(t, "id", records[1][2])

	userIDRow := records[2]
	assert.Equal(t, "user_id", userIDRow[2])
	assert.Equal(t, "Yes", userIDRow[7])
	assert.Equal(t, "users", userIDRow[8])

	assert.Equal(t, "Relationships", records[5][0])
	assert.Equal(t, []string{"orders", "user_id", "users", "id", "foreign_key", "0.9"}, records[7])
}

func TestBuildDoc_KeepsDuplicateRelationships(t *testing.T) {
	ds := sampleDataset()
	ds.AddRelationship(ds.Table("orders").Relationships[0])

	doc := BuildDoc(ds)
	// Structured export passes the raw union through, duplicates included.
	assert.Len(t, doc.Relationships, 2)
}
