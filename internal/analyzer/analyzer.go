// Package analyzer provides read-only relationship metrics over a dataset:
// per-table counts, degree centrality, core-entity selection, undirected
// connectivity, and aggregate statistics. Nothing in this package mutates
// the dataset.
//
// Relationships are registered on their source table only, so the invariant
// here is sum(outgoing) == sum(incoming) == len(AllRelationships()), not the
// symmetric 2x form.
package analyzer

import (
	"sort"

	"github.com/Stiksels/bigquery-schema-doc/internal/schema"
)

// Counts holds the relationship tally for one table.
type Counts struct {
	Total    int
	Incoming int
	Outgoing int
}

// RelationshipCounts computes per-table relationship counts. Every table in
// the dataset gets an entry, including tables with zero relationships.
func RelationshipCounts(ds *schema.Dataset) map[string]Counts {
	counts := make(map[string]Counts, len(ds.Tables))
	for name := range ds.Tables {
		counts[name] = Counts{}
	}

	for _, rel := range ds.AllRelationships() {
		from := counts[rel.FromTable]
		from.Outgoing++
		from.Total++
		counts[rel.FromTable] = from

		to := counts[rel.ToTable]
		to.Incoming++
		to.Total++
		counts[rel.ToTable] = to
	}

	return counts
}

// CentralityScores computes degree centrality per table: total relationship
// count normalized by the maximum total, in [0.0, 1.0]. A dataset with no
// relationships scores every table 0.
func CentralityScores(ds *schema.Dataset) map[string]float64 {
	counts := RelationshipCounts(ds)

	max := 0
	for _, c := range counts {
		if c.Total > max {
			max = c.Total
		}
	}

	scores := make(map[string]float64, len(counts))
	for name, c := range counts {
		if max > 0 {
			scores[name] = float64(c.Total) / float64(max)
		} else {
			scores[name] = 0
		}
	}
	return scores
}

// CoreEntities returns the set of tables with at least minRelationships
// total relationships. A threshold of 0 selects every table.
func CoreEntities(ds *schema.Dataset, minRelationships int) map[string]bool {
	core := make(map[string]bool)
	for name, c := range RelationshipCounts(ds) {
		if c.Total >= minRelationships {
			core[name] = true
		}
	}
	return core
}

// ConnectedSubgraph returns every table reachable from the seed set over an
// undirected view of the relationship graph, including the seeds themselves.
// Only the resulting set is a contract; traversal order is not.
func ConnectedSubgraph(ds *schema.Dataset, seeds map[string]bool) map[string]bool {
	adjacency := make(map[string]map[string]bool)
	link := func(a, b string) {
		if adjacency[a] == nil {
			adjacency[a] = make(map[string]bool)
		}
		adjacency[a][b] = true
	}
	for _, rel := range ds.AllRelationships() {
		link(rel.FromTable, rel.ToTable)
		link(rel.ToTable, rel.FromTable)
	}

	visited := make(map[string]bool, len(seeds))
	queue := make([]string, 0, len(seeds))
	for name := range seeds {
		visited[name] = true
		queue = append(queue, name)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for neighbor := range adjacency[current] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return visited
}

// TableRank is one table's position in the relationship ranking.
type TableRank struct {
	Name   string
	Counts Counts
}

// rankTables sorts all tables by total relationship count descending, with
// table name ascending as a deterministic tie-break.
func rankTables(counts map[string]Counts) []TableRank {
	ranked := make([]TableRank, 0, len(counts))
	for name, c := range counts {
		ranked = append(ranked, TableRank{Name: name, Counts: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Counts.Total != ranked[j].Counts.Total {
			return ranked[i].Counts.Total > ranked[j].Counts.Total
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked
}

// TopTablesByRelationships returns the n highest-ranked table names. Fewer
// than n tables returns all of them.
func TopTablesByRelationships(ds *schema.Dataset, n int) []string {
	ranked := rankTables(RelationshipCounts(ds))
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	names := make([]string, 0, n)
	for _, r := range ranked[:n] {
		names = append(names, r.Name)
	}
	return names
}

// topTableLimit caps the ranking included in Statistics.
const topTableLimit = 20

// Statistics is an aggregate summary of the relationship structure.
type Statistics struct {
	TotalTables                int
	TablesWithRelationships    int
	TablesWithoutRelationships int
	// Distribution maps a total-relationship count to the number of tables
	// at that count.
	Distribution         map[int]int
	TopTables            []TableRank
	AverageRelationships float64
}

// Summarize computes dataset-wide relationship statistics.
func Summarize(ds *schema.Dataset) Statistics {
	counts := RelationshipCounts(ds)

	stats := Statistics{
		TotalTables:  len(ds.Tables),
		Distribution: make(map[int]int),
	}

	sum := 0
	for _, c := range counts {
		stats.Distribution[c.Total]++
		sum += c.Total
		if c.Total > 0 {
			stats.TablesWithRelationships++
		} else {
			stats.TablesWithoutRelationships++
		}
	}

	ranked := rankTables(counts)
	if len(ranked) > topTableLimit {
		ranked = ranked[:topTableLimit]
	}
	stats.TopTables = ranked

	if len(counts) > 0 {
		stats.AverageRelationships = float64(sum) / float64(len(counts))
	}

	return stats
}
