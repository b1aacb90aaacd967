package neo4jexport

import (
	"context"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	twinview "github.com/go-digitaltwin/twinview"
	"github.com/go-digitaltwin/twinview/internal/dbtest"
)

func TestExport(t *testing.T) {
	driver := dbtest.SetupNeo4j(t)
	ctx := context.Background()

	forest := demoForest(t)
	exporter := &Exporter{Driver: driver, Database: "neo4j"}
	if err := exporter.EnsureConstraints(ctx); err != nil {
		t.Fatal("EnsureConstraints:", err)
	}
	if err := exporter.Export(ctx, forest); err != nil {
		t.Fatal("Export:", err)
	}

	// Re-exporting must update in place rather than duplicate.
	if err := exporter.Export(ctx, forest); err != nil {
		t.Fatal("Export (second pass):", err)
	}

	session := driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer func() {
		if err := session.Close(ctx); err != nil {
			t.Error("Failed to close session:", err)
		}
	}()

	assertCount(t, ctx, session, "MATCH (t:Twin) RETURN count(t) as n", 3)
	assertCount(t, ctx, session, "MATCH (:Twin)-[e:FEEDS]->(:Twin) RETURN count(e) as n", 2)
	assertCount(t, ctx, session, `
		MATCH (s:Twin {id: 'pump-001', status: 'running'})-[:FEEDS]->(d:Twin {id: 'tank-001'})
		RETURN count(s) as n
	`, 1)
}

func demoForest(t *testing.T) *twinview.Forest {
	t.Helper()

	twins := twinview.TwinLookupFunc(func(id string) (twinview.Twin, bool) {
		if id != "pump-001" {
			return twinview.Twin{}, false
		}
		return twinview.Twin{
			ID:         id,
			ModelID:    "dtmi:com:industrial:Pump;1",
			Properties: map[string]any{"status": "running"},
		}, true
	})

	forest, err := twinview.BuildForest([]twinview.Edge{
		{Source: "pump-001", Target: "tank-001"},
		{Source: "pump-001", Target: "tank-002"},
	}, twins)
	if err != nil {
		t.Fatal("BuildForest:", err)
	}
	return forest
}

func assertCount(t *testing.T, ctx context.Context, session neo4j.SessionWithContext, query string, want int64) {
	t.Helper()

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		t.Fatalf("Failed to run %q: %v", query, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		t.Fatalf("Failed to read the single result of %q: %v", query, err)
	}
	n, _, err := neo4j.GetRecordValue[int64](record, "n")
	if err != nil {
		t.Fatalf("Failed to get count: %v", err)
	}
	if n != want {
		t.Errorf("%q = %d, want %d", query, n, want)
	}
}
