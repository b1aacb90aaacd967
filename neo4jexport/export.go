// Package neo4jexport mirrors a built twin forest into a Neo4j graph
// database, one node per twin and one FEEDS relationship per forest edge.
//
// The export is an optional sink for generated diagrams: the rendered HTML
// page stays the primary output, while the Neo4j copy allows ad-hoc Cypher
// queries over the same flow structure.
package neo4jexport

import (
	"context"
	"fmt"
	"time"

	"github.com/danielorbach/go-component"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	twinview "github.com/go-digitaltwin/twinview"
)

// An Exporter writes twin forests to a Neo4j database.
type Exporter struct {
	// Driver is the connection to the neo4j server/cluster.
	Driver neo4j.DriverWithContext
	// Database is the target database name. Empty selects the driver's
	// default database.
	Database string
}

// EnsureConstraints creates the uniqueness constraint on twin identifiers
// that repeated exports rely on: without it, concurrent MERGEs can create
// duplicate Twin nodes.
//
// This function is idempotent.
func (e *Exporter) EnsureConstraints(ctx context.Context) error {
	s := e.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.Database})
	defer func() { _ = s.Close(ctx) }()

	_, err := s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			CREATE CONSTRAINT IF NOT EXISTS
			FOR (t:Twin)
			REQUIRE t.id IS UNIQUE
		`, nil)
		if err != nil {
			return nil, fmt.Errorf("uniqueness constraint: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("create constraints: %w", err)
	}
	return nil
}

// Export writes every node and edge of the forest to the database within a
// single write transaction, so a failed export leaves the graph untouched.
// Existing Twin nodes with the same identifier are updated in place.
func (e *Exporter) Export(ctx context.Context, forest *twinview.Forest) (err error) {
	ctx, span := tracer.Start(ctx, "Export", trace.WithAttributes(
		attribute.String("neo4j.database", e.Database),
		attribute.Int("forest.nodes", forest.Len()),
	))
	defer span.End()
	logger := component.Logger(ctx).With("neo4j.database", e.Database)

	defer func(start time.Time) {
		measureExport(ctx, e.Database, err == nil, time.Since(start))
	}(time.Now())

	s := e.Driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.Database})
	defer func() {
		if err := s.Close(ctx); err != nil {
			logger.Error("Failed to close the export session", "error", err)
		}
	}()

	_, err = s.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, node := range forest.Nodes() {
			if err := exportNode(ctx, tx, node); err != nil {
				return nil, fmt.Errorf("export twin %q: %w", node.ID, err)
			}
		}
		var edgeErr error
		forest.VisitEdges(func(parent, child *twinview.Node) bool {
			if err := exportEdge(ctx, tx, parent.ID, child.ID); err != nil {
				edgeErr = fmt.Errorf("export edge %q -> %q: %w", parent.ID, child.ID, err)
				return false
			}
			return true
		})
		return nil, edgeErr
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("write forest: %w", err)
	}

	logger.Info("Forest exported to neo4j", "nodes", forest.Len())
	return nil
}

func exportNode(ctx context.Context, tx neo4j.ManagedTransaction, node *twinview.Node) error {
	query := `
		MERGE (t:Twin {id: $id})
		ON CREATE SET t._created_at = datetime()
		SET t.model = $model, t.status = $status, t._last_modified = datetime()
		RETURN count(t) as nodes
	`
	result, err := tx.Run(ctx, query, map[string]any{
		"id":     node.ID,
		"model":  node.Twin.ModelID,
		"status": node.Twin.Status(),
	})
	if err != nil {
		return fmt.Errorf("run cypher: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("query single result: %w", err)
	}

	// A twin is represented by exactly one node in the graph; the uniqueness
	// constraint on Twin.id should make any other outcome impossible.
	nodes, _, err := neo4j.GetRecordValue[int64](record, "nodes")
	if err != nil {
		return fmt.Errorf("get nodes: %w", err)
	}
	if nodes != 1 {
		return fmt.Errorf("merge touched %d nodes instead of 1", nodes)
	}
	return nil
}

func exportEdge(ctx context.Context, tx neo4j.ManagedTransaction, source, target string) error {
	query := `
		MATCH (s:Twin {id: $source})
		MATCH (d:Twin {id: $target})
		MERGE (s)-[e:FEEDS]->(d)
		ON CREATE SET e._created_at = datetime()
		SET e._last_modified = datetime()
		RETURN count(e) as edges
	`
	result, err := tx.Run(ctx, query, map[string]any{
		"source": source,
		"target": target,
	})
	if err != nil {
		return fmt.Errorf("run cypher: %w", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("query single result: %w", err)
	}

	edges, _, err := neo4j.GetRecordValue[int64](record, "edges")
	if err != nil {
		return fmt.Errorf("get edges: %w", err)
	}
	if edges != 1 {
		return fmt.Errorf("merge touched %d edges instead of 1", edges)
	}
	return nil
}
