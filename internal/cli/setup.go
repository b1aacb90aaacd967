package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	twinview "github.com/go-digitaltwin/twinview"
	"github.com/go-digitaltwin/twinview/dtdl"
	"github.com/go-digitaltwin/twinview/flowmodel"
)

// Demo model identifiers, matching the embedded interface documents.
const (
	pumpModelID = "dtmi:com:industrial:Pump;1"
	tankModelID = "dtmi:com:industrial:Tank;1"
)

// loadRegistry returns the model registry: documents from the configured
// directory, or the embedded demo models when no directory is configured.
func loadRegistry() (*dtdl.Registry, error) {
	if cfg.Models.Dir == "" {
		logger.Debug("Using the embedded demo models")
		return dtdl.Demo(), nil
	}

	registry := dtdl.NewRegistry()
	n, err := registry.Load(os.DirFS(cfg.Models.Dir))
	if err != nil {
		// Load keeps going past broken documents; surface them without
		// discarding the ones that parsed.
		logger.Warn("Some model documents failed to parse", zap.Error(err))
	}
	if n == 0 {
		return nil, fmt.Errorf("no models loaded from %q", cfg.Models.Dir)
	}
	logger.Info("Loaded model documents", zap.String("dir", cfg.Models.Dir), zap.Int("models", n))
	return registry, nil
}

// A connectionsFile is the JSON document describing the flow edges:
//
//	{"connections": [{"source": "pump-001", "target": "tank-001"}]}
type connectionsFile struct {
	Connections []twinview.Edge `json:"connections"`
}

// loadConnections reads the flow edges from the given JSON file.
func loadConnections(path string) ([]twinview.Edge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connections file: %w", err)
	}
	var doc connectionsFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse connections file %q: %w", path, err)
	}
	return doc.Connections, nil
}

// populateFromEdges creates one twin per identifier appearing in the edges,
// choosing the model by identifier keyword. Identifiers that match no model
// are left without a twin and render as bare nodes.
func populateFromEdges(store *flowmodel.Store, edges []twinview.Edge) error {
	seen := make(map[string]bool)
	for _, edge := range edges {
		for _, id := range []string{edge.Source, edge.Target} {
			if seen[id] {
				continue
			}
			seen[id] = true

			var modelID string
			switch {
			case strings.Contains(strings.ToLower(id), "pump"):
				modelID = pumpModelID
			case strings.Contains(strings.ToLower(id), "tank"):
				modelID = tankModelID
			default:
				logger.Debug("No model matches the identifier; rendering as a bare node", zap.String("id", id))
				continue
			}
			if _, err := store.CreateTwin(id, modelID, nil); err != nil {
				return fmt.Errorf("create twin %q: %w", id, err)
			}
		}
	}
	return relateEdges(store, edges)
}

// populateDemo creates the demo population: four pumps, each feeding two of
// eight tanks. It returns the demo flow edges.
func populateDemo(store *flowmodel.Store) ([]twinview.Edge, error) {
	for i := 1; i <= 4; i++ {
		status := "running"
		if i%2 == 0 {
			status = "stopped"
		}
		id := fmt.Sprintf("pump-%03d", i)
		_, err := store.CreateTwin(id, pumpModelID, map[string]any{
			"ratedPower": 15.0 + float64(i)*5,
			"status":     status,
			"pumpType":   "Centrifugal",
		})
		if err != nil {
			return nil, fmt.Errorf("create twin %q: %w", id, err)
		}
	}
	for i := 1; i <= 8; i++ {
		id := fmt.Sprintf("tank-%03d", i)
		_, err := store.CreateTwin(id, tankModelID, map[string]any{
			"capacity": 5000.0 * float64(i),
			"material": "Stainless Steel",
		})
		if err != nil {
			return nil, fmt.Errorf("create twin %q: %w", id, err)
		}
	}

	var edges []twinview.Edge
	for i := 1; i <= 4; i++ {
		edges = append(edges,
			twinview.Edge{Source: fmt.Sprintf("pump-%03d", i), Target: fmt.Sprintf("tank-%03d", i*2-1)},
			twinview.Edge{Source: fmt.Sprintf("pump-%03d", i), Target: fmt.Sprintf("tank-%03d", i*2)},
		)
	}
	if err := relateEdges(store, edges); err != nil {
		return nil, err
	}
	return edges, nil
}

// writeConnections saves the edges as a connections file so the demo layout
// can be edited and fed back with --connections.
func writeConnections(path string, edges []twinview.Edge) error {
	data, err := json.MarshalIndent(connectionsFile{Connections: edges}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal connections: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write connections file: %w", err)
	}
	logger.Info("Wrote the flow connections", zap.String("file", path))
	return nil
}

// relateEdges records a feedsTo relationship per edge whose endpoints both
// have twins.
func relateEdges(store *flowmodel.Store, edges []twinview.Edge) error {
	for _, edge := range edges {
		_, err := store.Relate(edge.Source, "feedsTo", edge.Target)
		if err != nil {
			logger.Debug("Skipping relationship for an edge without twins",
				zap.String("source", edge.Source), zap.String("target", edge.Target), zap.Error(err))
		}
	}
	return nil
}
