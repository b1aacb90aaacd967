package twinview

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// demoTwins serves the twin payloads used by the renderer tests.
var demoTwins = TwinLookupFunc(func(id string) (Twin, bool) {
	twins := map[string]Twin{
		"pump-001": {
			ID:      "pump-001",
			ModelID: "dtmi:com:industrial:Pump;1",
			Properties: map[string]any{
				"status":    "running",
				"ratedPower": 18.5,
				"pumpType":  "Centrifugal",
			},
			Telemetry: []TelemetryValue{
				{Name: "temperature", Value: 42.0},
				{Name: "current", Value: 12.25},
				{Name: "flowRate", Value: 31.5},
				{Name: "pressure", Value: 2.4},
			},
		},
		"pump-002": {
			ID:         "pump-002",
			ModelID:    "dtmi:com:industrial:Pump;1",
			Properties: map[string]any{"status": "stopped"},
		},
		"tank-001": {
			ID:      "tank-001",
			ModelID: "dtmi:com:industrial:Tank;1",
			Properties: map[string]any{
				"capacity": 5000.0,
				"material": "Stainless Steel",
			},
			Telemetry: []TelemetryValue{
				{Name: "level", Value: 63.1},
			},
		},
	}
	t, ok := twins[id]
	return t, ok
})

var demoModels = ModelLookupFunc(func(modelID string) (string, bool) {
	names := map[string]string{
		"dtmi:com:industrial:Pump;1": "Pump",
		"dtmi:com:industrial:Tank;1": "Tank",
	}
	name, ok := names[modelID]
	return name, ok
})

func mustForest(t *testing.T, edges []Edge, twins TwinLookup) *Forest {
	t.Helper()
	forest, err := BuildForest(edges, twins)
	if err != nil {
		t.Fatal("BuildForest:", err)
	}
	return forest
}

func TestRender(t *testing.T) {
	forest := mustForest(t, []Edge{
		{Source: "pump-001", Target: "tank-001"},
		{Source: "pump-001", Target: "valve-009"},
	}, demoTwins)

	r := Renderer{Models: demoModels, Name: "test"}
	roots, err := r.Render(context.Background(), forest)
	if err != nil {
		t.Fatal("Render:", err)
	}

	want := []*RenderedNode{{
		ID:         "pump-001",
		Label:      "Pump",
		Status:     "running",
		StatusIcon: "▶",
		Tooltip: []string{
			"pumpType: Centrifugal",
			"ratedPower: 18.5",
			"temperature: 42.0°C",
			"current: 12.2A",
			"flowRate: 31.5L/s",
		},
		Classes: []string{"node", "pump-node", "running"},
		Children: []*RenderedNode{
			{
				ID:      "tank-001",
				Label:   "Tank",
				Tooltip: []string{"capacity: 5000", "material: Stainless Steel", "level: 63.1%"},
				Classes: []string{"node", "tank-node"},
			},
			{
				// No payload and no model: rendered with placeholders,
				// never pruned.
				ID:      "valve-009",
				Label:   "Unknown",
				Classes: []string{"node"},
			},
		},
	}}
	if diff := cmp.Diff(want, roots); diff != "" {
		t.Error("Rendered tree differs:", diff)
	}
}

func TestRenderTooltipBudget(t *testing.T) {
	// Four telemetry readings, only the first three make the tooltip.
	forest := mustForest(t, []Edge{{Source: "pump-001", Target: "tank-001"}}, demoTwins)

	r := Renderer{Models: demoModels}
	roots, err := r.Render(context.Background(), forest)
	if err != nil {
		t.Fatal("Render:", err)
	}

	pump := roots[0]
	properties := 2 // ratedPower and pumpType; status is excluded
	if got, max := len(pump.Tooltip), properties+maxTelemetryLines; got > max {
		t.Errorf("len(Tooltip) = %d, want <= %d", got, max)
	}
	for _, line := range pump.Tooltip {
		if line == "status: running" {
			t.Error("tooltip leaked the status property")
		}
	}
}

func TestRenderStatusClasses(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		status string
		want   []string
	}{
		{name: "RunningPump", id: "pump-007", status: "running", want: []string{"node", "pump-node", "running"}},
		{name: "StoppedPump", id: "PUMP-008", status: "stopped", want: []string{"node", "pump-node", "stopped"}},
		{name: "FaultedPump", id: "pump-009", status: "fault", want: []string{"node", "pump-node"}},
		{name: "StatuslessPump", id: "pump-010", status: "", want: []string{"node", "pump-node"}},
		{name: "Tank", id: "tank-003", status: "running", want: []string{"node", "tank-node"}},
		{name: "Generic", id: "sensor-001", status: "running", want: []string{"node"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(DefaultClassRules, tt.id, tt.status)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Error("Classes differ:", diff)
			}
		})
	}
}

func TestRenderCustomRules(t *testing.T) {
	twins := TwinLookupFunc(func(id string) (Twin, bool) {
		return Twin{ID: id, Telemetry: []TelemetryValue{{Name: "spindleRPM", Value: 1480}}}, true
	})
	forest := mustForest(t, []Edge{{Source: "mill-001", Target: "mill-002"}}, twins)

	r := Renderer{
		Units:   []Rule{{Pattern: "rpm", Result: "rpm"}},
		Classes: []ClassRule{{Pattern: "mill", Class: "mill-node"}},
	}
	roots, err := r.Render(context.Background(), forest)
	if err != nil {
		t.Fatal("Render:", err)
	}

	if diff := cmp.Diff([]string{"spindleRPM: 1480.0rpm"}, roots[0].Tooltip); diff != "" {
		t.Error("Tooltip differs:", diff)
	}
	if diff := cmp.Diff([]string{"node", "mill-node"}, roots[0].Classes); diff != "" {
		t.Error("Classes differ:", diff)
	}
}

func TestRenderIdempotent(t *testing.T) {
	forest := mustForest(t, []Edge{
		{Source: "pump-001", Target: "tank-001"},
		{Source: "pump-002", Target: "tank-001"},
	}, demoTwins)

	r := Renderer{Models: demoModels}
	first, err := r.Render(context.Background(), forest)
	if err != nil {
		t.Fatal("Render:", err)
	}
	second, err := r.Render(context.Background(), forest)
	if err != nil {
		t.Fatal("Render:", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Error("Repeated render differs:", diff)
	}
}

func TestRenderMultiParent(t *testing.T) {
	forest := mustForest(t, []Edge{
		{Source: "pump-001", Target: "tank-001"},
		{Source: "pump-002", Target: "tank-001"},
	}, demoTwins)

	r := Renderer{Models: demoModels}
	roots, err := r.Render(context.Background(), forest)
	if err != nil {
		t.Fatal("Render:", err)
	}

	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	// The shared tank subtree is emitted once under each parent, and both
	// occurrences are structurally identical.
	if diff := cmp.Diff(roots[0].Children, roots[1].Children); diff != "" {
		t.Error("Shared subtree occurrences differ:", diff)
	}
}

func TestRenderCycle(t *testing.T) {
	forest := mustForest(t, []Edge{
		{Source: "root", Target: "a"},
		{Source: "a", Target: "b"},
		{Source: "b", Target: "a"},
	}, nil)

	var r Renderer
	_, err := r.Render(context.Background(), forest)
	var serr *StructuralError
	if !errors.As(err, &serr) {
		t.Fatalf("Render() error = %v, want *StructuralError", err)
	}
	if serr.ID != "a" {
		t.Errorf("StructuralError.ID = %q, want %q", serr.ID, "a")
	}
	if diff := cmp.Diff([]string{"root", "a", "b", "a"}, serr.Path); diff != "" {
		t.Error("StructuralError.Path differs:", diff)
	}
}
