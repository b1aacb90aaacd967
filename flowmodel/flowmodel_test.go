package flowmodel

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	twinview "github.com/go-digitaltwin/twinview"
	"github.com/go-digitaltwin/twinview/dtdl"
)

var _ twinview.TwinLookup = (*Store)(nil)

func demoStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dtdl.Demo(), WithRand(rand.New(rand.NewSource(1))))
}

func TestCreateTwinDefaults(t *testing.T) {
	store := demoStore(t)

	twin, err := store.CreateTwin("pump-001", "dtmi:com:industrial:Pump;1", map[string]any{
		"pumpType": "centrifugal",
	})
	if err != nil {
		t.Fatal("CreateTwin:", err)
	}

	if twin.ModelID != "dtmi:com:industrial:Pump;1" {
		t.Errorf("ModelID = %q", twin.ModelID)
	}
	if !strings.HasPrefix(twin.ETag, `W/"`) {
		t.Errorf("ETag = %q, want a weak entity tag", twin.ETag)
	}

	want := map[string]any{
		// Inherited from Motor. The status enum defaults to its first
		// declared value.
		"ratedPower": 0.0,
		"status":     "running",
		// Declared by Pump; pumpType is overridden by the caller.
		"pumpType": "centrifugal",
	}
	if diff := cmp.Diff(want, twin.Properties); diff != "" {
		t.Error("Properties differ:", diff)
	}
}

func TestCreateTwinUnknownModel(t *testing.T) {
	store := demoStore(t)
	_, err := store.CreateTwin("x-001", "dtmi:com:industrial:Valve;1", nil)
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("CreateTwin error = %v, want ErrUnknownModel", err)
	}
}

func TestCreateTwinGeneratedID(t *testing.T) {
	store := demoStore(t)
	twin, err := store.CreateTwin("", "dtmi:com:industrial:Tank;1", nil)
	if err != nil {
		t.Fatal("CreateTwin:", err)
	}
	if !strings.HasPrefix(twin.ID, "tank-") {
		t.Errorf("generated ID = %q, want a tank- prefix", twin.ID)
	}
}

func TestRelate(t *testing.T) {
	store := demoStore(t)
	mustCreate(t, store, "pump-001", "dtmi:com:industrial:Pump;1")
	mustCreate(t, store, "tank-001", "dtmi:com:industrial:Tank;1")

	rel, err := store.Relate("pump-001", "feedsTo", "tank-001")
	if err != nil {
		t.Fatal("Relate:", err)
	}
	if rel.ID != "pump-001-feedsTo-tank-001" {
		t.Errorf("relationship ID = %q", rel.ID)
	}

	if _, err := store.Relate("pump-001", "feedsTo", "tank-009"); !errors.Is(err, ErrUnknownTwin) {
		t.Errorf("Relate to a missing twin: error = %v, want ErrUnknownTwin", err)
	}

	want := []twinview.Edge{{Source: "pump-001", Target: "tank-001"}}
	if diff := cmp.Diff(want, store.Connections()); diff != "" {
		t.Error("Connections differ:", diff)
	}
}

func TestGenerateTelemetry(t *testing.T) {
	store := demoStore(t)
	mustCreate(t, store, "pump-001", "dtmi:com:industrial:Pump;1")

	snap, err := store.GenerateTelemetry("pump-001")
	if err != nil {
		t.Fatal("GenerateTelemetry:", err)
	}
	if snap.TwinID != "pump-001" {
		t.Errorf("snapshot twin = %q", snap.TwinID)
	}

	// The motor's declarations come before the pump's own.
	wantOrder := []string{"current", "vibration", "temperature", "flowRate", "pressure"}
	var names []string
	for _, v := range snap.Data {
		names = append(names, v.Name)
	}
	if diff := cmp.Diff(wantOrder, names); diff != "" {
		t.Fatal("telemetry order differs:", diff)
	}

	ranges := map[string][2]float64{
		"current":     {5, 20},
		"vibration":   {0.1, 2.0},
		"temperature": {20, 80},
		"flowRate":    {10, 50},
		"pressure":    {1, 5},
	}
	for _, v := range snap.Data {
		r := ranges[v.Name]
		if v.Value < r[0] || v.Value > r[1] {
			t.Errorf("%s = %v, want a value in [%v, %v]", v.Name, v.Value, r[0], r[1])
		}
	}

	twin, ok := store.Twin("pump-001")
	if !ok {
		t.Fatal("Twin() did not find pump-001")
	}
	if diff := cmp.Diff(snap.Data, twin.Telemetry); diff != "" {
		t.Error("Twin telemetry differs from the latest snapshot:", diff)
	}

	if _, err := store.GenerateTelemetry("pump-404"); !errors.Is(err, ErrUnknownTwin) {
		t.Errorf("GenerateTelemetry for a missing twin: error = %v, want ErrUnknownTwin", err)
	}
}

func TestTwinCarriesOutgoingRelationships(t *testing.T) {
	store := demoStore(t)
	mustCreate(t, store, "pump-001", "dtmi:com:industrial:Pump;1")
	mustCreate(t, store, "tank-001", "dtmi:com:industrial:Tank;1")
	if _, err := store.Relate("pump-001", "feedsTo", "tank-001"); err != nil {
		t.Fatal("Relate:", err)
	}

	pump, _ := store.Twin("pump-001")
	if len(pump.Relationships) != 1 || pump.Relationships[0].Target != "tank-001" {
		t.Errorf("pump relationships = %+v", pump.Relationships)
	}
	tank, _ := store.Twin("tank-001")
	if len(tank.Relationships) != 0 {
		t.Errorf("tank carries %d relationships, want none (incoming edges are not attached)", len(tank.Relationships))
	}
}

func TestMockValueRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tests := []struct {
		name     string
		min, max float64
	}{
		{"temperature", 20, 80},
		{"oilTemp", 20, 80},
		{"current", 5, 20},
		{"voltage", 220, 240},
		{"pressure", 1, 5},
		{"flowRate", 10, 50},
		{"level", 0, 100},
		{"vibration", 0.1, 2.0},
		{"somethingElse", 0, 100},
	}
	for _, tt := range tests {
		for i := 0; i < 100; i++ {
			v := mockValue(rng, tt.name)
			if v < tt.min || v > tt.max {
				t.Fatalf("mockValue(%q) = %v, want a value in [%v, %v]", tt.name, v, tt.min, tt.max)
			}
		}
	}
}

func TestExport(t *testing.T) {
	store := demoStore(t)
	mustCreate(t, store, "pump-001", "dtmi:com:industrial:Pump;1")
	mustCreate(t, store, "tank-001", "dtmi:com:industrial:Tank;1")
	if _, err := store.Relate("pump-001", "feedsTo", "tank-001"); err != nil {
		t.Fatal("Relate:", err)
	}
	if _, err := store.GenerateTelemetry("pump-001"); err != nil {
		t.Fatal("GenerateTelemetry:", err)
	}

	var buf bytes.Buffer
	if err := store.Export(&buf); err != nil {
		t.Fatal("Export:", err)
	}

	var doc struct {
		Metadata struct {
			TwinCount         int `json:"twinCount"`
			RelationshipCount int `json:"relationshipCount"`
		} `json:"metadata"`
		Twins []struct {
			ID string `json:"$dtId"`
		} `json:"twins"`
		Telemetry map[string]json.RawMessage `json:"telemetry"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal("unmarshal export:", err)
	}
	if doc.Metadata.TwinCount != 2 || doc.Metadata.RelationshipCount != 1 {
		t.Errorf("metadata = %+v", doc.Metadata)
	}
	if len(doc.Twins) != 2 || doc.Twins[0].ID != "pump-001" {
		t.Errorf("exported twins = %+v, want pump-001 first", doc.Twins)
	}
	if _, ok := doc.Telemetry["pump-001"]; !ok {
		t.Error("export is missing the pump-001 telemetry snapshot")
	}
}

func mustCreate(t *testing.T, store *Store, id, modelID string) {
	t.Helper()
	if _, err := store.CreateTwin(id, modelID, nil); err != nil {
		t.Fatalf("CreateTwin(%s): %v", id, err)
	}
}
