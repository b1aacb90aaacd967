// Package flowmodel generates mock digital-twin populations from DTDL
// interface models: twins with schema-derived default properties, flow
// relationships between them, and randomised telemetry snapshots shaped by
// each model's telemetry declarations.
//
// A Store holds the generated population and implements the renderer's
// TwinLookup interface, so a generated flow model can be handed straight to
// the forest builder and renderer. Snapshots can additionally be streamed
// over a pubsub topic; see PublishSnapshots and TrackTelemetry.
package flowmodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	twinview "github.com/go-digitaltwin/twinview"
	"github.com/go-digitaltwin/twinview/dtdl"
)

// ErrUnknownModel is returned by CreateTwin when the requested model is not
// registered in the store's registry.
var ErrUnknownModel = errors.New("unknown model")

// ErrUnknownTwin is returned by operations that reference a twin identifier
// the store has never seen.
var ErrUnknownTwin = errors.New("unknown twin")

// A Store is a mock twin population derived from a model registry.
//
// Store is safe for concurrent use.
type Store struct {
	registry *dtdl.Registry

	mu            sync.Mutex
	rng           *rand.Rand
	twins         map[string]*twinview.Twin
	order         []string
	relationships []twinview.Relationship
	latest        map[string]Snapshot
}

// An Option configures a Store.
type Option func(*Store)

// WithRand sets the random source used for telemetry generation. Pass a
// seeded source to make generated values reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Store) { s.rng = rng }
}

// NewStore returns an empty Store that draws model metadata from the given
// registry.
func NewStore(registry *dtdl.Registry, opts ...Option) *Store {
	s := &Store{
		registry: registry,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		twins:    make(map[string]*twinview.Twin),
		latest:   make(map[string]Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTwin creates a twin of the given model. When id is empty, an
// identifier is derived from the model's short name and a fresh UUID. The
// twin's properties start from the model's schema defaults (walking the
// extends chain, base interfaces first) and are then overridden by the
// provided values.
func (s *Store) CreateTwin(id, modelID string, overrides map[string]any) (twinview.Twin, error) {
	model, ok := s.registry.Model(modelID)
	if !ok {
		return twinview.Twin{}, fmt.Errorf("create twin %q: %w %q", id, ErrUnknownModel, modelID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = strings.ToLower(model.ShortID()) + "-" + uuid.NewString()[:8]
	}

	properties := make(map[string]any)
	for _, m := range s.lineage(model, nil) {
		for _, p := range m.Properties {
			properties[p.Name] = defaultValue(p.Schema)
		}
	}
	for name, value := range overrides {
		properties[name] = value
	}

	twin := &twinview.Twin{
		ID:         id,
		ModelID:    modelID,
		ETag:       `W/"` + uuid.NewString() + `"`,
		Properties: properties,
	}
	if _, exists := s.twins[id]; !exists {
		s.order = append(s.order, id)
	}
	s.twins[id] = twin
	return *twin, nil
}

// lineage returns the model's inheritance chain with base interfaces first,
// so an extending interface's declarations override those it extends.
// Unresolvable or cyclic extends links are skipped.
func (s *Store) lineage(m *dtdl.Model, seen map[string]bool) []*dtdl.Model {
	if seen == nil {
		seen = make(map[string]bool)
	}
	if seen[m.ID] {
		return nil
	}
	seen[m.ID] = true

	var chain []*dtdl.Model
	for _, parentID := range m.Extends {
		if parent, ok := s.registry.Model(parentID); ok {
			chain = append(chain, s.lineage(parent, seen)...)
		}
	}
	return append(chain, m)
}

// Relate records a relationship between two existing twins. The relationship
// identifier is derived as "source-name-target".
func (s *Store) Relate(sourceID, name, targetID string) (twinview.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.twins[sourceID]; !ok {
		return twinview.Relationship{}, fmt.Errorf("relate: %w %q", ErrUnknownTwin, sourceID)
	}
	if _, ok := s.twins[targetID]; !ok {
		return twinview.Relationship{}, fmt.Errorf("relate: %w %q", ErrUnknownTwin, targetID)
	}

	rel := twinview.Relationship{
		ID:     sourceID + "-" + name + "-" + targetID,
		Source: sourceID,
		Target: targetID,
		Name:   name,
	}
	s.relationships = append(s.relationships, rel)
	return rel, nil
}

// GenerateTelemetry produces a fresh telemetry snapshot for the given twin,
// one reading per telemetry declaration of its model lineage in declaration
// order, and records it as the twin's latest snapshot. Values are randomised
// within ranges chosen by the telemetry field's name (see mockValue).
func (s *Store) GenerateTelemetry(id string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	twin, ok := s.twins[id]
	if !ok {
		return Snapshot{}, fmt.Errorf("generate telemetry: %w %q", ErrUnknownTwin, id)
	}
	model, ok := s.registry.Model(twin.ModelID)
	if !ok {
		return Snapshot{}, fmt.Errorf("generate telemetry for %q: %w %q", id, ErrUnknownModel, twin.ModelID)
	}

	snap := Snapshot{
		Timestamp: time.Now().UTC(),
		TwinID:    id,
	}
	for _, m := range s.lineage(model, nil) {
		for _, t := range m.Telemetries {
			snap.Data = append(snap.Data, twinview.TelemetryValue{
				Name:  t.Name,
				Value: mockValue(s.rng, t.Name),
			})
		}
	}
	s.latest[id] = snap
	return snap, nil
}

// Record stores the given snapshot as the twin's latest telemetry, replacing
// any previous snapshot. Snapshots for unknown twins are ignored.
func (s *Store) Record(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.twins[snap.TwinID]; !ok {
		return
	}
	s.latest[snap.TwinID] = snap
}

// Twin returns the twin with the given identifier, populated with its latest
// telemetry snapshot and its outgoing relationships. It implements the
// renderer's TwinLookup interface.
func (s *Store) Twin(id string) (twinview.Twin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.twins[id]
	if !ok {
		return twinview.Twin{}, false
	}

	twin := *stored
	if snap, ok := s.latest[id]; ok {
		twin.Telemetry = append([]twinview.TelemetryValue(nil), snap.Data...)
	}
	for _, rel := range s.relationships {
		if rel.Source == id {
			twin.Relationships = append(twin.Relationships, rel)
		}
	}
	return twin, true
}

// TwinIDs returns the identifiers of all twins in creation order.
func (s *Store) TwinIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Connections returns one edge per recorded relationship, in recording
// order, suitable for the forest builder.
func (s *Store) Connections() []twinview.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	edges := make([]twinview.Edge, len(s.relationships))
	for i, rel := range s.relationships {
		edges[i] = twinview.Edge{Source: rel.Source, Target: rel.Target}
	}
	return edges
}

// exportDocument is the serialised form of a Store.
type exportDocument struct {
	Metadata      exportMetadata          `json:"metadata"`
	Twins         []twinview.Twin         `json:"twins"`
	Relationships []twinview.Relationship `json:"relationships"`
	Telemetry     map[string]Snapshot     `json:"telemetry,omitempty"`
}

type exportMetadata struct {
	GeneratedAt       time.Time `json:"generatedAt"`
	TwinCount         int       `json:"twinCount"`
	RelationshipCount int       `json:"relationshipCount"`
}

// Export writes the store's twins, relationships, and latest telemetry
// snapshots to w as an indented JSON document. Twins appear in creation
// order.
func (s *Store) Export(w io.Writer) error {
	s.mu.Lock()
	doc := exportDocument{
		Metadata: exportMetadata{
			GeneratedAt:       time.Now().UTC(),
			TwinCount:         len(s.order),
			RelationshipCount: len(s.relationships),
		},
		Twins:         make([]twinview.Twin, len(s.order)),
		Relationships: append([]twinview.Relationship(nil), s.relationships...),
	}
	for i, id := range s.order {
		doc.Twins[i] = *s.twins[id]
	}
	if len(s.latest) > 0 {
		doc.Telemetry = make(map[string]Snapshot, len(s.latest))
		for id, snap := range s.latest {
			doc.Telemetry[id] = snap
		}
	}
	s.mu.Unlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode flow model: %w", err)
	}
	return nil
}
