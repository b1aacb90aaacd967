package flowmodel

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/danielorbach/go-component"
	"gocloud.dev/pubsub"
	"golang.org/x/sync/errgroup"

	twinview "github.com/go-digitaltwin/twinview"
)

// A Snapshot is one telemetry observation for a single twin: every telemetry
// field its model declares, read at the same instant.
type Snapshot struct {
	// The time, in UTC, the snapshot was generated.
	Timestamp time.Time
	// TwinID identifies the observed twin.
	TwinID string
	// Data holds one reading per telemetry declaration, in the model's
	// declaration order.
	Data []twinview.TelemetryValue
}

// PublishSnapshots gob-encodes the given snapshots and publishes each one as
// a message on the sink topic. The snapshots are sent concurrently; the twin
// identifier is included as message metadata to enable key-based
// partitioning on brokers that support it, so readings of the same twin stay
// ordered.
//
// PublishSnapshots returns after every snapshot has been sent or the first
// send has failed.
func PublishSnapshots(ctx context.Context, sink *pubsub.Topic, snapshots []Snapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, snap := range snapshots {
		snap := snap
		g.Go(func() error {
			var b bytes.Buffer
			if err := gob.NewEncoder(&b).Encode(snap); err != nil {
				return fmt.Errorf("encode snapshot of %q: %w", snap.TwinID, err)
			}
			msg := &pubsub.Message{Body: b.Bytes(), Metadata: map[string]string{"twinID": snap.TwinID}}
			if err := sink.Send(ctx, msg); err != nil {
				return fmt.Errorf("send snapshot of %q: %w", snap.TwinID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("publish snapshots: %w", err)
	}
	return nil
}

// A TelemetryStore maintains the latest telemetry snapshot observed for each
// twin on the consuming side of a snapshot stream.
//
// TelemetryStore is safe for concurrent use. The zero value is ready to use.
type TelemetryStore struct {
	mu     sync.Mutex
	latest map[string]Snapshot
}

// Record stores the snapshot as the twin's latest observation. An older
// snapshot never replaces a newer one, so out-of-order delivery is
// harmless.
func (t *TelemetryStore) Record(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest == nil {
		t.latest = make(map[string]Snapshot)
	}
	if prev, ok := t.latest[snap.TwinID]; ok && prev.Timestamp.After(snap.Timestamp) {
		return
	}
	t.latest[snap.TwinID] = snap
}

// Latest returns the twin's most recently observed snapshot.
func (t *TelemetryStore) Latest(twinID string) (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap, ok := t.latest[twinID]
	return snap, ok
}

// Len returns the number of twins with at least one observed snapshot.
func (t *TelemetryStore) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.latest)
}

// Ingest receives n snapshot messages from the source subscription and
// records each one in the store. It returns early with the context's error
// when the context is cancelled before n messages arrive.
func (t *TelemetryStore) Ingest(ctx context.Context, source *pubsub.Subscription, n int) error {
	for i := 0; i < n; i++ {
		msg, err := source.Receive(ctx)
		if err != nil {
			return fmt.Errorf("receive snapshot %d of %d: %w", i+1, n, err)
		}
		var snap Snapshot
		if err := gob.NewDecoder(bytes.NewReader(msg.Body)).Decode(&snap); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		t.Record(snap)
		msg.Ack()
	}
	return nil
}

// TrackTelemetry returns a component.Proc that consumes snapshot messages
// from the source subscription and maintains an up-to-date view of the
// latest telemetry per twin in the given store. Use the store's Latest
// method to read the tracked snapshots.
func TrackTelemetry(store *TelemetryStore, source *pubsub.Subscription) component.Proc {
	return func(l *component.L) {
		for l.Continue() {
			msg, err := source.Receive(l.GraceContext())
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				l.Errorf("receive: %v", err)
				continue
			}
			var snap Snapshot
			if err := gob.NewDecoder(bytes.NewReader(msg.Body)).Decode(&snap); err != nil {
				l.Fatalf("Failed to decode telemetry snapshot; stopping telemetry tracking: %v", err)
			}
			store.Record(snap)
			msg.Ack()
		}
	}
}
