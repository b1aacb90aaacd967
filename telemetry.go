package twinview

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-digitaltwin/twinview")
var meter = otel.Meter("github.com/go-digitaltwin/twinview")

// ---- render.go ----

const (
	// diagramName is the attribute key used to associate each record with the
	// diagram being rendered. This enables both collective examination of
	// metrics across all diagrams and individual analysis per diagram.
	diagramName = "diagram"
)

var (
	// renderDuration measures the duration of a single render pass over a
	// forest, from the first root to the last leaf.
	//
	// Each record is associated with the diagramName.
	renderDuration metric.Float64Histogram
	// renderFailures measures the number of render passes aborted by a
	// structural error (a cycle in the connections document).
	//
	// Each record is associated with the diagramName.
	renderFailures metric.Int64Counter
)

func init() {
	var err error
	renderDuration, err = meter.Float64Histogram(
		"forest.render.duration",
		metric.WithDescription("The duration of a single render pass over a twin forest."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("twinview: failed to init 'forest.render.duration' instrument")
	}

	renderFailures, err = meter.Int64Counter(
		"forest.render.failures",
		metric.WithDescription("The number of render passes that have been aborted by a structural error."),
	)
	if err != nil {
		panic("twinview: failed to init 'forest.render.failures' instrument")
	}
}

// measureRender measures a render pass using the renderDuration and
// renderFailures instruments. If the pass succeeded, we record its duration.
// If it failed, we increment the failure counter.
//
// According to [metric] documentation, [metric.WithAttributeSet] should be
// used instead of [metric.WithAttributes] for performance optimization.
func measureRender(ctx context.Context, diagram string, succeeded bool, d time.Duration) {
	attrs := attribute.NewSet(attribute.String(diagramName, diagram))
	if succeeded {
		// We use floating-point division here for higher precision (instead of
		// the Millisecond method).
		duration := float64(d) / float64(time.Millisecond)
		renderDuration.Record(ctx, duration, metric.WithAttributeSet(attrs))
	} else {
		renderFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}
