package neo4jexport

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-digitaltwin/twinview/neo4jexport")
var meter = otel.Meter("github.com/go-digitaltwin/twinview/neo4jexport")

var (
	// exportDuration measures the duration of whole-forest exports, labelled
	// by the target database and whether the export succeeded.
	exportDuration metric.Float64Histogram
)

func init() {
	// Instrument initialisation failures should not occur; when they do, they
	// are likely caused by the attributes applied to the instrument, so we
	// surface them immediately.
	var err error
	exportDuration, err = meter.Float64Histogram(
		"forest.export.duration",
		metric.WithDescription("duration of exporting a whole twin forest to neo4j"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic(fmt.Sprintf("neo4jexport: failed to init 'forest.export.duration' instrument: %v", err))
	}
}

func measureExport(ctx context.Context, database string, succeeded bool, d time.Duration) {
	exportDuration.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(
		attribute.String("neo4j.database", database),
		attribute.Bool("succeeded", succeeded),
	))
}
