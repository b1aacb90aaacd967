// Package twinview builds navigable tree diagrams out of mock digital-twin
// graphs. A digital-twin graph links twin instances (virtual representations
// of real-world equipment, described by DTDL-style interface models) with
// directed containment/flow relationships, such that the graph forms a rooted
// forest.
//
// The package converts a flat list of source->target connections into that
// forest (detecting roots as the identifiers that never appear as a target)
// and renders it, depth-first, into a nested display structure carrying
// per-node labels, status, tooltip lines and CSS class tags. The display
// structure is serialisable and is embedded into an HTML document by the
// htmldoc package.
//
// Model metadata and twin payloads are supplied through the ModelLookup and
// TwinLookup interfaces; the dtdl and flowmodel packages provide the
// implementations used by the demo tooling.
package twinview
