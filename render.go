package twinview

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// A RenderedNode is the display record derived for a single node during a
// render pass: everything the presentation layer needs, detached from the
// forest itself. Rendered nodes are recomputed on every pass and never
// persisted.
type RenderedNode struct {
	// ID is the twin identifier, used as the node title.
	ID string `json:"id"`
	// Label is the display name of the twin's model, or "Unknown" when the
	// model cannot be resolved.
	Label string `json:"label"`
	// Status is the twin's "status" property, if any.
	Status string `json:"status,omitempty"`
	// StatusIcon is the indicator glyph for Status: ▶ for running, ⏸ for
	// stopped, ⚠ for any other non-empty status.
	StatusIcon string `json:"statusIcon,omitempty"`
	// Tooltip holds one line per non-status property followed by up to
	// three telemetry readings with their unit suffixes.
	Tooltip []string `json:"tooltip,omitempty"`
	// Classes are the CSS class tags assigned by the renderer's class
	// rules, always starting with the base "node" tag.
	Classes []string `json:"classes"`
	// Children mirror the forest's child order exactly.
	Children []*RenderedNode `json:"children,omitempty"`
}

// maxTelemetryLines caps the number of telemetry readings shown in a
// tooltip.
const maxTelemetryLines = 3

// A Renderer derives display records from a Forest.
//
// The zero value renders with placeholder labels only; set Models to resolve
// display names. The Units and Classes rule tables default to
// DefaultUnitRules and DefaultClassRules when nil, and are injectable so
// deployments can extend the keyword mappings without touching the renderer.
type Renderer struct {
	// Models resolves model identifiers to display names. A nil lookup
	// (or an unresolved model) yields the "Unknown" label.
	Models ModelLookup
	// Units maps telemetry field-name keywords to unit suffixes.
	Units []Rule
	// Classes maps identifier keywords to CSS class tags.
	Classes []ClassRule
	// Name labels observability records emitted by render passes
	// (e.g. "plant-demo"). Optional.
	Name string
}

// unknownLabel substitutes for the display name of an unresolvable model.
const unknownLabel = "Unknown"

// Render walks the forest in depth-first pre-order and returns one rendered
// tree per root, mirroring the forest's shape exactly: no node is skipped or
// pruned for missing data. Nodes shared between several parents are rendered
// once under each of them.
//
// Rendering mutates neither the forest nor the lookups, so rendering the
// same forest twice with unchanged lookups yields identical output.
//
// A cycle in the underlying edge set is detected by tracking the current
// recursion path and reported as a *StructuralError instead of recursing
// without bound.
func (r *Renderer) Render(ctx context.Context, forest *Forest) (roots []*RenderedNode, err error) {
	ctx, span := tracer.Start(ctx, "Render", trace.WithAttributes(
		attribute.String("diagram", r.Name),
		attribute.Int("forest.nodes", forest.Len()),
	))
	defer span.End()
	defer func(start time.Time) {
		measureRender(ctx, r.Name, err == nil, time.Since(start))
	}(time.Now())

	roots = make([]*RenderedNode, 0, len(forest.Roots()))
	path := make(map[*Node]struct{})
	for _, root := range forest.Roots() {
		rendered, err := r.renderNode(root, path, nil)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		roots = append(roots, rendered)
	}
	return roots, nil
}

// renderNode derives the display record for one node and recurses into its
// children. The path set and trail track the ancestors of the current node;
// finding the node among its own ancestors means the edge set cycles.
func (r *Renderer) renderNode(node *Node, path map[*Node]struct{}, trail []string) (*RenderedNode, error) {
	if _, revisited := path[node]; revisited {
		return nil, &StructuralError{ID: node.ID, Path: append(append([]string(nil), trail...), node.ID)}
	}

	status := node.Twin.Status()
	rendered := &RenderedNode{
		ID:         node.ID,
		Label:      r.displayName(node.Twin.ModelID),
		Status:     status,
		StatusIcon: statusIcon(status),
		Tooltip:    r.tooltip(node.Twin),
		Classes:    classify(r.classRules(), node.ID, status),
	}

	path[node] = struct{}{}
	trail = append(trail, node.ID)
	for _, child := range node.Children {
		c, err := r.renderNode(child, path, trail)
		if err != nil {
			return nil, err
		}
		rendered.Children = append(rendered.Children, c)
	}
	delete(path, node)

	return rendered, nil
}

// tooltip builds the tooltip lines for a twin: one line per property except
// "status" (which is surfaced separately as the status indicator), followed
// by at most maxTelemetryLines telemetry readings suffixed with their units.
//
// Property lines are emitted in lexicographic key order so that repeated
// render passes produce identical output.
func (r *Renderer) tooltip(twin Twin) []string {
	var lines []string

	keys := make([]string, 0, len(twin.Properties))
	for k := range twin.Properties {
		if k != "status" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, twin.Properties[k]))
	}

	for i, reading := range twin.Telemetry {
		if i == maxTelemetryLines {
			break
		}
		unit, _ := matchRules(r.unitRules(), reading.Name)
		lines = append(lines, fmt.Sprintf("%s: %.1f%s", reading.Name, reading.Value, unit))
	}

	return lines
}

func (r *Renderer) displayName(modelID string) string {
	if r.Models == nil {
		return unknownLabel
	}
	name, ok := r.Models.DisplayName(modelID)
	if !ok {
		return unknownLabel
	}
	return name
}

func (r *Renderer) unitRules() []Rule {
	if r.Units == nil {
		return DefaultUnitRules
	}
	return r.Units
}

func (r *Renderer) classRules() []ClassRule {
	if r.Classes == nil {
		return DefaultClassRules
	}
	return r.Classes
}

// statusIcon returns the indicator glyph for a status property value.
func statusIcon(status string) string {
	switch status {
	case "":
		return ""
	case "running":
		return "▶"
	case "stopped":
		return "⏸"
	default:
		return "⚠"
	}
}
