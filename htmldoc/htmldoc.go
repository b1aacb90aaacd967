// Package htmldoc assembles the CSS tree-diagram page for a rendered twin
// forest: nested list markup for the tree itself, plus template substitution
// of the twin and model metadata the page's script needs.
//
// The package writes markup; it never touches the filesystem. File placement
// belongs to the caller.
package htmldoc

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"

	twinview "github.com/go-digitaltwin/twinview"
)

// DefaultTemplate is the embedded page template used when a Document
// carries no template of its own.
//
//go:embed tree_template.html
var DefaultTemplate string

// Template placeholders substituted by Document.Render.
const (
	treePlaceholder   = "{{TREE_CONTENT}}"
	twinsPlaceholder  = "{{TWIN_DATA}}"
	modelsPlaceholder = "{{MODEL_NAMES}}"
)

// A Document is everything needed to assemble one tree-diagram page.
type Document struct {
	// Template is the page template. The placeholders {{TREE_CONTENT}},
	// {{TWIN_DATA}}, and {{MODEL_NAMES}} are substituted on render. When
	// empty, DefaultTemplate is used.
	Template string
	// Roots are the rendered trees, one per forest root.
	Roots []*twinview.RenderedNode
	// Twins are serialised into the page's twinData script object, keyed by
	// twin identifier.
	Twins []twinview.Twin
	// ModelNames maps model identifiers to display names for the page's
	// modelNames script object.
	ModelNames map[string]string
}

// Render substitutes the document's data into its template and writes the
// assembled page to w.
func (d Document) Render(w io.Writer) error {
	var tree strings.Builder
	for _, root := range d.Roots {
		writeNode(&tree, root, 0)
	}

	twins, err := json.MarshalIndent(twinDetails(d.Twins), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal twin data: %w", err)
	}
	models, err := json.Marshal(d.ModelNames)
	if err != nil {
		return fmt.Errorf("marshal model names: %w", err)
	}

	page := d.Template
	if page == "" {
		page = DefaultTemplate
	}
	page = strings.Replace(page, treePlaceholder, tree.String(), 1)
	page = strings.Replace(page, twinsPlaceholder, string(twins), 1)
	page = strings.Replace(page, modelsPlaceholder, string(models), 1)

	if _, err := io.WriteString(w, page); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	return nil
}

// Tree writes only the nested list markup for the given rendered trees,
// without the surrounding page.
func Tree(w io.Writer, roots []*twinview.RenderedNode) error {
	var b strings.Builder
	for _, root := range roots {
		writeNode(&b, root, 0)
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write tree markup: %w", err)
	}
	return nil
}

// writeNode emits one node as a list item with its anchor and, when the node
// has children, a nested list. The tooltip lines are joined with the CSS
// "\A" line separator so the data-tooltip attribute renders as multiple
// lines.
func writeNode(b *strings.Builder, node *twinview.RenderedNode, depth int) {
	indent := strings.Repeat("  ", depth)
	id := html.EscapeString(node.ID)

	tooltip := node.Label
	if len(node.Tooltip) > 0 {
		escaped := make([]string, len(node.Tooltip))
		for i, line := range node.Tooltip {
			escaped[i] = html.EscapeString(line)
		}
		tooltip = strings.Join(escaped, `\A`)
	} else {
		tooltip = html.EscapeString(tooltip)
	}

	fmt.Fprintf(b, "%s<li>\n", indent)
	fmt.Fprintf(b, "%s  <a href=\"#\" class=%q data-id=%q data-tooltip=\"%s\" onclick=\"showDetails('%s'); return false;\">\n",
		indent, strings.Join(node.Classes, " "), id, tooltip, id)
	fmt.Fprintf(b, "%s    <span class=\"node-title\">%s</span>\n", indent, id)
	fmt.Fprintf(b, "%s    <span class=\"node-type\">%s</span>\n", indent, html.EscapeString(node.Label))
	if node.Status != "" {
		fmt.Fprintf(b, "%s    <span class=\"status-indicator\">%s %s</span>\n",
			indent, node.StatusIcon, html.EscapeString(node.Status))
	}
	fmt.Fprintf(b, "%s  </a>\n", indent)

	if len(node.Children) > 0 {
		fmt.Fprintf(b, "%s  <ul>\n", indent)
		for _, child := range node.Children {
			writeNode(b, child, depth+2)
		}
		fmt.Fprintf(b, "%s  </ul>\n", indent)
	}
	fmt.Fprintf(b, "%s</li>\n", indent)
}

// A twinDetail is the per-twin record exposed to the page's script.
type twinDetail struct {
	ID            string                  `json:"id"`
	Model         string                  `json:"model"`
	Properties    map[string]any          `json:"properties"`
	Telemetry     map[string]float64      `json:"telemetry"`
	Relationships []twinview.Relationship `json:"relationships"`
}

func twinDetails(twins []twinview.Twin) map[string]twinDetail {
	details := make(map[string]twinDetail, len(twins))
	for _, twin := range twins {
		telemetry := make(map[string]float64, len(twin.Telemetry))
		for _, reading := range twin.Telemetry {
			telemetry[reading.Name] = reading.Value
		}
		properties := twin.Properties
		if properties == nil {
			properties = map[string]any{}
		}
		relationships := twin.Relationships
		if relationships == nil {
			relationships = []twinview.Relationship{}
		}
		details[twin.ID] = twinDetail{
			ID:            twin.ID,
			Model:         twin.ModelID,
			Properties:    properties,
			Telemetry:     telemetry,
			Relationships: relationships,
		}
	}
	return details
}
