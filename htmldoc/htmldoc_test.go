package htmldoc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twinview "github.com/go-digitaltwin/twinview"
)

func demoRoots() []*twinview.RenderedNode {
	return []*twinview.RenderedNode{{
		ID:         "pump-001",
		Label:      "Pump",
		Status:     "running",
		StatusIcon: "▶",
		Tooltip:    []string{"pumpType: centrifugal", "temperature: 42.0°C"},
		Classes:    []string{"node", "pump-node", "running"},
		Children: []*twinview.RenderedNode{{
			ID:      "tank-001",
			Label:   "Tank",
			Classes: []string{"node", "tank-node"},
		}},
	}}
}

func TestTree(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, demoRoots()))
	markup := buf.String()

	assert.Contains(t, markup, `class="node pump-node running"`)
	assert.Contains(t, markup, `data-id="pump-001"`)
	assert.Contains(t, markup, `data-tooltip="pumpType: centrifugal\Atemperature: 42.0°C"`)
	assert.Contains(t, markup, `onclick="showDetails('pump-001'); return false;"`)
	assert.Contains(t, markup, `<span class="node-title">pump-001</span>`)
	assert.Contains(t, markup, `<span class="node-type">Pump</span>`)
	assert.Contains(t, markup, `<span class="status-indicator">▶ running</span>`)

	// The child renders inside a nested list; the statusless tank carries no
	// indicator.
	assert.Contains(t, markup, "<ul>")
	assert.Contains(t, markup, `data-id="tank-001"`)
	assert.NotContains(t, strings.Split(markup, `data-id="tank-001"`)[1], "status-indicator")
}

func TestTreeTooltipFallsBackToLabel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, []*twinview.RenderedNode{{
		ID:      "valve-009",
		Label:   "Unknown",
		Classes: []string{"node"},
	}}))
	assert.Contains(t, buf.String(), `data-tooltip="Unknown"`)
}

func TestTreeEscapesMarkup(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, []*twinview.RenderedNode{{
		ID:      `pump-<b>"1"</b>`,
		Label:   "Pump & Co",
		Tooltip: []string{`note: <script>`},
		Classes: []string{"node"},
	}}))
	markup := buf.String()

	assert.NotContains(t, markup, "<b>")
	assert.NotContains(t, markup, "<script>")
	assert.Contains(t, markup, "Pump &amp; Co")
}

func TestDocumentRender(t *testing.T) {
	doc := Document{
		Roots: demoRoots(),
		Twins: []twinview.Twin{{
			ID:         "pump-001",
			ModelID:    "dtmi:com:industrial:Pump;1",
			Properties: map[string]any{"pumpType": "centrifugal"},
			Telemetry:  []twinview.TelemetryValue{{Name: "temperature", Value: 42}},
		}},
		ModelNames: map[string]string{"dtmi:com:industrial:Pump;1": "Pump"},
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	page := buf.String()

	assert.NotContains(t, page, "{{TREE_CONTENT}}")
	assert.NotContains(t, page, "{{TWIN_DATA}}")
	assert.NotContains(t, page, "{{MODEL_NAMES}}")
	assert.Contains(t, page, `data-id="pump-001"`)
	assert.Contains(t, page, `"model": "dtmi:com:industrial:Pump;1"`)
	assert.Contains(t, page, `"temperature": 42`)
	assert.Contains(t, page, `{"dtmi:com:industrial:Pump;1":"Pump"}`)
	assert.Contains(t, page, "function showDetails")
}

func TestDocumentRenderCustomTemplate(t *testing.T) {
	doc := Document{
		Template: "<main>{{TREE_CONTENT}}</main><script>var t = {{TWIN_DATA}}, m = {{MODEL_NAMES}};</script>",
		Roots:    demoRoots(),
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Render(&buf))
	page := buf.String()

	assert.True(t, strings.HasPrefix(page, "<main>"))
	assert.Contains(t, page, `data-id="tank-001"`)
	assert.Contains(t, page, "var t = {}")
	assert.Contains(t, page, "m = null")
}
