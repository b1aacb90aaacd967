package twinview

import "strings"

// A Rule maps a case-insensitive substring pattern to a result string. Rule
// sequences are evaluated in order and the first match wins, so more specific
// patterns must come first.
type Rule struct {
	Pattern string
	Result  string
}

// matchRules returns the result of the first rule whose pattern is a
// case-insensitive substring of name.
func matchRules(rules []Rule, name string) (string, bool) {
	name = strings.ToLower(name)
	for _, r := range rules {
		if strings.Contains(name, strings.ToLower(r.Pattern)) {
			return r.Result, true
		}
	}
	return "", false
}

// DefaultUnitRules map telemetry field names to display unit suffixes. A
// field name that matches none of the patterns is rendered without a unit.
var DefaultUnitRules = []Rule{
	{Pattern: "temp", Result: "°C"},
	{Pattern: "current", Result: "A"},
	{Pattern: "pressure", Result: "bar"},
	{Pattern: "flow", Result: "L/s"},
	{Pattern: "level", Result: "%"},
	{Pattern: "vibration", Result: "Hz"},
}

// A ClassRule assigns CSS class tags to nodes whose identifier contains the
// pattern (case-insensitive). Like Rule sequences, ClassRule sequences are
// evaluated in order and the first match wins.
type ClassRule struct {
	Pattern string
	// Class is the tag applied on match, in addition to the base "node" tag.
	Class string
	// StatusClasses optionally maps exact values of the twin's "status"
	// property to a further state tag. A status value absent from the map
	// (or an absent status property) adds no state tag.
	StatusClasses map[string]string
}

// DefaultClassRules classify the industrial demo equipment: pumps are
// actuators whose running/stopped state is surfaced as an extra tag, tanks
// are vessels, everything else stays a generic node.
var DefaultClassRules = []ClassRule{
	{
		Pattern: "pump",
		Class:   "pump-node",
		StatusClasses: map[string]string{
			"running": "running",
			"stopped": "stopped",
		},
	},
	{
		Pattern: "tank",
		Class:   "tank-node",
	},
}

// classify returns the CSS class tags for a node with the given identifier
// and status property, starting with the base "node" tag.
func classify(rules []ClassRule, id, status string) []string {
	classes := []string{"node"}
	lower := strings.ToLower(id)
	for _, r := range rules {
		if !strings.Contains(lower, strings.ToLower(r.Pattern)) {
			continue
		}
		classes = append(classes, r.Class)
		if state, ok := r.StatusClasses[status]; ok {
			classes = append(classes, state)
		}
		break
	}
	return classes
}
