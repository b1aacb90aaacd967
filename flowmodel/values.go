package flowmodel

import (
	"math/rand"
	"strings"

	"github.com/go-digitaltwin/twinview/dtdl"
)

// A valueRange bounds the mock readings generated for telemetry fields whose
// name contains the keyword.
type valueRange struct {
	keyword  string
	min, max float64
}

// mockRanges maps telemetry field names to plausible industrial operating
// ranges. First match wins, so "temp" must come before broader keywords that
// could also appear in a temperature field name.
var mockRanges = []valueRange{
	{"temp", 20, 80},
	{"current", 5, 20},
	{"voltage", 220, 240},
	{"pressure", 1, 5},
	{"flow", 10, 50},
	{"level", 0, 100},
	{"vibration", 0.1, 2.0},
}

// mockValue generates a random reading for the named telemetry field. Fields
// whose lowercased name contains a known keyword draw from that keyword's
// operating range; anything else falls back to 0..100.
func mockValue(rng *rand.Rand, name string) float64 {
	lower := strings.ToLower(name)
	for _, r := range mockRanges {
		if strings.Contains(lower, r.keyword) {
			return r.min + rng.Float64()*(r.max-r.min)
		}
	}
	return rng.Float64() * 100
}

// defaultValue returns the default for a property of the given schema. Enum
// properties default to their first declared value so generated twins always
// carry a valid enum state.
func defaultValue(schema dtdl.Schema) any {
	if schema.IsEnum() {
		return schema.Enum[0].Value
	}
	switch schema.Primitive {
	case "double", "float":
		return 0.0
	case "integer", "long":
		return 0
	case "boolean":
		return false
	case "string":
		return ""
	default:
		return nil
	}
}
