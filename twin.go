package twinview

// A Twin is the payload attached to a node of the forest: a snapshot of a
// single digital-twin instance at the time the diagram is generated.
//
// The zero value describes a twin about which nothing is known; nodes whose
// identifier has no backing twin carry such an empty payload and render with
// placeholder metadata instead of failing.
type Twin struct {
	// ID is the twin instance identifier (e.g. "pump-001").
	ID string `json:"$dtId"`
	// ModelID is the DTDL interface the twin instantiates
	// (e.g. "dtmi:com:industrial:Pump;1"). Empty if unknown.
	ModelID string `json:"$modelId,omitempty"`
	// ETag is the opaque entity tag assigned when the twin was created.
	ETag string `json:"$etag,omitempty"`
	// Properties holds the twin's current property values by name.
	Properties map[string]any `json:"properties,omitempty"`
	// Telemetry is the most recent telemetry snapshot, in the order the
	// model declares its telemetry fields. Nil if no snapshot exists.
	Telemetry []TelemetryValue `json:"telemetry,omitempty"`
	// Relationships lists the twin's outgoing relationships.
	Relationships []Relationship `json:"relationships,omitempty"`
}

// Status returns the twin's "status" property, or the empty string if the
// property is absent or not a string.
func (t Twin) Status() string {
	s, _ := t.Properties["status"].(string)
	return s
}

// A TelemetryValue is a single named reading within a telemetry snapshot.
type TelemetryValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// A Relationship is a directed, named link between two twin instances.
type Relationship struct {
	ID     string `json:"$relationshipId"`
	Source string `json:"$sourceId"`
	Target string `json:"$targetId"`
	Name   string `json:"$relationshipName"`
}

// A TwinLookup resolves a twin identifier to its payload. Implementations
// return ok == false when the identifier is unknown; callers treat that as an
// empty payload, not as an error.
type TwinLookup interface {
	Twin(id string) (Twin, bool)
}

// TwinLookupFunc adapts an ordinary function to the TwinLookup interface.
type TwinLookupFunc func(id string) (Twin, bool)

func (f TwinLookupFunc) Twin(id string) (Twin, bool) { return f(id) }

// A ModelLookup resolves a DTDL model identifier to its display name.
// Implementations return ok == false when the model is unknown; the renderer
// substitutes a placeholder label in that case.
type ModelLookup interface {
	DisplayName(modelID string) (string, bool)
}

// ModelLookupFunc adapts an ordinary function to the ModelLookup interface.
type ModelLookupFunc func(modelID string) (string, bool)

func (f ModelLookupFunc) DisplayName(modelID string) (string, bool) { return f(modelID) }
