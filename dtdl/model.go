// Package dtdl parses DTDL-style interface documents (the JSON model
// definitions used by Azure Digital Twins) into the display metadata the
// twinview renderer and the flowmodel mock generator need.
//
// The parser is deliberately shallow: it extracts identifiers, display
// names, inheritance links, and the partitioned contents (properties,
// telemetries, relationships, commands) without validating the documents
// against the full DTDL metamodel.
package dtdl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// A Model is a parsed DTDL interface.
type Model struct {
	// ID is the DTMI of the interface, e.g. "dtmi:com:industrial:Pump;1".
	ID string
	// Type is the document's @type, normally "Interface".
	Type string
	// DisplayName is the human-readable name; when the document carries a
	// localisation map, the "en" entry is preferred. Falls back to the
	// short identifier when the document declares no display name.
	DisplayName string
	// Description is the interface description, localised like DisplayName.
	Description string
	// Extends lists the DTMIs of the extended interfaces. A document may
	// declare extends as a single string or a list; both parse to a list.
	Extends []string

	// Contents of the interface, partitioned by their @type.
	Properties    []Content
	Telemetries   []Content
	Relationships []Content
	Commands      []Content
}

// ShortID returns the last DTMI path segment without its version,
// e.g. "Pump" for "dtmi:com:industrial:Pump;1".
func (m *Model) ShortID() string {
	return shortID(m.ID)
}

func shortID(id string) string {
	last := id[strings.LastIndex(id, ":")+1:]
	name, _, _ := strings.Cut(last, ";")
	return name
}

// A Content is a single entry of an interface's contents array: a property,
// telemetry, relationship, or command declaration.
type Content struct {
	Type        string      `json:"@type"`
	Name        string      `json:"name"`
	DisplayName localString `json:"displayName"`
	Schema      Schema      `json:"schema"`
	Unit        string      `json:"unit"`
	Target      string      `json:"target"`
	Writable    bool        `json:"writable"`
}

// A Schema is the schema of a property or telemetry field: either a bare
// primitive name (e.g. "double") or an inline Enum definition.
type Schema struct {
	// Primitive is the primitive schema name; empty for complex schemas.
	Primitive string
	// Enum holds the declared values of an inline Enum schema.
	Enum []EnumValue
}

// IsEnum reports whether the schema is an inline Enum definition.
func (s Schema) IsEnum() bool { return len(s.Enum) > 0 }

// An EnumValue is one declared value of an Enum schema.
type EnumValue struct {
	Name  string `json:"name"`
	Value any    `json:"enumValue"`
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	var primitive string
	if err := json.Unmarshal(data, &primitive); err == nil {
		*s = Schema{Primitive: primitive}
		return nil
	}
	var obj struct {
		Type        string      `json:"@type"`
		ValueSchema string      `json:"valueSchema"`
		EnumValues  []EnumValue `json:"enumValues"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("schema is neither a primitive nor an object: %w", err)
	}
	if obj.Type != "Enum" {
		// Other complex schemas (Object, Map, Array) carry no information
		// the renderer or the mock generator uses; remember only the kind.
		*s = Schema{Primitive: obj.Type}
		return nil
	}
	*s = Schema{Enum: obj.EnumValues}
	return nil
}

// localString decodes a DTDL display string that is either a plain string or
// a localisation map. The "en" entry is preferred; otherwise the entry with
// the lexicographically smallest tag is chosen so parsing stays
// deterministic.
type localString string

func (l *localString) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*l = localString(plain)
		return nil
	}
	var localised map[string]string
	if err := json.Unmarshal(data, &localised); err != nil {
		return fmt.Errorf("display string is neither a string nor a localisation map: %w", err)
	}
	if s, ok := localised["en"]; ok {
		*l = localString(s)
		return nil
	}
	tags := make([]string, 0, len(localised))
	for tag := range localised {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	if len(tags) > 0 {
		*l = localString(localised[tags[0]])
	}
	return nil
}

// stringList decodes a JSON value that is either a single string or a list
// of strings, as DTDL allows for the extends clause.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("extends is neither a string nor a list: %w", err)
	}
	*l = stringList(many)
	return nil
}

// ParseModel parses a single DTDL interface document.
func ParseModel(data []byte) (*Model, error) {
	var raw struct {
		ID          string      `json:"@id"`
		Type        string      `json:"@type"`
		DisplayName localString `json:"displayName"`
		Description localString `json:"description"`
		Extends     stringList  `json:"extends"`
		Contents    []Content   `json:"contents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal interface document: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("interface document has no @id")
	}

	m := &Model{
		ID:          raw.ID,
		Type:        raw.Type,
		DisplayName: string(raw.DisplayName),
		Description: string(raw.Description),
		Extends:     raw.Extends,
	}
	if m.Type == "" {
		m.Type = "Interface"
	}
	if m.DisplayName == "" {
		m.DisplayName = shortID(raw.ID)
	}

	for _, c := range raw.Contents {
		switch c.Type {
		case "Property":
			m.Properties = append(m.Properties, c)
		case "Telemetry":
			m.Telemetries = append(m.Telemetries, c)
		case "Relationship":
			m.Relationships = append(m.Relationships, c)
		case "Command":
			m.Commands = append(m.Commands, c)
		}
	}
	return m, nil
}
