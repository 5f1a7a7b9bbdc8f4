package startpoint

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the declared kind of a start-point.
type Type string

const (
	// TypeLanguages holds language and test-framework setups.
	TypeLanguages Type = "languages"
	// TypeExercises holds exercise instructions.
	TypeExercises Type = "exercises"
	// TypeCustom holds a combined language and exercise setup.
	TypeCustom Type = "custom"
)

// String implements fmt.Stringer.
func (t Type) String() string {
	return string(t)
}

// Manifest is the decoded start_point_type.json of a volume.
type Manifest struct {
	// Type is the declared start-point type; empty when the manifest has none.
	Type Type
	// Fields holds every other top-level manifest entry.
	Fields map[string]any
}

// ErrMalformedManifest is returned when the manifest is not a JSON object.
var ErrMalformedManifest = errors.New("malformed start-point manifest")

// typeKey is the manifest entry holding the start-point type.
const typeKey = "type"

// UnmarshalJSON decodes a manifest, keeping unknown entries in Fields.
// A missing or non-string type decodes as an empty Type.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}

	if raw == nil {
		return fmt.Errorf("%w: null", ErrMalformedManifest)
	}

	m.Type = ""
	if s, ok := raw[typeKey].(string); ok {
		m.Type = Type(s)
	}

	delete(raw, typeKey)
	m.Fields = raw

	return nil
}

// ParseManifest decodes manifest JSON.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &m, nil
}
