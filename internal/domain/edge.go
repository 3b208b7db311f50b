package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EdgeType is the integer track classification of an edge.
// Zero means unclassified.
type EdgeType int

// EdgeTypeUnclassified is used when the payload omits the type
const EdgeTypeUnclassified EdgeType = 0

// UnmarshalJSON accepts a number, a numeric string or null
func (t *EdgeType) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*t = EdgeTypeUnclassified
		return nil
	}
	s = strings.Trim(s, `"`)
	return t.parse(s)
}

// UnmarshalYAML accepts a number, a numeric string or null
func (t *EdgeType) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" || node.Value == "" {
		*t = EdgeTypeUnclassified
		return nil
	}
	return t.parse(node.Value)
}

func (t *EdgeType) parse(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("invalid edge type %q: %w", s, err)
		}
		n = int(f)
	}
	*t = EdgeType(n)
	return nil
}

// MarshalJSON writes the classification as a plain number
func (t EdgeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(t))
}

// Edge represents a track segment between two nodes
type Edge struct {
	UUID   string   `json:"uuid" yaml:"uuid" validate:"required"`
	Source string   `json:"source" yaml:"source" validate:"required"`
	Target string   `json:"target" yaml:"target" validate:"required"`
	Type   EdgeType `json:"type,omitempty" yaml:"type,omitempty"`
}

// NewEdge creates an edge between two node uuids
func NewEdge(uuid, source, target string, edgeType EdgeType) *Edge {
	return &Edge{
		UUID:   uuid,
		Source: source,
		Target: target,
		Type:   edgeType,
	}
}

// Tag returns the compact visual tag shown as the edge label:
// the last five characters of the uuid
func (e *Edge) Tag() string {
	if len(e.UUID) <= 5 {
		return e.UUID
	}
	return e.UUID[len(e.UUID)-5:]
}
