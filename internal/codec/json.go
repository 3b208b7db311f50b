package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"railviz/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the HTTP media type
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse imports a graph payload from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var graph domain.Graph
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&graph); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	if graph.Nodes == nil {
		graph.Nodes = make([]domain.Node, 0)
	}
	if graph.Edges == nil {
		graph.Edges = make([]domain.Edge, 0)
	}
	graph.Normalize()

	return &graph, nil
}

// Export exports a graph payload to JSON
func (c *JSONCodec) Export(graph *domain.Graph, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(graph); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
