package codec

import (
	"fmt"
	"io"

	"railviz/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the HTTP media type
func (c *YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

// yamlGraph represents the YAML structure for graph payloads
type yamlGraph struct {
	Nodes      []yamlNode        `yaml:"nodes"`
	Edges      []yamlEdge        `yaml:"edges"`
	Properties domain.Properties `yaml:"properties"`
}

type yamlNode struct {
	UUID      string   `yaml:"uuid"`
	Type      string   `yaml:"type"`
	Name      string   `yaml:"name,omitempty"`
	X         *float64 `yaml:"x,omitempty"`
	Y         *float64 `yaml:"y,omitempty"`
	Angle     float64  `yaml:"angle,omitempty"`
	Direction string   `yaml:"direction,omitempty"`
}

type yamlEdge struct {
	UUID   string          `yaml:"uuid"`
	Source string          `yaml:"source"`
	Target string          `yaml:"target"`
	Type   domain.EdgeType `yaml:"type,omitempty"`
}

// Parse imports a graph payload from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.Graph, error) {
	var yg yamlGraph
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	graph := domain.NewGraph()
	graph.Properties = yg.Properties

	for _, yn := range yg.Nodes {
		graph.AddNode(domain.Node{
			UUID:      yn.UUID,
			Type:      domain.ParseNodeType(yn.Type),
			Name:      yn.Name,
			X:         yn.X,
			Y:         yn.Y,
			Angle:     yn.Angle,
			Direction: domain.Direction(yn.Direction),
		})
	}

	for _, ye := range yg.Edges {
		graph.AddEdge(domain.Edge{
			UUID:   ye.UUID,
			Source: ye.Source,
			Target: ye.Target,
			Type:   ye.Type,
		})
	}

	return graph, nil
}

// Export exports a graph payload to YAML
func (c *YAMLCodec) Export(graph *domain.Graph, w io.Writer) error {
	yg := yamlGraph{
		Nodes:      make([]yamlNode, 0, len(graph.Nodes)),
		Edges:      make([]yamlEdge, 0, len(graph.Edges)),
		Properties: graph.Properties,
	}

	for _, n := range graph.Nodes {
		yg.Nodes = append(yg.Nodes, yamlNode{
			UUID:      n.UUID,
			Type:      string(n.Type),
			Name:      n.Name,
			X:         n.X,
			Y:         n.Y,
			Angle:     n.Angle,
			Direction: string(n.Direction),
		})
	}

	for _, e := range graph.Edges {
		yg.Edges = append(yg.Edges, yamlEdge{
			UUID:   e.UUID,
			Source: e.Source,
			Target: e.Target,
			Type:   e.Type,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yg); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
