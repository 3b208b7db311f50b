package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedGraph marks a payload whose edges reference missing nodes
	ErrMalformedGraph = errors.New("malformed graph")

	// ErrInvalidGraph marks a payload that fails structural validation
	ErrInvalidGraph = errors.New("invalid graph")
)

// validate is a singleton validator instance
var validate = validator.New()

// Properties holds graph-level values supplied by the conversion service
type Properties struct {
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Graph is the payload produced by the conversion service
type Graph struct {
	Nodes      []Node     `json:"nodes" yaml:"nodes" validate:"dive"`
	Edges      []Edge     `json:"edges" yaml:"edges" validate:"dive"`
	Properties Properties `json:"properties" yaml:"properties"`
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// AddNode adds a node to the graph
func (g *Graph) AddNode(node Node) {
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge to the graph
func (g *Graph) AddEdge(edge Edge) {
	g.Edges = append(g.Edges, edge)
}

// MalformedGraphError describes an unresolvable edge reference
type MalformedGraphError struct {
	EdgeUUID string
	End      string // "source" or "target"
	NodeUUID string
}

func (e *MalformedGraphError) Error() string {
	return fmt.Sprintf("malformed graph: edge %s %s references missing node %q", e.EdgeUUID, e.End, e.NodeUUID)
}

// Unwrap lets errors.Is match ErrMalformedGraph
func (e *MalformedGraphError) Unwrap() error {
	return ErrMalformedGraph
}

// Validate checks structure and resolves every edge end to a node.
// It returns the first problem found.
func (g *Graph) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGraph, formatValidationError(err))
	}

	index := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := index[n.UUID]; dup {
			return fmt.Errorf("%w: duplicate node uuid %q", ErrInvalidGraph, n.UUID)
		}
		index[n.UUID] = struct{}{}
	}

	for _, e := range g.Edges {
		if _, ok := index[e.Source]; !ok {
			return &MalformedGraphError{EdgeUUID: e.UUID, End: "source", NodeUUID: e.Source}
		}
		if _, ok := index[e.Target]; !ok {
			return &MalformedGraphError{EdgeUUID: e.UUID, End: "target", NodeUUID: e.Target}
		}
	}
	return nil
}

// Normalize rewrites node types to their canonical form
func (g *Graph) Normalize() {
	for i := range g.Nodes {
		g.Nodes[i].Type = ParseNodeType(string(g.Nodes[i].Type))
	}
}

// Clone returns a deep copy. Callers rendering the same payload twice must
// clone it, since normalization mutates nodes in place.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes:      make([]Node, len(g.Nodes)),
		Edges:      make([]Edge, len(g.Edges)),
		Properties: g.Properties,
	}
	for i, n := range g.Nodes {
		c.Nodes[i] = n.Clone()
	}
	copy(c.Edges, g.Edges)
	return c
}

// CountByType returns the number of nodes of each type
func (g *Graph) CountByType() map[NodeType]int {
	counts := make(map[NodeType]int)
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	for _, e := range validationErrs {
		field := e.Namespace()
		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "gte":
			return fmt.Errorf("%s: must be at least %s", field, e.Param())
		case "lte":
			return fmt.Errorf("%s: must not exceed %s", field, e.Param())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}
	return err
}
