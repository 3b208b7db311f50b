package domain

import "strings"

// NodeType represents the type of interlocking node
type NodeType string

const (
	NodeTypePoint    NodeType = "Point"
	NodeTypeEndpoint NodeType = "Endpoint"
	NodeTypeSignal   NodeType = "Signal"
)

// nodeTypePrefix is emitted by the conversion service ("NodeType.Point")
const nodeTypePrefix = "NodeType."

// ParseNodeType converts a payload type string to a NodeType.
// Both "Point" and "NodeType.Point" are accepted. Unknown values are returned
// unchanged so the renderer can degrade instead of failing.
func ParseNodeType(s string) NodeType {
	return NodeType(strings.TrimPrefix(strings.TrimSpace(s), nodeTypePrefix))
}

// Known reports whether the renderer has a dedicated shape for this type
func (t NodeType) Known() bool {
	switch t {
	case NodeTypePoint, NodeTypeEndpoint, NodeTypeSignal:
		return true
	default:
		return false
	}
}

// Direction is the facing of a signal relative to travel
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Node represents an element of the interlocking topology
type Node struct {
	UUID string   `json:"uuid" yaml:"uuid" validate:"required"`
	Type NodeType `json:"type" yaml:"type"`
	Name string   `json:"name" yaml:"name"`

	// Normalized position in [0,1]. Nil coordinates leave the node free for
	// the layout engine.
	X *float64 `json:"x,omitempty" yaml:"x,omitempty" validate:"omitempty,gte=0,lte=1"`
	Y *float64 `json:"y,omitempty" yaml:"y,omitempty" validate:"omitempty,gte=0,lte=1"`

	// Signal-only fields
	Angle     float64   `json:"angle,omitempty" yaml:"angle,omitempty"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty"`

	// Derived pixel position, set once by the normalizer
	FX *float64 `json:"-" yaml:"-"`
	FY *float64 `json:"-" yaml:"-"`

	// Reserved for interaction; always false
	Active bool `json:"-" yaml:"-"`
}

// NewNode creates a node at a normalized position
func NewNode(uuid string, nodeType NodeType, name string, x, y float64) *Node {
	return &Node{
		UUID: uuid,
		Type: nodeType,
		Name: name,
		X:    &x,
		Y:    &y,
	}
}

// NewSignal creates a signal node at a normalized position
func NewSignal(uuid, name string, x, y, angle float64, direction Direction) *Node {
	n := NewNode(uuid, NodeTypeSignal, name, x, y)
	n.Angle = angle
	n.Direction = direction
	return n
}

// HasPosition reports whether the payload fixed this node's position
func (n *Node) HasPosition() bool {
	return n.X != nil && n.Y != nil
}

// Pinned reports whether the node has a fixed pixel position
func (n *Node) Pinned() bool {
	return n.FX != nil && n.FY != nil
}

// Pin fixes the node's pixel position
func (n *Node) Pin(fx, fy float64) {
	n.FX = &fx
	n.FY = &fy
}

// Clone returns a deep copy of the node, including derived fields
func (n Node) Clone() Node {
	c := n
	c.X = cloneFloat(n.X)
	c.Y = cloneFloat(n.Y)
	c.FX = cloneFloat(n.FX)
	c.FY = cloneFloat(n.FY)
	return c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
