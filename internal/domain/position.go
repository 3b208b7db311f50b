package domain

// NodePosition is where the layout put one node in a frame. A pinned
// position never leaves the node's fixed coordinates.
type NodePosition struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned"`
}

// Holds reports whether p is the pinned position of n, exactly on its
// fixed coordinates
func (p NodePosition) Holds(n Node) bool {
	if !p.Pinned || p.NodeID != n.UUID || !n.Pinned() {
		return false
	}
	return p.X == *n.FX && p.Y == *n.FY
}
