package layout

import "railviz/internal/domain"

// Outcome describes how a simulation run ended
type Outcome string

const (
	OutcomeRunning   Outcome = "running"
	OutcomeConverged Outcome = "converged" // alpha fell below AlphaMin
	OutcomeCapped    Outcome = "capped"    // MaxIterations reached
	OutcomeCancelled Outcome = "cancelled"
)

// Snapshot is an immutable view of the layout frame after one tick.
// Positions are index-aligned with the nodes the simulation was built from.
type Snapshot struct {
	Tick      int                   `json:"tick"`
	Alpha     float64               `json:"alpha"`
	Positions []domain.NodePosition `json:"positions"`
	Done      bool                  `json:"done"`

	index map[string]int
}

// Position looks up a node position by uuid
func (s Snapshot) Position(id string) (domain.NodePosition, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.NodePosition{}, false
	}
	return s.Positions[i], true
}

// TickFunc receives a snapshot after every integration step
type TickFunc func(Snapshot)
