// Package normalize maps normalized payload coordinates into pixel space and
// pins the nodes whose position the payload fixes.
package normalize

import (
	"math"

	"railviz/internal/domain"
)

// DefaultOffset is the margin kept free on every side of the canvas
const DefaultOffset = 50.0

// Normalizer projects [0,1] coordinates onto a canvas with a margin.
// Each axis is scaled by its own span.
type Normalizer struct {
	Width  float64
	Height float64
	Offset float64

	// AspectCorrection re-projects signal angles through the axis spans so
	// bearings stay visually correct on non-square canvases. It is applied
	// to every signal or to none.
	AspectCorrection bool
}

// New creates a normalizer with the default offset
func New(width, height float64) *Normalizer {
	return &Normalizer{
		Width:  width,
		Height: height,
		Offset: DefaultOffset,
	}
}

// SpanX is the drawable horizontal extent
func (n *Normalizer) SpanX() float64 {
	return n.Width - 2*n.Offset
}

// SpanY is the drawable vertical extent
func (n *Normalizer) SpanY() float64 {
	return n.Height - 2*n.Offset
}

// Project converts a normalized coordinate pair to pixels
func (n *Normalizer) Project(x, y float64) (float64, float64) {
	return x*n.SpanX() + n.Offset, y*n.SpanY() + n.Offset
}

// Apply pins every positioned node in place and resets Active.
// Nodes without payload coordinates stay free. The slice is mutated; callers
// must not reuse it for a second independent render.
func (n *Normalizer) Apply(nodes []domain.Node) {
	for i := range nodes {
		node := &nodes[i]
		node.Active = false
		if n.AspectCorrection && node.Type == domain.NodeTypeSignal {
			node.Angle = n.CorrectAngle(node.Angle)
		}
		if !node.HasPosition() {
			node.FX, node.FY = nil, nil
			continue
		}
		node.Pin(n.Project(*node.X, *node.Y))
	}
}

// CorrectAngle maps a bearing in normalized space to the bearing of the same
// direction after per-axis scaling, in degrees.
func (n *Normalizer) CorrectAngle(angle float64) float64 {
	rad := angle * math.Pi / 180
	corrected := math.Atan2(math.Sin(rad)*n.SpanY(), math.Cos(rad)*n.SpanX())
	return corrected * 180 / math.Pi
}
