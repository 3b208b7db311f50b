package geometry

import (
	"fmt"
	"strconv"
)

// tilt applied to edge labels on sloped edges, in degrees
const edgeLabelTilt = 45

// pivot shift for the tilt, relative to the midpoint
const edgeLabelPivot = 5

// EdgeLabel is the placement of an edge label for one frame
type EdgeLabel struct {
	X, Y float64

	// Rotation is zero for level edges
	Rotation float64
	PivotX   float64
	PivotY   float64

	// DY drops labels of level edges below the line
	DY float64
}

// Rotated reports whether the label carries a tilt
func (l EdgeLabel) Rotated() bool {
	return l.Rotation != 0
}

// Transform renders the rotate() attribute, or "" for level edges
func (l EdgeLabel) Transform() string {
	if !l.Rotated() {
		return ""
	}
	return fmt.Sprintf("rotate(%s, %s, %s)",
		FormatFloat(l.Rotation), FormatFloat(l.PivotX), FormatFloat(l.PivotY))
}

// EdgeLabelPlacement centers a label on the edge midpoint and tilts it by
// ±45 degrees depending on whether the source sits below or above the
// target in screen coordinates.
func (t Table) EdgeLabelPlacement(sx, sy, tx, ty float64) EdgeLabel {
	l := EdgeLabel{X: (sx + tx) / 2, Y: (sy + ty) / 2}

	switch {
	case sy > ty:
		l.Rotation = -edgeLabelTilt
		l.PivotX = l.X - edgeLabelPivot
		l.PivotY = l.Y + edgeLabelPivot
	case sy < ty:
		l.Rotation = edgeLabelTilt
		l.PivotX = l.X + edgeLabelPivot
		l.PivotY = l.Y + edgeLabelPivot
	default:
		l.DY = t.LabelDistance
	}
	return l
}

// Incidence is one edge touching a node, reduced to what the point label
// rule needs
type Incidence struct {
	IsSource bool
	SourceY  float64
	TargetY  float64
}

// PointLabelY decides the vertical offset of a point label from the edges
// incident to the point. Level edges are ignored. If the point is the upper
// end of any sloped edge the label sits above, otherwise below.
func (t Table) PointLabelY(incident []Incidence) float64 {
	for _, inc := range incident {
		if inc.SourceY == inc.TargetY {
			continue
		}
		above := inc.SourceY < inc.TargetY
		if inc.IsSource == above {
			return -t.LabelDistance
		}
	}
	return t.LabelDistance + 10
}

// EdgeLabelPlacement applies DefaultTable
func EdgeLabelPlacement(sx, sy, tx, ty float64) EdgeLabel {
	return DefaultTable.EdgeLabelPlacement(sx, sy, tx, ty)
}

// PointLabelY applies DefaultTable
func PointLabelY(incident []Incidence) float64 {
	return DefaultTable.PointLabelY(incident)
}

// FormatFloat prints a coordinate compactly for SVG attributes
func FormatFloat(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
