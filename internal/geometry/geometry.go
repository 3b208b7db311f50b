// Package geometry holds the pure placement rules for signal icons and
// labels. Every function is deterministic and total over angle and
// direction.
package geometry

import (
	"fmt"
	"math"

	"railviz/internal/domain"
)

// Table is the constant set for signal placement. The icon engine and the
// label engine both read from it so they cannot drift apart.
type Table struct {
	// Perpendicular shift of an icon on horizontal/vertical bearings
	VerticalSignalOffset float64
	// Per-axis shift of an icon on diagonal bearings
	DiagonalSignalOffset float64
	// Base label distance from the node center
	LabelDistance float64
	// Horizontal label shift on diagonal bearings
	DiagonalLabelOffset float64
	// Extra downward shift for labels of inbound signals
	InLabelDrop float64
	// Extra upward shift for labels of outbound signals
	OutLabelLift float64
	// Uniform scale applied to the imported icon
	IconScale float64
}

// DefaultTable is the constant set used by the renderer
var DefaultTable = Table{
	VerticalSignalOffset: 5,
	DiagonalSignalOffset: math.Sqrt(12.5),
	LabelDistance:        17,
	DiagonalLabelOffset:  60,
	InLabelDrop:          20,
	OutLabelLift:         8,
	IconScale:            0.045,
}

// tolerance for bucket matching on float angles
const epsilon = 1e-9

// Bucket classifies a bearing for placement purposes
type Bucket int

const (
	// BucketOther covers bearings that match no rule
	BucketOther Bucket = iota
	// BucketAxis covers multiples of 90 degrees
	BucketAxis
	// BucketRising covers angles where (angle+45) is a multiple of 180
	BucketRising
	// BucketFalling covers angles where (angle-45) is a multiple of 180
	BucketFalling
)

func (b Bucket) String() string {
	switch b {
	case BucketAxis:
		return "axis"
	case BucketRising:
		return "rising"
	case BucketFalling:
		return "falling"
	default:
		return "other"
	}
}

// Classify returns the bucket for an angle in degrees. Matching is done
// modulo with a small tolerance so values like 134.99999999999 from
// upstream arithmetic still land in their bucket.
func Classify(angle float64) Bucket {
	switch {
	case multipleOf(angle, 90):
		return BucketAxis
	case multipleOf(angle+45, 180):
		return BucketRising
	case multipleOf(angle-45, 180):
		return BucketFalling
	default:
		return BucketOther
	}
}

func multipleOf(v, m float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	r := math.Abs(math.Mod(v, m))
	return r < epsilon || m-r < epsilon
}

func inbound(dir domain.Direction) bool {
	return dir == domain.DirectionIn
}

// IconTransform returns the translation and rotation applied to a signal
// icon. Any direction other than "in" is treated as outbound.
func (t Table) IconTransform(angle float64, dir domain.Direction) (dx, dy, rotation float64) {
	in := inbound(dir)
	d := t.DiagonalSignalOffset

	switch Classify(angle) {
	case BucketAxis:
		if in {
			dx, dy = 0, t.VerticalSignalOffset
		} else {
			dx, dy = 0, -t.VerticalSignalOffset
		}
	case BucketRising:
		if in {
			dx, dy = -d, d
		} else {
			dx, dy = d, -d
		}
	case BucketFalling:
		if in {
			dx, dy = d, d
		} else {
			dx, dy = -d, -d
		}
	}
	return dx, dy, angle
}

// LabelOffset returns the displacement of a signal label from its node
func (t Table) LabelOffset(angle float64, dir domain.Direction) (dx, dy float64) {
	in := inbound(dir)

	switch Classify(angle) {
	case BucketAxis:
		if in {
			return -t.LabelDistance, t.LabelDistance + t.InLabelDrop
		}
		return t.LabelDistance, -t.LabelDistance - t.OutLabelLift
	case BucketRising:
		if in {
			return -t.DiagonalLabelOffset, 0
		}
		return t.DiagonalLabelOffset, 0
	case BucketFalling:
		if in {
			return t.DiagonalLabelOffset, 0
		}
		return -t.DiagonalLabelOffset, 0
	}
	return 0, 0
}

// IconTransformAttr renders the full icon transform for an SVG attribute
func (t Table) IconTransformAttr(angle float64, dir domain.Direction) string {
	dx, dy, rot := t.IconTransform(angle, dir)
	return fmt.Sprintf("translate(%s, %s) scale(%s) rotate(%s)",
		FormatFloat(dx), FormatFloat(dy), FormatFloat(t.IconScale), FormatFloat(rot))
}

// IconTransform applies DefaultTable
func IconTransform(angle float64, dir domain.Direction) (dx, dy, rotation float64) {
	return DefaultTable.IconTransform(angle, dir)
}

// LabelOffset applies DefaultTable
func LabelOffset(angle float64, dir domain.Direction) (dx, dy float64) {
	return DefaultTable.LabelOffset(angle, dir)
}
