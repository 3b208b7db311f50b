package geometry

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"railviz/internal/domain"
)

var d = math.Sqrt(12.5)

func TestIconTransformBuckets(t *testing.T) {
	tests := []struct {
		name   string
		angle  float64
		dir    domain.Direction
		dx, dy float64
	}{
		{"axis in", 0, domain.DirectionIn, 0, 5},
		{"axis out", 0, domain.DirectionOut, 0, -5},
		{"axis vertical in", 90, domain.DirectionIn, 0, 5},
		{"axis negative out", -270, domain.DirectionOut, 0, -5},
		{"rising in", 135, domain.DirectionIn, -d, d},
		{"rising out", -45, domain.DirectionOut, d, -d},
		{"falling in", 45, domain.DirectionIn, d, d},
		{"falling out", 225, domain.DirectionOut, -d, -d},
		{"unclassified", 30, domain.DirectionIn, 0, 0},
		{"unknown direction treated as out", 0, domain.Direction("sideways"), 0, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy, rot := IconTransform(tt.angle, tt.dir)
			assert.InDelta(t, tt.dx, dx, 1e-12)
			assert.InDelta(t, tt.dy, dy, 1e-12)
			assert.Equal(t, tt.angle, rot)
		})
	}
}

func TestDiagonalOffsetMagnitude(t *testing.T) {
	assert.InDelta(t, 3.5355, DefaultTable.DiagonalSignalOffset, 1e-4)
}

func TestLabelOffsetBuckets(t *testing.T) {
	tests := []struct {
		name   string
		angle  float64
		dir    domain.Direction
		dx, dy float64
	}{
		{"axis in", 180, domain.DirectionIn, -17, 37},
		{"axis out", 180, domain.DirectionOut, 17, -25},
		{"rising in", 135, domain.DirectionIn, -60, 0},
		{"rising out", 135, domain.DirectionOut, 60, 0},
		{"falling in", 45, domain.DirectionIn, 60, 0},
		{"falling out", 45, domain.DirectionOut, -60, 0},
		{"unclassified", 10, domain.DirectionOut, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy := LabelOffset(tt.angle, tt.dir)
			assert.Equal(t, tt.dx, dx)
			assert.Equal(t, tt.dy, dy)
		})
	}
}

func TestClassifyTolerance(t *testing.T) {
	assert.Equal(t, BucketRising, Classify(134.99999999999))
	assert.Equal(t, BucketAxis, Classify(89.999999999999))
	assert.Equal(t, BucketFalling, Classify(-135))
	assert.Equal(t, BucketOther, Classify(math.NaN()))
	assert.Equal(t, BucketOther, Classify(math.Inf(1)))
}

func TestIconTransformAttr(t *testing.T) {
	got := DefaultTable.IconTransformAttr(0, domain.DirectionIn)
	assert.Equal(t, "translate(0, 5) scale(0.045) rotate(0)", got)
}

func TestEdgeLabelPlacement(t *testing.T) {
	t.Run("descending source tilts up", func(t *testing.T) {
		l := EdgeLabelPlacement(0, 100, 100, 0)
		assert.Equal(t, 50.0, l.X)
		assert.Equal(t, 50.0, l.Y)
		assert.Equal(t, "rotate(-45, 45, 55)", l.Transform())
		assert.Equal(t, 0.0, l.DY)
	})

	t.Run("ascending source tilts down", func(t *testing.T) {
		l := EdgeLabelPlacement(0, 0, 100, 100)
		assert.Equal(t, "rotate(45, 55, 55)", l.Transform())
	})

	t.Run("level edge drops below the line", func(t *testing.T) {
		l := EdgeLabelPlacement(0, 10, 100, 10)
		assert.False(t, l.Rotated())
		assert.Empty(t, l.Transform())
		assert.Equal(t, 17.0, l.DY)
	})
}

func TestPointLabelY(t *testing.T) {
	tests := []struct {
		name     string
		incident []Incidence
		want     float64
	}{
		{"no edges", nil, 27},
		{"only level edges", []Incidence{{IsSource: true, SourceY: 5, TargetY: 5}}, 27},
		{"source above target", []Incidence{{IsSource: true, SourceY: 0, TargetY: 10}}, -17},
		{"target below source", []Incidence{{IsSource: false, SourceY: 0, TargetY: 10}}, 27},
		{"target above source", []Incidence{{IsSource: false, SourceY: 10, TargetY: 0}}, -17},
		{"level edge skipped before sloped", []Incidence{
			{IsSource: true, SourceY: 5, TargetY: 5},
			{IsSource: true, SourceY: 0, TargetY: 10},
		}, -17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointLabelY(tt.incident))
		})
	}
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0", FormatFloat(math.Copysign(0, -1)))
	assert.Equal(t, "0.045", FormatFloat(0.045))
	assert.Equal(t, "-17", FormatFloat(-17))
}

// TestPlacementProperties checks totality and purity over arbitrary angles
func TestPlacementProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	dirs := gen.OneConstOf(domain.DirectionIn, domain.DirectionOut, domain.Direction(""))

	properties.Property("icon rotation always equals angle", prop.ForAll(
		func(angle float64, dir domain.Direction) bool {
			_, _, rot := IconTransform(angle, dir)
			return rot == angle
		},
		gen.Float64Range(-1080, 1080),
		dirs,
	))

	properties.Property("placement is deterministic", prop.ForAll(
		func(angle float64, dir domain.Direction) bool {
			dx1, dy1, _ := IconTransform(angle, dir)
			dx2, dy2, _ := IconTransform(angle, dir)
			lx1, ly1 := LabelOffset(angle, dir)
			lx2, ly2 := LabelOffset(angle, dir)
			return dx1 == dx2 && dy1 == dy2 && lx1 == lx2 && ly1 == ly2
		},
		gen.Float64Range(-1080, 1080),
		dirs,
	))

	properties.Property("icon offset is short", prop.ForAll(
		func(angle float64, dir domain.Direction) bool {
			dx, dy, _ := IconTransform(angle, dir)
			return math.Hypot(dx, dy) <= 5+1e-9
		},
		gen.Float64Range(-1080, 1080),
		dirs,
	))

	properties.Property("multiples of 90 always hit the axis bucket", prop.ForAll(
		func(k int) bool {
			return Classify(float64(k)*90) == BucketAxis
		},
		gen.IntRange(-40, 40),
	))

	properties.Property("in and out mirror each other", prop.ForAll(
		func(k int) bool {
			angle := float64(k) * 45
			ix, iy, _ := IconTransform(angle, domain.DirectionIn)
			ox, oy, _ := IconTransform(angle, domain.DirectionOut)
			return ix == -ox && iy == -oy
		},
		gen.IntRange(-16, 16),
	))

	properties.Property("edge label sits on the midpoint", prop.ForAll(
		func(sx, sy, tx, ty float64) bool {
			l := EdgeLabelPlacement(sx, sy, tx, ty)
			return l.X == (sx+tx)/2 && l.Y == (sy+ty)/2 && (l.Rotated() == (sy != ty))
		},
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}

func TestLabelDistanceDrivesLabelOffset(t *testing.T) {
	table := DefaultTable
	table.LabelDistance = 30

	dx, dy := table.LabelOffset(0, domain.DirectionIn)
	assert.Equal(t, -30.0, dx)
	assert.Equal(t, 30+table.InLabelDrop, dy)

	dx, dy = table.LabelOffset(0, domain.DirectionOut)
	assert.Equal(t, 30.0, dx)
	assert.Equal(t, -30-table.OutLabelLift, dy)
}
