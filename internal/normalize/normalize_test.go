package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railviz/internal/domain"
)

func TestProjectCenter(t *testing.T) {
	n := New(400, 300)

	fx, fy := n.Project(0.5, 0.5)
	assert.Equal(t, 200.0, fx)
	assert.Equal(t, 150.0, fy)
}

func TestProjectCorners(t *testing.T) {
	n := New(400, 300)

	fx, fy := n.Project(0, 0)
	assert.Equal(t, 50.0, fx)
	assert.Equal(t, 50.0, fy)

	fx, fy = n.Project(1, 1)
	assert.Equal(t, 350.0, fx)
	assert.Equal(t, 250.0, fy, "y must use the vertical span")
}

func TestApplyPinsPositionedNodes(t *testing.T) {
	nodes := []domain.Node{
		*domain.NewNode("p1", domain.NodeTypePoint, "W1", 0.5, 0.5),
		{UUID: "free", Type: domain.NodeTypePoint},
	}
	nodes[0].Active = true

	New(400, 300).Apply(nodes)

	require.True(t, nodes[0].Pinned())
	assert.Equal(t, 200.0, *nodes[0].FX)
	assert.Equal(t, 150.0, *nodes[0].FY)
	assert.False(t, nodes[0].Active)
	assert.False(t, nodes[1].Pinned(), "nodes without coordinates stay free")
}

func TestApplyCustomOffset(t *testing.T) {
	nodes := []domain.Node{*domain.NewNode("p1", domain.NodeTypePoint, "", 0, 1)}
	n := &Normalizer{Width: 100, Height: 100, Offset: 10}
	n.Apply(nodes)

	assert.Equal(t, 10.0, *nodes[0].FX)
	assert.Equal(t, 90.0, *nodes[0].FY)
}

func TestAngleUntouchedWithoutCorrection(t *testing.T) {
	nodes := []domain.Node{*domain.NewSignal("s1", "A", 0.5, 0.5, 45, domain.DirectionIn)}
	New(800, 300).Apply(nodes)

	assert.Equal(t, 45.0, nodes[0].Angle)
}

func TestAspectCorrection(t *testing.T) {
	n := &Normalizer{Width: 800, Height: 300, Offset: 50, AspectCorrection: true}

	t.Run("axis aligned bearings are preserved", func(t *testing.T) {
		assert.InDelta(t, 0, n.CorrectAngle(0), 1e-9)
		assert.InDelta(t, 90, n.CorrectAngle(90), 1e-9)
		assert.InDelta(t, 180, n.CorrectAngle(180), 1e-9)
	})

	t.Run("diagonal flattens on wide canvas", func(t *testing.T) {
		got := n.CorrectAngle(45)
		assert.Less(t, got, 45.0)
		assert.Greater(t, got, 0.0)
	})

	t.Run("square canvas is identity", func(t *testing.T) {
		sq := &Normalizer{Width: 500, Height: 500, Offset: 50, AspectCorrection: true}
		assert.InDelta(t, 45, sq.CorrectAngle(45), 1e-9)
		assert.InDelta(t, -135, sq.CorrectAngle(225), 1e-9)
	})

	t.Run("applied to signals only", func(t *testing.T) {
		nodes := []domain.Node{
			*domain.NewSignal("s1", "A", 0.5, 0.5, 45, domain.DirectionIn),
			*domain.NewNode("p1", domain.NodeTypePoint, "", 0.5, 0.5),
		}
		nodes[1].Angle = 45
		n.Apply(nodes)

		assert.NotEqual(t, 45.0, nodes[0].Angle)
		assert.Equal(t, 45.0, nodes[1].Angle)
	})
}

func TestAspectCorrectionCoversFreeSignals(t *testing.T) {
	nodes := []domain.Node{
		*domain.NewSignal("pinned", "A1", 0.5, 0.5, 45, domain.DirectionIn),
		{UUID: "free", Type: domain.NodeTypeSignal, Angle: 45, Direction: domain.DirectionIn},
	}

	n := New(800, 400)
	n.AspectCorrection = true
	n.Apply(nodes)

	want := n.CorrectAngle(45)
	assert.NotEqual(t, 45.0, want)
	assert.InDelta(t, want, nodes[0].Angle, 1e-9)
	assert.InDelta(t, want, nodes[1].Angle, 1e-9, "free signals are corrected like pinned ones")
	assert.Nil(t, nodes[1].FX)
}
