package domain

import (
	"testing"
)

func TestParseNodeType(t *testing.T) {
	tests := []struct {
		input string
		want  NodeType
		known bool
	}{
		{"Point", NodeTypePoint, true},
		{"NodeType.Point", NodeTypePoint, true},
		{"NodeType.Endpoint", NodeTypeEndpoint, true},
		{" Signal ", NodeTypeSignal, true},
		{"NodeType.Crossing", NodeType("Crossing"), false},
		{"", NodeType(""), false},
	}

	for _, tt := range tests {
		got := ParseNodeType(tt.input)
		if got != tt.want {
			t.Errorf("ParseNodeType(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if got.Known() != tt.known {
			t.Errorf("ParseNodeType(%q).Known() = %v, want %v", tt.input, got.Known(), tt.known)
		}
	}
}

func TestNodePinning(t *testing.T) {
	t.Run("new node is positioned but not pinned", func(t *testing.T) {
		n := NewNode("p1", NodeTypePoint, "W1", 0.25, 0.75)

		if !n.HasPosition() {
			t.Error("expected node to have a normalized position")
		}
		if n.Pinned() {
			t.Error("expected node to be unpinned before normalization")
		}
		if n.Active {
			t.Error("expected Active to be false")
		}
	})

	t.Run("pin sets pixel position", func(t *testing.T) {
		n := NewNode("p1", NodeTypePoint, "W1", 0.25, 0.75)
		n.Pin(120, 340)

		if !n.Pinned() {
			t.Fatal("expected node to be pinned")
		}
		if *n.FX != 120 || *n.FY != 340 {
			t.Errorf("expected (120, 340), got (%f, %f)", *n.FX, *n.FY)
		}
	})

	t.Run("node without coordinates is free", func(t *testing.T) {
		n := &Node{UUID: "free", Type: NodeTypePoint}
		if n.HasPosition() {
			t.Error("expected node without coordinates to be free")
		}
	})
}

func TestNodeClone(t *testing.T) {
	n := NewSignal("s1", "A", 0.1, 0.2, 45, DirectionIn)
	n.Pin(10, 20)

	c := n.Clone()
	*c.X = 0.9
	*c.FX = 99

	if *n.X != 0.1 {
		t.Errorf("clone shares X with original: %f", *n.X)
	}
	if *n.FX != 10 {
		t.Errorf("clone shares FX with original: %f", *n.FX)
	}
	if c.Angle != 45 || c.Direction != DirectionIn {
		t.Errorf("clone lost signal fields: %v %v", c.Angle, c.Direction)
	}
}
