// Package toggle holds the label and style switches of a render and applies
// their coupling rules to a scene.
package toggle

import (
	"fmt"
	"strings"
	"sync"
)

// Name identifies a toggle
type Name string

const (
	PointLabels  Name = "point_labels"
	SignalLabels Name = "signal_labels"
	EdgeLabels   Name = "edge_labels"
	TrackColors  Name = "track_colors"
)

// ParseName accepts the canonical names and their dashed forms
func ParseName(s string) (Name, error) {
	n := Name(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch n {
	case PointLabels, SignalLabels, EdgeLabels, TrackColors:
		return n, nil
	default:
		return "", fmt.Errorf("unknown toggle %q", s)
	}
}

// Target is what the toggles drive
type Target interface {
	SetPointLabelsVisible(bool)
	SetSignalLabelsVisible(bool)
	SetEdgeLabelsVisible(bool)
	SetSignalIconsVisible(bool)
	SetTrackColoring(bool)
}

// State is the value of every toggle
type State struct {
	PointLabels  bool `json:"point_labels"`
	SignalLabels bool `json:"signal_labels"`
	EdgeLabels   bool `json:"edge_labels"`
	TrackColors  bool `json:"track_colors"`
}

// Controller applies toggle transitions. Edge labels are exclusive with
// point and signal labels and hide signal icons while on.
type Controller struct {
	mu     sync.Mutex
	state  State
	target Target
}

// NewController creates a controller with every toggle off
func NewController(target Target) *Controller {
	return &Controller{target: target}
}

// State returns the current toggle values
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Set changes one toggle and returns the resulting state
func (c *Controller) Set(name Name, enabled bool) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case EdgeLabels:
		c.setEdgeLabels(enabled)
	case PointLabels:
		c.state.PointLabels = enabled
		c.target.SetPointLabelsVisible(enabled)
		c.setEdgeLabels(false)
	case SignalLabels:
		c.state.SignalLabels = enabled
		c.target.SetSignalLabelsVisible(enabled)
		c.setEdgeLabels(false)
	case TrackColors:
		c.state.TrackColors = enabled
		c.target.SetTrackColoring(enabled)
	default:
		return c.state, fmt.Errorf("unknown toggle %q", name)
	}
	return c.state, nil
}

func (c *Controller) setEdgeLabels(enabled bool) {
	if enabled {
		c.state.PointLabels = false
		c.state.SignalLabels = false
		c.target.SetPointLabelsVisible(false)
		c.target.SetSignalLabelsVisible(false)
	}
	c.state.EdgeLabels = enabled
	c.target.SetEdgeLabelsVisible(enabled)
	c.target.SetSignalIconsVisible(!enabled)
}

// Reset turns every toggle off and rebinds the controller, as done on each
// graph load
func (c *Controller) Reset(target Target) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = State{}
	c.target = target
	target.SetPointLabelsVisible(false)
	target.SetSignalLabelsVisible(false)
	target.SetEdgeLabelsVisible(false)
	target.SetSignalIconsVisible(true)
	target.SetTrackColoring(false)
}
