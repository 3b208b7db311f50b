// Package viewport manages the pan/zoom transform of the drawing surface and
// the one-time auto-fit after the first layout frame.
package viewport

import (
	"fmt"
	"math"
	"sync"

	"railviz/internal/domain"
	"railviz/internal/geometry"
)

// Gesture scale limits
const (
	MinScale = 0.1
	MaxScale = 20.0
)

// Transform is a uniform scale followed by a translation
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the untransformed view
var Identity = Transform{K: 1}

// String renders the transform as an SVG attribute value
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)",
		geometry.FormatFloat(t.X), geometry.FormatFloat(t.Y), geometry.FormatFloat(t.K))
}

// Apply maps a scene point to screen space
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a screen point back to scene space
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// Fitter is the part of a scene the auto-fit needs
type Fitter interface {
	BBox() geometry.Rect
	Reveal() bool
}

// Controller owns the current transform of one drawing surface
type Controller struct {
	mu        sync.Mutex
	width     float64
	height    float64
	transform Transform
	zoomSet   bool
}

// NewController creates a controller for a canvas of the given size
func NewController(width, height float64) *Controller {
	return &Controller{
		width:     width,
		height:    height,
		transform: Identity,
	}
}

// FitScale is the auto-fit scale for a graph: the inverse of its largest
// reported extent. Degenerate extents fall back to 1.
func FitScale(props domain.Properties) float64 {
	m := math.Max(props.MaxX, props.MaxY)
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return 1
	}
	return 1 / m
}

// Fit computes the transform that centers bbox at the given scale
func Fit(width, height float64, bbox geometry.Rect, k float64) Transform {
	return Transform{
		K: k,
		X: (width-bbox.Width*k)/2 - bbox.X*k,
		Y: (height-bbox.Height*k)/2 - bbox.Y*k,
	}
}

// AutoFit applies the auto-fit transform once per load and reveals the
// scene. Subsequent calls are no-ops until Reset. The scale is not clamped
// to the gesture limits.
func (c *Controller) AutoFit(scene Fitter, props domain.Properties) (Transform, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.zoomSet {
		return c.transform, false
	}
	c.transform = Fit(c.width, c.height, scene.BBox(), FitScale(props))
	scene.Reveal()
	c.zoomSet = true
	return c.transform, true
}

// Refit recomputes the auto-fit transform for the current scene without
// touching the once-per-load flag. It backs the "reset view" gesture.
func (c *Controller) Refit(scene Fitter, props domain.Properties) Transform {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transform = Fit(c.width, c.height, scene.BBox(), FitScale(props))
	return c.transform
}

// ZoomSet reports whether the auto-fit has run for the current load
func (c *Controller) ZoomSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.zoomSet
}

// Transform returns the current transform
func (c *Controller) Transform() Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

// Zoom scales by factor around the screen point (cx, cy), clamped to the
// gesture limits
func (c *Controller) Zoom(factor, cx, cy float64) Transform {
	c.mu.Lock()
	defer c.mu.Unlock()

	if factor <= 0 || math.IsNaN(factor) {
		return c.transform
	}
	k := clamp(c.transform.K*factor, MinScale, MaxScale)
	px, py := c.transform.Invert(cx, cy)
	c.transform = Transform{K: k, X: cx - px*k, Y: cy - py*k}
	return c.transform
}

// Pan translates the view by a screen-space delta
func (c *Controller) Pan(dx, dy float64) Transform {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transform.X += dx
	c.transform.Y += dy
	return c.transform
}

// Set replaces the transform, clamping the scale to the gesture limits
func (c *Controller) Set(t Transform) Transform {
	c.mu.Lock()
	defer c.mu.Unlock()

	t.K = clamp(t.K, MinScale, MaxScale)
	c.transform = t
	return c.transform
}

// Reset returns to the identity transform and re-arms the auto-fit. Only a
// full re-render should call it.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transform = Identity
	c.zoomSet = false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
