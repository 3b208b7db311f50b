package geometry

import "math"

// Rect is an axis-aligned bounding box
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds accumulates points and boxes into a Rect
type Bounds struct {
	minX, minY float64
	maxX, maxY float64
	set        bool
}

// Add extends the bounds to include a point
func (b *Bounds) Add(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	if !b.set {
		b.minX, b.maxX = x, x
		b.minY, b.maxY = y, y
		b.set = true
		return
	}
	b.minX = math.Min(b.minX, x)
	b.maxX = math.Max(b.maxX, x)
	b.minY = math.Min(b.minY, y)
	b.maxY = math.Max(b.maxY, y)
}

// AddBox extends the bounds to include a box centered at x,y with the given
// half extents
func (b *Bounds) AddBox(x, y, halfW, halfH float64) {
	b.Add(x-halfW, y-halfH)
	b.Add(x+halfW, y+halfH)
}

// Rect returns the accumulated box, or the zero Rect when nothing was added
func (b *Bounds) Rect() Rect {
	if !b.set {
		return Rect{}
	}
	return Rect{X: b.minX, Y: b.minY, Width: b.maxX - b.minX, Height: b.maxY - b.minY}
}
