// Package scene builds the visual scene graph of a schematic and keeps it in
// sync with layout frames.
//
// A Scene is built once per graph load. Layout snapshots move its primitives;
// the toggle controller flips their visibility; the viewport controller reads
// its bounding box. Readers take an immutable View.
package scene

import (
	"math"
	"sync"

	"railviz/internal/domain"
	"railviz/internal/geometry"
	"railviz/internal/layout"
)

// Kind is the visual class of a node group
type Kind string

const (
	KindPoint    Kind = "point"
	KindEndpoint Kind = "endpoint"
	KindSignal   Kind = "signal"
	KindUnknown  Kind = "unknown"
)

// drawing constants
const (
	pointRadius    = 10
	endpointRadius = 6
	labelFontSize  = 16
	edgeTagWeight  = 600
	labelWeight    = 700
)

// Line is the drawn segment of one edge
type Line struct {
	EdgeUUID string          `json:"edge_uuid"`
	Type     domain.EdgeType `json:"type"`
	X1       float64         `json:"x1"`
	Y1       float64         `json:"y1"`
	X2       float64         `json:"x2"`
	Y2       float64         `json:"y2"`
	Stroke   string          `json:"stroke"`
	Dash     string          `json:"dash,omitempty"`
	Opacity  float64         `json:"opacity"`

	source, target int
}

// Label is a text primitive
type Label struct {
	ID        string  `json:"id,omitempty"`
	Class     string  `json:"class"`
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	DY        float64 `json:"dy,omitempty"`
	Transform string  `json:"transform,omitempty"`
	Weight    int     `json:"weight"`
	Visible   bool    `json:"visible"`
}

// SignalIcon is the imported icon of a signal group with its hit region
type SignalIcon struct {
	ID        string  `json:"id"`
	Transform string  `json:"transform"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Missing   bool    `json:"missing,omitempty"`
	Visible   bool    `json:"visible"`
}

// Group is the per-node container, translated to the node position
type Group struct {
	NodeUUID string  `json:"node_uuid"`
	Kind     Kind    `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Opacity  float64 `json:"opacity"`

	// Shape id and circle, set for points and endpoints
	ShapeID string  `json:"shape_id,omitempty"`
	Radius  float64 `json:"radius,omitempty"`
	Fill    string  `json:"fill,omitempty"`

	Label *Label      `json:"label,omitempty"`
	Icon  *SignalIcon `json:"icon,omitempty"`
}

// Scene is the mutable scene graph of one render
type Scene struct {
	mu sync.RWMutex

	table      geometry.Table
	icon       *Icon
	lines      []Line
	edgeLabels []Label
	groups     []Group
	index      map[string]int
	incident   [][]int

	coloring bool
	revealed bool
	frame    int
}

// Build creates the scene for a normalized graph. Every edge end must
// resolve, otherwise nothing is built. A nil icon degrades every signal to
// its label and hit region.
func Build(graph *domain.Graph, icon *Icon, table geometry.Table) (*Scene, error) {
	s := &Scene{
		table:    table,
		icon:     icon,
		index:    make(map[string]int, len(graph.Nodes)),
		groups:   make([]Group, 0, len(graph.Nodes)),
		incident: make([][]int, len(graph.Nodes)),
	}

	for i, n := range graph.Nodes {
		s.index[n.UUID] = i
		s.groups = append(s.groups, s.buildGroup(n, icon))
	}

	s.lines = make([]Line, 0, len(graph.Edges))
	s.edgeLabels = make([]Label, 0, len(graph.Edges))
	for _, e := range graph.Edges {
		si, ok := s.index[e.Source]
		if !ok {
			return nil, &domain.MalformedGraphError{EdgeUUID: e.UUID, End: "source", NodeUUID: e.Source}
		}
		ti, ok := s.index[e.Target]
		if !ok {
			return nil, &domain.MalformedGraphError{EdgeUUID: e.UUID, End: "target", NodeUUID: e.Target}
		}

		li := len(s.lines)
		stroke, dash := EdgeStyle(e.Type, false)
		s.lines = append(s.lines, Line{
			EdgeUUID: e.UUID,
			Type:     e.Type,
			Stroke:   stroke,
			Dash:     dash,
			source:   si,
			target:   ti,
		})
		s.edgeLabels = append(s.edgeLabels, Label{
			Class:  "edge-label",
			Text:   e.Tag(),
			Weight: edgeTagWeight,
		})

		s.incident[si] = append(s.incident[si], li)
		if ti != si {
			s.incident[ti] = append(s.incident[ti], li)
		}
	}

	s.layoutPrimitives()
	return s, nil
}

func (s *Scene) buildGroup(n domain.Node, icon *Icon) Group {
	g := Group{NodeUUID: n.UUID}
	if n.Pinned() {
		g.X, g.Y = *n.FX, *n.FY
	}

	switch n.Type {
	case domain.NodeTypePoint:
		g.Kind = KindPoint
		g.ShapeID = "point-" + n.UUID
		g.Radius = pointRadius
		g.Fill = "white"
		g.Label = &Label{
			ID:     "point-label-" + n.UUID,
			Class:  "point-label",
			Text:   n.Name,
			Weight: labelWeight,
		}
	case domain.NodeTypeEndpoint:
		g.Kind = KindEndpoint
		g.ShapeID = "endPoint-" + n.UUID
		g.Radius = endpointRadius
		g.Fill = "black"
	case domain.NodeTypeSignal:
		g.Kind = KindSignal
		si := &SignalIcon{
			ID:        "signal-" + n.UUID,
			Transform: s.table.IconTransformAttr(n.Angle, n.Direction),
			Width:     fallbackIconWidth,
			Height:    fallbackIconHeight,
			Visible:   true,
		}
		if icon == nil {
			si.Missing = true
		} else {
			si.Width, si.Height = icon.Width, icon.Height
		}
		g.Icon = si

		lx, ly := s.table.LabelOffset(n.Angle, n.Direction)
		g.Label = &Label{
			ID:     "signal-label-" + n.UUID,
			Class:  "signal-label",
			Text:   n.Name,
			X:      lx,
			Y:      ly,
			Weight: labelWeight,
		}
	default:
		g.Kind = KindUnknown
	}
	return g
}

// ApplySnapshot moves every primitive to the positions of a layout frame.
// Nodes missing from the frame keep their previous position.
func (s *Scene) ApplySnapshot(snap layout.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.groups {
		g := &s.groups[i]
		var p domain.NodePosition
		var ok bool
		if i < len(snap.Positions) && snap.Positions[i].NodeID == g.NodeUUID {
			p, ok = snap.Positions[i], true
		} else {
			p, ok = snap.Position(g.NodeUUID)
		}
		if ok {
			g.X, g.Y = p.X, p.Y
		}
	}
	s.frame = snap.Tick
	s.layoutPrimitives()
}

// layoutPrimitives recomputes everything derived from group positions
func (s *Scene) layoutPrimitives() {
	for i := range s.lines {
		l := &s.lines[i]
		src, tgt := s.groups[l.source], s.groups[l.target]
		l.X1, l.Y1 = src.X, src.Y
		l.X2, l.Y2 = tgt.X, tgt.Y

		p := s.table.EdgeLabelPlacement(src.X, src.Y, tgt.X, tgt.Y)
		lbl := &s.edgeLabels[i]
		lbl.X, lbl.Y, lbl.DY = p.X, p.Y, p.DY
		lbl.Transform = p.Transform()
	}

	for i := range s.groups {
		g := &s.groups[i]
		if g.Kind != KindPoint {
			continue
		}
		inc := make([]geometry.Incidence, 0, len(s.incident[i]))
		for _, li := range s.incident[i] {
			l := s.lines[li]
			inc = append(inc, geometry.Incidence{
				IsSource: l.source == i,
				SourceY:  l.Y1,
				TargetY:  l.Y2,
			})
		}
		g.Label.Y = s.table.PointLabelY(inc)
	}
}

// SetEdgeLabelsVisible shows or hides every edge label
func (s *Scene) SetEdgeLabelsVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.edgeLabels {
		s.edgeLabels[i].Visible = visible
	}
}

// SetPointLabelsVisible shows or hides every point label
func (s *Scene) SetPointLabelsVisible(visible bool) {
	s.setGroupLabels(KindPoint, visible)
}

// SetSignalLabelsVisible shows or hides every signal label
func (s *Scene) SetSignalLabelsVisible(visible bool) {
	s.setGroupLabels(KindSignal, visible)
}

func (s *Scene) setGroupLabels(kind Kind, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].Kind == kind && s.groups[i].Label != nil {
			s.groups[i].Label.Visible = visible
		}
	}
}

// SetSignalIconsVisible shows or hides every signal icon
func (s *Scene) SetSignalIconsVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].Icon != nil {
			s.groups[i].Icon.Visible = visible
		}
	}
}

// SetTrackColoring recolors every edge
func (s *Scene) SetTrackColoring(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coloring = enabled
	for i := range s.lines {
		s.lines[i].Stroke, s.lines[i].Dash = EdgeStyle(s.lines[i].Type, enabled)
	}
}

// Reveal makes nodes and lines opaque. It reports false if the scene was
// already revealed.
func (s *Scene) Reveal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revealed {
		return false
	}
	for i := range s.lines {
		s.lines[i].Opacity = 1
	}
	for i := range s.groups {
		s.groups[i].Opacity = 1
	}
	s.revealed = true
	return true
}

// Revealed reports whether Reveal has run
func (s *Scene) Revealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revealed
}

// BBox returns the extent of everything drawn, hidden labels included.
// Text extents are approximated from the character count.
func (s *Scene) BBox() geometry.Rect {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b geometry.Bounds
	for _, l := range s.lines {
		b.Add(l.X1, l.Y1)
		b.Add(l.X2, l.Y2)
	}
	for _, l := range s.edgeLabels {
		addText(&b, l, 0, 0)
	}
	for _, g := range s.groups {
		switch {
		case g.Radius > 0:
			b.AddBox(g.X, g.Y, g.Radius, g.Radius)
		case g.Icon != nil:
			r := math.Hypot(g.Icon.Width, g.Icon.Height) * s.table.IconScale
			b.AddBox(g.X, g.Y, r, r)
		default:
			b.Add(g.X, g.Y)
		}
		if g.Label != nil {
			addText(&b, *g.Label, g.X, g.Y)
		}
	}
	return b.Rect()
}

func addText(b *geometry.Bounds, l Label, ox, oy float64) {
	if l.Text == "" {
		return
	}
	halfW := float64(len([]rune(l.Text))) * labelFontSize * 0.3
	x := ox + l.X
	baseline := oy + l.Y + l.DY
	b.Add(x-halfW, baseline-labelFontSize)
	b.Add(x+halfW, baseline)
}

// View is an immutable copy of the scene
type View struct {
	Frame         int     `json:"frame"`
	Revealed      bool    `json:"revealed"`
	TrackColoring bool    `json:"track_coloring"`
	Lines         []Line  `json:"lines"`
	EdgeLabels    []Label `json:"edge_labels"`
	Groups        []Group `json:"groups"`
}

// View returns a deep copy of the current scene state
func (s *Scene) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Frame:         s.frame,
		Revealed:      s.revealed,
		TrackColoring: s.coloring,
		Lines:         append([]Line(nil), s.lines...),
		EdgeLabels:    append([]Label(nil), s.edgeLabels...),
		Groups:        make([]Group, len(s.groups)),
	}
	for i, g := range s.groups {
		if g.Label != nil {
			l := *g.Label
			g.Label = &l
		}
		if g.Icon != nil {
			ic := *g.Icon
			g.Icon = &ic
		}
		v.Groups[i] = g
	}
	return v
}
