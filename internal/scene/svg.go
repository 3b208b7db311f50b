package scene

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"railviz/internal/geometry"
)

// SVGOptions controls the exported document
type SVGOptions struct {
	Width  int
	Height int

	// Transform is applied to the zoom group, e.g. the viewport transform
	Transform string
}

// errWriter keeps the first write error so the svg canvas can ignore them
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return len(p), nil
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, nil
}

// WriteSVG renders the current scene as a standalone SVG document
func (s *Scene) WriteSVG(w io.Writer, opts SVGOptions) error {
	return s.WriteView(w, s.View(), opts)
}

// WriteView renders a view taken earlier from this scene
func (s *Scene) WriteView(w io.Writer, v View, opts SVGOptions) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(opts.Width, opts.Height)

	if opts.Transform != "" {
		canvas.Group(attr("class", "zoom"), attr("transform", opts.Transform))
	} else {
		canvas.Group(attr("class", "zoom"))
	}

	canvas.Group(attr("class", "edges"))
	for _, l := range v.Lines {
		writeLine(canvas, l)
	}
	canvas.Gend()

	canvas.Group(attr("class", "edge-labels"))
	for _, l := range v.EdgeLabels {
		writeEdgeLabel(canvas, l)
	}
	canvas.Gend()

	canvas.Group(attr("class", "nodes"))
	for _, g := range v.Groups {
		s.writeGroup(canvas, g)
	}
	canvas.Gend()

	canvas.Gend()
	canvas.End()
	return ew.err
}

func writeLine(canvas *svg.SVG, l Line) {
	d := fmt.Sprintf("M %s %s L %s %s",
		geometry.FormatFloat(l.X1), geometry.FormatFloat(l.Y1),
		geometry.FormatFloat(l.X2), geometry.FormatFloat(l.Y2))

	style := fmt.Sprintf("stroke:%s;opacity:%s", l.Stroke, geometry.FormatFloat(l.Opacity))
	if l.Dash != "" {
		style += ";stroke-dasharray:" + l.Dash
	}
	canvas.Path(d, attr("class", "edge"), attr("data-edge", l.EdgeUUID), style)
}

func writeEdgeLabel(canvas *svg.SVG, l Label) {
	transform := fmt.Sprintf("translate(%s, %s)", geometry.FormatFloat(l.X), geometry.FormatFloat(l.Y))
	if l.Transform != "" {
		transform = l.Transform + " " + transform
	}
	canvas.Gtransform(transform)
	canvas.Text(0, round(l.DY), l.Text, attr("class", l.Class), labelStyle(l))
	canvas.Gend()
}

func (s *Scene) writeGroup(canvas *svg.SVG, g Group) {
	translate := fmt.Sprintf("translate(%s,%s)", geometry.FormatFloat(g.X), geometry.FormatFloat(g.Y))
	opacity := "opacity:" + geometry.FormatFloat(g.Opacity)

	switch g.Kind {
	case KindSignal:
		canvas.Group(attr("class", "signal"), attr("id", g.Icon.ID), attr("transform", translate), opacity)
		writeIcon(canvas, g.Icon, s.icon)
	default:
		canvas.Group(attr("class", "node"), attr("transform", translate), opacity)
	}

	if g.Radius > 0 {
		canvas.Circle(0, 0, round(g.Radius), attr("id", g.ShapeID), attr("fill", g.Fill))
	}
	if g.Label != nil {
		canvas.Text(round(g.Label.X), round(g.Label.Y), g.Label.Text,
			attr("id", g.Label.ID), attr("class", g.Label.Class), labelStyle(*g.Label))
	}
	canvas.Gend()
}

func writeIcon(canvas *svg.SVG, si *SignalIcon, icon *Icon) {
	args := []string{attr("transform", si.Transform), attr("fill", "black")}
	if !si.Visible {
		args = append(args, "visibility:hidden")
	}
	canvas.Group(args...)
	if icon != nil && !si.Missing {
		io.WriteString(canvas.Writer, icon.Markup)
		io.WriteString(canvas.Writer, "\n")
	}
	canvas.Rect(0, 0, round(si.Width), round(si.Height), attr("class", "hit"), "fill:transparent")
	canvas.Gend()
}

func labelStyle(l Label) string {
	visibility := "hidden"
	if l.Visible {
		visibility = "visible"
	}
	return fmt.Sprintf("text-anchor:middle;font-weight:%d;pointer-events:none;visibility:%s", l.Weight, visibility)
}

func attr(name, value string) string {
	return name + `="` + html.EscapeString(value) + `"`
}

func round(v float64) int {
	return int(math.Round(v))
}
