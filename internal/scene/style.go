package scene

import "railviz/internal/domain"

// TrackColors maps known track types to their stroke color
var TrackColors = map[domain.EdgeType]string{
	1: "#8DB591",
	2: "#7AAFD1",
	3: "#D9A066",
	4: "#AA8CB7",
	5: "#D38C8C",
}

const (
	defaultStroke = "black"
	unknownDash   = "5,5"
)

// EdgeStyle returns the stroke color and dash pattern of an edge. Unknown
// track types are drawn dashed black while coloring is on; with coloring off
// every edge is solid black.
func EdgeStyle(t domain.EdgeType, coloring bool) (stroke, dash string) {
	if !coloring {
		return defaultStroke, ""
	}
	if c, ok := TrackColors[t]; ok {
		return c, ""
	}
	return defaultStroke, unknownDash
}
