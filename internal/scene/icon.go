package scene

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

//go:embed assets/signal.svg
var embeddedSignal []byte

// ErrAssetLoad marks a signal icon that could not be read or parsed
var ErrAssetLoad = errors.New("icon asset load failed")

// fallback icon extent in icon units, used for the hit region when no icon
// could be loaded
const (
	fallbackIconWidth  = 400
	fallbackIconHeight = 200
)

// Icon is a parsed SVG asset shared by every signal of a render
type Icon struct {
	// Markup is the <svg> element without prolog, ready to nest
	Markup string
	Width  float64
	Height float64
}

type svgHeader struct {
	XMLName xml.Name `xml:"svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	ViewBox string   `xml:"viewBox,attr"`
}

// ParseIcon reads an SVG document and extracts its extent
func ParseIcon(data []byte) (*Icon, error) {
	var hdr svgHeader
	if err := xml.Unmarshal(data, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}

	w, wok := parseLength(hdr.Width)
	h, hok := parseLength(hdr.Height)
	if !wok || !hok {
		fields := strings.Fields(strings.ReplaceAll(hdr.ViewBox, ",", " "))
		if len(fields) != 4 {
			return nil, fmt.Errorf("%w: svg has neither size nor viewBox", ErrAssetLoad)
		}
		var err error
		if w, err = strconv.ParseFloat(fields[2], 64); err != nil {
			return nil, fmt.Errorf("%w: bad viewBox: %v", ErrAssetLoad, err)
		}
		if h, err = strconv.ParseFloat(fields[3], 64); err != nil {
			return nil, fmt.Errorf("%w: bad viewBox: %v", ErrAssetLoad, err)
		}
	}

	start := bytes.Index(data, []byte("<svg"))
	if start < 0 {
		return nil, fmt.Errorf("%w: no svg element", ErrAssetLoad)
	}

	return &Icon{
		Markup: strings.TrimSpace(string(data[start:])),
		Width:  w,
		Height: h,
	}, nil
}

func parseLength(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// DefaultIcon returns the embedded signal icon
func DefaultIcon() (*Icon, error) {
	return ParseIcon(embeddedSignal)
}

// LoadIcon reads an icon from disk, or the embedded one when path is empty
func LoadIcon(path string) (*Icon, error) {
	if path == "" {
		return DefaultIcon()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAssetLoad, err)
	}
	return ParseIcon(data)
}
