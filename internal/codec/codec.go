// Package codec reads and writes graph payloads in the formats the
// conversion service and operators use.
package codec

import (
	"fmt"
	"io"
	"mime"
	"strings"

	"railviz/internal/domain"
)

// Importer interface for importing graph payloads from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.Graph, error)
	Format() string
}

// Exporter interface for exporting graph payloads to various formats
type Exporter interface {
	Export(graph *domain.Graph, w io.Writer) error
	Format() string
}

// Codec combines import and export for one format
type Codec interface {
	Importer
	Exporter
	ContentType() string
}

// ForFormat returns the codec registered for a format name ("json", "yaml")
func ForFormat(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// ForContentType picks a codec from an HTTP Content-Type header.
// Anything that is not YAML is treated as JSON.
func ForContentType(contentType string) Codec {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return NewJSONCodec()
	}
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return NewYAMLCodec()
	default:
		return NewJSONCodec()
	}
}

// ForPath picks a codec from a file extension
func ForPath(path string) Codec {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return NewYAMLCodec()
	}
	return NewJSONCodec()
}
