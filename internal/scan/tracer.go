/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"
	"encoding/json"
	"os"

	"github.com/go-sourcemap/sourcemap"
)

// MapSuffix is appended to a bundle path to locate its source map.
const MapSuffix = ".map"

// Tracer maps bundle positions back to original sources.
type Tracer struct {
	readFile func(string) ([]byte, error)
}

// NewTracer returns a tracer reading sibling "<file>.map" artifacts from disk.
func NewTracer() *Tracer {
	return &Tracer{readFile: os.ReadFile}
}

// MapPath returns the source map location for a bundle file.
func MapPath(file string) string {
	return file + MapSuffix
}

// Trace resolves the failure position through the bundle's source map.
// A map without an entry for the position yields a zero ResolvedOrigin and a
// nil error; a missing or malformed map yields a *SourceMapError.
func (t *Tracer) Trace(ctx context.Context, f SyntaxFailure) (ResolvedOrigin, error) {
	if err := ctx.Err(); err != nil {
		return ResolvedOrigin{}, err
	}

	mapPath := MapPath(f.File)
	data, err := t.readFile(mapPath)
	if err != nil {
		return ResolvedOrigin{}, &SourceMapError{Kind: MapMissing, MapPath: mapPath, Err: err}
	}

	var header mapHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return ResolvedOrigin{}, &SourceMapError{Kind: MapMalformed, MapPath: mapPath, Err: err}
	}
	if header.hasNoMappings() {
		return ResolvedOrigin{}, nil
	}

	consumer, err := sourcemap.Parse("", data)
	if err != nil {
		return ResolvedOrigin{}, &SourceMapError{Kind: MapMalformed, MapPath: mapPath, Err: err}
	}

	source, _, line, column, ok := consumer.Source(f.Line, f.Column)
	if !ok || source == "" {
		return ResolvedOrigin{}, nil
	}
	return ResolvedOrigin{Source: source, Line: line, Column: column}, nil
}

// mapHeader holds the fields needed to tell an empty map from a broken one.
type mapHeader struct {
	Version  int               `json:"version"`
	Mappings *string           `json:"mappings"`
	Sections []json.RawMessage `json:"sections"`
}

// hasNoMappings reports a well-formed v3 map that maps nothing.
func (h mapHeader) hasNoMappings() bool {
	return h.Version == 3 && len(h.Sections) == 0 && h.Mappings != nil && *h.Mappings == ""
}
