/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrRemediationNeeded is returned by callers once a report listing offending
	// packages has been written. It is a result, not a scanner defect.
	ErrRemediationNeeded = errors.New("offending dependencies found")

	// ErrUnsupportedGrammar is returned for grammar options the target version cannot express.
	ErrUnsupportedGrammar = errors.New("unsupported grammar configuration")

	// ErrInvalidPattern wraps glob patterns doublestar rejects.
	ErrInvalidPattern = errors.New("invalid file pattern")
)

// UnpositionedParseError is a parse failure without a usable source position.
// It cannot be attributed to an origin and aborts the run.
type UnpositionedParseError struct {
	File string
	Err  error
}

func (e *UnpositionedParseError) Error() string {
	return fmt.Sprintf("parse %s failed without a source position: %v", e.File, e.Err)
}

func (e *UnpositionedParseError) Unwrap() error { return e.Err }

// MapErrorKind distinguishes missing from malformed source maps.
type MapErrorKind string

const (
	MapMissing   MapErrorKind = "missing"
	MapMalformed MapErrorKind = "malformed"
)

// SourceMapError reports a source map that could not be read or parsed.
type SourceMapError struct {
	Kind    MapErrorKind
	MapPath string
	Err     error
}

func (e *SourceMapError) Error() string {
	switch e.Kind {
	case MapMissing:
		return fmt.Sprintf("source map %s is missing or unreadable: %v", e.MapPath, e.Err)
	default:
		return fmt.Sprintf("source map %s is malformed: %v", e.MapPath, e.Err)
	}
}

func (e *SourceMapError) Unwrap() error { return e.Err }

// FatalTraceError aborts a scan because a source map could not be used.
// Completed holds the findings traced before the abort; siblings still in
// flight are not waited for.
type FatalTraceError struct {
	Err       error
	Completed []Finding
}

func (e *FatalTraceError) Error() string {
	return fmt.Sprintf("source map tracing aborted: %v", e.Err)
}

func (e *FatalTraceError) Unwrap() error { return e.Err }

// OffendingFiles counts distinct bundle files among the completed findings.
func (e *FatalTraceError) OffendingFiles() int {
	seen := make(map[string]struct{}, len(e.Completed))
	for _, f := range e.Completed {
		if f.Kind != OriginDependency {
			continue
		}
		seen[f.Failure.File] = struct{}{}
	}
	return len(seen)
}
