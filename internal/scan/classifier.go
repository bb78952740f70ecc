/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"strings"
)

const (
	// DefaultSourcePrefix is the bundler's internal addressing scheme for
	// project-relative sources.
	DefaultSourcePrefix = "webpack://_N_E/"

	dependencyDir = "node_modules"
	scopeMarker   = "@"
)

// Classifier decides whether an original source lies inside a dependency
// tree and extracts its package identifier.
type Classifier struct {
	prefixes []string
}

// NewClassifier returns a classifier stripping the given prefixes, or
// DefaultSourcePrefix when none are given.
func NewClassifier(prefixes ...string) *Classifier {
	var kept []string
	for _, p := range prefixes {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		kept = []string{DefaultSourcePrefix}
	}
	return &Classifier{prefixes: kept}
}

// Classify returns the innermost package containing source, such as
// "lodash" or "@scope/pkg". ok is false for first-party sources and for
// paths that end before a package name.
func (c *Classifier) Classify(source string) (pkg string, ok bool) {
	rest := source
	for _, p := range c.prefixes {
		if strings.HasPrefix(rest, p) {
			rest = strings.TrimPrefix(rest, p)
			break
		}
	}

	segments := splitSegments(rest)
	last := -1
	for i, s := range segments {
		if s == dependencyDir {
			last = i
		}
	}
	if last < 0 || last+1 >= len(segments) {
		return "", false
	}

	name := segments[last+1]
	if !strings.HasPrefix(name, scopeMarker) {
		return name, true
	}
	if name == scopeMarker || last+2 >= len(segments) || segments[last+2] == dependencyDir {
		return "", false
	}
	return name + "/" + segments[last+2], true
}

// IsDependency reports whether source lies inside a dependency tree at all.
func (c *Classifier) IsDependency(source string) bool {
	for _, s := range splitSegments(source) {
		if s == dependencyDir {
			return true
		}
	}
	return false
}

func splitSegments(p string) []string {
	p = strings.ReplaceAll(p, `\`, "/")
	raw := strings.Split(p, "/")
	out := raw[:0]
	for _, s := range raw {
		if s == "" || s == "." {
			continue
		}
		out = append(out, s)
	}
	return out
}
