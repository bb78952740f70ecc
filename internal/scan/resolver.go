/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
)

// DefaultOutputDir is the conventional build output location.
const DefaultOutputDir = ".next"

// PathFilter reports paths that should not be scanned.
type PathFilter interface {
	IsIgnored(path string) bool
}

// ResolverOptions configures file discovery.
type ResolverOptions struct {
	Patterns []string   // doublestar globs; "**" supported
	Exclude  []string   // doublestar globs matched against slash paths
	Filter   PathFilter // optional .bundlecheckignore matcher
}

// Resolver expands glob patterns into candidate bundle files.
type Resolver struct {
	opts ResolverOptions
}

// NewResolver creates a resolver for the given patterns.
func NewResolver(opts ResolverOptions) *Resolver {
	return &Resolver{opts: opts}
}

// DefaultPatterns returns the bundle glob for an output directory.
func DefaultPatterns(outputDir string) []string {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	return []string{filepath.ToSlash(filepath.Join(outputDir, "static")) + "/**/*.js"}
}

// Resolve returns the deduplicated, sorted set of files matching the patterns.
// An empty result is not an error.
func (r *Resolver) Resolve(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range r.opts.Patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if r.isExcluded(m) {
				logger.Trace("excluded bundle file", logger.String("file", m))
				continue
			}
			seen[filepath.Clean(m)] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Resolver) isExcluded(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, ex := range r.opts.Exclude {
		if ok, _ := doublestar.Match(filepath.ToSlash(ex), slashed); ok {
			return true
		}
	}
	return r.opts.Filter != nil && r.opts.Filter.IsIgnored(path)
}
