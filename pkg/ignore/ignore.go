// Package ignore provides gitignore-syntax bundle filtering using go-git
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the project-level ignore file.
const FileName = ".bundlecheckignore"

// userHomeDir is swapped in tests.
var userHomeDir = os.UserHomeDir

// Matcher filters bundle paths with gitignore-syntax patterns.
// .gitignore itself is not consulted: build output is normally git-ignored.
type Matcher struct {
	root    string
	matcher gitignore.Matcher
	count   int
}

// NewMatcher creates a matcher with layered ignore files:
// 1. <root>/.bundlecheckignore (project)
// 2. ~/.bundlecheck/.bundlecheckignore (user overrides)
// Missing files are skipped.
func NewMatcher(root string) (*Matcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	project, err := readPatterns(osfs.New(absRoot), FileName)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, project...)

	if home, err := userHomeDir(); err == nil {
		user, err := readPatterns(osfs.New(filepath.Join(home, ".bundlecheck")), FileName)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, user...)
	}

	return &Matcher{
		root:    absRoot,
		matcher: gitignore.NewMatcher(patterns),
		count:   len(patterns),
	}, nil
}

// readPatterns parses an ignore file from fs; a missing file yields no patterns.
func readPatterns(fs billy.Filesystem, name string) ([]gitignore.Pattern, error) {
	f, err := fs.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return patterns, scanner.Err()
}

// Len returns the number of loaded patterns.
func (m *Matcher) Len() int { return m.count }

// IsIgnored checks if a file path should be skipped
func (m *Matcher) IsIgnored(path string) bool {
	if m.count == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}

	parts := splitPath(filepath.ToSlash(rel))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, false)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}

	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")

	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}

	return result
}
