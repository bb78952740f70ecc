package ignore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func withHome(t *testing.T, dir string) {
	t.Helper()
	original := userHomeDir
	userHomeDir = func() (string, error) { return dir, nil }
	t.Cleanup(func() { userHomeDir = original })
}

func writeIgnore(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestNewMatcher(t *testing.T) {
	root := t.TempDir()
	withHome(t, t.TempDir())

	writeIgnore(t, filepath.Join(root, FileName), `# vendored polyfills are audited separately
.next/static/chunks/polyfills-*.js
**/legacy/
!**/legacy/keep.js
`)
	// .gitignore must not affect bundle selection
	writeIgnore(t, filepath.Join(root, ".gitignore"), ".next/\n")

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("Failed to create matcher: %v", err)
	}
	if m.Len() != 3 {
		t.Errorf("expected 3 patterns, got %d", m.Len())
	}

	tests := []struct {
		path     string
		expected bool
		name     string
	}{
		{".next/static/chunks/polyfills-abc123.js", true, "glob in project file"},
		{".next/static/chunks/main-abc123.js", false, "not matched"},
		{".next/static/legacy/old.js", true, "directory pattern"},
		{".next/static/legacy/keep.js", false, "negation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsIgnored(filepath.Join(root, tt.path)); got != tt.expected {
				t.Errorf("IsIgnored(%q) = %v, expected %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestUserIgnoreFile(t *testing.T) {
	root := t.TempDir()
	home := t.TempDir()
	withHome(t, home)
	writeIgnore(t, filepath.Join(home, ".bundlecheck", FileName), "*.worker.js\n")

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("Failed to create matcher: %v", err)
	}
	if !m.IsIgnored(filepath.Join(root, ".next", "static", "a.worker.js")) {
		t.Error("user-level pattern should apply")
	}
}

func TestNoIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	withHome(t, t.TempDir())

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("Failed to create matcher: %v", err)
	}
	if m.Len() != 0 || m.IsIgnored(filepath.Join(root, "a.js")) {
		t.Error("empty matcher should ignore nothing")
	}
}

func TestPathsOutsideRootAreNotIgnored(t *testing.T) {
	root := t.TempDir()
	withHome(t, t.TempDir())
	writeIgnore(t, filepath.Join(root, FileName), "*.js\n")

	m, err := NewMatcher(root)
	if err != nil {
		t.Fatalf("Failed to create matcher: %v", err)
	}
	if m.IsIgnored(filepath.Join(filepath.Dir(root), "elsewhere.js")) {
		t.Error("paths outside the root must not match")
	}
}

func TestHomeLookupFailure(t *testing.T) {
	root := t.TempDir()
	original := userHomeDir
	userHomeDir = func() (string, error) { return "", errors.New("no home") }
	defer func() { userHomeDir = original }()

	if _, err := NewMatcher(root); err != nil {
		t.Fatalf("missing home should not fail: %v", err)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", []string{}},
		{".", []string{}},
		{"file.js", []string{"file.js"}},
		{"/static/chunks/a.js", []string{"static", "chunks", "a.js"}},
		{"static//./a.js", []string{"static", "a.js"}},
	}
	for _, tt := range tests {
		got := splitPath(tt.input)
		if len(got) != len(tt.expected) {
			t.Errorf("splitPath(%q) = %v, expected %v", tt.input, got, tt.expected)
			continue
		}
		for i := range got {
			if got[i] != tt.expected[i] {
				t.Errorf("splitPath(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		}
	}
}
