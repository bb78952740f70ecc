/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package report renders scan results for people and for CI tooling.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fulmenhq/bundlecheck/internal/gitctx"
	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/fulmenhq/bundlecheck/pkg/buildinfo"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format names a report rendering.
type Format string

const (
	FormatText       Format = "text"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatMarkdown   Format = "markdown"
	FormatCheckstyle Format = "checkstyle"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatText, FormatJSON, FormatYAML, FormatMarkdown, FormatCheckstyle}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	want := Format(strings.ToLower(strings.TrimSpace(s)))
	if want == "" {
		return FormatText, nil
	}
	if want == "md" {
		return FormatMarkdown, nil
	}
	for _, f := range Formats {
		if f == want {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// TranspileDocsURL documents the build setting that fixes offending packages.
const TranspileDocsURL = "https://github.com/martpie/next-transpile-modules"

// Metadata describes the run that produced a report.
type Metadata struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Tool        string    `json:"tool" yaml:"tool"`
	Version     string    `json:"version" yaml:"version"`
	Target      string    `json:"target" yaml:"target"`
	GitSHA      string    `json:"git_sha,omitempty" yaml:"git_sha,omitempty"`
	Branch      string    `json:"branch,omitempty" yaml:"branch,omitempty"`
	Dirty       bool      `json:"dirty,omitempty" yaml:"dirty,omitempty"`
	Duration    string    `json:"duration" yaml:"duration"`
}

// NewMetadata stamps a report for target. repo may be nil outside git.
func NewMetadata(target string, repo *gitctx.RepoContext, elapsed time.Duration) Metadata {
	m := Metadata{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Tool:        "bundlecheck",
		Version:     buildinfo.Version(),
		Target:      target,
		Duration:    elapsed.Round(time.Millisecond).String(),
	}
	if repo != nil {
		m.GitSHA = repo.GitSHA
		m.Branch = repo.Branch
		m.Dirty = repo.Dirty
	}
	return m
}

// Document is the structured (json/yaml) report shape.
type Document struct {
	Metadata Metadata     `json:"metadata" yaml:"metadata"`
	Status   scan.Status  `json:"status" yaml:"status"`
	Packages []string     `json:"packages" yaml:"packages"`
	Result   *scan.Result `json:"result" yaml:"result"`
}

// Formatter renders results in one format.
type Formatter struct {
	format  Format
	verbose bool
	color   bool
}

// NewFormatter creates a new report formatter
func NewFormatter(format Format) *Formatter {
	return &Formatter{format: format}
}

// SetVerbose adds per-finding detail to the text format.
func (f *Formatter) SetVerbose(v bool) { f.verbose = v }

// SetColor enables ANSI colors in the text format.
func (f *Formatter) SetColor(c bool) { f.color = c }

// Format returns the configured format.
func (f *Formatter) Format() Format { return f.format }

// Write renders r to w.
func (f *Formatter) Write(w io.Writer, r *scan.Result, meta Metadata) error {
	if r == nil {
		r = &scan.Result{}
	}
	switch f.format {
	case FormatText, "":
		return f.writeText(w, r, meta)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newDocument(r, meta))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(r, meta)); err != nil {
			return err
		}
		return enc.Close()
	case FormatMarkdown:
		out, err := renderMarkdown(r, meta)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	case FormatCheckstyle:
		return writeCheckstyle(w, r)
	default:
		return fmt.Errorf("unsupported format: %s", f.format)
	}
}

func newDocument(r *scan.Result, meta Metadata) Document {
	pkgs := r.Packages()
	if pkgs == nil {
		pkgs = []string{}
	}
	return Document{Metadata: meta, Status: r.Status(), Packages: pkgs, Result: r}
}

func position(f scan.SyntaxFailure) string {
	return fmt.Sprintf("%d:%d", f.Line, f.Column)
}

func originLabel(o scan.ResolvedOrigin) string {
	if !o.Attributable() {
		return "(unmapped)"
	}
	if o.Line > 0 {
		return fmt.Sprintf("%s:%d", o.Source, o.Line)
	}
	return o.Source
}
