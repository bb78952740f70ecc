/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

import (
	"sort"

	"github.com/fulmenhq/bundlecheck/pkg/exitcode"
)

// Result is the outcome of a scan.
type Result struct {
	FilesChecked   int             `json:"files_checked" yaml:"files_checked"`
	Failures       []SyntaxFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Offenders      []Offender      `json:"offenders" yaml:"offenders"`
	Ignored        []string        `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	FirstParty     []Finding       `json:"first_party,omitempty" yaml:"first_party,omitempty"`
	Unattributable []Finding       `json:"unattributable,omitempty" yaml:"unattributable,omitempty"`
	// Skipped is set when a lifecycle already ran its scan.
	Skipped bool `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Packages returns the sorted offending package identifiers.
func (r *Result) Packages() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Offenders))
	for _, o := range r.Offenders {
		out = append(out, o.Package)
	}
	return out
}

// Status is clean when no offending package survived filtering.
func (r *Result) Status() Status {
	if r == nil || len(r.Offenders) == 0 {
		return StatusClean
	}
	return StatusRemediationNeeded
}

// ExitCode maps the status to a process exit code.
func (r *Result) ExitCode() int {
	if r.Status() == StatusClean {
		return exitcode.Success
	}
	return exitcode.RemediationNeeded
}

// Aggregate folds traced findings into a Result: dependency findings are
// grouped by package (set union), exact ignore-list matches are removed and
// packages are sorted lexicographically.
func Aggregate(findings []Finding, ignore []string) Result {
	ignored := make(map[string]struct{}, len(ignore))
	for _, i := range ignore {
		ignored[i] = struct{}{}
	}

	var res Result
	byPkg := make(map[string][]Finding)
	hitIgnore := make(map[string]struct{})
	for _, f := range findings {
		switch f.Kind {
		case OriginDependency:
			if _, skip := ignored[f.Package]; skip {
				hitIgnore[f.Package] = struct{}{}
				continue
			}
			byPkg[f.Package] = append(byPkg[f.Package], f)
		case OriginFirstParty:
			res.FirstParty = append(res.FirstParty, f)
		default:
			res.Unattributable = append(res.Unattributable, f)
		}
	}

	pkgs := make([]string, 0, len(byPkg))
	for p := range byPkg {
		pkgs = append(pkgs, p)
	}
	sort.Strings(pkgs)

	res.Offenders = make([]Offender, 0, len(pkgs))
	for _, p := range pkgs {
		fs := byPkg[p]
		sortFindings(fs)
		res.Offenders = append(res.Offenders, Offender{Package: p, Findings: fs})
	}
	for p := range hitIgnore {
		res.Ignored = append(res.Ignored, p)
	}
	sort.Strings(res.Ignored)
	sortFindings(res.FirstParty)
	sortFindings(res.Unattributable)
	return res
}

func sortFindings(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i].Failure, fs[j].Failure
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
