/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package scan

// SyntaxFailure is a position-bearing grammar failure in a bundle file.
// Line is 1-based, Column is 0-based (source map generated coordinates).
type SyntaxFailure struct {
	File      string `json:"file" yaml:"file"`
	Line      int    `json:"line" yaml:"line"`
	Column    int    `json:"column" yaml:"column"`
	Message   string `json:"message" yaml:"message"`
	Construct string `json:"construct,omitempty" yaml:"construct,omitempty"`
}

// ResolvedOrigin is a failure position mapped back through a source map.
type ResolvedOrigin struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Line   int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column int    `json:"column,omitempty" yaml:"column,omitempty"`
}

// Attributable reports whether the source map produced an original source.
func (o ResolvedOrigin) Attributable() bool {
	return o.Source != ""
}

// OriginKind classifies a traced failure.
type OriginKind string

const (
	OriginDependency     OriginKind = "dependency"
	OriginFirstParty     OriginKind = "first-party"
	OriginUnattributable OriginKind = "unattributable"
)

// Finding is the outcome of tracing and classifying one SyntaxFailure.
type Finding struct {
	Failure SyntaxFailure  `json:"failure" yaml:"failure"`
	Origin  ResolvedOrigin `json:"origin" yaml:"origin"`
	Kind    OriginKind     `json:"kind" yaml:"kind"`
	Package string         `json:"package,omitempty" yaml:"package,omitempty"`
}

// Offender is one offending package with the findings that named it.
type Offender struct {
	Package  string    `json:"package" yaml:"package"`
	Findings []Finding `json:"findings" yaml:"findings"`
}

// Files returns the distinct bundle files that contributed to the offender.
func (o Offender) Files() []string {
	seen := make(map[string]struct{}, len(o.Findings))
	var files []string
	for _, f := range o.Findings {
		if _, ok := seen[f.Failure.File]; ok {
			continue
		}
		seen[f.Failure.File] = struct{}{}
		files = append(files, f.Failure.File)
	}
	return files
}

// Status is the single success/failure decision of a scan.
type Status string

const (
	StatusClean             Status = "clean"
	StatusRemediationNeeded Status = "remediation-needed"
)
