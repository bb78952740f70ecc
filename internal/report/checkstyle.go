/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package report

import (
	"io"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/fulmenhq/bundlecheck/internal/scan"
)

type checkstyleEntry struct {
	finding  scan.Finding
	severity string
	source   string
}

// writeCheckstyle emits one <file> per failing bundle and one <error> per
// failure. Dependency findings are errors; the rest are informational.
func writeCheckstyle(w io.Writer, r *scan.Result) error {
	byFile := make(map[string][]checkstyleEntry)
	add := func(fd scan.Finding, severity, source string) {
		byFile[fd.Failure.File] = append(byFile[fd.Failure.File], checkstyleEntry{fd, severity, source})
	}
	for _, o := range r.Offenders {
		for _, fd := range o.Findings {
			add(fd, "error", "bundlecheck."+o.Package)
		}
	}
	for _, fd := range r.FirstParty {
		add(fd, "info", "bundlecheck.first-party")
	}
	for _, fd := range r.Unattributable {
		add(fd, "info", "bundlecheck.unattributable")
	}

	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("checkstyle")
	root.CreateAttr("version", "4.3")
	for _, name := range files {
		fileEl := root.CreateElement("file")
		fileEl.CreateAttr("name", name)
		for _, e := range byFile[name] {
			errEl := fileEl.CreateElement("error")
			errEl.CreateAttr("line", strconv.Itoa(e.finding.Failure.Line))
			// checkstyle columns are 1-based
			errEl.CreateAttr("column", strconv.Itoa(e.finding.Failure.Column+1))
			errEl.CreateAttr("severity", e.severity)
			errEl.CreateAttr("message", checkstyleMessage(e.finding))
			errEl.CreateAttr("source", e.source)
		}
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

func checkstyleMessage(fd scan.Finding) string {
	msg := fd.Failure.Message
	if fd.Failure.Construct != "" {
		msg += " (" + fd.Failure.Construct + ")"
	}
	if fd.Origin.Attributable() {
		msg += " from " + originLabel(fd.Origin)
	}
	return msg
}
