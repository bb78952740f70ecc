/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package report

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Prefix tags every console block.
const Prefix = "[bundlecheck]"

// maxCellWidth bounds path columns in verbose tables.
const maxCellWidth = 64

// ColorEnabled reports whether w is a terminal that should receive colors.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type palette struct {
	header *color.Color
	pkg    *color.Color
	warn   *color.Color
	faint  *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		header: color.New(color.Bold),
		pkg:    color.New(color.FgYellow, color.Bold),
		warn:   color.New(color.FgRed, color.Bold),
		faint:  color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.header, p.pkg, p.warn, p.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (f *Formatter) writeText(w io.Writer, r *scan.Result, meta Metadata) error {
	var b bytes.Buffer
	p := newPalette(f.color)

	if f.verbose {
		f.writeSummary(&b, r, meta, p)
	}

	if len(r.Offenders) > 0 {
		fmt.Fprintln(&b, p.header.Sprint(Prefix))
		fmt.Fprintln(&b, "You might want to add the following entries to `transpileModules` in `next.config.js`:")
		fmt.Fprintln(&b)
		for _, pkg := range r.Packages() {
			fmt.Fprintf(&b, "- %s\n", p.pkg.Sprint(pkg))
		}
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "For more information, see: %s\n", TranspileDocsURL)
		fmt.Fprintln(&b)
	}

	_, err := w.Write(b.Bytes())
	return err
}

func (f *Formatter) writeSummary(b *bytes.Buffer, r *scan.Result, meta Metadata, p palette) {
	printer := message.NewPrinter(language.English)
	if r.Skipped {
		fmt.Fprintf(b, "%s scan already ran for this build; skipped\n", p.faint.Sprint(Prefix))
		return
	}
	fmt.Fprintln(b, printer.Sprintf("%s checked %d bundle files in %s: %d grammar failures, %d offending packages",
		p.faint.Sprint(Prefix), r.FilesChecked, meta.Duration, len(r.Failures), len(r.Offenders)))

	if len(r.Offenders) > 0 {
		rows := make([][]string, 0)
		for _, o := range r.Offenders {
			for _, fd := range o.Findings {
				rows = append(rows, findingRow(o.Package, fd))
			}
		}
		writeTable(b, []string{"Package", "Bundle", "Position", "Origin", "Construct"}, rows)
	}
	if len(r.FirstParty) > 0 {
		fmt.Fprintln(b, p.warn.Sprint("First-party code that is not ES5 (not fixable via transpileModules):"))
		rows := make([][]string, 0, len(r.FirstParty))
		for _, fd := range r.FirstParty {
			rows = append(rows, findingRow("-", fd))
		}
		writeTable(b, []string{"Package", "Bundle", "Position", "Origin", "Construct"}, rows)
	}
	if n := len(r.Unattributable); n > 0 {
		fmt.Fprintln(b, printer.Sprintf("%d failures could not be attributed through source maps", n))
	}
	if len(r.Ignored) > 0 {
		fmt.Fprintf(b, "Ignored packages: %v\n", r.Ignored)
	}
	fmt.Fprintln(b)
}

func findingRow(pkg string, fd scan.Finding) []string {
	construct := fd.Failure.Construct
	if construct == "" {
		construct = "-"
	}
	return []string{
		pkg,
		runewidth.Truncate(fd.Failure.File, maxCellWidth, "..."),
		position(fd.Failure),
		runewidth.Truncate(originLabel(fd.Origin), maxCellWidth, "..."),
		construct,
	}
}

func writeTable(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// WriteFatal renders the diagnostic for a scan aborted by an unusable source map.
func WriteFatal(w io.Writer, fatal *scan.FatalTraceError, useColor bool) error {
	p := newPalette(useColor)
	n := fatal.OffendingFiles()
	noun := "files"
	if n == 1 {
		noun = "file"
	}

	var b bytes.Buffer
	fmt.Fprintln(&b, p.warn.Sprintf("error: %v", fatal.Err))
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, p.header.Sprint(Prefix))
	fmt.Fprintf(&b, "%d offending %s found.\n", n, noun)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Please run `next build` with `productionBrowserSourceMaps: true` in `next.config.js` to find offending dependencies.")
	fmt.Fprintln(&b)
	_, err := w.Write(b.Bytes())
	return err
}
