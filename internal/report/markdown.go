/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package report

import (
	"fmt"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/fulmenhq/bundlecheck/internal/gitctx"
	"github.com/fulmenhq/bundlecheck/internal/scan"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const markdownTemplate = `# Bundle compatibility report

| | |
| --- | --- |
| Status | {{statusIcon}} {{status}} |
| Target | ` + "`{{{meta.Target}}}`" + ` |
| Files checked | {{filesChecked}} |
| Grammar failures | {{failureCount}} |
{{#if meta.GitSHA}}| Commit | ` + "`{{{shortSHA}}}`" + ` ({{{meta.Branch}}}{{#if meta.Dirty}}, dirty{{/if}}) |
{{/if}}| Generated | {{generatedAt}} by {{meta.Tool}} {{meta.Version}} in {{meta.Duration}} |
| Run | {{meta.RunID}} |

{{#if offenders}}
## Offending packages

Add these entries to ` + "`transpileModules`" + ` in ` + "`next.config.js`" + `:

{{#each offenders}}
- ` + "`{{{package}}}`" + ` ({{plural count "finding"}})
{{/each}}

See [next-transpile-modules]({{{docsURL}}}) for details.

{{#each offenders}}
### ` + "`{{{package}}}`" + `

| Bundle | Position | Origin | Construct | Message |
| --- | --- | --- | --- | --- |
{{#each findings}}
| {{{file}}} | {{position}} | {{{origin}}} | {{construct}} | {{message}} |
{{/each}}

{{/each}}
{{else}}
No offending dependencies found.

{{/if}}
{{#if firstParty}}
## First-party code

These failures originate in project sources and cannot be fixed through ` + "`transpileModules`" + `.

| Bundle | Position | Origin | Construct | Message |
| --- | --- | --- | --- | --- |
{{#each firstParty}}
| {{{file}}} | {{position}} | {{{origin}}} | {{construct}} | {{message}} |
{{/each}}

{{/if}}
{{#if ignored}}
Ignored packages: {{#each ignored}}` + "`{{{this}}}`" + ` {{/each}}
{{/if}}`

var markdownTpl = mustParseMarkdown()

func mustParseMarkdown() *raymond.Template {
	tpl := raymond.MustParse(markdownTemplate)
	tpl.RegisterHelper("plural", func(n int, noun string) string {
		if n == 1 {
			return fmt.Sprintf("1 %s", noun)
		}
		return fmt.Sprintf("%d %ss", n, noun)
	})
	return tpl
}

func findingsData(fs []scan.Finding) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(fs))
	for _, fd := range fs {
		construct := fd.Failure.Construct
		if construct == "" {
			construct = "-"
		}
		out = append(out, map[string]interface{}{
			"file":      fd.Failure.File,
			"position":  position(fd.Failure),
			"origin":    originLabel(fd.Origin),
			"construct": construct,
			"message":   strings.ReplaceAll(fd.Failure.Message, "|", `\|`),
		})
	}
	return out
}

func renderMarkdown(r *scan.Result, meta Metadata) (string, error) {
	offenders := make([]map[string]interface{}, 0, len(r.Offenders))
	for _, o := range r.Offenders {
		offenders = append(offenders, map[string]interface{}{
			"package":  o.Package,
			"count":    len(o.Findings),
			"findings": findingsData(o.Findings),
		})
	}

	icon := "✅"
	if r.Status() != scan.StatusClean {
		icon = "❌"
	}
	title := cases.Title(language.English)
	shortSHA := (&gitctx.RepoContext{GitSHA: meta.GitSHA}).ShortSHA()

	data := map[string]interface{}{
		"meta":         meta,
		"shortSHA":     shortSHA,
		"status":       title.String(strings.ReplaceAll(string(r.Status()), "-", " ")),
		"statusIcon":   icon,
		"filesChecked": r.FilesChecked,
		"failureCount": len(r.Failures),
		"generatedAt":  meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		"offenders":    offenders,
		"firstParty":   findingsData(r.FirstParty),
		"ignored":      r.Ignored,
		"docsURL":      TranspileDocsURL,
	}
	out, err := markdownTpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("render markdown report: %w", err)
	}
	return out, nil
}
