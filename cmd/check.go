/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fulmenhq/bundlecheck/internal/cache"
	"github.com/fulmenhq/bundlecheck/internal/gitctx"
	"github.com/fulmenhq/bundlecheck/internal/report"
	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/fulmenhq/bundlecheck/pkg/config"
	"github.com/fulmenhq/bundlecheck/pkg/ignore"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/fulmenhq/bundlecheck/pkg/safeio"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [output-dir]",
	Short: "Check production bundles for syntax newer than ES5",
	Long: `Check parses every bundle under <output-dir>/static as ES5. Each syntax error
is traced through the bundle's sibling .map file to the original source, and
sources inside node_modules are reported as offending packages.

The build must emit browser source maps (productionBrowserSourceMaps: true).

Exit status is 0 when no offending package remains after ignore_modules, and 1
when packages must be added to transpileModules or a source map is unusable.

Examples:
  bundlecheck check
  bundlecheck check out --ignore-module lodash
  bundlecheck check --format checkstyle -o bundlecheck.xml
  bundlecheck check --pattern '.next/static/chunks/**/*.js' --exclude '**/polyfills-*.js'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	addScanFlags(checkCmd)
	checkCmd.Flags().StringP("format", "f", "", "Report format (text|json|yaml|markdown|checkstyle)")
	checkCmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	checkCmd.Flags().BoolP("verbose", "v", false, "Show per-finding details")
}

// addScanFlags registers the flags shared by check and watch.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("pattern", nil, "Bundle glob (repeatable; replaces <output-dir>/static/**/*.js)")
	cmd.Flags().StringSlice("exclude", nil, "Glob of bundles to skip (repeatable)")
	cmd.Flags().StringSlice("ignore-module", nil, "Package to leave out of the report (repeatable)")
	cmd.Flags().Int("concurrency", 0, "Worker count (0 = scan.concurrency_percent of CPU cores)")
	cmd.Flags().Bool("cache", false, "Reuse grammar results for unchanged bundles")
	cmd.Flags().Bool("no-describe", false, "Skip naming the construct at each failure")
}

// checkSettings is the resolved configuration for one scan.
type checkSettings struct {
	cfg     *config.Config
	format  report.Format
	output  string
	verbose bool
	color   bool
}

// loadCheckSettings layers flags over the project configuration.
func loadCheckSettings(cmd *cobra.Command, args []string) (*checkSettings, error) {
	cfg, err := config.LoadProjectConfig(".")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}

	if len(args) > 0 {
		cfg.OutputDir = args[0]
	}
	flags := cmd.Flags()
	if flags.Changed("pattern") {
		cfg.Patterns, _ = flags.GetStringSlice("pattern")
	}
	if flags.Changed("exclude") {
		extra, _ := flags.GetStringSlice("exclude")
		cfg.Exclude = append(cfg.Exclude, extra...)
	}
	if flags.Changed("ignore-module") {
		extra, _ := flags.GetStringSlice("ignore-module")
		cfg.IgnoreModules = append(cfg.IgnoreModules, extra...)
	}
	if flags.Changed("concurrency") {
		cfg.Scan.Concurrency, _ = flags.GetInt("concurrency")
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled, _ = flags.GetBool("cache")
	}
	if noDescribe, _ := flags.GetBool("no-describe"); noDescribe {
		cfg.Scan.DescribeConstructs = false
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = scan.DefaultPatterns(cfg.OutputDir)
	}

	s := &checkSettings{cfg: cfg}
	formatName := cfg.Report.Format
	if f := flags.Lookup("format"); f != nil && f.Changed {
		formatName = f.Value.String()
	}
	if s.format, err = report.ParseFormat(formatName); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	if f := flags.Lookup("output"); f != nil {
		s.output = f.Value.String()
	}
	if f := flags.Lookup("verbose"); f != nil {
		s.verbose, _ = flags.GetBool("verbose")
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	s.color = !noColor && s.output == "" && report.ColorEnabled(cmd.OutOrStdout())
	return s, nil
}

// newScanner builds a scanner and its optional cache from settings.
func newScanner(s *checkSettings, progress io.Writer) (*scan.Scanner, *cache.Store, error) {
	cfg := s.cfg
	matcher, err := ignore.NewMatcher(".")
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", ignore.FileName, err)
	}

	var store *cache.Store
	if cfg.Cache.Enabled {
		if store, err = cache.Load(cfg.CachePath()); err != nil {
			return nil, nil, err
		}
	}

	scanner, err := scan.NewScanner(scan.Options{
		Resolver: scan.NewResolver(scan.ResolverOptions{
			Patterns: cfg.Patterns,
			Exclude:  cfg.Exclude,
			Filter:   matcher,
		}),
		Ignore:             cfg.IgnoreModules,
		SourcePrefixes:     cfg.SourcePrefixes,
		Concurrency:        cfg.Scan.Concurrency,
		ConcurrencyPercent: cfg.Scan.ConcurrencyPercent,
		DescribeConstructs: cfg.Scan.DescribeConstructs,
		Cache:              store,
		Progress:           progress,
	})
	if err != nil {
		return nil, nil, err
	}
	return scanner, store, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadCheckSettings(cmd, args)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return checkOnce(ctx, cmd, s, &scan.Lifecycle{})
}

// checkOnce runs one guarded scan and reports it.
func checkOnce(ctx context.Context, cmd *cobra.Command, s *checkSettings, lc *scan.Lifecycle) error {
	// Keep stdout clean for structured reports
	progress := cmd.OutOrStdout()
	if s.format != report.FormatText && s.output == "" {
		progress = cmd.ErrOrStderr()
	}

	scanner, store, err := newScanner(s, progress)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := scan.RunOnce(ctx, lc, scanner)
	elapsed := time.Since(start)
	saveCache(store)
	if err != nil {
		var fatal *scan.FatalTraceError
		if errors.As(err, &fatal) {
			if werr := report.WriteFatal(cmd.ErrOrStderr(), fatal, s.color); werr != nil {
				logger.Warn("Failed to write diagnostic", logger.Err(werr))
			}
		}
		return err
	}

	meta := report.NewMetadata(s.cfg.OutputDir, gitctx.Collect(s.cfg.OutputDir), elapsed)
	if err := writeReport(cmd, s, res, meta); err != nil {
		return err
	}

	if res.Status() != scan.StatusClean {
		return scan.ErrRemediationNeeded
	}
	return nil
}

func saveCache(store *cache.Store) {
	if store == nil {
		return
	}
	if err := store.Save(); err != nil {
		logger.Warn("Failed to save check cache", logger.String("path", store.Path()), logger.Err(err))
	}
}

func writeReport(cmd *cobra.Command, s *checkSettings, res *scan.Result, meta report.Metadata) error {
	f := report.NewFormatter(s.format)
	f.SetVerbose(s.verbose)
	f.SetColor(s.color)

	if s.output == "" {
		return f.Write(cmd.OutOrStdout(), res, meta)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf, res, meta); err != nil {
		return err
	}
	if dir := filepath.Dir(s.output); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := safeio.WriteFilePreservePerms(s.output, buf.Bytes()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("Report written", logger.String("path", s.output), logger.String("format", string(s.format)))

	// Operators still need the remediation list on the console
	if s.format != report.FormatText && res.Status() != scan.StatusClean {
		console := report.NewFormatter(report.FormatText)
		console.SetColor(s.color)
		return console.Write(cmd.OutOrStdout(), res, meta)
	}
	return nil
}
