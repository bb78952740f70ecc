/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [output-dir]",
	Short: "Re-check bundles whenever the build output changes",
	Long: `Watch runs a check every time the build output settles after a change.
Each rebuild is treated as a new build, so the check runs once per rebuild.
Failed checks are reported and watching continues until interrupted.

Examples:
  bundlecheck watch
  bundlecheck watch out --debounce 2s`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	addScanFlags(watchCmd)
	watchCmd.Flags().StringP("format", "f", "", "Report format (text|json|yaml|markdown|checkstyle)")
	watchCmd.Flags().BoolP("verbose", "v", false, "Show per-finding details")
	watchCmd.Flags().Duration("debounce", 500*time.Millisecond, "Quiet period before a change triggers a check")
}

func runWatch(cmd *cobra.Command, args []string) error {
	s, err := loadCheckSettings(cmd, args)
	if err != nil {
		return err
	}
	debounce, _ := cmd.Flags().GetDuration("debounce")
	if debounce <= 0 {
		return fmt.Errorf("%w: --debounce must be positive", errConfig)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	root := s.cfg.OutputDir
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", root, err)
	}
	if err := addTree(watcher, root); err != nil {
		return err
	}
	logger.Info("Watching build output", logger.String("output_dir", root), logger.Duration("debounce", debounce))

	events := make(chan string)
	go forwardEvents(ctx, watcher, events)

	build := 0
	watchLoop(ctx, events, debounce, func(ctx context.Context) {
		build++
		logger.Debug("Build output settled", logger.Int("build", build))
		err := checkOnce(ctx, cmd, s, &scan.Lifecycle{})
		switch {
		case err == nil:
			logger.Info("Check passed", logger.Int("build", build))
		case errors.Is(err, scan.ErrRemediationNeeded):
			logger.Warn("Check found offending packages", logger.Int("build", build))
		case errors.Is(err, context.Canceled):
		default:
			logger.Error("Check failed", logger.Int("build", build), logger.Err(err))
		}
	})
	return nil
}

// addTree watches dir and every directory below it.
func addTree(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == "cache" && path != dir {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// forwardEvents relays relevant paths to out until ctx ends, adding newly
// created directories to the watcher.
func forwardEvents(ctx context.Context, w *fsnotify.Watcher, out chan<- string) {
	defer close(out)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						logger.Warn("Failed to watch directory", logger.String("path", ev.Name), logger.Err(err))
					}
					continue
				}
			}
			if !triggersCheck(ev) {
				continue
			}
			select {
			case out <- ev.Name:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("Watcher error", logger.Err(err))
		}
	}
}

// triggersCheck reports whether ev can change a check result.
func triggersCheck(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	return strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".js"+scan.MapSuffix) || name == "BUILD_ID"
}

// watchLoop calls run once events have been quiet for debounce. It returns
// when ctx is done or events is closed. Events arriving during a run are
// coalesced into the next one.
func watchLoop(ctx context.Context, events <-chan string, debounce time.Duration, run func(context.Context)) {
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			logger.Trace("Build output changed", logger.String("path", path))
			// Reset discards any unreceived expiry as of Go 1.23
			timer.Reset(debounce)
		case <-timer.C:
			run(ctx)
		}
	}
}
