/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/bundlecheck/internal/report"
	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/fulmenhq/bundlecheck/pkg/safeio"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [output-dir]",
	Short: "Remove browser source maps from the build output",
	Long: `Clean deletes every <output-dir>/static/**/*.js.map file so source maps
produced for checking are not deployed.

Examples:
  bundlecheck clean
  bundlecheck clean out --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().Bool("dry-run", false, "List the files that would be removed")
}

func runClean(cmd *cobra.Command, args []string) error {
	outputDir := scan.DefaultOutputDir
	if len(args) > 0 {
		outputDir = args[0]
	}
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Cleaning up sourcemaps...\n", report.Prefix)

	removed, err := cleanSourceMaps(outputDir, dryRun, func(path string) {
		if dryRun {
			fmt.Fprintf(out, "would remove %s\n", path)
		}
	})
	if err != nil {
		return err
	}
	logger.Info("Source maps cleaned",
		logger.String("output_dir", outputDir),
		logger.Int("count", removed),
		logger.Bool("dry_run", dryRun))
	return nil
}

// cleanSourceMaps removes the .js.map files under outputDir/static and returns
// how many it removed, or would remove when dryRun is set.
func cleanSourceMaps(outputDir string, dryRun bool, visit func(string)) (int, error) {
	pattern := filepath.ToSlash(filepath.Join(outputDir, "static")) + "/**/*.js" + scan.MapSuffix
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("glob %s: %w", pattern, err)
	}

	count := 0
	for _, path := range matches {
		if visit != nil {
			visit(path)
		}
		if !dryRun {
			if err := safeio.RemoveContained(outputDir, path); err != nil {
				return count, fmt.Errorf("remove %s: %w", path, err)
			}
		}
		count++
	}
	return count, nil
}
