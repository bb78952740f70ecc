/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/bundlecheck/pkg/config"
	"github.com/fulmenhq/bundlecheck/pkg/ignore"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/fulmenhq/bundlecheck/pkg/safeio"
	"github.com/spf13/cobra"
)

const projectConfigFile = ".bundlecheck.yaml"

const ignoreTemplate = `# Bundles bundlecheck should never parse (gitignore syntax).
# Paths are relative to the project root.

# Framework polyfills are shipped untranspiled on purpose
**/polyfills-*.js
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter .bundlecheck.yaml",
	Long: `Init writes a project configuration with the default settings so they can
be reviewed and committed. With --ignore-file it also writes a starter
.bundlecheckignore.

Examples:
  bundlecheck init
  bundlecheck init --output-dir out
  bundlecheck init --ignore-file --force
  bundlecheck init --dry-run`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var (
	initForce      bool
	initDryRun     bool
	initIgnoreFile bool
	initOutputDir  string
)

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
	initCmd.Flags().BoolVar(&initDryRun, "dry-run", false, "Print the files instead of writing them")
	initCmd.Flags().BoolVar(&initIgnoreFile, "ignore-file", false, "Also write "+ignore.FileName)
	initCmd.Flags().StringVar(&initOutputDir, "output-dir", "", "Build output directory to record")
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()
	if initOutputDir != "" {
		cfg.OutputDir = initOutputDir
	}
	body, err := cfg.MarshalProjectYAML()
	if err != nil {
		return fmt.Errorf("render %s: %w", projectConfigFile, err)
	}
	if err := config.ValidateProjectConfig(body); err != nil {
		return fmt.Errorf("generated config is invalid: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{{projectConfigFile, body}}
	if initIgnoreFile {
		files = append(files, struct {
			name string
			data []byte
		}{ignore.FileName, []byte(ignoreTemplate)})
	}

	out := cmd.OutOrStdout()
	for _, f := range files {
		if initDryRun {
			fmt.Fprintf(out, "--- %s\n%s", f.name, f.data)
			continue
		}
		if err := writeInitFile(f.name, f.data, initForce); err != nil {
			return err
		}
		logger.Info("Created "+f.name, logger.String("path", f.name))
	}
	return nil
}

func writeInitFile(name string, data []byte, force bool) error {
	if _, err := os.Stat(name); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", name)
	}
	if existing := config.FindProjectConfig(filepath.Dir(name)); name == projectConfigFile && existing != "" && existing != name && !force {
		return fmt.Errorf("project config %s already exists (use --force to write %s anyway)", existing, name)
	}
	if err := safeio.WriteFilePreservePerms(name, data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
