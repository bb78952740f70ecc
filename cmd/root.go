/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/fulmenhq/bundlecheck/pkg/buildinfo"
	"github.com/fulmenhq/bundlecheck/pkg/config"
	"github.com/fulmenhq/bundlecheck/pkg/exitcode"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// Tests use it to build isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundlecheck",
		Short: "Find dependencies that ship post-ES5 syntax in production bundles",
		Long: `bundlecheck parses the JavaScript a production build emitted, traces every
syntax error back through the build's source maps and names the node_modules
packages responsible, so they can be added to the transpile allowlist.

Examples:
   bundlecheck check                 # Check .next/static/**/*.js
   bundlecheck check out -v          # Check another output dir with details
   bundlecheck check --format json   # Machine-readable report
   bundlecheck clean                 # Remove source maps after checking
   bundlecheck watch                 # Re-check whenever bundles change
   bundlecheck init                  # Write .bundlecheck.yaml`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeLogger(cmd)
		},
		// Results are reported by the commands themselves
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("log-file", "", "Write logs to a rotated file instead of stderr (bare names go to ~/.bundlecheck/logs)")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("bundlecheck {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(checkCmd)
	cmd.AddCommand(cleanCmd)
	cmd.AddCommand(watchCmd)
	cmd.AddCommand(initCmd)
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the root command and maps its outcome to a process exit code.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	code := exitCodeFor(err)
	// os.Exit skips deferred calls
	_ = logger.Close()
	os.Exit(code)
}

// exitCodeFor logs unexpected errors and returns the process status.
// Remediation and fatal trace outcomes have already been reported.
func exitCodeFor(err error) int {
	if err == nil {
		return exitcode.Success
	}
	var fatal *scan.FatalTraceError
	switch {
	case errors.Is(err, scan.ErrRemediationNeeded), errors.As(err, &fatal):
		return exitcode.RemediationNeeded
	case errors.Is(err, errConfig):
		logger.Error("Invalid configuration", logger.Err(err))
		return exitcode.ConfigError
	default:
		logger.Error("Command execution failed", logger.Err(err))
		return exitcode.GeneralError
	}
}

// errConfig marks configuration failures.
var errConfig = errors.New("configuration error")

func parseLevel(s string) logger.Level {
	switch strings.ToLower(s) {
	case "trace":
		return logger.TraceLevel
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) error {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	logFile, _ := cmd.Flags().GetString("log-file")

	logCfg := logger.Config{
		Level:     parseLevel(logLevelStr),
		UseColor:  !noColor && os.Getenv("NO_COLOR") == "",
		JSON:      jsonLogs,
		Component: "bundlecheck",
	}
	if logFile != "" && filepath.Base(logFile) == logFile {
		logDir, err := config.GetLogDir()
		if err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}
		logFile = filepath.Join(logDir, logFile)
	}
	if logFile != "" {
		logCfg.File = &logger.FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
	}

	if err := logger.Initialize(logCfg); err != nil {
		return fmt.Errorf("%w: failed to initialize logger: %v", errConfig, err)
	}
	return nil
}
