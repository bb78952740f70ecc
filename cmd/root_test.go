package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/bundlecheck/internal/scan"
	"github.com/fulmenhq/bundlecheck/pkg/exitcode"
	"github.com/fulmenhq/bundlecheck/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs a fresh command tree and returns stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	registerSubcommands(cmd)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	// Reduce log noise in captured output
	cmd.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// resetFlags restores defaults on package-level subcommands shared across tests.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

// isolateHome points user-level config lookups at a temp dir and enters a
// fresh project dir.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("BUNDLECHECK_HOME", filepath.Join(home, ".bundlecheck"))
	project := t.TempDir()
	t.Chdir(project)
	return project
}

func newLoggerCmd(level string, json, noColor bool, logFile string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("log-level", level, "")
	cmd.Flags().Bool("json", json, "")
	cmd.Flags().Bool("no-color", noColor, "")
	cmd.Flags().String("log-file", logFile, "")
	return cmd
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		json    bool
		noColor bool
	}{
		{"default", "info", false, false},
		{"debug", "debug", false, false},
		{"invalid level falls back to info", "invalid", false, false},
		{"json", "info", true, false},
		{"no color", "info", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := initializeLogger(newLoggerCmd(tt.level, tt.json, tt.noColor, "")); err != nil {
				t.Fatalf("initializeLogger() error = %v", err)
			}
		})
	}
	logger.SetOutput(os.Stderr)
}

func TestInitializeLogger_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bundlecheck.log")
	if err := initializeLogger(newLoggerCmd("info", true, false, path)); err != nil {
		t.Fatalf("initializeLogger() error = %v", err)
	}
	logger.Info("written to file")
	t.Cleanup(func() {
		if err := logger.Close(); err != nil {
			t.Errorf("logger.Close() error = %v", err)
		}
		_ = initializeLogger(newLoggerCmd("error", false, true, ""))
	})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestInitializeLogger_BareLogFileUsesLogDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BUNDLECHECK_HOME", home)
	if err := initializeLogger(newLoggerCmd("info", false, true, "run.log")); err != nil {
		t.Fatalf("initializeLogger() error = %v", err)
	}
	logger.Info("bare name")
	t.Cleanup(func() {
		if err := logger.Close(); err != nil {
			t.Errorf("logger.Close() error = %v", err)
		}
		_ = initializeLogger(newLoggerCmd("error", false, true, ""))
	})

	if _, err := os.Stat(filepath.Join(home, "logs", "run.log")); err != nil {
		t.Errorf("expected log under home logs dir: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logger.Level{
		"trace": logger.TraceLevel,
		"DEBUG": logger.DebugLevel,
		"warn":  logger.WarnLevel,
		"error": logger.ErrorLevel,
		"":      logger.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitcode.Success},
		{"remediation", scan.ErrRemediationNeeded, exitcode.RemediationNeeded},
		{"fatal trace", &scan.FatalTraceError{Err: errors.New("missing map")}, exitcode.RemediationNeeded},
		{"config", fmt.Errorf("%w: bad key", errConfig), exitcode.ConfigError},
		{"other", errors.New("boom"), exitcode.GeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRootCmd_Help(t *testing.T) {
	out, _, err := executeCommand(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out, "bundlecheck") {
		t.Error("Help output should contain 'bundlecheck'")
	}
	for _, sub := range []string{"check", "clean", "watch", "init", "version"} {
		if !strings.Contains(out, sub) {
			t.Errorf("Help output should list %q", sub)
		}
	}
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out, _, err := executeCommand(t, "--version")
	if err != nil {
		t.Errorf("Version flag failed: %v", err)
	}
	if !strings.HasPrefix(out, "bundlecheck ") {
		t.Errorf("Version output should start with 'bundlecheck', got %q", out)
	}
}

func TestRootCmd_InvalidFlag(t *testing.T) {
	if _, _, err := executeCommand(t, "--invalid-flag"); err == nil {
		t.Error("Invalid flag should return an error")
	}
}
