package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fulmenhq/bundlecheck/pkg/config"
	"github.com/fulmenhq/bundlecheck/pkg/ignore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesProjectConfig(t *testing.T) {
	project := isolateHome(t)

	_, _, err := executeCommand(t, "init", "--output-dir", "out")
	require.NoError(t, err)

	cfg, err := config.LoadProjectConfig(project)
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []string{"webpack://_N_E/"}, cfg.SourcePrefixes)
	assert.NoFileExists(t, filepath.Join(project, ignore.FileName))
}

func TestInit_RefusesOverwrite(t *testing.T) {
	project := isolateHome(t)
	writeTestFile(t, filepath.Join(project, projectConfigFile), "output_dir: keep\n")

	_, _, err := executeCommand(t, "init")
	require.Error(t, err)
	data, _ := os.ReadFile(filepath.Join(project, projectConfigFile))
	assert.Equal(t, "output_dir: keep\n", string(data))

	_, _, err = executeCommand(t, "init", "--force")
	require.NoError(t, err)
	data, _ = os.ReadFile(filepath.Join(project, projectConfigFile))
	assert.Contains(t, string(data), "output_dir:")
	assert.NotContains(t, string(data), "keep")
}

func TestInit_RefusesAlternateConfig(t *testing.T) {
	project := isolateHome(t)
	writeTestFile(t, filepath.Join(project, ".bundlecheck.json"), `{"output_dir": "out"}`)

	_, _, err := executeCommand(t, "init")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(project, projectConfigFile))
}

func TestInit_IgnoreFileAndDryRun(t *testing.T) {
	project := isolateHome(t)

	out, _, err := executeCommand(t, "init", "--ignore-file", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "--- "+projectConfigFile)
	assert.Contains(t, out, "--- "+ignore.FileName)
	assert.NoFileExists(t, filepath.Join(project, projectConfigFile))

	_, _, err = executeCommand(t, "init", "--ignore-file")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(project, ignore.FileName))
	m, err := ignore.NewMatcher(project)
	require.NoError(t, err)
	assert.True(t, m.IsIgnored(filepath.Join(project, ".next", "static", "chunks", "polyfills-123.js")))
}
