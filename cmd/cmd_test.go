package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	cfgPath, dataPath, exportDir = "", "", ""
	runMode, runObjective = "", "cost_minimization"
	compareObjective, compareAll, compareJobs = "cost_minimization", false, ""
	genOut, genSeed, genPeriods = "data.csv", 0, 0
}

// execute runs the root command with args on freshly reset flag values.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`logging:
  level: error
  backend: memory
datagen:
  periods: 4
`), 0o644))
	return path
}

func TestModesAndObjectives(t *testing.T) {
	out, err := execute(t, "", "modes")
	require.NoError(t, err)
	assert.Contains(t, out, "storage_only")
	assert.Contains(t, out, "resources: battery")

	out, err = execute(t, "", "objectives")
	require.NoError(t, err)
	assert.Contains(t, out, "ancillary weight 2")
	assert.Contains(t, out, "min profit ratio 0.8")
}

func TestGenerateThenRun(t *testing.T) {
	cfg := writeConfig(t)
	dir := t.TempDir()
	data := filepath.Join(dir, "data.csv")

	out, err := execute(t, "", "generate", "-c", cfg, "--out", data, "--periods", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 6 periods")

	exp := filepath.Join(dir, "export")
	out, err = execute(t, "", "run", "-c", cfg, "--mode", "storage_only", "--data", data, "--export", exp)
	require.NoError(t, err)
	assert.Contains(t, out, "storage_only / cost_minimization")
	assert.FileExists(t, filepath.Join(exp, "storage_only_cost_minimization.csv"))
	assert.FileExists(t, filepath.Join(exp, "summary.yaml"))
}

func TestRunPromptsForMode(t *testing.T) {
	out, err := execute(t, "5\n", "run", "-c", writeConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Select a mode:")
	assert.Contains(t, out, "storage_only / cost_minimization")
}

func TestRunRejectsUnknownInput(t *testing.T) {
	_, err := execute(t, "", "run", "-c", writeConfig(t), "--mode", "nuclear")
	assert.ErrorContains(t, err, "unknown scheduling mode")

	_, err = execute(t, "", "run", "-c", writeConfig(t), "--mode", "traditional", "--objective", "fame")
	assert.ErrorContains(t, err, "unknown optimization objective")

	_, err = execute(t, "42\n", "run", "-c", writeConfig(t))
	assert.ErrorContains(t, err, "no mode numbered 42")
}

func TestExecuteResetsFlagsBetweenCalls(t *testing.T) {
	_, err := execute(t, "", "run", "-c", writeConfig(t), "--mode", "traditional", "--objective", "fame")
	require.Error(t, err)

	out, err := execute(t, "", "run", "-c", writeConfig(t), "--mode", "traditional")
	require.NoError(t, err)
	assert.Contains(t, out, "traditional / cost_minimization")
}

func TestCompareJobFile(t *testing.T) {
	jobs := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(jobs, []byte(`jobs:
  - name: cheap
    mode: storage_only
    objective: cost_minimization
  - name: broken
    mode: storage_only
    objective: cost_minimization
    catalogue:
      energy_resources:
        battery_storage:
          energy_capacity_mwh: 0
`), 0o644))
	out, err := execute(t, "", "compare", "-c", writeConfig(t), "--jobs", jobs)
	require.NoError(t, err)
	assert.Contains(t, out, "failed [configuration]")
	assert.Contains(t, out, "best: storage_only / cost_minimization")
}
