package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-configspace/internal/domain"
)

var tuningStudy = filepath.Join("..", "..", "internal", "application", "testdata", "tuning.yaml")

// execute runs the CLI with args and returns what it wrote to stdout and
// stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeStudy(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "study.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

const budgetedStudy = `
version: "1.0.0"
name: budgeted
seed: 7
hyperparameters:
  - {name: x, type: numerical, lower: -5.0, upper: 5.0}
objective_space:
  hyperparameters:
    - {name: loss, type: numerical, lower: -1000.0, upper: 1000.0}
  objectives:
    - {expression: {var: loss}, type: minimize}
tuner:
  type: random
  name: capped
  budget: {max_configurations: 3}
`

func TestValidateCommand(t *testing.T) {
	out, _, err := execute(t, "validate", tuningStudy)
	require.NoError(t, err)

	var summaries []studySummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, studySummary{
		File:             tuningStudy,
		Name:             "tuning",
		Version:          "1.0.0",
		Hyperparameters:  5,
		Conditions:       1,
		ForbiddenClauses: 1,
		Objectives:       2,
		Tuner:            "random/baseline",
	}, summaries[0])
}

func TestValidateCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no files", args: []string{"validate"}},
		{name: "missing file", args: []string{"validate", filepath.Join(t.TempDir(), "absent.yaml")}},
		{name: "invalid declaration", args: []string{"validate", writeStudy(t, "version: 1.0.0\nname: broken\n")}},
		{name: "unknown log environment", args: []string{"--log-env", "staging", "validate", tuningStudy}},
		{name: "unknown log level", args: []string{"--log-level", "loud", "validate", tuningStudy}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestDefaultCommand(t *testing.T) {
	out, _, err := execute(t, "default", tuningStudy)
	require.NoError(t, err)

	var config map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &config))
	assert.Equal(t, map[string]any{
		"lr":     0.01,
		"algo":   "adam",
		"layers": 2,
		"batch":  32,
	}, config, "momentum is inactive under adam")
}

func TestSampleCommand(t *testing.T) {
	t.Run("structural", func(t *testing.T) {
		out, _, err := execute(t, "sample", tuningStudy, "-n", "4")
		require.NoError(t, err)

		var configs []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &configs))
		assert.Len(t, configs, 4)
	})

	t.Run("valid", func(t *testing.T) {
		out, _, err := execute(t, "sample", tuningStudy, "-n", "8", "--valid")
		require.NoError(t, err)

		var configs []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &configs))
		require.Len(t, configs, 8)
		for _, c := range configs {
			_, hasMomentum := c["momentum"]
			assert.Equal(t, c["algo"] == "sgd", hasMomentum, "momentum is active exactly under sgd: %v", c)
			assert.False(t, c["layers"] == 8 && c["batch"] == 128, "forbidden clause holds: %v", c)
		}
	})

	t.Run("seeded output is reproducible", func(t *testing.T) {
		first, _, err := execute(t, "sample", tuningStudy, "-n", "3")
		require.NoError(t, err)
		second, _, err := execute(t, "sample", tuningStudy, "-n", "3")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("negative count", func(t *testing.T) {
		_, _, err := execute(t, "sample", tuningStudy, "-n", "-1")
		assert.ErrorIs(t, err, domain.ErrInvalidValue)
	})
}

func TestTuneCommand(t *testing.T) {
	out, _, err := execute(t, "tune", tuningStudy, "--iterations", "12", "--batch", "3")
	require.NoError(t, err)

	var report struct {
		Tuner       string `yaml:"tuner"`
		Asked       int    `yaml:"asked"`
		Told        int    `yaml:"told"`
		Stopped     string `yaml:"stopped"`
		HistorySize int    `yaml:"history_size"`
		Optimums    []struct {
			Configuration map[string]any `yaml:"configuration"`
			Measurements  map[string]any `yaml:"measurements"`
			Objectives    []float64      `yaml:"objectives"`
			Result        string         `yaml:"result"`
		} `yaml:"optimums"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))

	assert.Equal(t, "random/baseline", report.Tuner)
	assert.Equal(t, 12, report.Asked)
	assert.Equal(t, 12, report.Told)
	assert.Empty(t, report.Stopped)
	assert.Equal(t, 12, report.HistorySize)
	require.NotEmpty(t, report.Optimums)
	for _, o := range report.Optimums {
		assert.Equal(t, "success", o.Result)
		assert.Len(t, o.Objectives, 2)
		assert.Contains(t, o.Measurements, "time")
		assert.Contains(t, o.Configuration, "lr")
	}
}

func TestTuneCommand_StopsAtBudget(t *testing.T) {
	out, _, err := execute(t, "tune-random", writeStudy(t, budgetedStudy), "--iterations", "10")
	require.NoError(t, err)

	var report tuneReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Asked)
	assert.Equal(t, 3, report.Told)
	assert.Contains(t, report.Stopped, "budget exceeded")
	assert.Len(t, report.Optimums, 1, "a single minimized objective has one optimum")
}

func TestTuneCommand_Trace(t *testing.T) {
	_, errOut, err := execute(t, "--trace", "tune", writeStudy(t, budgetedStudy), "--iterations", "2")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Tuner.Ask")
	assert.Contains(t, errOut, "Tuner.Tell")
	assert.Contains(t, errOut, "Tuner.Close")
}

func TestTuneCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "empty batch", args: []string{"--batch", "0"}},
		{name: "negative iterations", args: []string{"--iterations", "-1"}},
		{name: "batch above burst", args: []string{"--batch", "11"}, wantErr: "batch 11 exceeds rate limit burst 10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"tune", tuningStudy}, tt.args...)...)
			assert.ErrorIs(t, err, domain.ErrInvalidValue)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestTuneCommand_BatchAtBurst(t *testing.T) {
	out, _, err := execute(t, "tune", tuningStudy, "--iterations", "10", "--batch", "10")
	require.NoError(t, err)

	var report tuneReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 10, report.Asked)
}
