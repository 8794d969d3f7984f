package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/Veraticus/gradebook/internal/artifact"
	"github.com/Veraticus/gradebook/internal/common"
	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/testutil"
	"github.com/Veraticus/gradebook/internal/training"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	dir    string
	config string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	body := "database:\n  path: " + filepath.Join(dir, "runs.db") + "\n"
	require.NoError(t, os.WriteFile(config, []byte(body), 0o600))
	return env{dir: dir, config: config}
}

func (e env) execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e env) train(t *testing.T, data string, extra ...string) string {
	t.Helper()
	outDir := filepath.Join(e.dir, "model")
	args := append([]string{"train",
		"--data", data,
		"--out-dir", outDir,
		"--trees", "10",
		"--seed", "7",
		"--no-progress",
	}, extra...)
	out, err := e.execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Model trained and saved successfully")
	return outDir
}

func TestGenerateWritesCSV(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "students.csv")

	_, err := e.execute(t, "generate", "students", "--rows", "25", "--out", path)
	require.NoError(t, err)

	table, err := dataset.Load(path, dataset.DefaultLoadOptions())
	require.NoError(t, err)
	assert.Equal(t, 25, table.Len())
	assert.True(t, table.Has(dataset.ColMajor))
}

func TestGenerateToStdout(t *testing.T) {
	e := newEnv(t)

	out, err := e.execute(t, "generate", "penguins", "--rows", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], dataset.ColSpecies)
}

func TestGenerateRejectsBadRows(t *testing.T) {
	e := newEnv(t)

	_, err := e.execute(t, "generate", "students", "--rows", "0")
	require.Error(t, err)
	assert.Equal(t, 2, common.ExitCode(err))
}

func TestTrainThenPredict(t *testing.T) {
	e := newEnv(t)
	table := testutil.Penguins(t, 120, 3)
	data := testutil.WriteCSV(t, e.dir, "penguins.csv", table)

	outDir := e.train(t, data, "--card", "--details")

	assert.FileExists(t, filepath.Join(outDir, artifact.DefaultModelFile))
	assert.FileExists(t, filepath.Join(outDir, artifact.DefaultLabelsFile))
	assert.FileExists(t, filepath.Join(outDir, "model_card.yaml"))

	labels, err := artifact.LoadLabels(filepath.Join(outDir, artifact.DefaultLabelsFile))
	require.NoError(t, err)

	var row map[string]string
	for i := range table.Len() {
		candidate := table.Record(i).Map()
		complete := true
		for _, name := range testutil.PenguinPredictors {
			if dataset.IsMissing(candidate[name]) {
				complete = false
			}
		}
		if complete {
			row = candidate
			break
		}
	}
	require.NotNil(t, row)

	args := []string{"predict", "--out-dir", outDir}
	for _, name := range testutil.PenguinPredictors {
		args = append(args, "--set", name+"="+row[name])
	}
	out, err := e.execute(t, args...)
	require.NoError(t, err)
	assert.Contains(t, labels, strings.TrimSpace(out))
}

func TestTrainThenPredictStudentScore(t *testing.T) {
	e := newEnv(t)
	table := testutil.Students(t, 120, 3)
	data := testutil.WriteCSV(t, e.dir, "students.csv", table)

	outDir := filepath.Join(e.dir, "model")
	out, err := e.execute(t, "train",
		"--preset", "students",
		"--data", data,
		"--out-dir", outDir,
		"--trees", "10",
		"--seed", "7",
		"--no-progress",
		"--card",
		"--details")
	require.NoError(t, err)
	assert.Contains(t, out, "Model trained and saved successfully. R²")
	assert.Contains(t, out, "RMSE")
	assert.NotContains(t, out, "Confusion matrix")

	model, err := artifact.LoadModel(filepath.Join(outDir, artifact.DefaultModelFile))
	require.NoError(t, err)
	assert.True(t, model.Regression())
	assert.Equal(t, dataset.ColFinal, model.Target)

	row := table.Record(0).Map()
	args := []string{"predict", "--out-dir", outDir}
	for _, in := range model.Schema.Inputs {
		args = append(args, "--set", in.Name+"="+row[in.Name])
	}
	out, err = e.execute(t, args...)
	require.NoError(t, err)

	fields := strings.Fields(out)
	require.Len(t, fields, 2)
	score, err := strconv.ParseFloat(fields[0], 64)
	require.NoError(t, err)
	want := "fail"
	if score >= training.PassMark {
		want = "pass"
	}
	assert.Equal(t, want, fields[1])

	out, err = e.execute(t, append(args, "--proba")...)
	require.NoError(t, err)
	assert.Contains(t, out, dataset.ColFinal+":")
	assert.Contains(t, out, "("+want+")")

	out, err = e.execute(t, "runs", "show", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, "regress")
	assert.Contains(t, out, "RMSE")
	assert.Contains(t, out, "Feature importance")
}

func TestPredictRejectsBadAssignment(t *testing.T) {
	e := newEnv(t)

	_, err := e.execute(t, "predict", "--set", "island")
	require.Error(t, err)
	assert.True(t, common.IsConfigError(err))
}

func TestPredictMissingModel(t *testing.T) {
	e := newEnv(t)

	_, err := e.execute(t, "predict", "--out-dir", filepath.Join(e.dir, "nothing"))
	require.Error(t, err)
	assert.Equal(t, 4, common.ExitCode(err))
}

func TestTrainRejectsBadFraction(t *testing.T) {
	e := newEnv(t)
	data := testutil.WriteCSV(t, e.dir, "penguins.csv", testutil.Penguins(t, 40, 1))
	outDir := filepath.Join(e.dir, "model")

	_, err := e.execute(t, "train", "--data", data, "--out-dir", outDir, "--train-fraction", "1.5", "--no-progress")
	require.Error(t, err)
	assert.Equal(t, 2, common.ExitCode(err))
	assert.NoDirExists(t, outDir)
}

func TestTrainMissingData(t *testing.T) {
	e := newEnv(t)

	_, err := e.execute(t, "train", "--data", filepath.Join(e.dir, "missing.csv"), "--no-progress")
	require.Error(t, err)
	assert.Equal(t, 4, common.ExitCode(err))
}

func TestRunsListAfterTraining(t *testing.T) {
	e := newEnv(t)

	out, err := e.execute(t, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No training runs recorded.")

	data := testutil.WriteCSV(t, e.dir, "penguins.csv", testutil.Penguins(t, 80, 2))
	e.train(t, data)

	out, err = e.execute(t, "runs", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "No training runs recorded.")
	assert.Contains(t, out, data)

	out, err = e.execute(t, "runs", "show", "latest")
	require.NoError(t, err)
	assert.Contains(t, out, dataset.ColSpecies)
}

func TestTrainNoRecord(t *testing.T) {
	e := newEnv(t)
	data := testutil.WriteCSV(t, e.dir, "penguins.csv", testutil.Penguins(t, 60, 4))
	e.train(t, data, "--no-record")

	out, err := e.execute(t, "runs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No training runs recorded.")
}

func TestAnalyzeFallsBackToGeneratedData(t *testing.T) {
	e := newEnv(t)

	out, err := e.execute(t, "analyze", "--data", filepath.Join(e.dir, "missing.csv"))
	require.NoError(t, err)
	assert.Contains(t, out, "generated sample data")
	assert.Contains(t, out, "Gender ratio by major")
}

func TestAnalyzeWritesCharts(t *testing.T) {
	e := newEnv(t)
	data := testutil.WriteCSV(t, e.dir, "students.csv", testutil.Students(t, 60, 5))
	charts := filepath.Join(e.dir, "charts")

	out, err := e.execute(t, "analyze", "--data", data, "--charts", charts)
	require.NoError(t, err)
	assert.Contains(t, out, "Chart saved to")
	assert.FileExists(t, filepath.Join(charts, "gender_ratio.png"))
}

func TestMigrateStatus(t *testing.T) {
	e := newEnv(t)

	out, err := e.execute(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Current version: 0")
	assert.Contains(t, out, "migration(s) pending")

	_, err = e.execute(t, "migrate")
	require.NoError(t, err)

	out, err = e.execute(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date")
}

func TestParseAssignments(t *testing.T) {
	values, err := parseAssignments([]string{"island=Biscoe", " sex = MALE ", "note="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"island": "Biscoe", "sex": "MALE", "note": ""}, values)

	_, err = parseAssignments([]string{"=x"})
	assert.True(t, common.IsConfigError(err))
}
