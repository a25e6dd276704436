// Package main provides tests for the LeapFlow CLI.
package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapflow/internal/cli"
	"github.com/leapstack-labs/leapflow/internal/cli/output"
	"github.com/leapstack-labs/leapflow/internal/cli/testutil"
)

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if errOut.Len() > 0 {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), err
}

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "state.db")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "LeapFlow v")
}

func TestHelpCommand(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"graph", "trace", "insights", "explore", "shell", "serve", "configs", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestGraphCommand_SampleJSON(t *testing.T) {
	out, err := execute(t, "graph", "--sample", "--state", statePath(t), "-o", "json")
	require.NoError(t, err)

	var g output.GraphOutput
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, "LoanApplication", g.Object)
	assert.Equal(t, 20, g.Records)
	assert.Len(t, g.Steps, 4)
	assert.NotEmpty(t, g.Nodes)
	assert.NotEmpty(t, g.Links)
	assert.Equal(t, "AGGREGATE", g.Mode)
}

func TestGraphCommand_Project(t *testing.T) {
	dir := testutil.SetupTestProject(t)

	out, err := execute(t, "graph", "--config", filepath.Join(dir, "leapflow.yaml"), "-o", "json")
	require.NoError(t, err)

	var g output.GraphOutput
	require.NoError(t, json.Unmarshal([]byte(out), &g))
	assert.Equal(t, 3, g.Records)
	assert.Equal(t, []string{"Source", "Stage"}, g.Steps)

	var counts []int
	for _, l := range g.Links {
		counts = append(counts, l.Count)
	}
	assert.ElementsMatch(t, []int{1, 1, 1}, counts)
}

func TestGraphCommand_Markdown(t *testing.T) {
	out, err := execute(t, "graph", "--sample", "--state", statePath(t), "-o", "markdown")
	require.NoError(t, err)
	testutil.AssertNoANSI(t, out)
	testutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "Flow: LoanApplication")
}

func TestTraceRecordCommand(t *testing.T) {
	out, err := execute(t, "trace", "record", "R001", "--sample", "--state", statePath(t), "-o", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Record R001")
	assert.Contains(t, out, "Acme Corp Loan")
}

func TestTraceRecordCommand_UnknownRecord(t *testing.T) {
	_, err := execute(t, "trace", "record", "R999", "--sample", "--state", statePath(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `record "R999" not found`)
}

func TestInsightsCommand(t *testing.T) {
	out, err := execute(t, "insights", "--sample", "--state", statePath(t), "-o", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Insights: LoanApplication")
	assert.Contains(t, out, "Top paths")
}

func TestConfigsLifecycle(t *testing.T) {
	state := statePath(t)

	out, err := execute(t, "configs", "save", "pipeline", "--sample", "--state", state, "--description", "loan pipeline")
	require.NoError(t, err)
	assert.Contains(t, out, "saved pipeline")

	out, err = execute(t, "configs", "list", "--state", state, "-o", "json")
	require.NoError(t, err)
	var list []output.SavedConfigOutput
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "pipeline", list[0].Name)
	assert.Equal(t, "LoanApplication", list[0].Object)

	out, err = execute(t, "graph", "--sample", "--saved", "pipeline", "--state", state, "-o", "json")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, `"object": "LoanApplication"`))

	out, err = execute(t, "configs", "delete", "pipeline", "--state", state)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted pipeline")

	_, err = execute(t, "configs", "show", "pipeline", "--state", state)
	require.Error(t, err)
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leapflow")
}
