package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: %s
description: append three and check
steps:
  - op: append
    id: a
  - op: append
    id: b
  - op: insert
    id: c
    position: 1
assertions:
  - type: order_ids
    ids: [a, c, b]
  - type: check_order
    ok: true
`

const failingScenario = `name: broken
description: wrong expected order
steps:
  - op: append
    id: a
  - op: append
    id: b
assertions:
  - type: order_ids
    ids: [b, a]
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	return writeFile(t, dir, name+".yaml", content)
}

func runTestCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := runTestCmd(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := runTestCmd(t, "text", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCmd(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCmd(t, "json", t.TempDir())
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandInvalidParallel(t *testing.T) {
	_, err := runTestCmd(t, "text", t.TempDir(), "--parallel", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandPassingScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one", "two", "three"} {
		writeScenario(t, dir, name, fmtScenario(name))
	}

	out, err := runTestCmd(t, "text", dir, "--parallel", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ one")
	assert.Contains(t, out, "✓ three")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "ok", fmtScenario("ok"))
	writeScenario(t, dir, "broken", failingScenario)

	out, err := runTestCmd(t, "json", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)

	// Results keep file order.
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "broken", resp.Data.Scenarios[0].Name)
	assert.False(t, resp.Data.Scenarios[0].Pass)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "keep-me", fmtScenario("keep-me"))
	writeScenario(t, dir, "broken", failingScenario)

	out, err := runTestCmd(t, "text", dir, "--filter", "keep-*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad", "name: bad\nsteps:\n  - op: explode\n")

	out, err := runTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ bad.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "golden", fmtScenario("golden"))
	goldenPath := filepath.Join(dir, "golden", "golden.golden")

	out, err := runTestCmd(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ golden (golden updated)")
	require.FileExists(t, goldenPath)

	out, err = runTestCmd(t, "json", dir)
	require.NoError(t, err)
	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "match", resp.Data.Scenarios[0].Golden)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}"), 0644))
	out, err = runTestCmd(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestTestCommandRepositoryScenarios(t *testing.T) {
	dir := filepath.Join("..", "harness", "testdata")

	out, err := runTestCmd(t, "text", dir)
	require.NoError(t, err, "output: %s", out)
	assert.Contains(t, out, "✓ All scenarios passed")
}

func fmtScenario(name string) string {
	return fmt.Sprintf(passingScenario, name)
}
