package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runValidateCmd(t *testing.T, format string, verbose bool, args ...string) (string, string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format, Verbose: verbose}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), errBuf.String(), err
}

func TestValidateValidConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latchlist.cue", "list: \"todo\"\nstep: 10\n")

	out, _, err := runValidateCmd(t, "text", false, path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Config valid")
	assert.Contains(t, out, "list:      todo")
	assert.Contains(t, out, "step:      10")
	assert.Contains(t, out, "precision: 8")
}

func TestValidateValidConfigJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latchlist.cue", `
dynamo: {
	table: "lists"
	region: "eu-west-1"
}
`)

	out, _, err := runValidateCmd(t, "json", false, path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Config)
	assert.Equal(t, "default", resp.Data.Config.List)
	require.NotNil(t, resp.Data.Config.Dynamo)
	assert.Equal(t, "lists", resp.Data.Config.Dynamo.Table)
}

func TestValidateNonExistentFile(t *testing.T) {
	_, _, err := runValidateCmd(t, "text", false, "/nonexistent/latchlist.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "config not found")
}

func TestValidateInvalidConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latchlist.cue", "list: \"todo\"\nprecision: 20\n")

	out, _, err := runValidateCmd(t, "text", false, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, ErrCodeInvalidConfig)
}

func TestValidateInvalidConfigJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latchlist.cue", "step: 0\n")

	out, _, err := runValidateCmd(t, "json", false, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidConfig, resp.Error.Code)
}

func TestValidateSyntaxErrorReportsLine(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latchlist.cue", "list: \"todo\"\nstep: {\n")

	out, _, err := runValidateCmd(t, "text", false, path)
	require.Error(t, err)
	assert.Contains(t, out, "line ")
}

func TestValidateVerboseOutput(t *testing.T) {
	path := writeFile(t, t.TempDir(), "latchlist.cue", "list: \"todo\"\n")

	out, errOut, err := runValidateCmd(t, "json", true, path)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Validating")
	assert.NotContains(t, out, "Validating")
}
