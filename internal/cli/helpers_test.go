package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func init() {
	// Assertions match on plain marks.
	color.NoColor = true
}

const (
	umlNotation        = "../notation/testdata/uml.yaml"
	statechartNotation = "../notation/testdata/statechart"
	invalidNotation    = "../notation/testdata/invalid.yaml"
	scenariosDir       = "../harness/testdata/scenarios"
	scenarioGoldenDir  = "../harness/testdata/golden"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// workspaceFlags points commands at a fresh database and the UML notation.
func workspaceFlags(t *testing.T) []string {
	t.Helper()
	return []string{"--db", filepath.Join(t.TempDir(), "test.db"), "--notation", umlNotation}
}

// runner binds execute to a set of global flags.
func runner(t *testing.T, flags []string) func(args ...string) (string, error) {
	return func(args ...string) (string, error) {
		t.Helper()
		return execute(t, append(args, flags...)...)
	}
}

type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// decodeResponse decodes a JSON response and its data payload into data.
func decodeResponse(t *testing.T, out string, data any) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}
