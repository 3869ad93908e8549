package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../harness/testdata/scenarios"

// execute runs cmd with args and returns stdout. Logs go to a separate
// buffer so JSON output stays parseable.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData unmarshals the data of a JSON CLIResponse into v.
func decodeData(t *testing.T, out string, v any) CLIResponse {
	t.Helper()
	var resp struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	if v != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
	return resp.CLIResponse
}

func jsonOpts() *RootOptions {
	return &RootOptions{Format: "json"}
}

// recordScenario runs a scenario file into db and returns the run output.
func recordScenario(t *testing.T, db, scenario string, extra ...string) RunOutput {
	t.Helper()
	args := append([]string{"--db", db}, extra...)
	args = append(args, scenario)

	out, err := execute(t, NewRunCommand(jsonOpts()), args...)
	require.NoError(t, err, "output: %s", out)

	var run RunOutput
	decodeData(t, out, &run)
	return run
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func copyScenario(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(scenariosDir, name))
	require.NoError(t, err)
	return writeFile(t, dir, name, string(data))
}
