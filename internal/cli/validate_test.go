package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidFiles(t *testing.T) {
	out, err := execute(t, NewValidateCommand(jsonOpts()),
		scenariosDir+"/counter.yaml", scenariosDir+"/strings.yaml")
	require.NoError(t, err)

	var result ValidationResult
	decodeData(t, out, &result)
	assert.True(t, result.Valid)
	assert.Len(t, result.Files, 2)
}

func TestValidate_SchemaErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "name: bad\ndescription: d\nsteps:\n  - message: explode\n")

	out, err := execute(t, NewValidateCommand(jsonOpts()), scenariosDir+"/counter.yaml", bad)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ValidationResult
	decodeData(t, out, &result)
	assert.False(t, result.Valid)
	require.Len(t, result.Files, 2)
	assert.True(t, result.Files[0].Valid)
	assert.False(t, result.Files[1].Valid)
	assert.NotEmpty(t, result.Files[1].Errors)
}

func TestValidate_CodecErrors(t *testing.T) {
	dir := t.TempDir()
	typo := writeFile(t, dir, "typo.yaml", "name: typo\ndescription: d\nsteps:\n  - message: increment\n    args: { amout: 1 }\n")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), typo)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+typo)
	assert.Contains(t, out, "steps[0]")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, NewValidateCommand(jsonOpts()), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
