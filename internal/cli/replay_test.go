package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tea/internal/store"
)

func tamper(t *testing.T, db, query string, args ...any) {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.DB().Exec(query, args...)
	require.NoError(t, err)
}

func TestReplay_ReproducesRecordedRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tea.db")
	first := recordScenario(t, db, scenariosDir+"/counter.yaml")
	second := recordScenario(t, db, scenariosDir+"/strings.yaml", "--workers", "2")

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db)
	require.NoError(t, err, "output: %s", out)

	var result ReplayOutput
	decodeData(t, out, &result)
	assert.True(t, result.AllMatch)
	assert.Equal(t, 2, result.Total)

	byRun := map[string]ReplayRun{}
	for _, r := range result.Runs {
		byRun[r.Run] = r
	}
	assert.Equal(t, 5, byRun[first.Run].Messages)
	assert.JSONEq(t, `{"number":4,"strings":null}`, string(byRun[first.Run].State))
	assert.Equal(t, 5, byRun[second.Run].Messages)
	assert.True(t, byRun[second.Run].Match)
}

func TestReplay_SingleProgram(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tea.db")
	recordScenario(t, db, scenariosDir+"/counter.yaml")
	run := recordScenario(t, db, scenariosDir+"/mixed.yaml")

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db, "--program", run.Run)
	require.NoError(t, err)

	var result ReplayOutput
	decodeData(t, out, &result)
	require.Len(t, result.Runs, 1)
	assert.Equal(t, run.Run, result.Runs[0].Run)
}

func TestReplay_DetectsDivergence(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tea.db")
	run := recordScenario(t, db, scenariosDir+"/counter.yaml")

	tamper(t, db, `UPDATE messages SET payload = '{"factor":5}' WHERE run_id = ? AND seq = 3`, run.Run)

	out, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ReplayOutput
	decodeData(t, out, &result)
	assert.False(t, result.AllMatch)
	assert.False(t, result.Runs[0].Match)
	assert.NotEqual(t, result.Runs[0].Expected, result.Runs[0].Actual)
}

func TestReplay_DetectsGap(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tea.db")
	run := recordScenario(t, db, scenariosDir+"/counter.yaml")

	tamper(t, db, `DELETE FROM messages WHERE run_id = ? AND seq = 2`, run.Run)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "journal has a gap")
	assert.Contains(t, out, "0/1 runs reproduced")
}

func TestReplay_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tea.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestReplay_MissingDatabase(t *testing.T) {
	_, err := execute(t, NewReplayCommand(jsonOpts()), "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_UnknownProgram(t *testing.T) {
	db := filepath.Join(t.TempDir(), "tea.db")
	recordScenario(t, db, scenariosDir+"/counter.yaml")

	_, err := execute(t, NewReplayCommand(jsonOpts()), "--db", db, "--program", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
