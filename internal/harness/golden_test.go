package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Scenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		s, err := LoadScenario(file)
		require.NoError(t, err)

		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithGolden_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/strings.yaml")
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := MarshalGolden(s.Name, first)
	require.NoError(t, err)
	b, err := MarshalGolden(s.Name, second)
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.NotEqual(t, first.Program, second.Program)
}

func TestMarshalGolden_EmptyStrings(t *testing.T) {
	data, err := MarshalGolden("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"final":{"number":0,"strings":[]},"scenario":"empty","trace":[]}`, string(data))
}
