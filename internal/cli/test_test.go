package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommandPasses(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", scenarioGoldenDir)
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ basic_edit")
	assert.Contains(t, out, "✓ rejected_ops")
	assert.Contains(t, out, "✓ statechart_cascade")
	assert.Contains(t, out, "Test Summary: 3 passed, 0 failed, 3 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", scenarioGoldenDir, "--filter", "statechart_*")
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ statechart_cascade")
	assert.NotContains(t, out, "basic_edit")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandJSON(t *testing.T) {
	out, err := execute(t, "test", scenariosDir, "--golden", scenarioGoldenDir, "--format", "json")
	require.NoError(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Passed)
	require.Len(t, result.Scenarios, 3)
	for _, s := range result.Scenarios {
		assert.True(t, s.Pass, s.Name)
	}
}

func TestTestCommandUpdate(t *testing.T) {
	golden := filepath.Join(t.TempDir(), "golden")

	out, err := execute(t, "test", scenariosDir, "--golden", golden, "--update", "--filter", "basic_*")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ basic_edit (golden updated)")

	written, err := os.ReadFile(filepath.Join(golden, "basic_edit.golden"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join(scenarioGoldenDir, "basic_edit.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(written))

	// A second run compares against the regenerated file.
	_, err = execute(t, "test", scenariosDir, "--golden", golden, "--filter", "basic_*")
	require.NoError(t, err)
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	golden := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(golden, "basic_edit.golden"), []byte("{}"), 0644))

	out, err := execute(t, "test", scenariosDir, "--golden", golden, "--filter", "basic_*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ basic_edit")
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFailingScenario(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/broken")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 scenario(s) failed")

	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "expected name Class9, got Class1")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	out, err := execute(t, "test", "../harness/testdata/broken", "--format", "json")
	require.Error(t, err)

	var result TestResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, result.Failed)
}

func TestTestCommandMissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml", "notes.txt", "golden/a.yaml", "nested/c.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.yml"),
		filepath.Join(dir, "nested", "c.yaml"),
	}, files)

	files, err = findScenarioFiles(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}
