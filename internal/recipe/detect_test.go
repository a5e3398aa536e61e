package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// TestDetect_BareContext verifies candidate ordering and filtering against
// the pyapp-bare fixture: main.py is preferred, script.py follows, and
// underscore-prefixed helpers are skipped entirely.
func TestDetect_BareContext(t *testing.T) {
	det, err := Detect(testdataPath(t, "pyapp-bare"))
	require.NoError(t, err)

	assert.Equal(t, []string{"main.py", "script.py"}, det.EntryCandidates)
	assert.True(t, det.HasRequirements)

	require.NotNil(t, det.Recipe)
	assert.Equal(t, "pyapp-bare", det.Recipe.Name)
	assert.Equal(t, "main.py", det.Recipe.DefaultEntry)
	assert.Equal(t, model.VariantSlim, det.Recipe.Variant)
}

// TestDetect_NoPythonFiles verifies the proposal for a context with no
// entry candidates at all.
func TestDetect_NoPythonFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "README.md"), []byte("docs\n"), 0o644))

	det, err := Detect(dir)
	require.NoError(t, err)

	assert.Empty(t, det.EntryCandidates)
	assert.False(t, det.HasRequirements)
	assert.Empty(t, det.Recipe.DefaultEntry)
}

// TestDetect_SkipsTestFiles verifies that test_*.py files are not offered
// as entry candidates.
func TestDetect_SkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"test_core.py", "core.py"} {
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, name), []byte("pass\n"), 0o644))
	}

	det, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"core.py"}, det.EntryCandidates)
}

// TestProposeName verifies directory name normalization.
func TestProposeName(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		want string
	}{
		{
			name: "clean name passes through",
			dir:  "thermosys",
			want: "thermosys",
		},
		{
			name: "uppercase and dots normalized",
			dir:  "My.App",
			want: "my-app",
		},
		{
			name: "leading punctuation trimmed",
			dir:  "-hidden-",
			want: "hidden",
		},
		{
			name: "nothing usable falls back",
			dir:  "...",
			want: "app",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := t.TempDir()
			dir := filepath.Join(base, tt.dir)
			require.NoError(t, os.MkdirAll(dir, 0o755))
			assert.Equal(t, tt.want, proposeName(dir))
		})
	}
}

// TestWriteStarter verifies the generated starter recipe and the
// refuse-to-overwrite guard.
func TestWriteStarter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "main.py"), []byte("print('hi')\n"), 0o644))

	det, err := Detect(dir)
	require.NoError(t, err)

	path, err := WriteStarter(det, dir)
	require.NoError(t, err)
	assert.Equal(t, "pycrate.yaml", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// No requirements.txt in this context, so the starter carries the
	// reminder comment.
	assert.Contains(t, string(data), "no requirements.txt found")

	// The written starter must load cleanly.
	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main.py", r.DefaultEntry)

	// A second init must refuse to clobber the recipe.
	_, err = WriteStarter(det, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
