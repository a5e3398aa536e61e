package docker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

func testRecipe() *model.Recipe {
	r := &model.Recipe{
		Name:         "thermosys",
		DefaultEntry: "cogeneration.py",
	}
	r.ApplyDefaults()
	return r
}

// TestBuildLabels verifies the label map built from a recipe.
func TestBuildLabels(t *testing.T) {
	createdAt := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	labels := BuildLabels(testRecipe(), createdAt)

	assert.Equal(t, "pycrate", labels[LabelManagedBy])
	assert.Equal(t, "thermosys", labels[LabelRecipe])
	assert.Equal(t, "slim", labels[LabelVariant])
	assert.Equal(t, "shell-cmd", labels[LabelEntrypointForm])
	assert.Equal(t, "FILE_NAME", labels[LabelEntryVar])
	assert.Equal(t, "/usr/app", labels[LabelAppDir])
	assert.Equal(t, "admin", labels[LabelUser])
	assert.Equal(t, "cogeneration.py", labels[LabelDefaultEntry])
	assert.Equal(t, "2026-08-27T10:00:00Z", labels[LabelCreatedAt])
}

// TestBuildLabels_NoDefaultEntry verifies the default-entry label is
// omitted rather than stored empty.
func TestBuildLabels_NoDefaultEntry(t *testing.T) {
	r := testRecipe()
	r.DefaultEntry = ""

	labels := BuildLabels(r, time.Now())
	_, present := labels[LabelDefaultEntry]
	assert.False(t, present)
}

// TestParseLabels_RoundTrip verifies that BuildLabels output parses back
// into equivalent metadata.
func TestParseLabels_RoundTrip(t *testing.T) {
	r := testRecipe()
	createdAt := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	info, err := ParseLabels(BuildLabels(r, createdAt))
	require.NoError(t, err)

	assert.Equal(t, r.Name, info.RecipeName)
	assert.Equal(t, r.Variant, info.Variant)
	assert.Equal(t, r.EntrypointForm, info.EntrypointForm)
	assert.Equal(t, r.EntryVar, info.EntryVar)
	assert.Equal(t, r.AppDir, info.AppDir)
	assert.Equal(t, r.User, info.User)
	assert.Equal(t, r.DefaultEntry, info.DefaultEntry)
	assert.True(t, createdAt.Equal(info.CreatedAt))
}

// TestParseLabels_MissingRequired verifies that all missing labels are
// reported together.
func TestParseLabels_MissingRequired(t *testing.T) {
	labels := BuildLabels(testRecipe(), time.Now())
	delete(labels, LabelRecipe)
	delete(labels, LabelUser)

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelRecipe)
	assert.Contains(t, err.Error(), LabelUser)
}

// TestParseLabels_ForeignManagedBy verifies rejection of images labeled
// by another tool.
func TestParseLabels_ForeignManagedBy(t *testing.T) {
	labels := BuildLabels(testRecipe(), time.Now())
	labels[LabelManagedBy] = "someone-else"

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected value")
}

// TestParseLabels_InvalidValues verifies rejection of malformed label
// values.
func TestParseLabels_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad variant", key: LabelVariant, value: "alpine"},
		{name: "bad form", key: LabelEntrypointForm, value: "shell"},
		{name: "bad timestamp", key: LabelCreatedAt, value: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := BuildLabels(testRecipe(), time.Now())
			labels[tt.key] = tt.value

			_, err := ParseLabels(labels)
			assert.Error(t, err)
		})
	}
}
