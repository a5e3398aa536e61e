package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// fieldsOf collects the Field names of a list of issues, for concise
// assertions about which checks fired.
func fieldsOf(issues []ValidationIssue) []string {
	fields := make([]string, 0, len(issues))
	for _, i := range issues {
		fields = append(fields, i.Field)
	}
	return fields
}

// TestValidateContext_CompleteContext verifies that a well-formed context
// produces no issues.
func TestValidateContext_CompleteContext(t *testing.T) {
	dir := testdataPath(t, "pyapp-simple")
	r, err := Load(filepath.Join(dir, "pycrate.yaml"))
	require.NoError(t, err)

	issues := ValidateContext(r, dir)
	assert.Empty(t, issues)
}

// TestValidateContext_MissingRequirements verifies that an absent
// dependency manifest is reported.
func TestValidateContext_MissingRequirements(t *testing.T) {
	dir := testdataPath(t, "pyapp-noreqs")
	r, err := Load(filepath.Join(dir, "pycrate.yaml"))
	require.NoError(t, err)

	issues := ValidateContext(r, dir)
	assert.Contains(t, fieldsOf(issues), "requirements")
}

// TestValidateContext_MissingEntryScript verifies that a defaultEntry
// pointing at a nonexistent script is reported.
func TestValidateContext_MissingEntryScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "requirements.txt"), []byte("numpy\n"), 0o644))

	r := &model.Recipe{Name: "demo", DefaultEntry: "main.py"}
	r.ApplyDefaults()

	issues := ValidateContext(r, dir)
	assert.Contains(t, fieldsOf(issues), "defaultEntry")
}

// TestValidateContext_NonPythonEntry verifies the .py extension check.
func TestValidateContext_NonPythonEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "requirements.txt"), []byte("numpy\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))

	r := &model.Recipe{Name: "demo", DefaultEntry: "run.sh"}
	r.ApplyDefaults()

	issues := ValidateContext(r, dir)
	assert.Contains(t, fieldsOf(issues), "defaultEntry")
}

// TestValidateContext_BlankManifest verifies that a manifest holding only
// comments and blank lines is flagged.
func TestValidateContext_BlankManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "requirements.txt"),
		[]byte("# nothing pinned yet\n\n"), 0o644))

	r := &model.Recipe{Name: "demo"}
	r.ApplyDefaults()

	issues := ValidateContext(r, dir)
	require.Len(t, issues, 1)
	assert.Equal(t, "requirements", issues[0].Field)
	assert.Contains(t, issues[0].Message, "no requirements")
}

// TestValidateContext_ManifestIsDirectory verifies the regular-file check.
func TestValidateContext_ManifestIsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "requirements.txt"), 0o755))

	r := &model.Recipe{Name: "demo"}
	r.ApplyDefaults()

	issues := ValidateContext(r, dir)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "directory")
}
