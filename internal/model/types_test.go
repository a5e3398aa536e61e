package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBaseVariant_String verifies that BaseVariant values produce the
// expected string representations for CLI output and image labels.
func TestBaseVariant_String(t *testing.T) {
	assert.Equal(t, "slim", VariantSlim.String())
	assert.Equal(t, "system", VariantSystem.String())
}

// TestBaseVariant_IsValid checks that only defined variants pass validation.
func TestBaseVariant_IsValid(t *testing.T) {
	assert.True(t, VariantSlim.IsValid())
	assert.True(t, VariantSystem.IsValid())
	assert.False(t, BaseVariant("alpine").IsValid())
	assert.False(t, BaseVariant("").IsValid())
}

// TestParseBaseVariant verifies string-to-variant conversion,
// including case normalization and error cases.
func TestParseBaseVariant(t *testing.T) {
	tests := []struct {
		input    string
		expected BaseVariant
		hasError bool
	}{
		{"slim", VariantSlim, false},
		{"system", VariantSystem, false},
		{"Slim", VariantSlim, false},     // case insensitive
		{"SYSTEM", VariantSystem, false}, // case insensitive
		{"debian", "", true},             // unknown value
		{"", "", true},                   // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseBaseVariant(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestParseEntrypointForm verifies string-to-form conversion.
func TestParseEntrypointForm(t *testing.T) {
	tests := []struct {
		input    string
		expected EntrypointForm
		hasError bool
	}{
		{"shell-cmd", FormShellCmd, false},
		{"exec-entrypoint", FormExecEntrypoint, false},
		{"Shell-Cmd", FormShellCmd, false}, // case insensitive
		{"cmd", "", true},                  // unknown value
		{"", "", true},                     // empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseEntrypointForm(tt.input)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// TestValidateName covers the recipe name charset rules.
func TestValidateName(t *testing.T) {
	valid := []string{"app", "my-app", "my_app", "app2", "a"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "My-App", "-app", "_app", "app with spaces", "app/one"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q should be invalid", name)
	}
}

// TestRecipe_ApplyDefaults verifies that all zero-valued fields are filled
// with the documented defaults and explicit values are left untouched.
func TestRecipe_ApplyDefaults(t *testing.T) {
	r := &Recipe{Name: "demo"}
	r.ApplyDefaults()

	assert.Equal(t, VariantSlim, r.Variant)
	assert.Equal(t, DefaultPythonVersion, r.PythonVersion)
	assert.Equal(t, DefaultRequirements, r.Requirements)
	assert.Equal(t, DefaultAppDir, r.AppDir)
	assert.Equal(t, DefaultUser, r.User)
	assert.Equal(t, FormShellCmd, r.EntrypointForm)
	assert.Equal(t, DefaultEntryVar, r.EntryVar)

	// Explicit values survive a defaults pass.
	r2 := &Recipe{
		Name:           "demo",
		Variant:        VariantSystem,
		User:           "svc",
		AppDir:         "/opt/app",
		EntrypointForm: FormExecEntrypoint,
	}
	r2.ApplyDefaults()
	assert.Equal(t, VariantSystem, r2.Variant)
	assert.Equal(t, "svc", r2.User)
	assert.Equal(t, "/opt/app", r2.AppDir)
	assert.Equal(t, FormExecEntrypoint, r2.EntrypointForm)
}

// TestRecipe_ResolveBaseImage verifies the variant → base image mapping
// and the explicit override.
func TestRecipe_ResolveBaseImage(t *testing.T) {
	slim := &Recipe{Name: "demo"}
	slim.ApplyDefaults()
	assert.Equal(t, "python:3.11-slim", slim.ResolveBaseImage())

	slim.PythonVersion = "3.12"
	assert.Equal(t, "python:3.12-slim", slim.ResolveBaseImage())

	system := &Recipe{Name: "demo", Variant: VariantSystem}
	system.ApplyDefaults()
	assert.Equal(t, "ubuntu:22.04", system.ResolveBaseImage())

	override := &Recipe{Name: "demo", BaseImage: "python:3.13-bookworm"}
	override.ApplyDefaults()
	assert.Equal(t, "python:3.13-bookworm", override.ResolveBaseImage())
}

// TestRecipe_Validate exercises the structural validation rules.
func TestRecipe_Validate(t *testing.T) {
	// base returns a fresh valid recipe that individual cases mutate.
	base := func() *Recipe {
		r := &Recipe{Name: "demo"}
		r.ApplyDefaults()
		return r
	}

	assert.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Recipe)
	}{
		{"empty name", func(r *Recipe) { r.Name = "" }},
		{"bad variant", func(r *Recipe) { r.Variant = "alpine" }},
		{"bad entrypoint form", func(r *Recipe) { r.EntrypointForm = "cmd" }},
		{"relative appDir", func(r *Recipe) { r.AppDir = "usr/app" }},
		{"root appDir", func(r *Recipe) { r.AppDir = "/" }},
		{"root user", func(r *Recipe) { r.User = "root" }},
		{"empty user", func(r *Recipe) { r.User = "" }},
		{"user with colon", func(r *Recipe) { r.User = "a:b" }},
		{"empty entryVar", func(r *Recipe) { r.EntryVar = "" }},
		{"bad entryVar", func(r *Recipe) { r.EntryVar = "FILE-NAME" }},
		{"absolute requirements", func(r *Recipe) { r.Requirements = "/etc/requirements.txt" }},
		{"escaping requirements", func(r *Recipe) { r.Requirements = "../requirements.txt" }},
		{"absolute defaultEntry", func(r *Recipe) { r.DefaultEntry = "/main.py" }},
		{"systemPackages on slim", func(r *Recipe) { r.SystemPackages = []string{"ffmpeg"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.mutate(r)
			assert.Error(t, r.Validate())
		})
	}

	// systemPackages are fine on the system variant.
	r := base()
	r.Variant = VariantSystem
	r.SystemPackages = []string{"ffmpeg"}
	assert.NoError(t, r.Validate())
}

// TestCLIError_ErrorAndUnwrap verifies the error interface implementation
// and errors.Is/As interoperability.
func TestCLIError_ErrorAndUnwrap(t *testing.T) {
	underlying := errors.New("connection refused")

	wrapped := WrapCLIError(ExitDockerNotRunning, "Docker daemon is not responding", underlying)
	assert.Equal(t, "Docker daemon is not responding: connection refused", wrapped.Error())
	assert.True(t, errors.Is(wrapped, underlying))

	plain := NewCLIError(ExitRecipeNotFound, "no recipe file found")
	assert.Equal(t, "no recipe file found", plain.Error())
	assert.Nil(t, plain.Unwrap())

	var cliErr *CLIError
	require.True(t, errors.As(error(wrapped), &cliErr))
	assert.Equal(t, ExitDockerNotRunning, cliErr.Code)
}
