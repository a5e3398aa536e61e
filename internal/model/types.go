package model

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
)

// BaseVariant represents the base image strategy for a recipe.
// The variant determines how the Python runtime ends up in the image:
//
//   - VariantSlim starts from an official python:<version>-slim image,
//     where the interpreter and pip are preinstalled.
//   - VariantSystem starts from a general-purpose Linux image and installs
//     python3 and pip through the system package manager.
type BaseVariant string

const (
	// VariantSlim uses a slim Python-preinstalled base image.
	// Example base: "python:3.11-slim".
	VariantSlim BaseVariant = "slim"

	// VariantSystem uses a general-purpose Linux base image and installs
	// the Python toolchain via apt. Example base: "ubuntu:22.04".
	VariantSystem BaseVariant = "system"
)

// String returns the string representation of BaseVariant.
func (v BaseVariant) String() string {
	return string(v)
}

// IsValid checks whether the BaseVariant value is one of the
// predefined valid variants.
func (v BaseVariant) IsValid() bool {
	switch v {
	case VariantSlim, VariantSystem:
		return true
	default:
		return false
	}
}

// ParseBaseVariant converts a string to a BaseVariant.
// Returns an error if the string does not match any valid variant.
func ParseBaseVariant(s string) (BaseVariant, error) {
	variant := BaseVariant(strings.ToLower(s))
	if !variant.IsValid() {
		return "", fmt.Errorf("invalid base variant: %q (valid: slim, system)", s)
	}
	return variant, nil
}

// EntrypointForm represents how the container start command is emitted.
// Both forms launch the interpreter against the script named by the
// entry environment variable; they differ in whether arguments passed to
// `docker run` replace the command or are appended to it.
type EntrypointForm string

const (
	// FormShellCmd emits a CMD instruction. Arguments given at `docker run`
	// replace the command entirely, so the launch is a fixed-command
	// invocation that can be overridden wholesale.
	FormShellCmd EntrypointForm = "shell-cmd"

	// FormExecEntrypoint emits an ENTRYPOINT array. Arguments given at
	// `docker run` are appended and forwarded to the entry script, so the
	// launch command itself cannot be replaced without --entrypoint.
	FormExecEntrypoint EntrypointForm = "exec-entrypoint"
)

// String returns the string representation of EntrypointForm.
func (f EntrypointForm) String() string {
	return string(f)
}

// IsValid checks whether the EntrypointForm value is one of the
// predefined valid forms.
func (f EntrypointForm) IsValid() bool {
	switch f {
	case FormShellCmd, FormExecEntrypoint:
		return true
	default:
		return false
	}
}

// ParseEntrypointForm converts a string to an EntrypointForm.
// Returns an error if the string does not match any valid form.
func ParseEntrypointForm(s string) (EntrypointForm, error) {
	form := EntrypointForm(strings.ToLower(s))
	if !form.IsValid() {
		return "", fmt.Errorf("invalid entrypoint form: %q (valid: shell-cmd, exec-entrypoint)", s)
	}
	return form, nil
}

// Recipe defaults. These reproduce the fixed choices of the original
// build recipes; every one of them can be overridden per recipe.
const (
	// DefaultAppDir is the in-image application directory.
	DefaultAppDir = "/usr/app"

	// DefaultUser is the non-privileged account created during the build
	// and used to run the application.
	DefaultUser = "admin"

	// DefaultEntryVar is the environment variable that names the entry
	// script at container start.
	DefaultEntryVar = "FILE_NAME"

	// DefaultRequirements is the dependency manifest path, relative to
	// the build context.
	DefaultRequirements = "requirements.txt"

	// DefaultPythonVersion is the interpreter version used for the slim
	// variant's base image tag.
	DefaultPythonVersion = "3.11"
)

// LauncherExitCode is the in-container exit code used by the generated
// launcher when the entry environment variable is unset or names a file
// that does not exist. 64 is EX_USAGE from sysexits(3), which keeps it
// distinguishable from interpreter exit codes.
const LauncherExitCode = 64

// Recipe is the declarative description of one container build.
// It is loaded from a pycrate.yaml (or pycrate.json/.jsonc) file in the
// build context and fully determines the rendered Dockerfile.
type Recipe struct {
	// Name identifies the recipe. Used in image labels and as the default
	// image repository name. Must contain only lowercase alphanumerics,
	// hyphens, and underscores.
	Name string `yaml:"name" json:"name"`

	// Variant selects the base image strategy (slim or system).
	Variant BaseVariant `yaml:"variant" json:"variant"`

	// PythonVersion is the interpreter version, e.g. "3.11". For the slim
	// variant it selects the base image tag; for the system variant it is
	// informational only (apt installs the distribution's python3).
	PythonVersion string `yaml:"pythonVersion" json:"pythonVersion"`

	// BaseImage overrides the computed base image entirely. Optional.
	BaseImage string `yaml:"baseImage,omitempty" json:"baseImage,omitempty"`

	// Requirements is the dependency manifest path relative to the build
	// context. Defaults to "requirements.txt".
	Requirements string `yaml:"requirements" json:"requirements"`

	// AppDir is the absolute in-image application directory. The source
	// tree is copied here and ownership is transferred to User.
	AppDir string `yaml:"appDir" json:"appDir"`

	// User is the non-privileged account the container runs as.
	User string `yaml:"user" json:"user"`

	// EntrypointForm selects CMD vs ENTRYPOINT emission.
	EntrypointForm EntrypointForm `yaml:"entrypointForm" json:"entrypointForm"`

	// EntryVar is the environment variable that names the entry script.
	EntryVar string `yaml:"entryVar" json:"entryVar"`

	// DefaultEntry optionally bakes a default entry script into the image
	// via an ENV instruction. The container can still be launched against
	// a different script by overriding the entry variable at run time.
	DefaultEntry string `yaml:"defaultEntry,omitempty" json:"defaultEntry,omitempty"`

	// Env holds additional environment variables set in the image.
	Env map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// SystemPackages lists extra apt packages to install. Only honored by
	// the system variant, where an apt layer already exists.
	SystemPackages []string `yaml:"systemPackages,omitempty" json:"systemPackages,omitempty"`
}

// nameRegex validates recipe names: lowercase alphanumerics plus
// hyphen/underscore, starting with an alphanumeric. The charset is the
// intersection of what Docker accepts in repository names and what keeps
// label values readable.
var nameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateName checks if the given name is a valid recipe name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("recipe name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid recipe name %q: must contain only lowercase alphanumerics, hyphens, and underscores, and start with an alphanumeric", name)
	}
	return nil
}

// ApplyDefaults fills zero-valued fields with the recipe defaults.
// Load calls this after parsing so downstream code never has to deal
// with partially specified recipes.
func (r *Recipe) ApplyDefaults() {
	if r.Variant == "" {
		r.Variant = VariantSlim
	}
	if r.PythonVersion == "" {
		r.PythonVersion = DefaultPythonVersion
	}
	if r.Requirements == "" {
		r.Requirements = DefaultRequirements
	}
	if r.AppDir == "" {
		r.AppDir = DefaultAppDir
	}
	if r.User == "" {
		r.User = DefaultUser
	}
	if r.EntrypointForm == "" {
		r.EntrypointForm = FormShellCmd
	}
	if r.EntryVar == "" {
		r.EntryVar = DefaultEntryVar
	}
}

// ResolveBaseImage returns the base image reference for this recipe.
// An explicit BaseImage wins; otherwise the variant determines it.
func (r *Recipe) ResolveBaseImage() string {
	if r.BaseImage != "" {
		return r.BaseImage
	}
	switch r.Variant {
	case VariantSystem:
		return "ubuntu:22.04"
	default:
		return "python:" + r.PythonVersion + "-slim"
	}
}

// Validate performs structural checks on the recipe fields. Checks that
// need the build context (file existence) live in the recipe package;
// this method covers everything knowable from the struct alone.
func (r *Recipe) Validate() error {
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if !r.Variant.IsValid() {
		return fmt.Errorf("recipe %q: invalid variant %q (valid: slim, system)", r.Name, string(r.Variant))
	}
	if !r.EntrypointForm.IsValid() {
		return fmt.Errorf("recipe %q: invalid entrypoint form %q (valid: shell-cmd, exec-entrypoint)", r.Name, string(r.EntrypointForm))
	}
	if !path.IsAbs(r.AppDir) {
		return fmt.Errorf("recipe %q: appDir %q must be an absolute path", r.Name, r.AppDir)
	}
	if r.AppDir == "/" {
		return fmt.Errorf("recipe %q: appDir must not be the filesystem root", r.Name)
	}
	// root may not own or run the application: the whole point of the
	// recipe's user step is the privilege drop.
	if r.User == "root" {
		return fmt.Errorf("recipe %q: user must not be root", r.Name)
	}
	if r.User == "" {
		return fmt.Errorf("recipe %q: user must not be empty", r.Name)
	}
	if strings.ContainsAny(r.User, " \t:") {
		return fmt.Errorf("recipe %q: invalid user %q", r.Name, r.User)
	}
	if r.EntryVar == "" {
		return fmt.Errorf("recipe %q: entryVar must not be empty", r.Name)
	}
	if !entryVarRegex.MatchString(r.EntryVar) {
		return fmt.Errorf("recipe %q: invalid entryVar %q: must be a valid environment variable name", r.Name, r.EntryVar)
	}
	if path.IsAbs(r.Requirements) || strings.HasPrefix(r.Requirements, "..") {
		return fmt.Errorf("recipe %q: requirements %q must be a relative path inside the build context", r.Name, r.Requirements)
	}
	if r.DefaultEntry != "" && (path.IsAbs(r.DefaultEntry) || strings.HasPrefix(r.DefaultEntry, "..")) {
		return fmt.Errorf("recipe %q: defaultEntry %q must be a relative path inside the build context", r.Name, r.DefaultEntry)
	}
	if len(r.SystemPackages) > 0 && r.Variant != VariantSystem {
		return fmt.Errorf("recipe %q: systemPackages are only supported by the system variant", r.Name)
	}
	return nil
}

// entryVarRegex matches POSIX-portable environment variable names.
var entryVarRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ImageInfo holds metadata about a pycrate-built image, reconstructed
// from Docker image labels. This data is fetched dynamically from the
// Docker API, not persisted by pycrate itself.
type ImageInfo struct {
	// ImageID is the Docker image identifier.
	ImageID string `json:"imageId"`

	// Tags lists the repo:tag references pointing at the image.
	Tags []string `json:"tags,omitempty"`

	// RecipeName is the recipe the image was built from.
	RecipeName string `json:"recipeName"`

	// Variant is the base image strategy used for the build.
	Variant BaseVariant `json:"variant"`

	// EntrypointForm is the start-command emission mode of the build.
	EntrypointForm EntrypointForm `json:"entrypointForm"`

	// EntryVar is the environment variable that selects the entry script.
	EntryVar string `json:"entryVar"`

	// AppDir is the in-image application directory.
	AppDir string `json:"appDir"`

	// User is the non-root account the image runs as.
	User string `json:"user"`

	// DefaultEntry is the baked-in default entry script, if any.
	DefaultEntry string `json:"defaultEntry,omitempty"`

	// CreatedAt is the timestamp of the pycrate build.
	CreatedAt time.Time `json:"createdAt"`
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitRecipeNotFound indicates no recipe file was found in the
	// expected locations.
	ExitRecipeNotFound ExitCode = 2

	// ExitRecipeInvalid indicates the recipe file failed validation.
	ExitRecipeInvalid ExitCode = 3

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 4

	// ExitBuildFailed indicates the image build failed.
	ExitBuildFailed ExitCode = 5

	// ExitVerifyFailed indicates one or more acceptance checks failed.
	ExitVerifyFailed ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
