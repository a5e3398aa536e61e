package recipe

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// standardFileNames lists the recipe file names probed by Find, in
// preference order. YAML is listed first because it is the format
// `pycrate init` writes.
var standardFileNames = []string{
	"pycrate.yaml",
	"pycrate.yml",
	"pycrate.json",
	"pycrate.jsonc",
}

// Find locates a recipe file inside the given build context directory.
// It probes the standard file names in order and returns the absolute
// path of the first one that exists.
//
// Returns a model.CLIError with ExitRecipeNotFound if no recipe file
// is found.
func Find(contextDir string) (string, error) {
	for _, name := range standardFileNames {
		candidate := filepath.Join(contextDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", model.NewCLIError(
		model.ExitRecipeNotFound,
		fmt.Sprintf("no recipe file found in %s (looked for: %s)",
			contextDir, strings.Join(standardFileNames, ", ")),
	)
}

// Load reads a recipe file, parses it according to its extension, and
// applies defaults for omitted fields. The returned recipe has passed
// structural validation (model.Recipe.Validate); build-context checks
// are a separate step (ValidateContext) because rendering a Dockerfile
// for inspection does not require the context to be complete.
//
// Supported formats:
//   - .yaml / .yml — parsed with gopkg.in/yaml.v3
//   - .json / .jsonc — JSONC comments and trailing commas are stripped
//     with github.com/tidwall/jsonc, then parsed with encoding/json
//
// Returns a model.CLIError with ExitRecipeNotFound if the file does not
// exist, or ExitRecipeInvalid if parsing or validation fails.
func Load(path string) (*model.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitRecipeNotFound,
				fmt.Sprintf("recipe file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read recipe file: %w", err)
	}

	var r model.Recipe
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, model.WrapCLIError(
				model.ExitRecipeInvalid,
				fmt.Sprintf("invalid YAML in %s", path),
				err,
			)
		}
	case ".json", ".jsonc":
		// Strip JSONC comments (// and /* */) and trailing commas before
		// parsing. Hand-maintained JSON config files frequently carry
		// comments, so plain encoding/json would reject them.
		clean := jsonc.ToJSON(data)
		if err := json.Unmarshal(clean, &r); err != nil {
			return nil, model.WrapCLIError(
				model.ExitRecipeInvalid,
				fmt.Sprintf("invalid JSON in %s", path),
				err,
			)
		}
	default:
		return nil, model.NewCLIError(
			model.ExitRecipeInvalid,
			fmt.Sprintf("unsupported recipe format %q (supported: .yaml, .yml, .json, .jsonc)", filepath.Ext(path)),
		)
	}

	r.ApplyDefaults()

	if err := r.Validate(); err != nil {
		return nil, model.WrapCLIError(
			model.ExitRecipeInvalid,
			fmt.Sprintf("invalid recipe %s", path),
			err,
		)
	}

	return &r, nil
}

// LoadFromContext finds and loads the recipe of a build context directory
// in one step. This is the common entry point for CLI commands that take
// a context directory rather than an explicit recipe path.
func LoadFromContext(contextDir string) (*model.Recipe, string, error) {
	path, err := Find(contextDir)
	if err != nil {
		return nil, "", err
	}
	r, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return r, path, nil
}
