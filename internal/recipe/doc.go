// Package recipe handles locating, parsing, and validating pycrate
// recipe files.
//
// A recipe file declares how a Python application's source tree becomes a
// container image: base variant, dependency manifest, application
// directory, non-root runtime user, and entry point contract. Recipes are
// written in YAML (pycrate.yaml) or JSON/JSONC (pycrate.json, pycrate.jsonc);
// JSONC comments are stripped with github.com/tidwall/jsonc before parsing.
//
// Key responsibilities:
//   - Locate a recipe file in the standard paths of a build context
//   - Load and parse the recipe (YAML or JSON/JSONC)
//   - Validate the recipe against the build context (manifest and entry
//     script existence)
//   - Scan a source tree and propose a starter recipe (pycrate init)
package recipe
