// detect.go implements source-tree scanning for `pycrate init`.
//
// The scanner proposes a starter recipe from what it finds in the build
// context: the dependency manifest location and candidate entry scripts.
// The proposal is a convenience, not an authority — the user edits the
// generated pycrate.yaml before the first build.
package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// Detection is the result of scanning a build context directory.
type Detection struct {
	// Recipe is the proposed starter recipe.
	Recipe *model.Recipe

	// EntryCandidates lists top-level .py files that look like entry
	// points, in preference order. The first one (if any) becomes the
	// recipe's DefaultEntry.
	EntryCandidates []string

	// HasRequirements reports whether a requirements.txt was found.
	// When false, the proposed recipe still references the default
	// manifest path so the user knows to create one.
	HasRequirements bool
}

// preferredEntryNames are script names commonly used as application entry
// points, checked before falling back to any top-level .py file.
var preferredEntryNames = []string{"main.py", "app.py", "run.py", "script.py"}

// Detect scans a source tree and proposes a recipe for it.
//
// The scan is deliberately shallow: only the context root is examined,
// because that is where the recipe's COPY/install steps operate and where
// entry scripts named by the entry variable live in the original recipes.
func Detect(contextDir string) (*Detection, error) {
	entries, err := os.ReadDir(contextDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", contextDir, err)
	}

	det := &Detection{}

	var pyFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if name == model.DefaultRequirements {
			det.HasRequirements = true
		}
		if strings.HasSuffix(name, ".py") && !strings.HasPrefix(name, "test_") && !strings.HasPrefix(name, "_") {
			pyFiles = append(pyFiles, name)
		}
	}
	sort.Strings(pyFiles)

	// Preferred names first, then everything else alphabetically.
	seen := make(map[string]bool)
	for _, preferred := range preferredEntryNames {
		for _, f := range pyFiles {
			if f == preferred && !seen[f] {
				det.EntryCandidates = append(det.EntryCandidates, f)
				seen[f] = true
			}
		}
	}
	for _, f := range pyFiles {
		if !seen[f] {
			det.EntryCandidates = append(det.EntryCandidates, f)
			seen[f] = true
		}
	}

	r := &model.Recipe{Name: proposeName(contextDir)}
	r.ApplyDefaults()
	if len(det.EntryCandidates) > 0 {
		r.DefaultEntry = det.EntryCandidates[0]
	}
	det.Recipe = r

	return det, nil
}

// proposeName derives a recipe name from the context directory's base
// name, normalized to the recipe name charset. Falls back to "app" when
// nothing usable survives normalization.
func proposeName(contextDir string) string {
	abs, err := filepath.Abs(contextDir)
	if err != nil {
		return "app"
	}
	base := strings.ToLower(filepath.Base(abs))

	var b strings.Builder
	for _, c := range base {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteRune(c)
		case c == '.' || c == ' ':
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), "-_")
	if model.ValidateName(name) != nil {
		return "app"
	}
	return name
}

// WriteStarter serializes a detected recipe as commented YAML and writes
// it to pycrate.yaml in the context directory. Refuses to overwrite an
// existing recipe file.
func WriteStarter(det *Detection, contextDir string) (string, error) {
	if existing, err := Find(contextDir); err == nil {
		return "", model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("recipe file already exists: %s", existing),
		)
	}

	data, err := yaml.Marshal(det.Recipe)
	if err != nil {
		return "", fmt.Errorf("failed to serialize recipe: %w", err)
	}

	var b strings.Builder
	b.WriteString("# pycrate build recipe. Run `pycrate build` in this directory.\n")
	if !det.HasRequirements {
		b.WriteString("# NOTE: no requirements.txt found — create one before building.\n")
	}
	if len(det.EntryCandidates) > 1 {
		b.WriteString(fmt.Sprintf("# Other entry script candidates: %s\n",
			strings.Join(det.EntryCandidates[1:], ", ")))
	}
	b.Write(data)

	path := filepath.Join(contextDir, "pycrate.yaml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
