// validate.go provides build-context validation: checks that the files a
// recipe references actually exist in the context directory before a
// build is attempted. Catching these locally is faster and produces far
// clearer messages than letting `docker build` fail on a COPY step.
package recipe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// ValidationIssue represents a specific validation failure of a recipe
// against its build context.
type ValidationIssue struct {
	// Field is the recipe field the issue relates to (e.g. "requirements").
	Field string

	// Message describes what is wrong.
	Message string
}

// String renders the issue for CLI display.
func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// ValidateContext checks a recipe against its build context directory.
// It returns a list of issues; an empty list means the context satisfies
// the recipe. The recipe itself is assumed to have passed structural
// validation already (Load guarantees this).
//
// Checks performed:
//   - the dependency manifest exists and is a regular file
//   - the manifest is not empty (an empty manifest is almost always a
//     mistake, but only warrants an issue, not a hard parse failure)
//   - the default entry script, if named, exists and has a .py extension
func ValidateContext(r *model.Recipe, contextDir string) []ValidationIssue {
	var issues []ValidationIssue

	manifest := filepath.Join(contextDir, filepath.FromSlash(r.Requirements))
	info, err := os.Stat(manifest)
	switch {
	case os.IsNotExist(err):
		issues = append(issues, ValidationIssue{
			Field:   "requirements",
			Message: fmt.Sprintf("dependency manifest %s not found in build context", r.Requirements),
		})
	case err != nil:
		issues = append(issues, ValidationIssue{
			Field:   "requirements",
			Message: fmt.Sprintf("cannot read %s: %v", r.Requirements, err),
		})
	case info.IsDir():
		issues = append(issues, ValidationIssue{
			Field:   "requirements",
			Message: fmt.Sprintf("%s is a directory, expected a pip requirements file", r.Requirements),
		})
	default:
		if empty, err := fileIsBlank(manifest); err == nil && empty {
			issues = append(issues, ValidationIssue{
				Field:   "requirements",
				Message: fmt.Sprintf("%s contains no requirements", r.Requirements),
			})
		}
	}

	if r.DefaultEntry != "" {
		entry := filepath.Join(contextDir, filepath.FromSlash(r.DefaultEntry))
		if _, err := os.Stat(entry); os.IsNotExist(err) {
			issues = append(issues, ValidationIssue{
				Field:   "defaultEntry",
				Message: fmt.Sprintf("entry script %s not found in build context", r.DefaultEntry),
			})
		}
		if !strings.HasSuffix(r.DefaultEntry, ".py") {
			issues = append(issues, ValidationIssue{
				Field:   "defaultEntry",
				Message: fmt.Sprintf("entry script %s does not look like a Python file", r.DefaultEntry),
			})
		}
	}

	return issues
}

// fileIsBlank reports whether a file contains only blank lines and
// comments. Used to flag effectively empty requirements manifests.
func fileIsBlank(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return false, nil
		}
	}
	return true, scanner.Err()
}
