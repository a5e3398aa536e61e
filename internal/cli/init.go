// Package cli — init.go implements the "pycrate init" command.
//
// The init command scans a source tree, proposes a build recipe from what
// it finds (dependency manifest, candidate entry scripts), and writes a
// starter pycrate.yaml for the user to review.
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pycrate/internal/recipe"
)

// NewInitCommand creates the "init" cobra command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter recipe for a Python source tree",
		Long: `Scan a source tree and write a starter pycrate.yaml recipe.

The scan looks for a requirements.txt manifest and candidate entry scripts
in the directory root. The generated recipe is a proposal — review and
edit it before the first build.

Examples:
  pycrate init
  pycrate init ./myapp`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(contextDirArg(args))
		},
	}
}

// contextDirArg resolves the optional positional context directory,
// defaulting to the current directory.
func contextDirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// runInit is the main logic function for the init command.
func runInit(contextDir string) error {
	det, err := recipe.Detect(contextDir)
	if err != nil {
		return err
	}
	VerboseLog("detected %d entry candidate(s), requirements present: %t",
		len(det.EntryCandidates), det.HasRequirements)

	path, err := recipe.WriteStarter(det, contextDir)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		result := struct {
			Path            string   `json:"path"`
			Recipe          string   `json:"recipe"`
			EntryCandidates []string `json:"entryCandidates"`
			HasRequirements bool     `json:"hasRequirements"`
		}{
			Path:            path,
			Recipe:          det.Recipe.Name,
			EntryCandidates: append([]string{}, det.EntryCandidates...),
			HasRequirements: det.HasRequirements,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Wrote %s (recipe %q)\n", path, det.Recipe.Name)
	if len(det.EntryCandidates) > 0 {
		fmt.Printf("Entry script: %s", det.EntryCandidates[0])
		if len(det.EntryCandidates) > 1 {
			fmt.Printf(" (other candidates: %s)", strings.Join(det.EntryCandidates[1:], ", "))
		}
		fmt.Println()
	} else {
		fmt.Println("No entry script candidates found — set defaultEntry manually.")
	}
	if !det.HasRequirements {
		fmt.Println("Warning: no requirements.txt found — create one before building.")
	}
	return nil
}
