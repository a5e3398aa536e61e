// Package cli — render.go implements the "pycrate render" command.
//
// The render command turns the recipe of a build context into a Dockerfile
// and .dockerignore without invoking Docker at all. This is the inspection
// path: the rendered files can be reviewed, diffed, or checked in.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pycrate/internal/model"
	"github.com/mmr-tortoise/pycrate/internal/recipe"
	"github.com/mmr-tortoise/pycrate/internal/render"
)

// renderFlags holds the flag values for the render command.
type renderFlags struct {
	// recipePath overrides recipe file discovery with an explicit path.
	recipePath string

	// stdout prints the Dockerfile to stdout instead of writing files.
	stdout bool
}

// NewRenderCommand creates the "render" cobra command.
func NewRenderCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [dir]",
		Short: "Render the Dockerfile for a build context",
		Long: `Render the Dockerfile and .dockerignore described by the recipe of a
build context directory.

By default the files are written into the context directory; --stdout
prints the Dockerfile instead, leaving the context untouched.

Examples:
  pycrate render
  pycrate render ./myapp
  pycrate render --stdout`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(contextDirArg(args), flags)
		},
	}

	cmd.Flags().StringVar(&flags.recipePath, "recipe", "", "Explicit recipe file path (default: discover in context)")
	cmd.Flags().BoolVar(&flags.stdout, "stdout", false, "Print the Dockerfile to stdout instead of writing files")

	return cmd
}

// runRender is the main logic function for the render command.
func runRender(contextDir string, flags *renderFlags) error {
	r, path, err := loadRecipe(contextDir, flags.recipePath)
	if err != nil {
		return err
	}
	VerboseLog("loaded recipe %q from %s", r.Name, path)

	dockerfile, err := render.Dockerfile(r)
	if err != nil {
		return err
	}

	if flags.stdout {
		fmt.Print(dockerfile)
		return nil
	}

	dockerfilePath := filepath.Join(contextDir, "Dockerfile")
	if err := os.WriteFile(dockerfilePath, []byte(dockerfile), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dockerfilePath, err)
	}

	ignorePath := filepath.Join(contextDir, ".dockerignore")
	if err := os.WriteFile(ignorePath, []byte(render.Dockerignore(r)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", ignorePath, err)
	}

	fmt.Printf("Wrote %s and %s\n", dockerfilePath, ignorePath)
	return nil
}

// loadRecipe loads either an explicit recipe file or the one discovered
// in the context directory. Shared by the render and build commands.
func loadRecipe(contextDir, recipePath string) (*model.Recipe, string, error) {
	if recipePath != "" {
		loaded, err := recipe.Load(recipePath)
		return loaded, recipePath, err
	}
	return recipe.LoadFromContext(contextDir)
}
