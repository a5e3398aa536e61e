// Package cli — build.go implements the "pycrate build" command.
//
// The build command is the end-to-end path: load and validate the recipe,
// render the Dockerfile, and drive `docker build` with the pycrate label
// set applied. The rendered Dockerfile lives in a temp file for the
// duration of the build; the context directory is left untouched.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pycrate/internal/docker"
	"github.com/mmr-tortoise/pycrate/internal/model"
	"github.com/mmr-tortoise/pycrate/internal/recipe"
	"github.com/mmr-tortoise/pycrate/internal/render"
)

// buildFlags holds the flag values for the build command.
type buildFlags struct {
	// recipePath overrides recipe file discovery with an explicit path.
	recipePath string

	// tag overrides the computed image tag.
	tag string
}

// NewBuildCommand creates the "build" cobra command.
func NewBuildCommand() *cobra.Command {
	flags := &buildFlags{}

	cmd := &cobra.Command{
		Use:   "build [dir]",
		Short: "Build a container image from a build context",
		Long: `Build a container image from the recipe of a build context directory.

The recipe is validated against the context (requirements manifest and
entry script present), the Dockerfile is rendered, and docker build runs
with pycrate metadata labels applied to the image.

The default tag is <name>:latest, optionally prefixed by the tag-prefix
config key (e.g. a registry namespace).

Examples:
  pycrate build
  pycrate build ./myapp --tag myapp:v2
  pycrate build --recipe ./alt-recipe.yaml`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), contextDirArg(args), flags)
		},
	}

	cmd.Flags().StringVar(&flags.recipePath, "recipe", "", "Explicit recipe file path (default: discover in context)")
	cmd.Flags().StringVarP(&flags.tag, "tag", "t", "", "Image tag (default: <name>:latest with configured prefix)")

	return cmd
}

// runBuild is the main logic function for the build command.
func runBuild(ctx context.Context, contextDir string, flags *buildFlags) error {
	// Step 1: Load the recipe and check it against the build context.
	r, path, err := loadRecipe(contextDir, flags.recipePath)
	if err != nil {
		return err
	}
	VerboseLog("loaded recipe %q from %s", r.Name, path)

	if issues := recipe.ValidateContext(r, contextDir); len(issues) > 0 {
		msg := fmt.Sprintf("build context does not satisfy recipe %q:", r.Name)
		for _, issue := range issues {
			msg += "\n  - " + issue.String()
		}
		return model.NewCLIError(model.ExitRecipeInvalid, msg)
	}

	// Step 2: Render the Dockerfile.
	dockerfile, err := render.Dockerfile(r)
	if err != nil {
		return err
	}

	// Step 3: Connect to Docker and verify the daemon is available before
	// starting a build that would fail with a worse message.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("connected to Docker daemon")

	// Step 4: Build.
	tag := flags.tag
	if tag == "" {
		tag = tagPrefix() + r.Name + ":latest"
	}
	labels := docker.BuildLabels(r, time.Now())

	// Build progress goes to stderr so stdout stays clean for the result,
	// which matters in --json mode.
	if err := docker.BuildImage(ctx, contextDir, dockerfile, tag, labels, os.Stderr); err != nil {
		return err
	}

	if IsJSONOutput() {
		result := struct {
			Image  string `json:"image"`
			Recipe string `json:"recipe"`
		}{Image: tag, Recipe: r.Name}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Built %s from recipe %q\n", tag, r.Name)
	fmt.Printf("Run it with: docker run --rm %s\n", tag)
	return nil
}
