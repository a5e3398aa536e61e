// Package cli — images.go implements the "pycrate images" command.
//
// The images command lists pycrate-built images by querying Docker for
// images with the "pycrate.managed-by=pycrate" label and rendering the
// metadata reconstructed from their labels.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pycrate/internal/docker"
	"github.com/mmr-tortoise/pycrate/internal/model"
)

// NewImagesCommand creates the "images" cobra command.
func NewImagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List pycrate-built images",
		Long: `List all pycrate-built images known to the Docker daemon, newest first.

Each image is shown with its tag, source recipe, base variant, entrypoint
form, runtime user, and build time.

Examples:
  pycrate images
  pycrate images --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runImages(cmd.Context())
		},
	}
}

// runImages is the main logic function for the images command.
func runImages(ctx context.Context) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	infos, err := docker.ListImages(ctx, cli)
	if err != nil {
		return err
	}
	VerboseLog("found %d pycrate-built image(s)", len(infos))

	printImagesResult(infos)
	return nil
}

// printImagesResult outputs the image list in text or JSON format,
// depending on the global --json flag.
func printImagesResult(infos []model.ImageInfo) {
	if IsJSONOutput() {
		result := struct {
			Images []model.ImageInfo `json:"images"`
		}{
			// Empty slice instead of nil so JSON output shows [] rather
			// than null when no images are found.
			Images: append([]model.ImageInfo{}, infos...),
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(infos) == 0 {
		fmt.Println("No pycrate-built images found.")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("TAG", "RECIPE", "VARIANT", "FORM", "USER", "CREATED")

	for _, info := range infos {
		table.Append(
			FormatImageTags(info.Tags),
			info.RecipeName,
			info.Variant.String(),
			info.EntrypointForm.String(),
			info.User,
			info.CreatedAt.Local().Format(time.RFC3339),
		)
	}

	table.Render()
	fmt.Printf("\nTotal images: %d\n", len(infos))
}

// FormatImageTags joins an image's repo:tag references for table display.
// Returns "<untagged>" for images whose tags were all removed.
//
// This function is exported for testing purposes (tested in images_test.go).
func FormatImageTags(tags []string) string {
	if len(tags) == 0 {
		return "<untagged>"
	}
	return strings.Join(tags, ", ")
}
