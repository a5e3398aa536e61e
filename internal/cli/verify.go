// Package cli — verify.go implements the "pycrate verify" command.
//
// The verify command runs the acceptance catalog against a built image:
// runtime user, app dir ownership, interpreter presence, and the launch
// behavior for present, unset, and missing entry scripts. Expected values
// come from the image's pycrate labels, so verify needs nothing but the
// image reference.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/pycrate/internal/docker"
	"github.com/mmr-tortoise/pycrate/internal/model"
	"github.com/mmr-tortoise/pycrate/internal/verify"
)

// NewVerifyCommand creates the "verify" cobra command.
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <image>",
		Short: "Verify a built image against its recipe contract",
		Long: `Run acceptance checks against a pycrate-built image.

Each check runs a short-lived container from the image and inspects the
outcome. The image reference may be a tag, a bare repository name, or an
image ID prefix; it must be an image built by pycrate, since the expected
values are read from the image's labels.

Exits non-zero if any check fails.

Examples:
  pycrate verify thermosys
  pycrate verify thermosys:latest --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), args[0])
		},
	}
}

// runVerify is the main logic function for the verify command.
func runVerify(ctx context.Context, imageRef string) error {
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	info, err := docker.FindImage(ctx, cli, imageRef)
	if err != nil {
		return err
	}
	VerboseLog("verifying image %s (recipe %q, variant %s)",
		imageRef, info.RecipeName, info.Variant)

	report, err := verify.Image(ctx, verify.DockerProber{}, imageRef, info)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "verification aborted", err)
	}

	printVerifyReport(report)

	if !report.Passed() {
		_, failed, _ := report.Counts()
		return model.NewCLIError(
			model.ExitVerifyFailed,
			fmt.Sprintf("%d check(s) failed for %s", failed, imageRef),
		)
	}
	return nil
}

// printVerifyReport outputs the report in text or JSON format, depending
// on the global --json flag.
func printVerifyReport(report *verify.Report) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Verifying %s\n\n", report.Image)
	for _, res := range report.Results {
		fmt.Printf("  [%-4s] %-18s %s\n", statusMark(res.Status), res.Name, res.Description)
		if res.Detail != "" {
			fmt.Printf("         %s\n", res.Detail)
		}
	}

	passed, failed, skipped := report.Counts()
	fmt.Printf("\n%d passed, %d failed, %d skipped\n", passed, failed, skipped)
}

// statusMark maps a check status to its single-character table marker.
func statusMark(s verify.Status) string {
	switch s {
	case verify.StatusPass:
		return "ok"
	case verify.StatusFail:
		return "FAIL"
	default:
		return "skip"
	}
}
