// Package cli implements the cobra-based CLI commands for pycrate.
//
// Each subcommand (init, render, build, verify, images) is defined in its
// own file within this package. This file defines the root command that
// serves as the parent for all subcommands and handles global flags and
// configuration loading.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine
	// consumption. When false (default), output is human-readable text.
	jsonOutput bool

	// verbose enables detailed logging output for debugging.
	// When true, additional information about operations is printed to stderr.
	verbose bool

	// cfgFile is an explicit config file path, overriding the default
	// ~/.pycrate/config.yaml lookup.
	cfgFile string
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by
// subcommands (init, render, build, verify, images).
func NewRootCommand() *cobra.Command {
	cobra.OnInitialize(initConfig)

	rootCmd := &cobra.Command{
		Use:   "pycrate",
		Short: "Build and verify containers for Python applications",
		Long: `pycrate packages a Python application into a container image following a
fixed recipe: install the interpreter, install dependencies from a
requirements manifest, copy the source tree, create a non-root user that
owns the app directory, and launch python3 against the script named by an
environment variable at container start.

A declarative recipe file (pycrate.yaml) in the source tree selects the
base image variant and entrypoint form; built images can be verified
against the recipe's observable contract.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	// PersistentFlags are inherited by all subcommands. Any flag defined
	// here is automatically available in every subcommand.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pycrate/config.yaml)")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewBuildCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewImagesCommand())

	return rootCmd
}

// initConfig loads configuration from file and environment. File values
// provide defaults (e.g. an image tag prefix) that flags override; the
// file is optional and its absence is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			// No home directory means no default config location; env vars
			// still apply.
			VerboseLog("cannot determine home directory: %v", err)
		} else {
			viper.AddConfigPath(filepath.Join(home, ".pycrate"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Environment variables use the PYCRATE_ prefix, e.g.
	// PYCRATE_TAG_PREFIX overrides the tag-prefix config key.
	viper.SetEnvPrefix("PYCRATE")
	viper.AutomaticEnv()
	_ = viper.BindEnv("tag-prefix", "PYCRATE_TAG_PREFIX")

	if err := viper.ReadInConfig(); err == nil {
		VerboseLog("loaded config from %s", viper.ConfigFileUsed())
	}
}

// tagPrefix returns the configured image tag prefix (e.g. a private
// registry namespace like "registry.example.com/team/"). Empty by default.
func tagPrefix() string {
	return viper.GetString("tag-prefix")
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		if cliErr, ok := err.(*model.CLIError); ok {
			printError(cliErr.Message, cliErr.Err)
			os.Exit(int(cliErr.Code))
		}

		// Generic error — exit with code 1.
		printError(err.Error(), nil)
		os.Exit(int(model.ExitGeneralError))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode, because stdout is
		// reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
// This is used throughout the CLI for debug/trace output that helps
// users understand what operations are being performed.
func VerboseLog(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
