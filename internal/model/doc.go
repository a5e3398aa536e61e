// Package model defines the domain types and value objects for the
// pycrate CLI.
//
// This package contains pure data structures with no external dependencies.
// The central entity is Recipe, the declarative description of a container
// build for a Python application: base image variant, dependency manifest,
// application directory, non-root runtime user, and entry point contract.
//
// All tool-managed state lives in Docker image labels (see internal/docker);
// these types are transient representations reconstructed from recipe files
// or Docker API queries at runtime.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
