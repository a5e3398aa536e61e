// Package verify runs acceptance checks against a built image. The checks
// cover the observable contract of the build recipe: the runtime user, app
// directory ownership, interpreter availability, and the launch behavior
// for present, missing, and unset entry scripts.
//
// Checks execute through the Prober interface so the catalog logic can be
// tested without a Docker daemon.
package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/pycrate/internal/docker"
	"github.com/mmr-tortoise/pycrate/internal/model"
)

// Prober runs a one-off container probe against an image.
type Prober interface {
	Run(ctx context.Context, spec docker.ProbeSpec) (docker.ProbeResult, error)
}

// DockerProber is the production Prober, backed by the docker CLI.
type DockerProber struct{}

// Run implements Prober.
func (DockerProber) Run(ctx context.Context, spec docker.ProbeSpec) (docker.ProbeResult, error) {
	return docker.RunProbe(ctx, spec)
}

// Status is the outcome of one acceptance check.
type Status string

const (
	// StatusPass indicates the check succeeded.
	StatusPass Status = "pass"

	// StatusFail indicates the check found a contract violation.
	StatusFail Status = "fail"

	// StatusSkip indicates the check did not apply to this image
	// (e.g. the entry-runs check on an image without a default entry).
	StatusSkip Status = "skip"
)

// CheckResult is the outcome of a single check.
type CheckResult struct {
	// Name is the stable check identifier (e.g. "runtime-user").
	Name string `json:"name"`

	// Description says what the check asserts.
	Description string `json:"description"`

	// Status is pass, fail, or skip.
	Status Status `json:"status"`

	// Detail carries the observed value or failure explanation.
	Detail string `json:"detail,omitempty"`
}

// Report aggregates all check results for one image.
type Report struct {
	// Image is the verified image reference.
	Image string `json:"image"`

	// Results lists the checks in execution order.
	Results []CheckResult `json:"results"`
}

// Passed reports whether no check failed. Skipped checks do not count
// against the image.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Counts returns the number of passed, failed, and skipped checks.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusSkip:
			skipped++
		}
	}
	return
}

// check couples a catalog entry with its probe logic. The run function
// returns an error only for probe infrastructure failures (the container
// could not run at all); contract violations are StatusFail results.
type check struct {
	name        string
	description string
	run         func(ctx context.Context, p Prober) (Status, string, error)
}

// Image runs the full acceptance catalog against an image and returns the
// aggregated report. The info parameter supplies the expected values,
// reconstructed from the image's labels.
//
// A probe infrastructure failure aborts the remaining checks and is
// returned as an error; individual contract violations are recorded in
// the report instead.
func Image(ctx context.Context, p Prober, imageRef string, info *model.ImageInfo) (*Report, error) {
	report := &Report{Image: imageRef}

	for _, c := range catalog(imageRef, info) {
		status, detail, err := c.run(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", c.name, err)
		}
		report.Results = append(report.Results, CheckResult{
			Name:        c.name,
			Description: c.description,
			Status:      status,
			Detail:      detail,
		})
	}
	return report, nil
}

// catalog builds the ordered check list for an image.
func catalog(imageRef string, info *model.ImageInfo) []check {
	return []check{
		{
			name:        "runtime-user",
			description: fmt.Sprintf("container runs as non-root user %q", info.User),
			run: func(ctx context.Context, p Prober) (Status, string, error) {
				res, err := p.Run(ctx, docker.ProbeSpec{
					Image:        imageRef,
					ShellCommand: "id -u; id -un",
				})
				if err != nil {
					return StatusFail, "", err
				}
				lines := strings.Split(strings.TrimSpace(res.Output), "\n")
				if res.ExitCode != 0 || len(lines) < 2 {
					return StatusFail, fmt.Sprintf("id probe failed (exit %d): %s", res.ExitCode, res.Output), nil
				}
				uid, name := strings.TrimSpace(lines[0]), strings.TrimSpace(lines[1])
				if uid == "0" {
					return StatusFail, "container runs as root (uid 0)", nil
				}
				if name != info.User {
					return StatusFail, fmt.Sprintf("runtime user is %q, want %q", name, info.User), nil
				}
				return StatusPass, fmt.Sprintf("uid %s (%s)", uid, name), nil
			},
		},
		{
			name:        "appdir-ownership",
			description: fmt.Sprintf("%s exists and is owned by %q", info.AppDir, info.User),
			run: func(ctx context.Context, p Prober) (Status, string, error) {
				res, err := p.Run(ctx, docker.ProbeSpec{
					Image:        imageRef,
					ShellCommand: fmt.Sprintf("stat -c %%U %s", info.AppDir),
				})
				if err != nil {
					return StatusFail, "", err
				}
				if res.ExitCode != 0 {
					return StatusFail, fmt.Sprintf("%s is not accessible (exit %d): %s", info.AppDir, res.ExitCode, res.Output), nil
				}
				owner := strings.TrimSpace(res.Output)
				if owner != info.User {
					return StatusFail, fmt.Sprintf("%s is owned by %q, want %q", info.AppDir, owner, info.User), nil
				}
				return StatusPass, fmt.Sprintf("owned by %s", owner), nil
			},
		},
		{
			name:        "python-version",
			description: "python3 is installed and reports version 3.x",
			run: func(ctx context.Context, p Prober) (Status, string, error) {
				res, err := p.Run(ctx, docker.ProbeSpec{
					Image:        imageRef,
					ShellCommand: "python3 --version",
				})
				if err != nil {
					return StatusFail, "", err
				}
				version := strings.TrimSpace(res.Output)
				if res.ExitCode != 0 || !strings.HasPrefix(version, "Python 3.") {
					return StatusFail, fmt.Sprintf("unexpected interpreter (exit %d): %s", res.ExitCode, version), nil
				}
				return StatusPass, version, nil
			},
		},
		{
			name:        "entry-runs",
			description: "launch with a valid entry script exits 0",
			run: func(ctx context.Context, p Prober) (Status, string, error) {
				if info.DefaultEntry == "" {
					return StatusSkip, "image has no default entry script to launch", nil
				}
				res, err := p.Run(ctx, docker.ProbeSpec{
					Image: imageRef,
					Env:   map[string]string{info.EntryVar: info.DefaultEntry},
				})
				if err != nil {
					return StatusFail, "", err
				}
				if res.ExitCode != 0 {
					return StatusFail, fmt.Sprintf("%s exited %d: %s", info.DefaultEntry, res.ExitCode, res.Output), nil
				}
				return StatusPass, fmt.Sprintf("%s exited 0", info.DefaultEntry), nil
			},
		},
		{
			name:        "entry-unset",
			description: fmt.Sprintf("launch with %s unset fails fast with exit %d", info.EntryVar, model.LauncherExitCode),
			run: func(ctx context.Context, p Prober) (Status, string, error) {
				res, err := p.Run(ctx, docker.ProbeSpec{
					Image: imageRef,
					// Explicitly blank the variable so a baked-in default
					// cannot satisfy the launcher.
					Env: map[string]string{info.EntryVar: ""},
				})
				if err != nil {
					return StatusFail, "", err
				}
				if res.ExitCode != model.LauncherExitCode {
					return StatusFail, fmt.Sprintf("exit %d, want %d: %s", res.ExitCode, model.LauncherExitCode, res.Output), nil
				}
				return StatusPass, fmt.Sprintf("exit %d with diagnostic", res.ExitCode), nil
			},
		},
		{
			name:        "entry-missing",
			description: fmt.Sprintf("launch with %s naming a missing file fails with exit %d", info.EntryVar, model.LauncherExitCode),
			run: func(ctx context.Context, p Prober) (Status, string, error) {
				res, err := p.Run(ctx, docker.ProbeSpec{
					Image: imageRef,
					Env:   map[string]string{info.EntryVar: "pycrate_no_such_entry.py"},
				})
				if err != nil {
					return StatusFail, "", err
				}
				if res.ExitCode != model.LauncherExitCode {
					return StatusFail, fmt.Sprintf("exit %d, want %d: %s", res.ExitCode, model.LauncherExitCode, res.Output), nil
				}
				return StatusPass, fmt.Sprintf("exit %d with diagnostic", res.ExitCode), nil
			},
		},
	}
}
