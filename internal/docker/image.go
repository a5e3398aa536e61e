package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// defaultProbeTimeout bounds a single probe container run. Probes execute
// short commands (id, stat, interpreter version checks), so a minute is
// ample even on a cold image.
const defaultProbeTimeout = 60 * time.Second

// BuildImage builds a Docker image from a rendered Dockerfile.
//
// The Dockerfile content is written to a temporary file inside the build
// context and removed when the build finishes; the docker CLI is invoked
// rather than the SDK's ImageBuild endpoint because the CLI handles
// BuildKit, context tarring, and .dockerignore natively, and streams
// human-readable progress. Build output is written to out.
//
// Returns a model.CLIError with ExitBuildFailed if the build fails.
func BuildImage(ctx context.Context, contextDir, dockerfile, tag string, labels map[string]string, out io.Writer) error {
	f, err := os.CreateTemp(contextDir, ".pycrate-*.Dockerfile")
	if err != nil {
		return fmt.Errorf("failed to create temporary Dockerfile: %w", err)
	}
	dockerfilePath := f.Name()
	defer os.Remove(dockerfilePath)

	if _, err := f.WriteString(dockerfile); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temporary Dockerfile: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write temporary Dockerfile: %w", err)
	}

	args := buildArgs(dockerfilePath, tag, labels, contextDir)
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitBuildFailed,
			fmt.Sprintf("docker build failed for tag %q", tag),
			err,
		)
	}
	return nil
}

// buildArgs assembles the docker build argument list. Labels are emitted
// in sorted key order so the invocation is deterministic.
func buildArgs(dockerfilePath, tag string, labels map[string]string, contextDir string) []string {
	args := []string{"build", "-f", dockerfilePath, "-t", tag}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, labels[k]))
	}

	return append(args, contextDir)
}

// ListImages returns metadata for all pycrate-built images known to the
// daemon, newest first. Images whose labels fail to parse are skipped
// rather than failing the whole listing; a manually mislabeled image must
// not break `pycrate images`.
func ListImages(ctx context.Context, c *Client) ([]model.ImageInfo, error) {
	summaries, err := c.Inner().ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	infos := make([]model.ImageInfo, 0, len(summaries))
	for _, s := range summaries {
		info, err := ParseLabels(s.Labels)
		if err != nil {
			continue
		}
		info.ImageID = s.ID
		info.Tags = s.RepoTags
		infos = append(infos, *info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// FindImage locates a pycrate-built image by reference. The reference may
// be a repo:tag, a bare repo name (":latest" is assumed), or an image ID
// prefix.
//
// Returns a model.CLIError with ExitGeneralError when no pycrate-built
// image matches; an image built outside pycrate carries no labels and is
// indistinguishable from a missing one here.
func FindImage(ctx context.Context, c *Client, ref string) (*model.ImageInfo, error) {
	infos, err := ListImages(ctx, c)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if matchImage(&infos[i], ref) {
			return &infos[i], nil
		}
	}
	return nil, model.NewCLIError(
		model.ExitGeneralError,
		fmt.Sprintf("no pycrate-built image matches %q (see `pycrate images`)", ref),
	)
}

// matchImage reports whether an image matches a user-supplied reference.
func matchImage(info *model.ImageInfo, ref string) bool {
	want := ref
	if !strings.Contains(want, ":") {
		want += ":latest"
	}
	for _, tag := range info.Tags {
		if tag == ref || tag == want {
			return true
		}
	}
	// Image IDs are "sha256:<hex>"; accept both the full form and a bare
	// hex prefix as `docker` itself does.
	id := strings.TrimPrefix(info.ImageID, "sha256:")
	return ref == info.ImageID || (len(ref) >= 4 && strings.HasPrefix(id, ref))
}

// ProbeSpec describes a one-off container run against a built image.
type ProbeSpec struct {
	// Image is the image reference to run.
	Image string

	// Env holds environment variables passed with -e. A key mapped to an
	// empty string is passed as -e KEY= (explicitly empty), which is how
	// probes blank out a baked-in default.
	Env map[string]string

	// ShellCommand, when non-empty, replaces the image's launch path: the
	// container runs `/bin/sh -c <ShellCommand>` via --entrypoint, so the
	// probe works identically for CMD- and ENTRYPOINT-form images. When
	// empty, the image's own launch instruction runs.
	ShellCommand string
}

// ProbeResult is the outcome of a probe run.
type ProbeResult struct {
	// ExitCode is the container's exit code.
	ExitCode int

	// Output is the combined stdout/stderr of the container.
	Output string
}

// RunProbe runs a one-off container per the spec and captures its exit
// code and combined output. A non-zero container exit code is reported in
// the result, not as an error; errors are reserved for failures to run
// the container at all.
func RunProbe(ctx context.Context, spec ProbeSpec) (ProbeResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "docker", probeArgs(spec)...)
	outBytes, err := cmd.CombinedOutput()
	output := strings.TrimRight(string(outBytes), "\n")

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ProbeResult{ExitCode: exitErr.ExitCode(), Output: output}, nil
		}
		return ProbeResult{}, fmt.Errorf("failed to run probe container: %w", err)
	}
	return ProbeResult{ExitCode: 0, Output: output}, nil
}

// probeArgs assembles the docker run argument list for a probe. Env keys
// are emitted in sorted order for deterministic invocations.
func probeArgs(spec ProbeSpec) []string {
	args := []string{"run", "--rm"}

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, spec.Env[k]))
	}

	if spec.ShellCommand != "" {
		args = append(args, "--entrypoint", "/bin/sh", spec.Image, "-c", spec.ShellCommand)
	} else {
		args = append(args, spec.Image)
	}
	return args
}
