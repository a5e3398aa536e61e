// Package render generates Dockerfiles and .dockerignore files from build
// recipes. The output is deterministic: the same recipe always renders to
// byte-identical files, so rendered Dockerfiles can be diffed and checked
// into version control if desired.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// dockerfileTemplate is the skeleton shared by both base variants. The
// variant-specific pieces (runtime setup layer, launch instruction) are
// rendered into strings first and injected as opaque blocks, which keeps
// the template itself free of escaping concerns.
const dockerfileTemplate = `# Code generated by pycrate from recipe "{{.Name}}". DO NOT EDIT.

FROM {{.BaseImage}}
{{if .RuntimeSetup}}
{{.RuntimeSetup}}
{{end}}
WORKDIR {{.AppDir}}

COPY {{.Requirements}} {{.Requirements}}
RUN python3 -m pip install --no-cache-dir --upgrade pip \
    && python3 -m pip install --no-cache-dir -r {{.Requirements}}

COPY . .

RUN useradd --create-home {{.User}} \
    && chown -R {{.User}}:{{.User}} {{.AppDir}}

USER {{.User}}
{{if .EnvBlock}}
{{.EnvBlock}}
{{end}}
{{.Launch}}
`

var dockerfileTmpl = template.Must(template.New("dockerfile").Parse(dockerfileTemplate))

// dockerfileParams carries the pre-rendered blocks injected into the
// Dockerfile template.
type dockerfileParams struct {
	Name         string
	BaseImage    string
	RuntimeSetup string
	AppDir       string
	Requirements string
	User         string
	EnvBlock     string
	Launch       string
}

// Dockerfile renders the complete Dockerfile for a recipe. The recipe is
// assumed to have passed model.Recipe.Validate.
//
// Layer order follows the standard caching-friendly recipe: the dependency
// manifest is copied and installed before the rest of the source tree, so
// source-only edits do not invalidate the pip layer.
func Dockerfile(r *model.Recipe) (string, error) {
	launch, err := launchInstruction(r)
	if err != nil {
		return "", fmt.Errorf("failed to render launch instruction: %w", err)
	}

	params := dockerfileParams{
		Name:         r.Name,
		BaseImage:    r.ResolveBaseImage(),
		RuntimeSetup: runtimeSetup(r),
		AppDir:       r.AppDir,
		Requirements: r.Requirements,
		User:         r.User,
		EnvBlock:     envBlock(r),
		Launch:       launch,
	}

	var buf bytes.Buffer
	if err := dockerfileTmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render Dockerfile: %w", err)
	}
	return buf.String(), nil
}

// runtimeSetup returns the apt layer that installs the Python toolchain
// for the system variant. The slim variant ships the interpreter in the
// base image and needs no setup layer.
func runtimeSetup(r *model.Recipe) string {
	if r.Variant != model.VariantSystem {
		return ""
	}
	pkgs := append([]string{"python3", "python3-pip"}, r.SystemPackages...)
	return fmt.Sprintf(`RUN apt-get update \
    && apt-get install -y --no-install-recommends %s \
    && rm -rf /var/lib/apt/lists/*`, strings.Join(pkgs, " "))
}

// envBlock renders the ENV instructions: recipe Env entries in sorted key
// order, followed by the default entry script binding if one is set.
func envBlock(r *model.Recipe) string {
	var lines []string

	keys := make([]string, 0, len(r.Env))
	for k := range r.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("ENV %s=%s", k, quoteEnvValue(r.Env[k])))
	}

	if r.DefaultEntry != "" {
		lines = append(lines, fmt.Sprintf("ENV %s=%s", r.EntryVar, quoteEnvValue(r.DefaultEntry)))
	}

	return strings.Join(lines, "\n")
}

// quoteEnvValue quotes an ENV value for the Dockerfile key=value form.
func quoteEnvValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

// launcherScript builds the shell snippet that starts the application.
// It refuses to launch when the entry variable is unset or names a file
// that does not exist in the app dir, exiting with a code that cannot be
// confused with an interpreter failure; otherwise it execs the interpreter
// so the Python process receives signals directly.
func launcherScript(r *model.Recipe, forwardArgs bool) string {
	v := r.EntryVar
	var b strings.Builder
	fmt.Fprintf(&b,
		`if [ -z "$%s" ]; then echo "%s is not set; nothing to run" >&2; exit %d; fi; `,
		v, v, model.LauncherExitCode)
	fmt.Fprintf(&b,
		`if [ ! -f "$%s" ]; then echo "entry script $%s not found" >&2; exit %d; fi; `,
		v, v, model.LauncherExitCode)
	if forwardArgs {
		fmt.Fprintf(&b, `exec python3 "$%s" "$@"`, v)
	} else {
		fmt.Fprintf(&b, `exec python3 "$%s"`, v)
	}
	return b.String()
}

// launchInstruction renders the container start instruction per the
// recipe's entrypoint form. Both forms run the launcher through /bin/sh
// because selecting the script via an environment variable requires shell
// expansion; they differ in how `docker run` arguments are treated:
//
//   - shell-cmd emits CMD, so arguments replace the launch command wholesale
//   - exec-entrypoint emits ENTRYPOINT and forwards arguments to the entry
//     script via "$@" (the extra array element is sh's $0)
func launchInstruction(r *model.Recipe) (string, error) {
	switch r.EntrypointForm {
	case model.FormExecEntrypoint:
		arr, err := jsonArray([]string{
			"/bin/sh", "-c", launcherScript(r, true), r.Name + "-launch",
		})
		if err != nil {
			return "", err
		}
		return "ENTRYPOINT " + arr, nil
	default:
		arr, err := jsonArray([]string{"/bin/sh", "-c", launcherScript(r, false)})
		if err != nil {
			return "", err
		}
		return "CMD " + arr, nil
	}
}

// jsonArray marshals the exec-form instruction array without HTML escaping,
// so shell redirections like >&2 stay readable in the rendered file.
func jsonArray(items []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Dockerignore returns the .dockerignore content for a recipe. The ignore
// set keeps recipe files, VCS metadata, and Python build detritus out of
// the image; the source tree itself is copied wholesale.
func Dockerignore(r *model.Recipe) string {
	return fmt.Sprintf(`# Code generated by pycrate from recipe %q. DO NOT EDIT.
.git
.gitignore
.dockerignore
Dockerfile*
pycrate.yaml
pycrate.yml
pycrate.json
pycrate.jsonc
__pycache__/
*.pyc
*.pyo
.venv/
venv/
.pytest_cache/
.mypy_cache/
*.egg-info/
`, r.Name)
}
