package docker

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmr-tortoise/pycrate/internal/model"
)

// Label key constants define the Docker label keys used to persist build
// metadata on images. These labels serve as the sole persistence
// mechanism — there is no external state file.
//
// All keys share the "pycrate." prefix to namespace them and avoid
// collisions with labels set by other tools.
const (
	// LabelPrefix is the common prefix for all pycrate labels.
	// Using a consistent prefix enables efficient label-based filtering
	// when listing images via the Docker API.
	LabelPrefix = "pycrate."

	// LabelManagedBy identifies images built by pycrate. This is the
	// primary label used for filtering and discovery.
	// Key: "pycrate.managed-by", Value: always "pycrate".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelRecipe stores the name of the recipe the image was built from.
	// Key: "pycrate.recipe", Value: recipe name (e.g., "thermosys").
	LabelRecipe = LabelPrefix + "recipe"

	// LabelVariant stores the base image strategy of the build.
	// Key: "pycrate.variant", Value: "slim" or "system".
	LabelVariant = LabelPrefix + "variant"

	// LabelEntrypointForm stores the start-command emission mode.
	// Key: "pycrate.entrypoint-form", Value: "shell-cmd" or "exec-entrypoint".
	LabelEntrypointForm = LabelPrefix + "entrypoint-form"

	// LabelEntryVar stores the environment variable that selects the entry
	// script at container start.
	// Key: "pycrate.entry-var", Value: variable name (e.g., "FILE_NAME").
	LabelEntryVar = LabelPrefix + "entry-var"

	// LabelAppDir stores the in-image application directory.
	// Key: "pycrate.app-dir", Value: absolute path (e.g., "/usr/app").
	LabelAppDir = LabelPrefix + "app-dir"

	// LabelUser stores the non-root account the image runs as.
	// Key: "pycrate.user", Value: account name (e.g., "admin").
	LabelUser = LabelPrefix + "user"

	// LabelDefaultEntry stores the baked-in default entry script, if any.
	// The label is omitted when the recipe has no default entry.
	// Key: "pycrate.default-entry", Value: relative script path.
	LabelDefaultEntry = LabelPrefix + "default-entry"

	// LabelCreatedAt stores the ISO-8601 timestamp of the build.
	// Key: "pycrate.created-at", Value: RFC3339 formatted timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label.
// All images built by this CLI are tagged with this value, enabling
// discovery via Docker API label filters.
const ManagedByValue = "pycrate"

// BuildLabels constructs the Docker label map applied to an image built
// from the given recipe. The labels allow reconstructing the build
// metadata from image inspection alone.
func BuildLabels(r *model.Recipe, createdAt time.Time) map[string]string {
	labels := map[string]string{
		LabelManagedBy:      ManagedByValue,
		LabelRecipe:         r.Name,
		LabelVariant:        r.Variant.String(),
		LabelEntrypointForm: r.EntrypointForm.String(),
		LabelEntryVar:       r.EntryVar,
		LabelAppDir:         r.AppDir,
		LabelUser:           r.User,
		// UTC ensures consistent timestamps regardless of the host
		// machine's timezone.
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}

	// The default entry is optional; omit the label rather than storing
	// an empty value so ParseLabels can distinguish "none" cleanly.
	if r.DefaultEntry != "" {
		labels[LabelDefaultEntry] = r.DefaultEntry
	}

	return labels
}

// ParseLabels reconstructs build metadata from Docker image labels.
// This is the inverse of BuildLabels and is used when listing images to
// rebuild the domain model.
//
// Required labels: managed-by, recipe, variant, entrypoint-form,
// entry-var, app-dir, user, created-at. Missing required labels cause
// an error.
//
// ImageID and Tags are NOT reconstructed from labels because they come
// from the Docker image summary itself.
func ParseLabels(labels map[string]string) (*model.ImageInfo, error) {
	// Check all required labels at once rather than failing on the first
	// missing one, so the error message can list everything that's wrong.
	requiredKeys := []string{
		LabelManagedBy,
		LabelRecipe,
		LabelVariant,
		LabelEntrypointForm,
		LabelEntryVar,
		LabelAppDir,
		LabelUser,
		LabelCreatedAt,
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := labels[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	variant, err := model.ParseBaseVariant(labels[LabelVariant])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelVariant, err)
	}

	form, err := model.ParseEntrypointForm(labels[LabelEntrypointForm])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelEntrypointForm, err)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &model.ImageInfo{
		RecipeName:     labels[LabelRecipe],
		Variant:        variant,
		EntrypointForm: form,
		EntryVar:       labels[LabelEntryVar],
		AppDir:         labels[LabelAppDir],
		User:           labels[LabelUser],
		DefaultEntry:   labels[LabelDefaultEntry],
		CreatedAt:      createdAt,
	}, nil
}
