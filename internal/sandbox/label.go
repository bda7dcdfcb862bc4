package sandbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/incredibit/qisclick/internal/model"
)

// Label key constants define the Docker labels that persist sandbox
// metadata on containers. Labels are the sole persistence mechanism —
// there is no local state file to drift out of sync with reality.
//
// All keys share the "qisclick." prefix to namespace them away from
// labels set by other tools.
const (
	// LabelPrefix is the common prefix for all qisclick labels.
	LabelPrefix = "qisclick."

	// LabelManagedBy identifies containers managed by qisclick.
	// Key: "qisclick.managed-by", Value: always "qisclick".
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the sandbox's qisclick name.
	// Key: "qisclick.name", Value: e.g. "default".
	LabelName = LabelPrefix + "name"

	// LabelImage stores the base image the sandbox was started from.
	// Key: "qisclick.image", Value: e.g. "python:3.12-slim".
	LabelImage = LabelPrefix + "image"

	// LabelPackagePrefix is the prefix for per-package labels. Each
	// requested package gets its own label with the name appended:
	//
	//	"qisclick.package.qiskit-aer" = "0.15.1"   (pinned)
	//	"qisclick.package.qiskit"     = ""          (latest)
	//
	// Per-package labels keep each requirement independently parseable
	// and human-readable under `docker inspect`.
	LabelPackagePrefix = LabelPrefix + "package."

	// LabelCreatedAt stores the sandbox creation timestamp.
	// Key: "qisclick.created-at", Value: RFC3339.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the constant value for the LabelManagedBy label,
// used as the Docker API filter when discovering sandboxes.
const ManagedByValue = "qisclick"

// BuildLabels constructs the Docker label map for a new sandbox.
// The labels allow full reconstruction of the sandbox's metadata from
// container inspection alone.
func BuildLabels(name, image string, packages []model.PackageSpec, createdAt time.Time) map[string]string {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelName:      name,
		LabelImage:     image,
		LabelCreatedAt: createdAt.UTC().Format(time.RFC3339),
	}

	for _, p := range packages {
		labels[LabelPackagePrefix+p.Name] = p.Version
	}

	return labels
}

// ParseLabels reconstructs sandbox metadata from Docker container
// labels. This is the inverse of BuildLabels.
//
// Required labels: managed-by, name, image, created-at. Missing required
// labels cause an error; the error lists them all at once for easier
// debugging. ContainerID, ContainerName, and State are filled by the
// caller from the Docker API listing, not from labels.
func ParseLabels(labels map[string]string) (*model.SandboxInfo, error) {
	requiredKeys := []string{
		LabelManagedBy,
		LabelName,
		LabelImage,
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

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	packages, err := ParsePackageLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to parse package labels: %w", err)
	}

	return &model.SandboxInfo{
		Name:      labels[LabelName],
		Image:     labels[LabelImage],
		Packages:  packages,
		CreatedAt: createdAt,
		Labels:    labels,
	}, nil
}

// ParsePackageLabels extracts the requested package set from a label
// map. Returns an empty slice (not nil) when no package labels exist.
func ParsePackageLabels(labels map[string]string) ([]model.PackageSpec, error) {
	packages := make([]model.PackageSpec, 0, 4)

	for key, value := range labels {
		if !strings.HasPrefix(key, LabelPackagePrefix) {
			continue
		}

		spec := model.PackageSpec{
			Name:    strings.TrimPrefix(key, LabelPackagePrefix),
			Version: value,
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("invalid package label %q=%q: %w", key, value, err)
		}
		packages = append(packages, spec)
	}

	return packages, nil
}
