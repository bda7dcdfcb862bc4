package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incredibit/qisclick/internal/model"
)

// TestBuildLabels verifies that BuildLabels produces a label map with
// all required keys plus one label per requested package.
func TestBuildLabels(t *testing.T) {
	createdAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	packages := []model.PackageSpec{
		{Name: "qiskit"},
		{Name: "qiskit-aer", Version: "0.15.1"},
	}

	labels := BuildLabels("default", "python:3.12-slim", packages, createdAt)

	assert.Equal(t, ManagedByValue, labels[LabelManagedBy],
		"managed-by label should always be set to the constant value")
	assert.Equal(t, "default", labels[LabelName])
	assert.Equal(t, "python:3.12-slim", labels[LabelImage])
	assert.Equal(t, "2026-08-29T10:00:00Z", labels[LabelCreatedAt])

	// Per-package labels: value is the pin, empty when unpinned.
	assert.Equal(t, "", labels["qisclick.package.qiskit"])
	assert.Equal(t, "0.15.1", labels["qisclick.package.qiskit-aer"])

	// 4 static labels + 2 package labels.
	assert.Len(t, labels, 6)
}

// TestParseLabels verifies reconstruction of sandbox metadata from a
// label map — the inverse of BuildLabels.
func TestParseLabels(t *testing.T) {
	createdAt := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	labels := BuildLabels("default", "python:3.12-slim",
		[]model.PackageSpec{{Name: "qiskit", Version: "1.2.4"}}, createdAt)

	info, err := ParseLabels(labels)
	require.NoError(t, err)

	assert.Equal(t, "default", info.Name)
	assert.Equal(t, "python:3.12-slim", info.Image)
	assert.True(t, createdAt.Equal(info.CreatedAt))
	require.Len(t, info.Packages, 1)
	assert.Equal(t, model.PackageSpec{Name: "qiskit", Version: "1.2.4"}, info.Packages[0])
}

// TestParseLabels_MissingRequired verifies that a label map lacking
// required keys fails with an error naming all missing keys at once.
func TestParseLabels_MissingRequired(t *testing.T) {
	labels := map[string]string{
		LabelManagedBy: ManagedByValue,
		// name, image, created-at all missing
	}

	_, err := ParseLabels(labels)
	require.Error(t, err)
	assert.Contains(t, err.Error(), LabelName)
	assert.Contains(t, err.Error(), LabelImage)
	assert.Contains(t, err.Error(), LabelCreatedAt)
}

// TestParseLabels_WrongManagedBy verifies rejection of containers
// labeled by some other tool that happens to use the same key.
func TestParseLabels_WrongManagedBy(t *testing.T) {
	labels := BuildLabels("default", "python:3.12-slim", nil, time.Now())
	labels[LabelManagedBy] = "some-other-tool"

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

// TestParseLabels_BadTimestamp verifies rejection of a malformed
// created-at label.
func TestParseLabels_BadTimestamp(t *testing.T) {
	labels := BuildLabels("default", "python:3.12-slim", nil, time.Now())
	labels[LabelCreatedAt] = "yesterday"

	_, err := ParseLabels(labels)
	assert.Error(t, err)
}

// TestParsePackageLabels verifies package extraction in isolation,
// including the empty case and malformed names.
func TestParsePackageLabels(t *testing.T) {
	t.Run("no package labels", func(t *testing.T) {
		packages, err := ParsePackageLabels(map[string]string{LabelName: "x"})
		require.NoError(t, err)
		assert.Empty(t, packages)
		assert.NotNil(t, packages, "empty slice, not nil, per the contract")
	})

	t.Run("unrelated labels ignored", func(t *testing.T) {
		packages, err := ParsePackageLabels(map[string]string{
			"com.docker.compose.service":     "app",
			LabelPackagePrefix + "qiskit":    "",
			LabelPackagePrefix + "qiskit-aer": "0.15.1",
		})
		require.NoError(t, err)
		assert.Len(t, packages, 2)
	})

	t.Run("malformed package name", func(t *testing.T) {
		_, err := ParsePackageLabels(map[string]string{
			LabelPackagePrefix + "-bad-": "",
		})
		assert.Error(t, err)
	})
}

// TestContainerName pins the container naming scheme, which users see
// in docker ps output.
func TestContainerName(t *testing.T) {
	assert.Equal(t, "qisclick-default", ContainerName("default"))
}
