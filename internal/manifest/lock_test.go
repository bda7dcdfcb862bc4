package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/pip"
)

// TestBuildLockfile verifies matching of requested packages against a
// pip inventory, including pip's inconsistent name normalization.
func TestBuildLockfile(t *testing.T) {
	requested := []model.PackageSpec{
		{Name: "qiskit"},
		{Name: "qiskit-aer"},
	}
	// pip reports "qiskit_aer" with an underscore here on purpose:
	// normalization must still match it to the requested "qiskit-aer".
	installed := []pip.InstalledPackage{
		{Name: "qiskit", Version: "1.2.4"},
		{Name: "qiskit_aer", Version: "0.15.1"},
		{Name: "numpy", Version: "2.1.0"}, // transitive dep, must not appear
	}

	lf, err := BuildLockfile("qisclick_env", "3.12.1", requested, installed)
	require.NoError(t, err)

	assert.Equal(t, "qisclick_env", lf.Name)
	assert.Equal(t, "3.12.1", lf.PythonVersion)
	assert.False(t, lf.CreatedAt.IsZero())

	require.Len(t, lf.Packages, 2, "transitive dependencies stay out of the lockfile")
	assert.Equal(t, LockedPackage{Name: "qiskit", Version: "1.2.4"}, lf.Packages[0])
	assert.Equal(t, LockedPackage{Name: "qiskit-aer", Version: "0.15.1"}, lf.Packages[1])
}

// TestBuildLockfileMissingPackage verifies that a requested package
// absent from the inventory is an error, not a silent omission.
func TestBuildLockfileMissingPackage(t *testing.T) {
	requested := []model.PackageSpec{{Name: "qiskit"}}
	installed := []pip.InstalledPackage{{Name: "pip", Version: "24.2"}}

	_, err := BuildLockfile("env", "3.12.1", requested, installed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qiskit")
}

// TestLockfileRoundTrip verifies write-then-read through the real YAML
// serialization, including the generated header comment.
func TestLockfileRoundTrip(t *testing.T) {
	envPath := t.TempDir()

	lf, err := BuildLockfile("qisclick_env", "3.12.1",
		[]model.PackageSpec{{Name: "qiskit"}},
		[]pip.InstalledPackage{{Name: "qiskit", Version: "1.2.4"}})
	require.NoError(t, err)

	require.NoError(t, WriteLockfile(envPath, lf))

	// The file carries the generated-file header.
	raw, err := os.ReadFile(filepath.Join(envPath, LockFileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "# Auto-generated by qisclick")

	loaded, err := ReadLockfile(envPath)
	require.NoError(t, err)
	assert.Equal(t, lf.Name, loaded.Name)
	assert.Equal(t, lf.PythonVersion, loaded.PythonVersion)
	assert.Equal(t, lf.Packages, loaded.Packages)
	assert.WithinDuration(t, lf.CreatedAt, loaded.CreatedAt, 0)
}

// TestReadLockfileMissing verifies the absent-lockfile path, which
// status treats as informational rather than an error.
func TestReadLockfileMissing(t *testing.T) {
	_, err := ReadLockfile(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
