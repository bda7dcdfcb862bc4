package pip

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/python"
	"github.com/incredibit/qisclick/internal/venv"
)

// setupTestEnv creates a real virtual environment and returns its pip
// path. Skips when python3 is unavailable. The environment creation is
// shared per test because `python -m venv` takes a few seconds.
func setupTestEnv(t *testing.T) string {
	t.Helper()

	pythonPath, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not found on PATH; skipping pip test")
	}

	envPath := filepath.Join(t.TempDir(), "pip_test_env")
	m := venv.NewManager(pythonPath)
	require.NoError(t, m.Create(context.Background(), envPath))

	return python.VenvPip(envPath)
}

// TestInstalled verifies the inventory round trip against a real
// environment: a fresh venv always contains pip itself.
func TestInstalled(t *testing.T) {
	pipPath := setupTestEnv(t)

	packages, err := Installed(context.Background(), pipPath)
	require.NoError(t, err)
	require.NotEmpty(t, packages)

	versions := Versions(packages)
	assert.Contains(t, versions, "pip", "a fresh environment must report pip itself")
	assert.NotEmpty(t, versions["pip"])
}

// TestInstallRejectsInvalidSpec verifies that malformed specs are
// refused before any process is spawned.
func TestInstallRejectsInvalidSpec(t *testing.T) {
	var out bytes.Buffer
	err := Install(context.Background(), "/nonexistent/pip", model.PackageSpec{Name: "bad name"}, &out)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitPipFailed, cliErr.Code)
}

// TestParseListOutput verifies JSON inventory parsing, including the
// preamble-skipping behavior for noisy pip versions.
func TestParseListOutput(t *testing.T) {
	t.Run("clean output", func(t *testing.T) {
		packages, err := parseListOutput(`[{"name": "qiskit", "version": "1.2.4"}, {"name": "pip", "version": "24.2"}]`)
		require.NoError(t, err)
		require.Len(t, packages, 2)
		assert.Equal(t, InstalledPackage{Name: "qiskit", Version: "1.2.4"}, packages[0])
	})

	t.Run("preamble before the array", func(t *testing.T) {
		packages, err := parseListOutput("WARNING: you should upgrade pip\n[{\"name\": \"pip\", \"version\": \"21.0\"}]\n")
		require.NoError(t, err)
		require.Len(t, packages, 1)
		assert.Equal(t, "pip", packages[0].Name)
	})

	t.Run("no array at all", func(t *testing.T) {
		_, err := parseListOutput("total garbage")
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := parseListOutput(`[{"name": "qiskit"`)
		assert.Error(t, err)
	})
}

// TestNormalizeName verifies PEP 503 name canonicalization, which the
// lockfile writer relies on to match requested names to pip's reports.
func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"qiskit", "qiskit"},
		{"Qiskit-Aer", "qiskit-aer"},
		{"typing_extensions", "typing-extensions"},
		{"zope.interface", "zope-interface"},
		{"weird__--..name", "weird-name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

// TestVersions verifies map construction with normalized keys.
func TestVersions(t *testing.T) {
	versions := Versions([]InstalledPackage{
		{Name: "Qiskit_Aer", Version: "0.15.1"},
		{Name: "pip", Version: "24.2"},
	})

	assert.Equal(t, "0.15.1", versions["qiskit-aer"])
	assert.Equal(t, "24.2", versions["pip"])
}
