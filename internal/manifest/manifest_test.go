package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incredibit/qisclick/internal/model"
)

// writeManifest writes manifest content to a temp file and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "qisclick.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestDefault verifies the built-in manifest: the fixed Qiskit package
// set, a usable name, and a non-empty verification snippet.
func TestDefault(t *testing.T) {
	m := Default()

	assert.Equal(t, "qisclick_env", m.Name)
	require.NoError(t, m.Validate())

	names := make([]string, len(m.Packages))
	for i, p := range m.Packages {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"qiskit", "qiskit-aer", "qiskit-ibm-runtime", "qiskit-terra"}, names)

	assert.Contains(t, m.Verify, "QuantumCircuit", "default snippet should exercise the circuit library")
	assert.Contains(t, m.Verify, "AerSimulator", "default snippet should exercise the simulator")
}

// TestLoad verifies JSONC parsing with comments and trailing commas —
// the whole point of using JSONC for hand-edited manifests.
func TestLoad(t *testing.T) {
	path := writeManifest(t, `{
	// Environment for the tutorial series.
	"name": "tutorial-env",
	"packages": [
		{"name": "qiskit", "version": "1.2.4"},
		{"name": "qiskit-aer"}, // trailing comma below is fine too
	],
}`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tutorial-env", m.Name)
	require.Len(t, m.Packages, 2)
	assert.Equal(t, model.PackageSpec{Name: "qiskit", Version: "1.2.4"}, m.Packages[0])
	assert.Equal(t, model.PackageSpec{Name: "qiskit-aer"}, m.Packages[1])

	// Unset fields fall back to defaults.
	assert.NotEmpty(t, m.Verify)
	assert.Equal(t, DefaultSandboxImage, m.SandboxImage)
}

// TestLoadPartialOverride verifies that a manifest overriding only the
// name keeps the default package set.
func TestLoadPartialOverride(t *testing.T) {
	path := writeManifest(t, `{"name": "just-a-name"}`)

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "just-a-name", m.Name)
	assert.Len(t, m.Packages, 4, "default package set should apply when packages is absent")
}

// TestLoadInvalid covers the rejection paths: empty package lists,
// malformed names, duplicates, and unparseable files.
func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"explicitly empty packages", `{"packages": []}`},
		{"bad package name", `{"packages": [{"name": "-bad"}]}`},
		{"duplicate package", `{"packages": [{"name": "qiskit"}, {"name": "qiskit"}]}`},
		{"bad env name", `{"name": "has spaces"}`},
		{"not json at all", `packages: [qiskit]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

// TestLoadMissing verifies the not-found error path.
func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.jsonc"))
	require.Error(t, err)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitGeneralError, cliErr.Code)
}

// TestFind verifies manifest discovery order and the empty result for
// directories without a manifest.
func TestFind(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, Find(dir), "no manifest means empty path, not an error")

	// The dotted variant is found...
	dotted := filepath.Join(dir, ".qisclick.jsonc")
	require.NoError(t, os.WriteFile(dotted, []byte("{}"), 0644))
	assert.Equal(t, dotted, Find(dir))

	// ...but the plain name takes priority when both exist.
	plain := filepath.Join(dir, "qisclick.jsonc")
	require.NoError(t, os.WriteFile(plain, []byte("{}"), 0644))
	assert.Equal(t, plain, Find(dir))
}
