package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"

	"github.com/incredibit/qisclick/internal/model"
)

// DefaultEnvName is the environment directory name used when no
// manifest overrides it.
const DefaultEnvName = "qisclick_env"

// DefaultSandboxImage is the container image used for sandbox-mode
// bootstraps when no manifest overrides it.
const DefaultSandboxImage = "python:3.12-slim"

// defaultVerifySnippet builds and runs a Bell-state circuit on the Aer
// simulator — the smallest program that proves the circuit library,
// transpiler, and simulator are all importable and working together.
const defaultVerifySnippet = `
from qiskit import QuantumCircuit, transpile
from qiskit_aer import AerSimulator

qc = QuantumCircuit(2, 2)
qc.h(0)
qc.cx(0, 1)
qc.measure([0, 1], [0, 1])

simulator = AerSimulator()
compiled = transpile(qc, simulator)
result = simulator.run(compiled, shots=1024).result()
counts = result.get_counts(qc)

print("Measurement counts:", counts)
print("Qiskit installation verified.")
`

// Manifest describes the environment to build. Zero-valued fields fall
// back to the built-in defaults during Load, so a manifest may override
// just the packages, just the name, or any combination.
type Manifest struct {
	// Name is the environment name, which doubles as the directory name
	// (host mode) and the container name suffix (sandbox mode).
	Name string `json:"name"`

	// Packages is the set to install, in order.
	Packages []model.PackageSpec `json:"packages"`

	// Verify is the Python source of the smoke test, run with
	// `python -c` after installation.
	Verify string `json:"verify"`

	// SandboxImage is the container image for sandbox mode.
	SandboxImage string `json:"sandboxImage"`
}

// Default returns the built-in manifest: the fixed Qiskit package set
// and the Bell-state verification snippet.
func Default() *Manifest {
	return &Manifest{
		Name: DefaultEnvName,
		Packages: []model.PackageSpec{
			{Name: "qiskit"},
			{Name: "qiskit-aer"},
			{Name: "qiskit-ibm-runtime"},
			{Name: "qiskit-terra"},
		},
		Verify:       defaultVerifySnippet,
		SandboxImage: DefaultSandboxImage,
	}
}

// Find searches for a manifest file in the standard locations within
// the given directory, in priority order:
//
//  1. <dir>/qisclick.jsonc
//  2. <dir>/.qisclick.jsonc
//
// Returns the path of the first file found, or "" if neither exists.
// A missing manifest is not an error — it means the defaults apply.
func Find(dir string) string {
	candidates := []string{
		filepath.Join(dir, "qisclick.jsonc"),
		filepath.Join(dir, ".qisclick.jsonc"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads a manifest file, strips JSONC comments, parses it, fills
// unset fields from the defaults, and validates the result.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitGeneralError,
				fmt.Sprintf("manifest not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	// Strip // and /* */ comments and trailing commas before handing the
	// bytes to encoding/json. Unknown fields are silently ignored.
	clean := jsonc.ToJSON(data)

	var m Manifest
	if err := json.Unmarshal(clean, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	applyDefaults(&m)

	if err := m.Validate(); err != nil {
		return nil, model.WrapCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("invalid manifest %s", path),
			err,
		)
	}

	return &m, nil
}

// applyDefaults fills unset manifest fields from the built-in defaults.
// An explicitly empty package list is NOT defaulted — a manifest with
// "packages": [] is a validation error, not a silent fallback, because
// it almost certainly means a mangled edit.
func applyDefaults(m *Manifest) {
	defaults := Default()
	if m.Name == "" {
		m.Name = defaults.Name
	}
	if m.Packages == nil {
		m.Packages = defaults.Packages
	}
	if m.Verify == "" {
		m.Verify = defaults.Verify
	}
	if m.SandboxImage == "" {
		m.SandboxImage = defaults.SandboxImage
	}
}

// Validate checks the manifest for usability: a valid environment name
// and a non-empty, well-formed package set.
func (m *Manifest) Validate() error {
	if err := model.ValidateName(m.Name); err != nil {
		return err
	}
	if len(m.Packages) == 0 {
		return fmt.Errorf("package list must not be empty")
	}

	seen := make(map[string]bool, len(m.Packages))
	for _, p := range m.Packages {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate package %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
