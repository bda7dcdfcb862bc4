// lock.go reads and writes the per-environment lockfile.
//
// The lockfile is a generated YAML artifact written into the environment
// directory after a successful setup. It records the interpreter version
// and the exact versions pip resolved for the requested package set, so
// `qisclick status` can answer "what is installed here" without shelling
// out to pip, and so two machines can compare what their setups produced.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/pip"
)

// LockFileName is the lockfile's name inside the environment directory.
const LockFileName = "qisclick.lock.yml"

// Lockfile records what a successful setup installed.
type Lockfile struct {
	// Name is the environment name the lockfile belongs to.
	Name string `yaml:"name"`

	// PythonVersion is the base interpreter version the environment was
	// created from.
	PythonVersion string `yaml:"pythonVersion"`

	// CreatedAt is the setup completion timestamp, UTC.
	CreatedAt time.Time `yaml:"createdAt"`

	// Packages lists the requested packages with the exact versions pip
	// resolved, sorted by name.
	Packages []LockedPackage `yaml:"packages"`
}

// LockedPackage is one resolved package entry in the lockfile.
type LockedPackage struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// BuildLockfile assembles a Lockfile from the requested package set and
// a pip inventory of the finished environment.
//
// Only requested packages appear in the lockfile — transitive
// dependencies stay out, keeping the file a statement of intent plus
// resolution rather than a full freeze. A requested package missing
// from the inventory is an error: it means the install silently did not
// take, which must not be papered over.
func BuildLockfile(name, pythonVersion string, requested []model.PackageSpec, installed []pip.InstalledPackage) (*Lockfile, error) {
	versions := pip.Versions(installed)

	locked := make([]LockedPackage, 0, len(requested))
	for _, spec := range requested {
		version, ok := versions[pip.NormalizeName(spec.Name)]
		if !ok {
			return nil, fmt.Errorf("package %q was requested but is not installed", spec.Name)
		}
		locked = append(locked, LockedPackage{Name: spec.Name, Version: version})
	}

	// Sort for deterministic output; the install order is operational,
	// not semantic.
	sort.Slice(locked, func(i, j int) bool { return locked[i].Name < locked[j].Name })

	return &Lockfile{
		Name:          name,
		PythonVersion: pythonVersion,
		CreatedAt:     time.Now().UTC(),
		Packages:      locked,
	}, nil
}

// WriteLockfile serializes the lockfile to YAML and writes it into the
// environment directory, prefixed with a header comment marking it as
// generated.
func WriteLockfile(envPath string, lf *Lockfile) error {
	yamlBytes, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("failed to serialize lockfile: %w", err)
	}

	header := fmt.Sprintf(
		"# Auto-generated by qisclick for environment %q\n# DO NOT EDIT - this file is rewritten on each setup\n",
		lf.Name,
	)

	path := filepath.Join(envPath, LockFileName)
	if err := os.WriteFile(path, []byte(header+string(yamlBytes)), 0644); err != nil {
		return fmt.Errorf("failed to write lockfile %s: %w", path, err)
	}
	return nil
}

// ReadLockfile loads and parses the environment's lockfile.
// Returns os.ErrNotExist (wrapped) when no lockfile is present, which
// callers treat as "environment predates the lockfile or setup never
// finished", not as a failure.
func ReadLockfile(envPath string) (*Lockfile, error) {
	path := filepath.Join(envPath, LockFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile %s: %w", path, err)
	}
	return &lf, nil
}
