package venv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/python"
)

// Info holds metadata about an existing virtual environment, parsed from
// its pyvenv.cfg file.
//
// Example pyvenv.cfg contents:
//
//	home = /usr/bin
//	include-system-site-packages = false
//	version = 3.12.1
//	executable = /usr/bin/python3.12
type Info struct {
	// Home is the directory of the base interpreter the environment was
	// created from.
	Home string

	// Version is the base interpreter version (e.g., "3.12.1").
	Version string

	// Executable is the absolute path of the base interpreter binary.
	// Only written by Python 3.11+; empty for older environments.
	Executable string

	// IncludeSystemSitePackages reports whether the environment can see
	// the base interpreter's site-packages.
	IncludeSystemSitePackages bool
}

// Manager provides virtual environment operations by invoking the
// base Python interpreter's venv module.
type Manager struct {
	// pythonPath is the base interpreter used for `python -m venv`.
	pythonPath string
}

// NewManager creates a Manager that uses the given base interpreter
// for environment creation.
func NewManager(pythonPath string) *Manager {
	return &Manager{pythonPath: pythonPath}
}

// Status inspects the directory at envPath and classifies it:
//
//	missing — the path does not exist
//	broken  — a directory exists but pyvenv.cfg or the interpreter
//	          binary inside it is absent
//	ready   — both markers are present
//
// A "ready" verdict says the environment is structurally complete, not
// that its installed packages are intact — that is what the smoke test
// is for.
func (m *Manager) Status(envPath string) model.EnvStatus {
	info, err := os.Stat(envPath)
	if err != nil {
		return model.StatusMissing
	}

	// A plain file at the target path counts as broken, not missing:
	// setup must not silently delete it.
	if !info.IsDir() {
		return model.StatusBroken
	}

	if _, err := os.Stat(cfgPath(envPath)); err != nil {
		return model.StatusBroken
	}
	if _, err := os.Stat(python.VenvPython(envPath)); err != nil {
		return model.StatusBroken
	}

	return model.StatusReady
}

// Create builds a fresh virtual environment at envPath by running
// `<python> -m venv <envPath>`.
//
// The parent directory must exist; the target itself must not (callers
// remove any previous environment first). Returns a model.CLIError with
// ExitVenvFailed on failure, including the venv module's output.
func (m *Manager) Create(ctx context.Context, envPath string) error {
	// #nosec G204 — arguments are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, m.pythonPath, "-m", "venv", envPath)

	// CombinedOutput captures both streams; the venv module reports
	// failures (e.g., missing ensurepip) on stderr.
	output, err := cmd.CombinedOutput()
	if err != nil {
		message := fmt.Sprintf("python -m venv %s failed", envPath)
		if out := strings.TrimSpace(string(output)); out != "" {
			message = fmt.Sprintf("%s: %s", message, out)
		}
		return model.WrapCLIError(model.ExitVenvFailed, message, err)
	}

	return nil
}

// Remove deletes the environment directory tree at envPath.
//
// Unless force is true, Remove refuses paths whose status is broken —
// i.e. directories that do not look like virtual environments — so that
// a mistyped --path cannot destroy unrelated data. A missing path is
// not an error; removal is idempotent.
func (m *Manager) Remove(envPath string, force bool) error {
	switch m.Status(envPath) {
	case model.StatusMissing:
		return nil
	case model.StatusBroken:
		if !force {
			return model.NewCLIError(
				model.ExitVenvFailed,
				fmt.Sprintf("%s exists but does not look like a virtual environment — remove it manually or re-run with --force", envPath),
			)
		}
	}

	if err := os.RemoveAll(envPath); err != nil {
		return model.WrapCLIError(
			model.ExitVenvFailed,
			fmt.Sprintf("failed to remove environment at %s", envPath),
			err,
		)
	}
	return nil
}

// Inspect reads and parses the environment's pyvenv.cfg.
// Returns a model.CLIError with ExitEnvNotFound if the file is absent.
func (m *Manager) Inspect(envPath string) (*Info, error) {
	data, err := os.ReadFile(cfgPath(envPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitEnvNotFound,
				fmt.Sprintf("no virtual environment at %s", envPath),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read pyvenv.cfg at %s: %w", envPath, err)
	}

	return parsePyvenvCfg(string(data)), nil
}

// cfgPath returns the pyvenv.cfg path for an environment. The file sits
// at the environment root on every platform; its presence is what the
// interpreter itself uses to detect that it is running inside a venv.
func cfgPath(envPath string) string {
	return envPath + string(os.PathSeparator) + "pyvenv.cfg"
}

// parsePyvenvCfg parses pyvenv.cfg contents into an Info struct.
//
// The format is one "key = value" pair per line. Keys vary across
// Python versions; unknown keys are ignored. The venv module writes the
// file itself (it is not configparser output), so there are no sections
// or comments to handle.
func parsePyvenvCfg(content string) *Info {
	info := &Info{}

	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "home":
			info.Home = value
		case "version":
			info.Version = value
		case "version_info":
			// Python 3.11+ writes version_info instead of version.
			// Prefer whichever appears; they carry the same value for
			// our purposes (trailing ".final.0" is trimmed).
			if info.Version == "" {
				info.Version = strings.TrimSuffix(value, ".final.0")
			}
		case "executable":
			info.Executable = value
		case "include-system-site-packages":
			info.IncludeSystemSitePackages = strings.EqualFold(value, "true")
		}
	}

	return info
}
