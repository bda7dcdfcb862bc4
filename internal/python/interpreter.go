package python

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/incredibit/qisclick/internal/model"
)

// EnvOverride is the environment variable that forces a specific Python
// interpreter, bypassing PATH probing. It takes the interpreter's path.
const EnvOverride = "QISCLICK_PYTHON"

// Interpreter describes a resolved Python interpreter on the host.
type Interpreter struct {
	// Path is the absolute path of the interpreter executable.
	Path string

	// Version is the interpreter version (e.g., "3.12.1"), parsed from
	// `python --version` output.
	Version string
}

// Find locates a usable Python interpreter.
//
// The resolution strategy follows this priority order:
//  1. QISCLICK_PYTHON environment variable (if set, used as-is)
//  2. Platform-specific PATH candidates:
//     - Windows: py, python, python3
//     - everywhere else: python3, python
//
// The first candidate that resolves on PATH and answers a --version
// query wins. Returns a model.CLIError with ExitPythonNotFound if no
// candidate works.
func Find(ctx context.Context) (*Interpreter, error) {
	// Step 1: explicit override. When set we respect it unconditionally —
	// a broken override is an error, not a reason to fall back silently.
	if override := os.Getenv(EnvOverride); override != "" {
		version, err := queryVersion(ctx, override)
		if err != nil {
			return nil, model.WrapCLIError(
				model.ExitPythonNotFound,
				fmt.Sprintf("%s is set to %q but it is not a working Python interpreter", EnvOverride, override),
				err,
			)
		}
		return &Interpreter{Path: override, Version: version}, nil
	}

	// Step 2: probe PATH candidates in platform preference order.
	for _, candidate := range pathCandidates() {
		path, err := exec.LookPath(candidate)
		if err != nil {
			continue
		}

		// LookPath success only confirms an executable exists. A version
		// query confirms it actually behaves like a Python interpreter
		// (and filters out the Windows Store python.exe stub, which
		// exits non-zero when Python is not installed).
		version, err := queryVersion(ctx, path)
		if err != nil {
			continue
		}

		return &Interpreter{Path: path, Version: version}, nil
	}

	return nil, model.NewCLIError(
		model.ExitPythonNotFound,
		fmt.Sprintf("no Python interpreter found on PATH (tried: %s) — install Python 3 or set %s",
			strings.Join(pathCandidates(), ", "), EnvOverride),
	)
}

// pathCandidates returns the interpreter executable names to probe on
// PATH, ordered by platform preference.
func pathCandidates() []string {
	if runtime.GOOS == "windows" {
		// The "py" launcher is the canonical entry point on Windows and
		// picks the newest installed Python 3 by default.
		return []string{"py", "python", "python3"}
	}
	// On Unix systems "python" may still be Python 2 on older distros,
	// so python3 is probed first.
	return []string{"python3", "python"}
}

// queryVersion runs `<python> --version` and parses the version number
// from its output.
//
// CPython prints "Python 3.12.1" on stdout (stderr on very old 3.x
// releases), so both streams are captured together.
func queryVersion(ctx context.Context, pythonPath string) (string, error) {
	cmd := exec.CommandContext(ctx, pythonPath, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", pythonPath, err)
	}

	return parseVersionOutput(string(output))
}

// parseVersionOutput extracts the version number from `python --version`
// output ("Python 3.12.1" → "3.12.1").
func parseVersionOutput(output string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(output))
	if len(fields) < 2 || fields[0] != "Python" {
		return "", fmt.Errorf("unexpected --version output: %q", strings.TrimSpace(output))
	}
	return fields[1], nil
}

// VenvBinDir returns the executables directory inside a virtual
// environment: <env>/Scripts on Windows, <env>/bin elsewhere.
func VenvBinDir(envPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envPath, "Scripts")
	}
	return filepath.Join(envPath, "bin")
}

// VenvPython returns the path of the interpreter executable inside a
// virtual environment.
func VenvPython(envPath string) string {
	return filepath.Join(VenvBinDir(envPath), exeName("python"))
}

// VenvPip returns the path of the pip executable inside a virtual
// environment.
func VenvPip(envPath string) string {
	return filepath.Join(VenvBinDir(envPath), exeName("pip"))
}

// ActivateHint returns the shell command a user would run to activate
// the environment manually. Printed at the end of setup; qisclick itself
// never sources activation scripts (it always invokes the environment's
// binaries by absolute path).
func ActivateHint(envPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(envPath, "Scripts", "activate.bat")
	}
	return "source " + filepath.Join(envPath, "bin", "activate")
}

// exeName appends ".exe" on Windows.
func exeName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}
