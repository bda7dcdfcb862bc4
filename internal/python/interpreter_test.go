package python

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requirePython skips the test if no python3 is available on PATH.
// Interpreter tests exercise the real binary, mirroring how the venv
// tests use the real `python -m venv`.
func requirePython(t *testing.T) string {
	t.Helper()

	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not found on PATH; skipping interpreter test")
	}
	return path
}

// TestParseVersionOutput verifies version extraction from the formats
// CPython actually prints.
func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected string
		hasError bool
	}{
		{"plain", "Python 3.12.1\n", "3.12.1", false},
		{"no trailing newline", "Python 3.9.18", "3.9.18", false},
		{"prerelease", "Python 3.13.0rc2\n", "3.13.0rc2", false},
		{"empty", "", "", true},
		{"garbage", "command not found", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, err := parseVersionOutput(tt.output)
			if tt.hasError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, version)
			}
		})
	}
}

// TestFind verifies interpreter discovery against the real PATH.
func TestFind(t *testing.T) {
	requirePython(t)

	interp, err := Find(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, interp.Path)
	assert.Regexp(t, `^\d+\.`, interp.Version, "version should start with a major number")
}

// TestFindOverride verifies that QISCLICK_PYTHON takes priority over
// PATH probing, and that a broken override is an error rather than a
// silent fallback.
func TestFindOverride(t *testing.T) {
	pythonPath := requirePython(t)

	t.Setenv(EnvOverride, pythonPath)
	interp, err := Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, pythonPath, interp.Path)

	t.Setenv(EnvOverride, "/nonexistent/python")
	_, err = Find(context.Background())
	assert.Error(t, err, "a broken override must not fall back to PATH")
}

// TestVenvLayout verifies the platform-specific executable paths inside
// a virtual environment.
func TestVenvLayout(t *testing.T) {
	env := filepath.Join("some", "env")

	if runtime.GOOS == "windows" {
		assert.Equal(t, filepath.Join(env, "Scripts"), VenvBinDir(env))
		assert.Equal(t, filepath.Join(env, "Scripts", "python.exe"), VenvPython(env))
		assert.Equal(t, filepath.Join(env, "Scripts", "pip.exe"), VenvPip(env))
	} else {
		assert.Equal(t, filepath.Join(env, "bin"), VenvBinDir(env))
		assert.Equal(t, filepath.Join(env, "bin", "python"), VenvPython(env))
		assert.Equal(t, filepath.Join(env, "bin", "pip"), VenvPip(env))
	}
}

// TestRunSnippet verifies snippet execution and output streaming with a
// real interpreter.
func TestRunSnippet(t *testing.T) {
	pythonPath := requirePython(t)

	var stdout, stderr bytes.Buffer
	err := RunSnippet(context.Background(), pythonPath, `print("hello from snippet")`, &stdout, &stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "hello from snippet")
}

// TestRunSnippetFailure verifies that a raising snippet surfaces as a
// verification error.
func TestRunSnippetFailure(t *testing.T) {
	pythonPath := requirePython(t)

	var stdout, stderr bytes.Buffer
	err := RunSnippet(context.Background(), pythonPath, `raise RuntimeError("boom")`, &stdout, &stderr)
	assert.Error(t, err)
	assert.Contains(t, stderr.String(), "boom", "the snippet's traceback should reach the stderr writer")
}
