package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incredibit/qisclick/internal/model"
)

func TestPackageStrings(t *testing.T) {
	specs := []model.PackageSpec{
		{Name: "qiskit", Version: "1.2.4"},
		{Name: "qiskit-aer"},
	}
	assert.Equal(t, []string{"qiskit==1.2.4", "qiskit-aer"}, packageStrings(specs))
	assert.Empty(t, packageStrings(nil))
}

func TestIsExitCode(t *testing.T) {
	notFound := model.NewCLIError(model.ExitEnvNotFound, "gone")
	assert.True(t, isExitCode(notFound, model.ExitEnvNotFound))
	assert.False(t, isExitCode(notFound, model.ExitPipFailed))

	// Wrapped CLIErrors are still recognized.
	wrapped := model.WrapCLIError(model.ExitPipFailed, "outer", errors.New("inner"))
	assert.True(t, isExitCode(wrapped, model.ExitPipFailed))

	assert.False(t, isExitCode(errors.New("plain"), model.ExitEnvNotFound))
	assert.False(t, isExitCode(nil, model.ExitEnvNotFound))
}

func TestResolveEnvPath(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		dir := t.TempDir()
		got, err := resolveEnvPath(filepath.Join(dir, "env"), "ignored")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "env"), got)
	})

	t.Run("default joins cwd and name", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		got, err := resolveEnvPath("", "qisclick_env")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
		assert.Equal(t, "qisclick_env", filepath.Base(got))
	})
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	assert.Equal(t, "qisclick", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)
	// Bare invocation must do real work, not print help.
	assert.NotNil(t, root.RunE)

	names := make(map[string]bool)
	for _, sub := range root.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"setup", "status", "verify", "shell", "remove"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
}
