package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/python"
	"github.com/incredibit/qisclick/internal/sandbox"
	"github.com/incredibit/qisclick/internal/venv"
)

// shellFlags holds the flag values for the shell command.
type shellFlags struct {
	path         string
	manifestPath string
	sandboxMode  bool
}

// NewShellCommand creates the shell subcommand, which re-enters the
// interactive interpreter of an existing environment.
func NewShellCommand() *cobra.Command {
	flags := &shellFlags{}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive interpreter in an existing environment",
		Long: `Shell starts the environment's Python interpreter interactively,
without rebuilding anything. The interpreter inherits the terminal, so
exiting it (exit() or Ctrl-D) returns to the calling shell.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.path, "path", "", "Directory of the environment (default: ./<name>)")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Manifest file to load (default: discover qisclick.jsonc)")
	cmd.Flags().BoolVar(&flags.sandboxMode, "sandbox", false, "Enter the Docker sandbox instead of the host environment")

	return cmd
}

func runShell(ctx context.Context, flags *shellFlags) error {
	m, err := loadManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return model.NewCLIError(model.ExitGeneralError,
			"shell requires an interactive terminal on stdin")
	}

	if flags.sandboxMode {
		client, err := sandbox.NewClient()
		if err != nil {
			return err
		}
		defer client.Close()
		if err := client.Ping(ctx); err != nil {
			return err
		}
		if _, err := sandbox.Find(ctx, client, m.Name); err != nil {
			return err
		}
		fmt.Printf("Entering sandbox %q (exit() to leave) ...\n", m.Name)
		return sandbox.ExecInteractive(ctx, m.Name, "python")
	}

	envPath, err := resolveEnvPath(flags.path, m.Name)
	if err != nil {
		return err
	}

	mgr := venv.NewManager("")
	switch mgr.Status(envPath) {
	case model.StatusMissing:
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("no environment at %s; run setup first", envPath))
	case model.StatusBroken:
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("directory at %s is not a usable environment; run setup to rebuild it", envPath))
	}

	fmt.Printf("Entering environment %q (exit() to leave) ...\n", m.Name)
	return python.RunInteractive(ctx, python.VenvPython(envPath))
}
