// The remove command tears down a qisclick environment: the virtual
// environment directory on the host, the Docker sandbox container, or
// both. By default it prompts for confirmation; --force skips the
// prompt and also allows deleting a target directory that does not
// look like a virtual environment.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/sandbox"
	"github.com/incredibit/qisclick/internal/venv"
)

// removeFlags holds the flag values for the remove command.
type removeFlags struct {
	path         string
	manifestPath string

	// force skips the interactive confirmation prompt and permits
	// deleting a directory that is not a recognizable environment.
	force bool

	// sandboxMode removes the Docker sandbox instead of the host
	// environment directory.
	sandboxMode bool
}

// removeResult is the JSON shape emitted by remove when --json is set.
type removeResult struct {
	Name    string `json:"name"`
	Sandbox bool   `json:"sandbox"`
	Path    string `json:"path,omitempty"`
	Removed bool   `json:"removed"`
}

// NewRemoveCommand creates the remove subcommand.
func NewRemoveCommand() *cobra.Command {
	flags := &removeFlags{}

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Delete the environment or its Docker sandbox",
		Long: `Remove deletes the environment directory, or with --sandbox the
qisclick-managed Docker container of the same name.

Unless --force is specified, the command prompts for confirmation.
A host directory that does not look like a virtual environment is
never deleted without --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.path, "path", "", "Directory of the environment (default: ./<name>)")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Manifest file to load (default: discover qisclick.jsonc)")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")
	cmd.Flags().BoolVar(&flags.sandboxMode, "sandbox", false, "Remove the Docker sandbox instead of the host environment")

	return cmd
}

func runRemove(ctx context.Context, flags *removeFlags) error {
	m, err := loadManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	if flags.sandboxMode {
		return runRemoveSandbox(ctx, m.Name, flags)
	}

	envPath, err := resolveEnvPath(flags.path, m.Name)
	if err != nil {
		return err
	}

	mgr := venv.NewManager("")
	status := mgr.Status(envPath)
	if status == model.StatusMissing {
		return model.NewCLIError(model.ExitEnvNotFound,
			fmt.Sprintf("no environment at %s", envPath))
	}

	if !flags.force {
		confirmed, err := promptConfirmation(
			fmt.Sprintf("About to delete environment %q at %s.", m.Name, envPath))
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// After confirmation the intent is explicit, but a broken target
	// still needs --force: the prompt confirms deleting an environment,
	// not an arbitrary directory.
	if err := mgr.Remove(envPath, flags.force); err != nil {
		return err
	}

	printRemoveResult(removeResult{Name: m.Name, Path: envPath, Removed: true})
	return nil
}

func runRemoveSandbox(ctx context.Context, name string, flags *removeFlags) error {
	client, err := sandbox.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Ping(ctx); err != nil {
		return err
	}

	info, err := sandbox.Find(ctx, client, name)
	if err != nil {
		return err
	}

	if !flags.force {
		confirmed, err := promptConfirmation(
			fmt.Sprintf("About to remove sandbox %q (container %s).", name, info.ContainerName))
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to read user input", err)
		}
		if !confirmed {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	VerboseLog("removing container %s", info.ContainerID)
	// force=true handles containers that are still running.
	if err := sandbox.Remove(ctx, client, info.ContainerID, true); err != nil {
		return err
	}

	printRemoveResult(removeResult{Name: name, Sandbox: true, Removed: true})
	return nil
}

// promptConfirmation asks the user to confirm, reading a single line
// from stdin and accepting "y" or "yes".
func promptConfirmation(message string) (bool, error) {
	fmt.Println(message)
	fmt.Print("Continue? [y/N] ")

	// bufio.Scanner handles both LF and CRLF line endings.
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return answer == "y" || answer == "yes", nil
	}

	// Closed stdin counts as "no".
	if err := scanner.Err(); err != nil {
		return false, err
	}
	return false, nil
}

func printRemoveResult(result removeResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}
	if result.Sandbox {
		fmt.Printf("Removed sandbox %q.\n", result.Name)
	} else {
		fmt.Printf("Removed environment %q at %s.\n", result.Name, result.Path)
	}
}
