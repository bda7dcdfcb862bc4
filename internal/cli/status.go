package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/incredibit/qisclick/internal/manifest"
	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/sandbox"
	"github.com/incredibit/qisclick/internal/venv"
)

// statusFlags holds the flag values for the status command.
type statusFlags struct {
	path         string
	manifestPath string
}

// statusResult is the JSON shape emitted by status when --json is set.
type statusResult struct {
	Env       model.Env           `json:"env"`
	Sandboxes []model.SandboxInfo `json:"sandboxes"`
}

// NewStatusCommand creates the status subcommand.
func NewStatusCommand() *cobra.Command {
	flags := &statusFlags{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the environment and any sandboxes",
		Long: `Status inspects the environment directory and reports whether it is
missing, broken, or ready, along with the Python version and the locked
package set when available. It also lists any qisclick-managed Docker
sandboxes, when a Docker daemon is reachable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.path, "path", "", "Directory of the environment (default: ./<name>)")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Manifest file to load (default: discover qisclick.jsonc)")

	return cmd
}

func runStatus(ctx context.Context, flags *statusFlags) error {
	m, err := loadManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	envPath, err := resolveEnvPath(flags.path, m.Name)
	if err != nil {
		return err
	}

	// Status and Inspect never invoke the interpreter, so the manager
	// does not need a resolved Python path here.
	mgr := venv.NewManager("")

	env := model.Env{
		Name:   m.Name,
		Path:   envPath,
		Status: mgr.Status(envPath),
	}

	if env.Status == model.StatusReady {
		if info, err := mgr.Inspect(envPath); err == nil {
			env.PythonVersion = info.Version
		}
		// A missing or unreadable lockfile leaves the package list
		// empty; the environment itself is still reported as ready.
		if lock, err := manifest.ReadLockfile(envPath); err == nil {
			env.CreatedAt = lock.CreatedAt
			for _, p := range lock.Packages {
				env.Packages = append(env.Packages, model.PackageSpec{Name: p.Name, Version: p.Version})
			}
		}
	}

	sandboxes := listSandboxes(ctx)

	if IsJSONOutput() {
		data, err := json.MarshalIndent(statusResult{Env: env, Sandboxes: sandboxes}, "", "  ")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "serializing status", err)
		}
		fmt.Println(string(data))
		return nil
	}

	printEnvStatus(env)
	printSandboxStatus(sandboxes)
	return nil
}

// listSandboxes returns all qisclick-managed containers, or an empty
// slice when no Docker daemon is reachable. Status must stay useful on
// machines without Docker, so daemon errors only get verbose narration.
func listSandboxes(ctx context.Context) []model.SandboxInfo {
	client, err := sandbox.NewClient()
	if err != nil {
		VerboseLog("docker unavailable, skipping sandbox listing: %v", err)
		return []model.SandboxInfo{}
	}
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		VerboseLog("docker daemon not responding, skipping sandbox listing: %v", err)
		return []model.SandboxInfo{}
	}

	sandboxes, err := sandbox.List(ctx, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: listing sandboxes failed: %v\n", err)
		return []model.SandboxInfo{}
	}
	return sandboxes
}

func printEnvStatus(env model.Env) {
	fmt.Printf("Environment: %s\n", env.Name)
	fmt.Printf("  Path:   %s\n", env.Path)
	fmt.Printf("  Status: %s\n", env.Status)
	if env.PythonVersion != "" {
		fmt.Printf("  Python: %s\n", env.PythonVersion)
	}
	if !env.CreatedAt.IsZero() {
		fmt.Printf("  Created: %s\n", env.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if len(env.Packages) > 0 {
		fmt.Println("  Packages:")
		for _, p := range env.Packages {
			fmt.Printf("    %s\n", p.String())
		}
	}
}

func printSandboxStatus(sandboxes []model.SandboxInfo) {
	fmt.Println()
	if len(sandboxes) == 0 {
		fmt.Println("Sandboxes: none")
		return
	}
	fmt.Println("Sandboxes:")
	for _, s := range sandboxes {
		fmt.Printf("  %s (%s, image %s, %s)\n", s.Name, s.ContainerName, s.Image, s.State)
	}
}
