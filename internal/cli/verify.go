package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/python"
	"github.com/incredibit/qisclick/internal/sandbox"
	"github.com/incredibit/qisclick/internal/venv"
)

// verifyFlags holds the flag values for the verify command.
type verifyFlags struct {
	path         string
	manifestPath string
	sandboxMode  bool
}

// verifyResult is the JSON shape emitted by verify when --json is set.
type verifyResult struct {
	Name     string `json:"name"`
	Sandbox  bool   `json:"sandbox"`
	Verified bool   `json:"verified"`
}

// NewVerifyCommand creates the verify subcommand, which re-runs the
// verification snippet against an existing environment without
// rebuilding it.
func NewVerifyCommand() *cobra.Command {
	flags := &verifyFlags{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-run the verification snippet against an existing environment",
		Long: `Verify executes the configured verification snippet (by default, a
two-qubit Bell circuit on the Aer simulator) in an existing environment
and reports whether it succeeds. Use it to check that an environment is
still functional without rebuilding it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.path, "path", "", "Directory of the environment (default: ./<name>)")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Manifest file to load (default: discover qisclick.jsonc)")
	cmd.Flags().BoolVar(&flags.sandboxMode, "sandbox", false, "Verify the Docker sandbox instead of the host environment")

	return cmd
}

func runVerify(ctx context.Context, flags *verifyFlags) error {
	m, err := loadManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	out := os.Stdout
	if IsJSONOutput() {
		out = os.Stderr
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
		if err := sandbox.Exec(ctx, m.Name, out, "python", "-c", m.Verify); err != nil {
			return model.WrapCLIError(model.ExitVerifyFailed, "verification snippet failed in sandbox", err)
		}
		printVerifyResult(verifyResult{Name: m.Name, Sandbox: true, Verified: true})
		return nil
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

	if err := python.RunSnippet(ctx, python.VenvPython(envPath), m.Verify, out, os.Stderr); err != nil {
		return err
	}

	printVerifyResult(verifyResult{Name: m.Name, Verified: true})
	return nil
}

func printVerifyResult(result verifyResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Println("Verification succeeded.")
}
