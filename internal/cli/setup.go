package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/incredibit/qisclick/internal/manifest"
	"github.com/incredibit/qisclick/internal/model"
	"github.com/incredibit/qisclick/internal/pip"
	"github.com/incredibit/qisclick/internal/python"
	"github.com/incredibit/qisclick/internal/sandbox"
	"github.com/incredibit/qisclick/internal/venv"
)

// setupFlags holds the flag values for the setup command. The zero
// value is the default bootstrap configuration, which is what the bare
// root invocation uses.
type setupFlags struct {
	// path is an explicit location for the environment directory.
	// Empty means <cwd>/<manifest name>.
	path string

	// manifestPath is an explicit manifest file. Empty means discover
	// qisclick.jsonc in the working directory, falling back to built-in
	// defaults.
	manifestPath string

	// skipVerify skips the post-install smoke test.
	skipVerify bool

	// noShell suppresses the interactive interpreter at the end.
	noShell bool

	// force allows replacing a directory at the target path that does
	// not look like a virtual environment.
	force bool

	// sandboxMode runs the whole bootstrap inside a Docker container
	// instead of on the host.
	sandboxMode bool
}

// setupResult is the JSON shape emitted by setup when --json is set.
type setupResult struct {
	Name          string   `json:"name"`
	Path          string   `json:"path,omitempty"`
	Sandbox       bool     `json:"sandbox"`
	Container     string   `json:"container,omitempty"`
	PythonVersion string   `json:"python_version,omitempty"`
	Packages      []string `json:"packages"`
	Verified      bool     `json:"verified"`
	ActivateHint  string   `json:"activate_hint,omitempty"`
}

// NewSetupCommand creates the setup subcommand. It is the explicit
// spelling of what the bare root invocation does, with flags to vary
// the flow.
func NewSetupCommand() *cobra.Command {
	flags := &setupFlags{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create and populate a fresh Qiskit environment",
		Long: `Setup removes any existing environment with the same name, creates a
new virtual environment, installs the configured package set, writes a
lockfile recording the installed versions, runs the verification
snippet, and starts an interactive interpreter.

With --sandbox the same flow runs inside a labeled Docker container
instead of a host virtual environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.path, "path", "", "Directory for the environment (default: ./<name>)")
	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Manifest file to load (default: discover qisclick.jsonc)")
	cmd.Flags().BoolVar(&flags.skipVerify, "skip-verify", false, "Skip the post-install verification snippet")
	cmd.Flags().BoolVar(&flags.noShell, "no-shell", false, "Do not start the interactive interpreter")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Replace the target directory even if it is not a virtual environment")
	cmd.Flags().BoolVar(&flags.sandboxMode, "sandbox", false, "Run the environment inside a Docker container")

	return cmd
}

// runSetup executes the full bootstrap flow. It is shared by the setup
// subcommand and the bare root invocation.
func runSetup(ctx context.Context, flags *setupFlags) error {
	m, err := loadManifest(flags.manifestPath)
	if err != nil {
		return err
	}

	if flags.sandboxMode {
		return runSandboxSetup(ctx, m, flags)
	}

	interp, err := python.Find(ctx)
	if err != nil {
		return err
	}
	VerboseLog("using Python %s at %s", interp.Version, interp.Path)
	if !IsJSONOutput() {
		fmt.Printf("Using Python %s (%s)\n", interp.Version, interp.Path)
	}

	envPath, err := resolveEnvPath(flags.path, m.Name)
	if err != nil {
		return err
	}

	mgr := venv.NewManager(interp.Path)

	// A previous environment at the target path is replaced, not
	// reused: the whole point is a known-clean install.
	if mgr.Status(envPath) != model.StatusMissing {
		if !IsJSONOutput() {
			fmt.Printf("Removing existing environment at %s\n", envPath)
		}
		if err := mgr.Remove(envPath, flags.force); err != nil {
			return err
		}
	}

	if !IsJSONOutput() {
		fmt.Printf("Creating virtual environment %q\n", m.Name)
	}
	if err := mgr.Create(ctx, envPath); err != nil {
		return err
	}

	pipPath := python.VenvPip(envPath)
	envPython := python.VenvPython(envPath)

	// Cache purge failures are advisory: a cold or locked cache must
	// not abort the bootstrap.
	if err := pip.CachePurge(ctx, pipPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: pip cache purge failed: %v\n", err)
	}

	VerboseLog("upgrading pip in %s", envPath)
	if err := pip.SelfUpgrade(ctx, pipPath); err != nil {
		return err
	}

	for _, spec := range m.Packages {
		if !IsJSONOutput() {
			fmt.Printf("Installing %s ...\n", spec.String())
		}
		out := os.Stdout
		if IsJSONOutput() {
			// pip's progress output would corrupt the JSON document on
			// stdout; divert it.
			out = os.Stderr
		}
		if err := pip.Install(ctx, pipPath, spec, out); err != nil {
			return err
		}
	}

	installed, err := pip.Installed(ctx, pipPath)
	if err != nil {
		return err
	}

	lock, err := manifest.BuildLockfile(m.Name, interp.Version, m.Packages, installed)
	if err != nil {
		return model.WrapCLIError(model.ExitPipFailed, "installed packages do not match the requested set", err)
	}
	if err := manifest.WriteLockfile(envPath, lock); err != nil {
		return err
	}
	VerboseLog("wrote lockfile %s", filepath.Join(envPath, manifest.LockFileName))

	verified := false
	if !flags.skipVerify {
		if !IsJSONOutput() {
			fmt.Println("Running verification snippet ...")
		}
		vOut := os.Stdout
		if IsJSONOutput() {
			vOut = os.Stderr
		}
		if err := python.RunSnippet(ctx, envPython, m.Verify, vOut, os.Stderr); err != nil {
			return err
		}
		verified = true
		if !IsJSONOutput() {
			fmt.Println("Verification succeeded.")
		}
	}

	result := setupResult{
		Name:          m.Name,
		Path:          envPath,
		PythonVersion: interp.Version,
		Packages:      packageStrings(m.Packages),
		Verified:      verified,
		ActivateHint:  python.ActivateHint(envPath),
	}
	printSetupResult(result)

	if flags.noShell || IsJSONOutput() {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		VerboseLog("stdin is not a terminal; skipping interactive interpreter")
		return nil
	}

	fmt.Println("Starting interactive interpreter (exit() to leave) ...")
	return python.RunInteractive(ctx, envPython)
}

// runSandboxSetup performs the bootstrap inside a labeled Docker
// container: the container plays the role the venv directory plays on
// the host, and pip/python run through docker exec.
func runSandboxSetup(ctx context.Context, m *manifest.Manifest, flags *setupFlags) error {
	client, err := sandbox.NewClient()
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Ping(ctx); err != nil {
		return err
	}

	// Replace any previous sandbox with the same name.
	existing, err := sandbox.Find(ctx, client, m.Name)
	if err != nil && !isExitCode(err, model.ExitEnvNotFound) {
		return err
	}
	if existing != nil {
		if !IsJSONOutput() {
			fmt.Printf("Removing existing sandbox %q\n", m.Name)
		}
		if err := sandbox.Remove(ctx, client, existing.ContainerID, true); err != nil {
			return err
		}
	}

	labels := sandbox.BuildLabels(m.Name, m.SandboxImage, m.Packages, time.Now())

	out := os.Stdout
	if IsJSONOutput() {
		out = os.Stderr
	}

	if !IsJSONOutput() {
		fmt.Printf("Starting sandbox %q from image %s\n", m.Name, m.SandboxImage)
	}
	if err := sandbox.Run(ctx, m.Name, m.SandboxImage, labels, out); err != nil {
		return err
	}

	if err := sandbox.Exec(ctx, m.Name, out, "pip", "cache", "purge"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: pip cache purge failed: %v\n", err)
	}
	if err := sandbox.Exec(ctx, m.Name, out, "pip", "install", "--upgrade", "pip"); err != nil {
		return model.WrapCLIError(model.ExitPipFailed, "upgrading pip in sandbox failed", err)
	}

	for _, spec := range m.Packages {
		if !IsJSONOutput() {
			fmt.Printf("Installing %s ...\n", spec.String())
		}
		if err := sandbox.Exec(ctx, m.Name, out, "pip", "install", spec.String()); err != nil {
			return model.WrapCLIError(model.ExitPipFailed, fmt.Sprintf("installing %s in sandbox failed", spec.String()), err)
		}
	}

	verified := false
	if !flags.skipVerify {
		if !IsJSONOutput() {
			fmt.Println("Running verification snippet ...")
		}
		if err := sandbox.Exec(ctx, m.Name, out, "python", "-c", m.Verify); err != nil {
			return model.WrapCLIError(model.ExitVerifyFailed, "verification snippet failed in sandbox", err)
		}
		verified = true
		if !IsJSONOutput() {
			fmt.Println("Verification succeeded.")
		}
	}

	result := setupResult{
		Name:      m.Name,
		Sandbox:   true,
		Container: sandbox.ContainerName(m.Name),
		Packages:  packageStrings(m.Packages),
		Verified:  verified,
	}
	printSetupResult(result)

	if flags.noShell || IsJSONOutput() {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		VerboseLog("stdin is not a terminal; skipping interactive interpreter")
		return nil
	}

	fmt.Println("Starting interactive interpreter in sandbox (exit() to leave) ...")
	return sandbox.ExecInteractive(ctx, m.Name, "python")
}

// loadManifest resolves the effective manifest: the explicit path when
// given, a discovered qisclick.jsonc otherwise, and the built-in
// defaults when neither exists.
func loadManifest(explicit string) (*manifest.Manifest, error) {
	path := explicit
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitGeneralError, "resolving working directory", err)
		}
		path = manifest.Find(cwd)
	}
	if path == "" {
		VerboseLog("no manifest found; using built-in defaults")
		return manifest.Default(), nil
	}
	VerboseLog("loading manifest %s", path)
	return manifest.Load(path)
}

// resolveEnvPath turns the --path flag (or its absence) into an
// absolute environment directory.
func resolveEnvPath(flagPath, name string) (string, error) {
	path := flagPath
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", model.WrapCLIError(model.ExitGeneralError, "resolving working directory", err)
		}
		path = filepath.Join(cwd, name)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", model.WrapCLIError(model.ExitGeneralError, "resolving environment path", err)
	}
	return abs, nil
}

// packageStrings renders specs as name==version strings for display.
func packageStrings(specs []model.PackageSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.String())
	}
	return out
}

// isExitCode reports whether err is a CLIError carrying the given code.
func isExitCode(err error, code model.ExitCode) bool {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code == code
	}
	return false
}

func printSetupResult(result setupResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println()
	if result.Sandbox {
		fmt.Printf("Sandbox %q is ready (container %s).\n", result.Name, result.Container)
	} else {
		fmt.Printf("Environment %q is ready at %s\n", result.Name, result.Path)
		fmt.Printf("Activate it with: %s\n", result.ActivateHint)
	}
}
