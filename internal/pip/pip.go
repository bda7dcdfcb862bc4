package pip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/incredibit/qisclick/internal/model"
)

// InstalledPackage is one row of `pip list --format=json` output.
type InstalledPackage struct {
	// Name is the distribution name as pip reports it.
	Name string `json:"name"`

	// Version is the installed version string.
	Version string `json:"version"`
}

// CachePurge runs `pip cache purge`.
//
// The returned error is advisory: purge fails when there is no cache to
// purge (a fresh machine, or caching disabled), and that must not abort
// a bootstrap. Callers print a warning and continue.
func CachePurge(ctx context.Context, pipPath string) error {
	_, err := runPip(ctx, pipPath, "cache", "purge")
	return err
}

// SelfUpgrade upgrades pip inside the environment with
// `pip install --upgrade pip`.
//
// venv seeds environments with whatever pip version the base interpreter
// bundles, which is often old enough to miss current wheel tags, so the
// upgrade runs before any package install.
func SelfUpgrade(ctx context.Context, pipPath string) error {
	if _, err := runPip(ctx, pipPath, "install", "--upgrade", "pip"); err != nil {
		return model.WrapCLIError(model.ExitPipFailed, "failed to upgrade pip", err)
	}
	return nil
}

// Install installs a single package, streaming pip's output to the given
// writer as it runs.
//
// Packages are installed one invocation each (not one big install) so a
// failure names the exact package responsible, and so progress output
// arrives per package — Qiskit's simulator wheels are large enough that
// silent multi-minute installs read as hangs.
func Install(ctx context.Context, pipPath string, spec model.PackageSpec, out io.Writer) error {
	if err := spec.Validate(); err != nil {
		return model.WrapCLIError(model.ExitPipFailed, "refusing to install package", err)
	}

	// #nosec G204 — the spec is validated above; arguments are an argv list
	cmd := exec.CommandContext(ctx, pipPath, "install", spec.String())
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitPipFailed,
			fmt.Sprintf("failed to install %s", spec),
			err,
		)
	}
	return nil
}

// Installed returns the distributions currently installed in the
// environment, via `pip list --format=json`.
func Installed(ctx context.Context, pipPath string) ([]InstalledPackage, error) {
	output, err := runPip(ctx, pipPath, "list", "--format=json")
	if err != nil {
		return nil, model.WrapCLIError(model.ExitPipFailed, "failed to list installed packages", err)
	}

	return parseListOutput(output)
}

// runPip executes a pip subcommand and returns its stdout.
//
// Stdout and stderr are captured separately: stdout carries the payload
// (e.g., the JSON listing), while stderr carries warnings and error
// detail that only matter when the command fails.
func runPip(ctx context.Context, pipPath string, args ...string) (string, error) {
	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, pipPath, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("pip %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", fmt.Errorf("%s: %w", message, err)
	}

	return stdout.String(), nil
}

// parseListOutput decodes `pip list --format=json` output.
//
// pip prints a bare JSON array; any preamble (e.g., a version warning
// that old pips put on stdout) is skipped by cutting to the first '['.
func parseListOutput(output string) ([]InstalledPackage, error) {
	start := strings.IndexByte(output, '[')
	if start < 0 {
		return nil, fmt.Errorf("unexpected pip list output: %q", strings.TrimSpace(output))
	}

	var packages []InstalledPackage
	if err := json.Unmarshal([]byte(output[start:]), &packages); err != nil {
		return nil, fmt.Errorf("failed to parse pip list output: %w", err)
	}
	return packages, nil
}

// Versions builds a name→version map from an installed-package listing.
// Lookup is case-insensitive with "-"/"_" folded together, because pip
// normalizes distribution names inconsistently across versions.
func Versions(installed []InstalledPackage) map[string]string {
	versions := make(map[string]string, len(installed))
	for _, p := range installed {
		versions[NormalizeName(p.Name)] = p.Version
	}
	return versions
}

// NormalizeName canonicalizes a distribution name for comparison, per
// the PEP 503 rule: lowercase with runs of "-", "_", "." collapsed to "-".
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	prevDash := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
			continue
		}
		prevDash = false
		b.WriteRune(r)
	}
	return b.String()
}
