// container.go implements the sandbox container lifecycle.
//
// Creation and exec go through the docker CLI because they need the
// familiar flag surface and direct stdio inheritance; discovery, stop,
// and removal go through the Docker SDK, filtered server-side by the
// qisclick.managed-by label.
package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/incredibit/qisclick/internal/model"
)

// ContainerName returns the Docker container name for a sandbox.
// The "qisclick-" prefix keeps sandbox containers identifiable in plain
// `docker ps` output, independent of labels.
func ContainerName(name string) string {
	return "qisclick-" + name
}

// Run starts a new sandbox container from the given image, labeled with
// the sandbox metadata and kept alive by an idle entrypoint so that
// subsequent exec calls (install, verify, REPL) have a target.
//
// Equivalent CLI: docker run -d --name qisclick-<name> --label ... <image> sleep infinity
//
// The docker CLI handles the image pull if the image is not present
// locally; its progress output is streamed to the given writer.
func Run(ctx context.Context, name, image string, labels map[string]string, out io.Writer) error {
	args := make([]string, 0, len(labels)*2+8)
	args = append(args, "run", "-d", "--name", ContainerName(name))
	for k, v := range labels {
		args = append(args, "--label", k+"="+v)
	}
	// sleep infinity keeps PID 1 alive without consuming CPU; every real
	// workload enters through docker exec.
	args = append(args, image, "sleep", "infinity")

	// #nosec G204 — args are constructed internally, not from user input
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker run failed for sandbox %q", name),
			err,
		)
	}
	return nil
}

// Exec runs a command inside the sandbox container, streaming its
// output to the given writer. Used for pip installs and the smoke test,
// where the command's output is the user-facing progress display.
func Exec(ctx context.Context, name string, out io.Writer, argv ...string) error {
	args := append([]string{"exec", ContainerName(name)}, argv...)

	// #nosec G204 — argv elements are validated specs and fixed tool names
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("docker exec %s failed in sandbox %q", strings.Join(argv, " "), name),
			err,
		)
	}
	return nil
}

// ExecInteractive runs a command inside the sandbox with an allocated
// TTY and the calling process's terminal attached. This is how the
// sandbox REPL is entered; the call blocks until the user exits.
func ExecInteractive(ctx context.Context, name string, argv ...string) error {
	args := append([]string{"exec", "-it", ContainerName(name)}, argv...)

	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		// The user exiting the REPL non-zero is not a sandbox failure.
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to attach to sandbox %q", name),
			err,
		)
	}
	return nil
}

// List queries the Docker daemon for all qisclick sandbox containers,
// including stopped ones, and reconstructs their metadata from labels.
//
// Containers with corrupted labels are skipped rather than failing the
// whole listing; the caller can surface them via verbose output.
func List(ctx context.Context, cli *Client) ([]model.SandboxInfo, error) {
	// Filter server-side on the management label; Docker does the work
	// instead of this process sifting every container on the host.
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list sandbox containers",
			err,
		)
	}

	result := make([]model.SandboxInfo, 0, len(containers))
	for _, c := range containers {
		info, err := ParseLabels(c.Labels)
		if err != nil {
			continue
		}

		info.ContainerID = c.ID
		info.State = c.State
		// The API returns names with a leading "/" that is an artifact of
		// the endpoint, not meaningful to users.
		if len(c.Names) > 0 {
			info.ContainerName = strings.TrimPrefix(c.Names[0], "/")
		}

		result = append(result, *info)
	}

	return result, nil
}

// Find returns the sandbox with the given qisclick name, or a
// model.CLIError with ExitEnvNotFound if no such sandbox exists.
func Find(ctx context.Context, cli *Client, name string) (*model.SandboxInfo, error) {
	sandboxes, err := List(ctx, cli)
	if err != nil {
		return nil, err
	}

	for i := range sandboxes {
		if sandboxes[i].Name == name {
			return &sandboxes[i], nil
		}
	}

	return nil, model.NewCLIError(
		model.ExitEnvNotFound,
		fmt.Sprintf("no sandbox named %q found", name),
	)
}

// Stop stops a running sandbox container via the SDK. Docker sends
// SIGTERM and escalates to SIGKILL after its default timeout.
func Stop(ctx context.Context, cli *Client, containerID string) error {
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stop sandbox container %q", containerID),
			err,
		)
	}
	return nil
}

// Remove removes a sandbox container via the SDK. With force, a running
// container is killed and removed in one call.
func Remove(ctx context.Context, cli *Client, containerID string, force bool) error {
	err := cli.Inner().ContainerRemove(ctx, containerID, container.RemoveOptions{
		Force: force,
	})
	if err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to remove sandbox container %q", containerID),
			err,
		)
	}
	return nil
}
