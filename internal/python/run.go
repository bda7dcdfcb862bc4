// run.go executes Python code through a given interpreter binary:
// inline snippets via `python -c` and interactive REPL sessions that
// inherit the calling terminal.
package python

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/incredibit/qisclick/internal/model"
)

// RunSnippet executes an inline Python snippet with `<python> -c` and
// streams its stdout/stderr to the given writers as it runs.
//
// Streaming (rather than capturing) matters here because the snippet is
// the user-facing smoke test — its progress output is the product, and
// installs of heavyweight simulators can take long enough that buffered
// output would look like a hang.
//
// Returns a model.CLIError with ExitVerifyFailed if the snippet exits
// non-zero.
func RunSnippet(ctx context.Context, pythonPath, snippet string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, pythonPath, "-c", snippet)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitVerifyFailed,
			"verification snippet failed",
			err,
		)
	}
	return nil
}

// RunInteractive launches the interpreter as an interactive session,
// inheriting the calling process's terminal. The call blocks until the
// user exits the interpreter.
//
// The child gets the real stdin/stdout/stderr file descriptors, so
// readline editing, Ctrl-C handling, and prompt display all behave as a
// directly-launched interpreter would — no pty layer is needed.
//
// A non-zero exit from the interpreter (e.g., exit(1) typed by the user)
// is not treated as an error; only failure to launch is.
func RunInteractive(ctx context.Context, pythonPath string) error {
	cmd := exec.CommandContext(ctx, pythonPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		// Exit status from the session itself is the user's business.
		if _, ok := err.(*exec.ExitError); ok {
			return nil
		}
		return model.WrapCLIError(
			model.ExitGeneralError,
			"failed to launch interactive interpreter",
			err,
		)
	}
	return nil
}
