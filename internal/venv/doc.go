// Package venv manages the lifecycle of Python virtual environments.
//
// It wraps the `python -m venv` CLI (via os/exec) to create environments
// and inspects their on-disk structure (pyvenv.cfg, interpreter binary)
// to determine status. Removal deletes the directory tree directly.
//
// Design decisions:
//   - We shell out to `python -m venv` rather than reimplementing the
//     venv layout, because the layout is owned by the interpreter and
//     differs across Python versions and platforms.
//   - Removal refuses directories that are not recognizably virtual
//     environments unless explicitly forced, so a mistyped target path
//     cannot delete unrelated data.
//   - All creation errors are wrapped in model.CLIError with
//     ExitVenvFailed to enable proper CLI exit code handling.
package venv
