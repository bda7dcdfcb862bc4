// Package model defines the domain types and value objects for the
// qisclick CLI.
//
// This package contains pure data structures with no external
// dependencies. All entities (Env, PackageSpec, SandboxInfo) are
// transient representations reconstructed from the filesystem or from
// Docker container labels at runtime — there are no persistent state
// files beyond the per-environment lockfile.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
