// Package model defines the domain types for the qisclick CLI.
//
// All entities here are transient: the state of a virtual environment is
// reconstructed from the filesystem (pyvenv.cfg, lockfile) on every run,
// and sandbox state lives entirely in Docker container labels. There is
// no state database.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// EnvStatus represents the lifecycle state of a virtual environment
// directory. The possible transitions are:
//
//	missing → ready (setup)
//	ready/broken → missing (remove)
//	ready/broken → ready (setup recreates the directory from scratch)
//
// There is deliberately no "partial" repair path: a broken environment
// is only ever fixed by full recreation.
type EnvStatus string

const (
	// StatusMissing indicates the target path does not exist.
	StatusMissing EnvStatus = "missing"

	// StatusBroken indicates a directory exists at the target path but is
	// not a complete virtual environment (pyvenv.cfg or the interpreter
	// binary is absent). This state typically results from an interrupted
	// setup or a foreign directory at the target path.
	StatusBroken EnvStatus = "broken"

	// StatusReady indicates the directory is a complete virtual
	// environment: pyvenv.cfg is present and the platform-specific
	// interpreter binary exists.
	StatusReady EnvStatus = "ready"
)

// String returns the string representation of EnvStatus.
// This satisfies fmt.Stringer for CLI output.
func (s EnvStatus) String() string {
	return string(s)
}

// IsValid checks whether the EnvStatus value is one of the
// predefined valid states.
func (s EnvStatus) IsValid() bool {
	switch s {
	case StatusMissing, StatusBroken, StatusReady:
		return true
	default:
		return false
	}
}

// ParseEnvStatus converts a string to an EnvStatus.
// Returns an error if the string does not match any valid status.
func ParseEnvStatus(s string) (EnvStatus, error) {
	status := EnvStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid environment status: %q (valid: missing, broken, ready)", s)
	}
	return status, nil
}

// PackageSpec is a single pip requirement: a distribution name with an
// optional exact version pin. Only the "==" specifier is supported —
// qisclick installs a fixed set, it does not solve version ranges.
type PackageSpec struct {
	// Name is the pip distribution name (e.g., "qiskit-aer").
	Name string `json:"name"`

	// Version is the exact version to pin ("1.2.0"). Empty means
	// "latest compatible", which is the default for the built-in set.
	Version string `json:"version,omitempty"`
}

// packageNameRegex validates pip distribution names per PEP 508:
// letters and digits, with interior ".", "-", "_" runs allowed.
var packageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)

// Validate checks the package name and version for obviously malformed
// values. This guards against manifest typos turning into confusing pip
// invocations; it is not a full PEP 508 implementation.
func (p PackageSpec) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("package spec: name must not be empty")
	}
	if !packageNameRegex.MatchString(p.Name) {
		return fmt.Errorf("package spec: invalid name %q", p.Name)
	}
	if strings.ContainsAny(p.Version, " <>=!~;,") {
		return fmt.Errorf("package spec: invalid version %q for %s (only exact pins are supported)", p.Version, p.Name)
	}
	return nil
}

// String renders the spec as a pip requirement argument:
// "name==version" when pinned, bare "name" otherwise.
func (p PackageSpec) String() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "==" + p.Version
}

// ParsePackageSpec parses a requirement string of the form "name" or
// "name==version" into a PackageSpec.
func ParsePackageSpec(s string) (PackageSpec, error) {
	name, version, _ := strings.Cut(strings.TrimSpace(s), "==")
	spec := PackageSpec{Name: name, Version: strings.TrimSpace(version)}
	if err := spec.Validate(); err != nil {
		return PackageSpec{}, err
	}
	return spec, nil
}

// Env represents a virtual environment managed by qisclick — the primary
// aggregate entity in the domain. All fields are reconstructed from the
// filesystem at runtime.
type Env struct {
	// Name is the environment's identifier, which is also the base name
	// of its directory (e.g., "qisclick_env").
	Name string `json:"name"`

	// Path is the absolute filesystem path of the environment directory.
	Path string `json:"path"`

	// PythonVersion is the interpreter version the environment was
	// created from (e.g., "3.12.1"), read from pyvenv.cfg.
	PythonVersion string `json:"pythonVersion,omitempty"`

	// Packages is the requested package set for this environment.
	Packages []PackageSpec `json:"packages,omitempty"`

	// Status is the current lifecycle state of the environment directory.
	Status EnvStatus `json:"status"`

	// CreatedAt is the timestamp recorded when setup completed. Zero if
	// no lockfile exists (setup was interrupted or predates the lockfile).
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// nameRegex validates environment and sandbox names: alphanumeric plus
// interior hyphens/underscores, starting and ending with alphanumeric.
// The name doubles as a directory name and a Docker container name
// suffix, so the character set is the intersection of both.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9_-]*[a-zA-Z0-9])?$`)

// ValidateName checks if the given name is usable as an environment name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must contain only alphanumeric characters, hyphens, and underscores, and start/end with alphanumeric", name)
	}
	return nil
}

// SandboxInfo holds runtime information about a sandbox container.
// This data is fetched from the Docker API, never persisted locally.
type SandboxInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name
	// (e.g., "qisclick-default").
	ContainerName string `json:"containerName"`

	// Name is the sandbox's qisclick name, from the qisclick.name label.
	Name string `json:"name"`

	// Image is the base image the sandbox runs (e.g., "python:3.12-slim").
	Image string `json:"image"`

	// State is the Docker container state ("running", "exited", "created").
	State string `json:"state"`

	// Packages is the package set requested when the sandbox was built,
	// reconstructed from labels.
	Packages []PackageSpec `json:"packages,omitempty"`

	// CreatedAt is the sandbox creation timestamp from labels.
	CreatedAt time.Time `json:"createdAt,omitzero"`

	// Labels is the full label set on the container.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines the CLI exit codes. These let scripts and CI systems
// distinguish which bootstrap step failed.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitPythonNotFound indicates no usable Python interpreter was
	// found on PATH (or via QISCLICK_PYTHON).
	ExitPythonNotFound ExitCode = 2

	// ExitVenvFailed indicates `python -m venv` failed, or an existing
	// environment could not be removed or recreated.
	ExitVenvFailed ExitCode = 3

	// ExitPipFailed indicates a pip operation (upgrade, install,
	// inventory) failed. Cache purge failures do NOT use this code —
	// they are warnings.
	ExitPipFailed ExitCode = 4

	// ExitVerifyFailed indicates the smoke-test snippet raised or
	// exited non-zero in the new environment.
	ExitVerifyFailed ExitCode = 5

	// ExitDockerNotRunning indicates the Docker daemon is not
	// accessible (sandbox mode only).
	ExitDockerNotRunning ExitCode = 6

	// ExitEnvNotFound indicates the requested environment or sandbox
	// does not exist.
	ExitEnvNotFound ExitCode = 7

	// ExitUserCancelled indicates the user declined a confirmation prompt.
	ExitUserCancelled ExitCode = 8
)

// CLIError is an error that carries an exit code, letting the CLI layer
// translate domain errors into process exit statuses.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
