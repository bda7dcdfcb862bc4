// Package python locates and drives Python interpreters.
//
// It discovers a base interpreter on the host (PATH probe with a
// QISCLICK_PYTHON override), queries its version, resolves the
// platform-specific executable layout inside a virtual environment
// (bin/ on Unix, Scripts/ on Windows), and runs inline snippets or
// interactive sessions against a given interpreter binary.
//
// Design decisions:
//   - We shell out to the python binary rather than embedding an
//     interpreter, because the whole point of the tool is to manage the
//     user's real Python installation and its virtual environments.
//   - Commands are always argv lists, never shell strings, so package
//     names and paths need no quoting or escaping.
//   - Errors are wrapped in model.CLIError with step-specific exit codes.
package python
