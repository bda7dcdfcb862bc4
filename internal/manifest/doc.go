// Package manifest defines what goes into an environment: the package
// set, the environment name, and the verification snippet.
//
// The built-in default is the fixed Qiskit set; an optional
// qisclick.jsonc file in the working directory overrides it. JSONC
// (JSON with comments) is used because package manifests are exactly
// the kind of file people annotate.
//
// The package also reads and writes the per-environment lockfile, a
// generated YAML artifact recording what a successful setup actually
// installed.
package manifest
