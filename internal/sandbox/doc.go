// Package sandbox runs the bootstrap inside a disposable Docker
// container instead of a host directory.
//
// A sandbox is a single long-lived container started from a python base
// image. The package manages its lifecycle in two layers:
//   - the Docker Engine SDK for discovery, stop, and removal, filtered
//     by qisclick.* labels (labels are the only persistence — there is
//     no local state file);
//   - the docker CLI (via os/exec) for `docker run` and `docker exec`,
//     which need the same flag surface and stdio inheritance a user
//     would get typing the commands themselves.
package sandbox
