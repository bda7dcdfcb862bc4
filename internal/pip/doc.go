// Package pip drives the pip executable inside a virtual environment.
//
// It covers the operations the bootstrap flow needs: purging the cache,
// upgrading pip itself, installing packages one at a time with streamed
// output, and taking an inventory of installed distributions via
// `pip list --format=json`.
//
// Every function takes the pip executable path explicitly — callers
// resolve it through python.VenvPip — so the package never touches the
// system pip by accident.
package pip
