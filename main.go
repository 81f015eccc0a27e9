package main

import (
	"dotpkg/cmd" // CLI commands and execution logic
)

// main is the program entry point.
// It delegates to cmd.Execute(), which parses the command line and runs it.
//
// dotpkg builds tools from source:
//   - Reads pkg-list.json, a manifest mapping package names to a repository,
//     a build command, the produced binary and the symlink name to expose
//   - Clones the repository (or unpacks a source archive) into ./cache/<name>
//     unless it is already there, then runs the build command inside it
//   - Verifies the binary exists and symlinks it into /usr/local/bin
//
// Error handling strategy:
//   - Every failure is printed with context and the run ends cleanly; the exit
//     status does not signal failures
//   - A failed build leaves the cached sources in place for the next attempt
func main() {
	cmd.Execute()
}
