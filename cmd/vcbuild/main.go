// Package main is the entry point for the vcbuild CLI.
//
// vcbuild configures, builds and tests a CMake project with a vcpkg
// toolchain and clang in every build configuration. All functionality
// lives in internal/cli; this file only injects build-time version info.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development, they default to "dev", "none", and "unknown".
package main

import (
	"github.com/shinji-kodama/vcbuild/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	cli.Execute(cli.NewRootCommand())
}
