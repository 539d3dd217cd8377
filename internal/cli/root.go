// Package cli implements the cobra-based command line of vcbuild.
//
// vcbuild has no subcommands: the root command resolves the toolchain,
// loads the build plan and runs the orchestrator. This file defines the
// command, its flags and Execute, the only place in the program that turns
// an error into a process exit code.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/vcbuild/internal/config"
	"github.com/shinji-kodama/vcbuild/internal/model"
	"github.com/shinji-kodama/vcbuild/internal/process"
)

// usageLine is printed after every argument error.
const usageLine = "usage: vcbuild -v <vcpkg install path> -c <clang compiler binaries path>"

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// rootFlags holds the flag values of the root command.
type rootFlags struct {
	vcpkg      string // -v/--vcpkg: directory containing the vcpkg checkout
	cl         string // -c/--cl: directory containing clang and clang++
	source     string // --source: CMake source directory
	configPath string // --config: optional build plan file
	dryRun     bool   // --dry-run: print commands instead of running them
	jsonOutput bool   // --json: print the run report as JSON on stdout
	verbose    bool   // --verbose: debug logging on stderr
}

// options holds the collaborators of the root command. Tests replace the
// runner factory so no real cmake is ever started.
type options struct {
	stdout    io.Writer
	stderr    io.Writer
	newRunner func(stdout, stderr io.Writer, logger *zap.Logger) process.Runner
}

// defaultOptions wires the command to the process's stdio and real
// subprocesses.
func defaultOptions() options {
	return options{
		stdout: os.Stdout,
		stderr: os.Stderr,
		newRunner: func(stdout, stderr io.Writer, logger *zap.Logger) process.Runner {
			return process.NewExec(stdout, stderr, logger)
		},
	}
}

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultOptions())
}

func newRootCommand(opts options) *cobra.Command {
	flags := &rootFlags{}
	var logger *zap.Logger

	rootCmd := &cobra.Command{
		Use:   "vcbuild",
		Short: "Build and test a CMake project with a vcpkg toolchain and clang",
		Long: `vcbuild configures, builds and tests a CMake project in every build
configuration (Release and Debug by default).

For each configuration it runs the CMake generate step, builds the selected
targets and runs the resulting test executable. A failing generate or build
step stops the whole run with exit code 1. A failing test executable is
reported and the next configuration still runs; it does not change the
exit code.

The toolchain file is <vcpkg>/vcpkg/scripts/buildsystems/vcpkg.cmake and
the compilers are <cl>/clang and <cl>/clang++. All three must exist.`,
		Example: `  vcbuild -v ~/src -c /usr/lib/llvm-17/bin
  vcbuild --vcpkg=/opt --cl=/opt/llvm/bin --config vcbuild.yaml
  vcbuild -v ~/src -c /usr/bin --dry-run
  vcbuild -v ~/src -c /usr/bin --json > report.json`,

		// Positional arguments are rejected with the same usage line as
		// malformed flags.
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return model.WrapCLIError(model.KindArgumentParse, "invalid arguments", err)
			}
			return nil
		},

		// SilenceUsage prevents cobra from printing the full help on every
		// error. Execute prints the one-line usage for argument errors.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = newLogger(cmd.ErrOrStderr(), flags.verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, flags, opts, logger)
		},
	}

	rootCmd.SetOut(opts.stdout)
	rootCmd.SetErr(opts.stderr)

	// Unknown or malformed flags become ArgumentParseError instead of
	// cobra's plain error.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return model.WrapCLIError(model.KindArgumentParse, "invalid arguments", err)
	})

	f := rootCmd.Flags()
	f.StringVarP(&flags.vcpkg, "vcpkg", "v", "", "directory that contains the vcpkg checkout")
	f.StringVarP(&flags.cl, "cl", "c", "", "directory that contains the clang and clang++ binaries")
	f.StringVar(&flags.source, "source", config.DefaultSourceDir, "CMake source directory")
	f.StringVar(&flags.configPath, "config", "", "build plan file (.yaml, .yml, .json or .jsonc)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "print the commands instead of running them")
	f.BoolVar(&flags.jsonOutput, "json", false, "print the run report as JSON; progress goes to stderr")
	f.BoolVar(&flags.verbose, "verbose", false, "enable debug logging on stderr")

	return rootCmd
}

// Execute runs the root command and exits the process with the code that
// belongs to the returned error. Help and a completed run exit 0, even when
// tests failed.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		os.Exit(int(model.ExitCodeOf(err)))
	}
}

// printError writes "Error: <message>" to w. Argument errors are followed
// by the usage line.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if model.KindOf(err) == model.KindArgumentParse {
		fmt.Fprintln(w, usageLine)
	}
}
