// Package model defines the domain types for the vcbuild CLI.
//
// This package contains pure data structures with no external dependencies.
// ToolchainConfig and BuildConfiguration are built once per run and passed
// by value; ProcessResult and Report are produced by the orchestrator and
// discarded when the process exits. Nothing is persisted.
//
// The package also defines exit codes (ExitCode), the failure taxonomy
// (ErrorKind) and a custom error type (CLIError) that carries both, so the
// CLI layer can decide the process exit status in a single place.
package model
