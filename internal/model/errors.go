package model

import (
	"errors"
	"fmt"
)

// ExitCode defines the process exit codes of vcbuild.
// Every failure maps to ExitGeneralError; test failures do not change the
// exit code at all.
type ExitCode int

const (
	// ExitSuccess indicates the run completed, or help was printed.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an argument error, a missing toolchain
	// file or compiler, or a failed generate/build step.
	ExitGeneralError ExitCode = 1
)

// ErrorKind classifies a failure.
type ErrorKind string

const (
	// KindArgumentParse is malformed or unrecognized command-line input.
	KindArgumentParse ErrorKind = "ArgumentParseError"

	// KindMissingToolchainFile means the derived vcpkg.cmake does not exist.
	KindMissingToolchainFile ErrorKind = "MissingToolchainFile"

	// KindMissingCompiler means clang or clang++ does not exist.
	KindMissingCompiler ErrorKind = "MissingCompiler"

	// KindGenerateStepFailed means the CMake generate step exited non-zero.
	KindGenerateStepFailed ErrorKind = "GenerateStepFailed"

	// KindBuildStepFailed means the CMake build step exited non-zero.
	KindBuildStepFailed ErrorKind = "BuildStepFailed"

	// KindTestStepFailed means a test executable exited non-zero or could
	// not be started. It is printed and recorded in the report, never
	// returned from a run.
	KindTestStepFailed ErrorKind = "TestStepFailed"

	// KindInvalidPlan means the build plan file is unreadable or inconsistent.
	KindInvalidPlan ErrorKind = "InvalidPlan"
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	return string(k)
}

// CLIError is a custom error type that carries an exit code and a kind.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Kind classifies the failure.
	Kind ErrorKind

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the general error exit code.
func NewCLIError(kind ErrorKind, message string) *CLIError {
	return &CLIError{Code: ExitGeneralError, Kind: kind, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(kind ErrorKind, message string, err error) *CLIError {
	return &CLIError{Code: ExitGeneralError, Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first CLIError in err's chain, or "" if
// there is none.
func KindOf(err error) ErrorKind {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Kind
	}
	return ""
}

// ExitCodeOf returns the exit code the process should terminate with for
// err. A nil error maps to ExitSuccess, unknown errors to ExitGeneralError.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}
