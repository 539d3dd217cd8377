// Package toolchain resolves and validates the vcpkg toolchain file and the
// clang compiler pair used by the build.
//
// The resolver never terminates the process. Every failure is returned as a
// model.CLIError whose Kind tells the CLI layer what went wrong, so the
// validation order (toolchain file, C compiler, C++ compiler) can be tested
// without spawning anything.
package toolchain
