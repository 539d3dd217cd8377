// Package orchestrator drives CMake through every configuration of a build
// plan: generate, build the selected targets, then run the test executable.
//
// Failure scope differs per step:
//   - generate or build exiting non-zero aborts the whole run, including
//     configurations that have not started yet
//   - the test executable exiting non-zero is reported and the next
//     configuration still runs
//
// Test failures are not turned into an error. Run returns a nil error as
// long as every generate and build step succeeded, and the caller's exit
// status therefore only reflects fatal failures.
package orchestrator
