// Package process runs the external tools that vcbuild drives (cmake and
// the produced test executables).
//
// Every invocation blocks until the child exits. There is no timeout and no
// cancellation: build generators lock their output directories, and killing
// them halfway leaves a directory that the next run cannot reuse. A non-zero
// exit status is a normal result, not an error; only a failure to start the
// child is reported as an error.
package process
