package process

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shinji-kodama/vcbuild/internal/model"
)

// Command describes one external invocation.
type Command struct {
	// Name is the program to run. It is looked up in PATH unless it
	// contains a path separator.
	Name string

	// Args are the arguments passed to the program, without Name.
	Args []string
}

// Argv returns Name followed by Args.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command as a shell-like line. Arguments containing
// whitespace or quotes are quoted so the line can be pasted into a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, a := range c.Argv() {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			a = strconv.Quote(a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands and reports their exit status.
type Runner interface {
	// Run blocks until cmd terminates. A non-zero exit status is returned
	// in the result with a nil error; err is only set when the command
	// could not be started at all.
	Run(cmd Command) (model.ProcessResult, error)
}

// Exec runs commands with os/exec. The child's output is streamed to the
// configured writers as it is produced.
type Exec struct {
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger
}

// NewExec creates an Exec runner. When stdout and stderr are *os.File
// values, the child inherits them directly and keeps its terminal colors.
func NewExec(stdout, stderr io.Writer, logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{stdout: stdout, stderr: stderr, logger: logger}
}

// Run implements Runner.
func (e *Exec) Run(cmd Command) (model.ProcessResult, error) {
	// #nosec G204: commands are assembled by the orchestrator from the plan
	c := exec.Command(cmd.Name, cmd.Args...)
	c.Stdout = e.stdout
	c.Stderr = e.stderr

	e.logger.Debug("starting process", zap.String("command", cmd.String()))

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// ExitCode is -1 when the child was terminated by a signal.
			code := exitErr.ExitCode()
			e.logger.Debug("process exited",
				zap.String("program", cmd.Name),
				zap.Int("exit_code", code),
				zap.Duration("elapsed", elapsed),
			)
			return model.ProcessResult{ExitCode: code}, nil
		}

		e.logger.Debug("process failed to start",
			zap.String("program", cmd.Name),
			zap.Error(err),
		)
		return model.ProcessResult{ExitCode: -1}, fmt.Errorf("failed to start %s: %w", cmd.Name, err)
	}

	e.logger.Debug("process exited",
		zap.String("program", cmd.Name),
		zap.Int("exit_code", 0),
		zap.Duration("elapsed", elapsed),
	)
	return model.ProcessResult{ExitCode: 0}, nil
}

// DryRun prints every command instead of running it and reports success.
// The toolchain checks still run before it is used, so a dry run shows the
// exact command lines a real run would execute.
type DryRun struct {
	out io.Writer
}

// NewDryRun creates a DryRun runner that writes command lines to out.
func NewDryRun(out io.Writer) *DryRun {
	return &DryRun{out: out}
}

// Run implements Runner.
func (d *DryRun) Run(cmd Command) (model.ProcessResult, error) {
	fmt.Fprintf(d.out, "+ %s\n", cmd)
	return model.ProcessResult{ExitCode: 0}, nil
}
