package orchestrator

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shinji-kodama/vcbuild/internal/config"
	"github.com/shinji-kodama/vcbuild/internal/model"
	"github.com/shinji-kodama/vcbuild/internal/process"
)

// testToolchain is a resolved toolchain; the orchestrator never checks paths.
var testToolchain = model.ToolchainConfig{
	ToolchainFile: "/opt/vcpkg/scripts/buildsystems/vcpkg.cmake",
	CCompiler:     "/usr/bin/clang",
	CXXCompiler:   "/usr/bin/clang++",
}

// invocation is one recorded call to the fake runner.
type invocation struct {
	step   model.Step
	outDir string
}

// fakeRunner records every command and answers through respond.
// A nil respond makes every command succeed.
type fakeRunner struct {
	calls   []invocation
	respond func(inv invocation) (model.ProcessResult, error)
}

func (f *fakeRunner) Run(cmd process.Command) (model.ProcessResult, error) {
	inv := classify(cmd)
	f.calls = append(f.calls, inv)
	if f.respond == nil {
		return model.ProcessResult{}, nil
	}
	return f.respond(inv)
}

// classify maps a command produced by BuildCommands back to its step and
// output directory.
func classify(cmd process.Command) invocation {
	if len(cmd.Args) > 1 && cmd.Args[0] == "--build" {
		return invocation{step: model.StepBuild, outDir: cmd.Args[1]}
	}
	for i, a := range cmd.Args {
		if a == "-B" && i+1 < len(cmd.Args) {
			return invocation{step: model.StepGenerate, outDir: cmd.Args[i+1]}
		}
	}
	// <outDir>/test/memtests
	return invocation{step: model.StepTest, outDir: filepath.Dir(filepath.Dir(cmd.Name))}
}

// failAt returns a respond func that makes a single step of a single output
// directory return the given result.
func failAt(step model.Step, outDir string, res model.ProcessResult, err error) func(invocation) (model.ProcessResult, error) {
	return func(inv invocation) (model.ProcessResult, error) {
		if inv.step == step && inv.outDir == outDir {
			return res, err
		}
		return model.ProcessResult{}, nil
	}
}

var (
	releaseDir = filepath.Join("..", "build", "release")
	debugDir   = filepath.Join("..", "build", "debug")
)

// newTestOrchestrator returns an orchestrator over the default plan that
// writes progress into the returned buffer.
func newTestOrchestrator(t *testing.T, r process.Runner) (*Orchestrator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return New(r, config.Default(".."), &out, zaptest.NewLogger(t)), &out
}

func TestBuildCommands(t *testing.T) {
	plan := config.Default("..")
	cmds := BuildCommands(plan, testToolchain, plan.Configurations[0])

	want := Commands{
		Generate: process.Command{Name: "cmake", Args: []string{
			"-DCMAKE_BUILD_TYPE=Release",
			"-DCMAKE_MAKE_PROGRAM=ninja",
			"-DCMAKE_C_COMPILER=/usr/bin/clang",
			"-DCMAKE_CXX_COMPILER=/usr/bin/clang++",
			"-G", "Ninja",
			"-DCMAKE_TOOLCHAIN_FILE=/opt/vcpkg/scripts/buildsystems/vcpkg.cmake",
			"-S", "..",
			"-B", releaseDir,
		}},
		Build: process.Command{Name: "cmake", Args: []string{
			"--build", releaseDir, "--target", "mempool", "memtests", "--", "-j", "8",
		}},
		Test: process.Command{Name: filepath.Join(releaseDir, "test", "memtests")},
	}

	if diff := cmp.Diff(want, cmds); diff != "" {
		t.Errorf("BuildCommands mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildCommands_NoMakeProgram(t *testing.T) {
	plan := config.Default("..")
	plan.MakeProgram = ""
	cmds := BuildCommands(plan, testToolchain, plan.Configurations[1])

	for _, a := range cmds.Generate.Args {
		assert.NotContains(t, a, "CMAKE_MAKE_PROGRAM")
	}
	assert.Equal(t, "-DCMAKE_BUILD_TYPE=Debug", cmds.Generate.Args[0])
}

func TestTestExecutable(t *testing.T) {
	sep := string(filepath.Separator)
	assert.Equal(t, "."+sep+"memtests", testExecutable(".", "memtests"))
	assert.Equal(t, filepath.Join("build", "memtests"), testExecutable("build", "memtests"))
	assert.Equal(t, filepath.Join("/abs", "test", "memtests"), testExecutable("/abs", "test/memtests"))
}

// TestRun_AllSucceed runs both configurations end to end: each gets a
// generate, build and test call, in that order, with distinct directories.
func TestRun_AllSucceed(t *testing.T) {
	r := &fakeRunner{}
	o, out := newTestOrchestrator(t, r)

	report, err := o.Run(testToolchain)
	require.NoError(t, err)

	assert.Equal(t, []invocation{
		{model.StepGenerate, releaseDir},
		{model.StepBuild, releaseDir},
		{model.StepTest, releaseDir},
		{model.StepGenerate, debugDir},
		{model.StepBuild, debugDir},
		{model.StepTest, debugDir},
	}, r.calls)

	assert.Equal(t, "Running Release tests...\nRunning Debug tests...\n", out.String())

	require.Len(t, report.Results, 2)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, testToolchain, report.Toolchain)
	assert.Empty(t, report.Failed())
	for _, res := range report.Results {
		assert.Empty(t, res.Failure)
	}
	assert.NotEqual(t, report.Results[0].Configuration.OutputDir, report.Results[1].Configuration.OutputDir)
}

// TestRun_GenerateFailureAbortsEverything verifies that a failed generate
// step in the first configuration stops the run before anything else.
func TestRun_GenerateFailureAbortsEverything(t *testing.T) {
	r := &fakeRunner{respond: failAt(model.StepGenerate, releaseDir, model.ProcessResult{ExitCode: 1}, nil)}
	o, out := newTestOrchestrator(t, r)

	report, err := o.Run(testToolchain)
	require.Error(t, err)
	assert.Equal(t, model.KindGenerateStepFailed, model.KindOf(err))
	assert.Equal(t, model.ExitGeneralError, model.ExitCodeOf(err))
	assert.Contains(t, err.Error(), "CMake returned 1 and can not proceed")

	assert.Equal(t, []invocation{{model.StepGenerate, releaseDir}}, r.calls)
	assert.Empty(t, report.Results)
	assert.Empty(t, out.String())
}

// TestRun_BuildFailureAbortsEverything verifies that the second
// configuration is not attempted after a build failure in the first.
func TestRun_BuildFailureAbortsEverything(t *testing.T) {
	r := &fakeRunner{respond: failAt(model.StepBuild, releaseDir, model.ProcessResult{ExitCode: 2}, nil)}
	o, _ := newTestOrchestrator(t, r)

	_, err := o.Run(testToolchain)
	require.Error(t, err)
	assert.Equal(t, model.KindBuildStepFailed, model.KindOf(err))
	assert.Contains(t, err.Error(), "CMake returned 2 and can not proceed (build step, Release)")

	assert.Equal(t, []invocation{
		{model.StepGenerate, releaseDir},
		{model.StepBuild, releaseDir},
	}, r.calls)
}

// TestRun_BuildFailureInSecondConfiguration keeps the first configuration's
// result in the report.
func TestRun_BuildFailureInSecondConfiguration(t *testing.T) {
	r := &fakeRunner{respond: failAt(model.StepBuild, debugDir, model.ProcessResult{ExitCode: 1}, nil)}
	o, out := newTestOrchestrator(t, r)

	report, err := o.Run(testToolchain)
	require.Error(t, err)
	assert.Equal(t, model.KindBuildStepFailed, model.KindOf(err))

	assert.Len(t, r.calls, 5)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "Release", report.Results[0].Configuration.Name)
	assert.NotContains(t, out.String(), "Running Debug tests")
}

// TestRun_TestFailureIsNotFatal verifies that a failing test binary is
// reported and the next configuration still runs.
func TestRun_TestFailureIsNotFatal(t *testing.T) {
	r := &fakeRunner{respond: failAt(model.StepTest, releaseDir, model.ProcessResult{ExitCode: 3}, nil)}
	o, out := newTestOrchestrator(t, r)

	report, err := o.Run(testToolchain)
	require.NoError(t, err)
	assert.Len(t, r.calls, 6)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"Running Release tests...",
		"Release tests failed (" + releaseDir + ")",
		"Running Debug tests...",
	}, lines)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "Release", failed[0].Configuration.Name)
	assert.Equal(t, model.OutcomeTestsFailed, failed[0].Outcome)
	assert.Equal(t, 3, failed[0].TestExitCode)
	assert.Equal(t, model.KindTestStepFailed, failed[0].Failure)
	assert.Equal(t, model.OutcomePassed, report.Results[1].Outcome)
	assert.Empty(t, report.Results[1].Failure)
}

func TestRun_AllTestsFail(t *testing.T) {
	r := &fakeRunner{respond: func(inv invocation) (model.ProcessResult, error) {
		if inv.step == model.StepTest {
			return model.ProcessResult{ExitCode: 1}, nil
		}
		return model.ProcessResult{}, nil
	}}
	o, _ := newTestOrchestrator(t, r)

	report, err := o.Run(testToolchain)
	require.NoError(t, err, "test failures never produce a fatal error")
	assert.Len(t, report.Failed(), 2)
}

// TestRun_TestBinaryMissing verifies that a test executable that cannot be
// started counts as a test failure, not a fatal one.
func TestRun_TestBinaryMissing(t *testing.T) {
	startErr := errors.New("no such file or directory")
	r := &fakeRunner{respond: failAt(model.StepTest, debugDir, model.ProcessResult{}, startErr)}
	o, out := newTestOrchestrator(t, r)

	report, err := o.Run(testToolchain)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "Debug", failed[0].Configuration.Name)
	assert.Equal(t, -1, failed[0].TestExitCode)
	assert.Equal(t, model.KindTestStepFailed, failed[0].Failure)
	assert.Contains(t, out.String(), "Debug tests failed")
}

// TestRun_CMakeMissing verifies that failing to start cmake is fatal and
// keeps the underlying error in the chain.
func TestRun_CMakeMissing(t *testing.T) {
	startErr := errors.New(`exec: "cmake": executable file not found in $PATH`)
	r := &fakeRunner{respond: failAt(model.StepGenerate, releaseDir, model.ProcessResult{}, startErr)}
	o, _ := newTestOrchestrator(t, r)

	_, err := o.Run(testToolchain)
	require.Error(t, err)
	assert.Equal(t, model.KindGenerateStepFailed, model.KindOf(err))
	assert.ErrorIs(t, err, startErr)
	assert.Contains(t, err.Error(), "CMake returned -1")
	assert.Len(t, r.calls, 1)
}

// TestRun_CustomPlan verifies that the loop follows the plan's
// configurations rather than a fixed pair.
func TestRun_CustomPlan(t *testing.T) {
	plan := config.Default("/src")
	plan.Configurations = []model.BuildConfiguration{
		{Name: "MinSizeRel", OutputDir: "/out/minsize"},
	}

	r := &fakeRunner{}
	var out bytes.Buffer
	report, err := New(r, plan, &out, nil).Run(testToolchain)
	require.NoError(t, err)

	assert.Equal(t, []invocation{
		{model.StepGenerate, "/out/minsize"},
		{model.StepBuild, "/out/minsize"},
		{model.StepTest, "/out/minsize"},
	}, r.calls)
	assert.Equal(t, "Running MinSizeRel tests...\n", out.String())
	assert.Len(t, report.Results, 1)
}

// TestRun_DryRun drives the orchestrator with the dry-run runner and checks
// that every command line is printed once, in order.
func TestRun_DryRun(t *testing.T) {
	var out bytes.Buffer
	o := New(process.NewDryRun(&out), config.Default(".."), &out, zaptest.NewLogger(t))

	report, err := o.Run(testToolchain)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())

	text := out.String()
	assert.Equal(t, 4, strings.Count(text, "+ cmake "))
	assert.Contains(t, text, "+ "+filepath.Join(debugDir, "test", "memtests")+"\n")
}

// TestRun_FreshRunID verifies that each run gets its own ID.
func TestRun_FreshRunID(t *testing.T) {
	o, _ := newTestOrchestrator(t, &fakeRunner{})

	first, err := o.Run(testToolchain)
	require.NoError(t, err)
	second, err := o.Run(testToolchain)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
}
