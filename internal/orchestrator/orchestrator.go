package orchestrator

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shinji-kodama/vcbuild/internal/config"
	"github.com/shinji-kodama/vcbuild/internal/model"
	"github.com/shinji-kodama/vcbuild/internal/process"
)

// Orchestrator runs a build plan through a process.Runner.
// It holds no state between runs; every Run starts from scratch.
type Orchestrator struct {
	runner process.Runner
	plan   config.Plan
	out    io.Writer
	logger *zap.Logger
}

// New creates an Orchestrator. Progress and test failure lines are written
// to out; the plan is expected to be validated already.
func New(runner process.Runner, plan config.Plan, out io.Writer, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{runner: runner, plan: plan, out: out, logger: logger}
}

// Run processes every configuration of the plan in order, one at a time.
//
// The returned report holds one result per configuration that got past its
// build step. On a fatal failure the report covers the configurations
// finished so far and err is a *model.CLIError of kind GenerateStepFailed
// or BuildStepFailed.
func (o *Orchestrator) Run(tc model.ToolchainConfig) (*model.Report, error) {
	report := &model.Report{RunID: uuid.NewString(), Toolchain: tc}
	logger := o.logger.With(zap.String("run_id", report.RunID))

	logger.Debug("starting run",
		zap.Int("configurations", len(o.plan.Configurations)),
		zap.String("toolchain_file", tc.ToolchainFile),
		zap.String("c_compiler", tc.CCompiler),
		zap.String("cxx_compiler", tc.CXXCompiler),
	)

	for _, bc := range o.plan.Configurations {
		result, err := o.runConfiguration(logger.With(zap.String("configuration", bc.Name)), tc, bc)
		if err != nil {
			return report, err
		}
		report.Add(result)
	}

	logger.Debug("run finished", zap.Int("failed", len(report.Failed())))
	return report, nil
}

// runConfiguration performs generate -> build -> test for one configuration.
func (o *Orchestrator) runConfiguration(logger *zap.Logger, tc model.ToolchainConfig, bc model.BuildConfiguration) (model.ConfigurationResult, error) {
	cmds := BuildCommands(o.plan, tc, bc)

	if err := o.runFatal(logger, model.StepGenerate, cmds.Generate, bc); err != nil {
		return model.ConfigurationResult{}, err
	}
	if err := o.runFatal(logger, model.StepBuild, cmds.Build, bc); err != nil {
		return model.ConfigurationResult{}, err
	}

	fmt.Fprintf(o.out, "Running %s tests...\n", bc.Name)

	result := model.ConfigurationResult{Configuration: bc, Outcome: model.OutcomePassed}
	res, err := o.runner.Run(cmds.Test)
	if err != nil {
		logger.Debug("test executable could not be started", zap.Error(err))
		res.ExitCode = -1
	}
	if !res.Success() {
		failure := model.NewCLIError(model.KindTestStepFailed,
			fmt.Sprintf("%s tests failed (%s)", bc.Name, bc.OutputDir))
		result.Outcome = model.OutcomeTestsFailed
		result.TestExitCode = res.ExitCode
		result.Failure = failure.Kind
		fmt.Fprintln(o.out, failure.Message)
	}

	logger.Debug("configuration finished",
		zap.Stringer("outcome", result.Outcome),
		zap.Int("test_exit_code", result.TestExitCode),
	)
	return result, nil
}

// runFatal runs a generate or build command. Any failure, including a
// failure to start cmake, ends the whole run.
func (o *Orchestrator) runFatal(logger *zap.Logger, step model.Step, cmd process.Command, bc model.BuildConfiguration) error {
	kind := model.KindGenerateStepFailed
	if step == model.StepBuild {
		kind = model.KindBuildStepFailed
	}

	logger.Debug("running step", zap.Stringer("step", step), zap.String("command", cmd.String()))

	res, err := o.runner.Run(cmd)
	if err != nil {
		return model.WrapCLIError(kind, failureMessage(-1, step, bc), err)
	}
	if !res.Success() {
		return model.NewCLIError(kind, failureMessage(res.ExitCode, step, bc))
	}
	return nil
}

func failureMessage(code int, step model.Step, bc model.BuildConfiguration) string {
	return fmt.Sprintf("CMake returned %d and can not proceed (%s step, %s)", code, step, bc.Name)
}
