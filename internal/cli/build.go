package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shinji-kodama/vcbuild/internal/config"
	"github.com/shinji-kodama/vcbuild/internal/model"
	"github.com/shinji-kodama/vcbuild/internal/orchestrator"
	"github.com/shinji-kodama/vcbuild/internal/process"
	"github.com/shinji-kodama/vcbuild/internal/toolchain"
)

// runBuild is the main logic of the root command.
//
// Steps:
//  1. Resolve and validate the toolchain paths (nothing runs if one is missing)
//  2. Load and validate the build plan
//  3. Run every configuration through the orchestrator
//  4. Print the per-configuration summary, or the report as JSON
//
// With --json, stdout carries nothing but the report. Progress lines, the
// output of cmake and the tests, and dry-run command lines go to stderr.
func runBuild(cmd *cobra.Command, flags *rootFlags, opts options, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	stdout := cmd.OutOrStdout()
	progress := stdout
	if flags.jsonOutput {
		progress = cmd.ErrOrStderr()
	}

	tc, err := toolchain.Resolve(flags.vcpkg, flags.cl)
	if err != nil {
		return err
	}
	logger.Debug("toolchain resolved",
		zap.String("toolchain_file", tc.ToolchainFile),
		zap.String("c_compiler", tc.CCompiler),
		zap.String("cxx_compiler", tc.CXXCompiler),
	)

	plan, err := loadPlan(cmd, flags)
	if err != nil {
		return err
	}

	var runner process.Runner
	if flags.dryRun {
		runner = process.NewDryRun(progress)
	} else {
		runner = opts.newRunner(progress, cmd.ErrOrStderr(), logger)
	}

	report, err := orchestrator.New(runner, plan, progress, logger).Run(tc)
	if err != nil {
		return err
	}

	if flags.jsonOutput {
		return printReportJSON(stdout, report)
	}
	printSummary(stdout, report)
	return nil
}

// loadPlan returns the default plan, or the plan file overlaid on the
// defaults when --config is given. An explicit --source wins over the
// file's sourceDir.
func loadPlan(cmd *cobra.Command, flags *rootFlags) (config.Plan, error) {
	plan := config.Default(flags.source)

	if flags.configPath != "" {
		p, err := config.Load(flags.configPath)
		if err != nil {
			return config.Plan{}, err
		}
		if cmd.Flags().Changed("source") {
			p.SourceDir = flags.source
		}
		p.ApplyDefaults()
		plan = p
	}

	if err := plan.Validate(); err != nil {
		return config.Plan{}, err
	}
	return plan, nil
}

// printSummary writes one row per configuration:
//
//	CONFIGURATION   OUTCOME         OUTPUT
//	Release         passed          ../build/release
//	Debug           tests-failed    ../build/debug
func printSummary(w io.Writer, report *model.Report) {
	if len(report.Results) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-15s %-15s %s\n", "CONFIGURATION", "OUTCOME", "OUTPUT")
	for _, r := range report.Results {
		fmt.Fprintf(w, "%-15s %-15s %s\n", r.Configuration.Name, r.Outcome, r.Configuration.OutputDir)
	}
}

// printReportJSON writes the report as indented JSON. A report without
// results is written with an empty array rather than null.
func printReportJSON(w io.Writer, report *model.Report) error {
	out := *report
	if out.Results == nil {
		out.Results = []model.ConfigurationResult{}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
