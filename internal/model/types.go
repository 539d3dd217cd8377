package model

// ToolchainConfig holds the resolved paths of the vcpkg toolchain file and
// the clang compiler pair. It is created once by the toolchain resolver and
// is read-only afterwards.
type ToolchainConfig struct {
	// ToolchainFile is the path to vcpkg.cmake, passed to CMake as
	// CMAKE_TOOLCHAIN_FILE.
	ToolchainFile string `json:"toolchainFile"`

	// CCompiler is the path to the C compiler binary (clang).
	CCompiler string `json:"cCompiler"`

	// CXXCompiler is the path to the C++ compiler binary (clang++).
	CXXCompiler string `json:"cxxCompiler"`
}

// BuildConfiguration is a named build variant with its own output directory.
// Configurations never share an output directory, so they can be processed
// without any coordination.
type BuildConfiguration struct {
	// Name is the CMake build type, e.g. "Release" or "Debug".
	Name string `json:"name" yaml:"name"`

	// OutputDir is the CMake binary directory for this configuration.
	OutputDir string `json:"outputDir" yaml:"outputDir"`
}

// String returns the configuration name.
func (c BuildConfiguration) String() string {
	return c.Name
}

// ProcessResult is the outcome of one external invocation.
type ProcessResult struct {
	// ExitCode is the exit status reported by the operating system.
	// -1 means the process could not be started or was killed by a signal.
	ExitCode int
}

// Success reports whether the process exited with status 0.
func (r ProcessResult) Success() bool {
	return r.ExitCode == 0
}

// Step identifies one stage of the per-configuration pipeline.
// The order is always generate -> build -> test.
type Step string

const (
	// StepGenerate runs the CMake configure/generate stage.
	StepGenerate Step = "generate"

	// StepBuild compiles the selected targets.
	StepBuild Step = "build"

	// StepTest runs the produced test executable.
	StepTest Step = "test"
)

// String returns the string representation of Step.
func (s Step) String() string {
	return string(s)
}

// Outcome is the final state of a configuration that made it through the
// generate and build steps.
type Outcome string

const (
	// OutcomePassed means the test executable exited with status 0.
	OutcomePassed Outcome = "passed"

	// OutcomeTestsFailed means the test executable exited non-zero or could
	// not be started.
	OutcomeTestsFailed Outcome = "tests-failed"
)

// String returns the string representation of Outcome.
func (o Outcome) String() string {
	return string(o)
}

// ConfigurationResult records what happened to a single configuration.
type ConfigurationResult struct {
	Configuration BuildConfiguration `json:"configuration"`
	Outcome       Outcome            `json:"outcome"`

	// TestExitCode is the exit status of the test executable.
	TestExitCode int `json:"testExitCode"`

	// Failure is KindTestStepFailed when the tests did not pass.
	Failure ErrorKind `json:"failure,omitempty"`
}

// Report is the accumulated result of one orchestration run. It only holds
// configurations whose generate and build steps succeeded; a fatal failure
// ends the run before a result is recorded.
type Report struct {
	// RunID correlates log lines that belong to the same run.
	RunID string `json:"runId"`

	// Toolchain is the validated toolchain every configuration was built with.
	Toolchain ToolchainConfig `json:"toolchain"`

	Results []ConfigurationResult `json:"results"`
}

// Add appends a result to the report.
func (r *Report) Add(result ConfigurationResult) {
	r.Results = append(r.Results, result)
}

// Failed returns the results whose tests did not pass, in run order.
func (r *Report) Failed() []ConfigurationResult {
	var failed []ConfigurationResult
	for _, res := range r.Results {
		if res.Outcome != OutcomePassed {
			failed = append(failed, res)
		}
	}
	return failed
}
