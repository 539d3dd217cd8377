package orchestrator

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shinji-kodama/vcbuild/internal/config"
	"github.com/shinji-kodama/vcbuild/internal/model"
	"github.com/shinji-kodama/vcbuild/internal/process"
)

// Commands are the three invocations that make up one configuration.
type Commands struct {
	Generate process.Command
	Build    process.Command
	Test     process.Command
}

// BuildCommands assembles the commands for one configuration. It is pure,
// so the exact command lines can be inspected without running anything.
//
// For the default plan and the Release configuration this produces:
//
//	cmake -DCMAKE_BUILD_TYPE=Release -DCMAKE_MAKE_PROGRAM=ninja
//	      -DCMAKE_C_COMPILER=<cc> -DCMAKE_CXX_COMPILER=<cxx> -G Ninja
//	      -DCMAKE_TOOLCHAIN_FILE=<vcpkg.cmake> -S .. -B ../build/release
//	cmake --build ../build/release --target mempool memtests -- -j 8
//	../build/release/test/memtests
func BuildCommands(plan config.Plan, tc model.ToolchainConfig, bc model.BuildConfiguration) Commands {
	generate := []string{"-DCMAKE_BUILD_TYPE=" + bc.Name}
	if plan.MakeProgram != "" {
		generate = append(generate, "-DCMAKE_MAKE_PROGRAM="+plan.MakeProgram)
	}
	generate = append(generate,
		"-DCMAKE_C_COMPILER="+tc.CCompiler,
		"-DCMAKE_CXX_COMPILER="+tc.CXXCompiler,
		"-G", plan.Generator,
		"-DCMAKE_TOOLCHAIN_FILE="+tc.ToolchainFile,
		"-S", plan.SourceDir,
		"-B", bc.OutputDir,
	)

	build := []string{"--build", bc.OutputDir, "--target"}
	build = append(build, plan.Targets...)
	build = append(build, "--", "-j", strconv.Itoa(plan.Jobs))

	return Commands{
		Generate: process.Command{Name: plan.CMake, Args: generate},
		Build:    process.Command{Name: plan.CMake, Args: build},
		Test:     process.Command{Name: testExecutable(bc.OutputDir, plan.TestBinary)},
	}
}

// testExecutable joins the output directory and the test binary path.
// os/exec only resolves names without a separator through PATH, so a bare
// name gets a "./" prefix to keep it pointing into the output directory.
func testExecutable(outputDir, testBinary string) string {
	path := filepath.Join(outputDir, testBinary)
	if !filepath.IsAbs(path) && !strings.ContainsRune(path, filepath.Separator) {
		path = "." + string(filepath.Separator) + path
	}
	return path
}
