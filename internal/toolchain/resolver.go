package toolchain

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shinji-kodama/vcbuild/internal/model"
)

const (
	// ToolchainFileSuffix is appended to the vcpkg base path to locate the
	// CMake toolchain file shipped with vcpkg.
	ToolchainFileSuffix = "vcpkg/scripts/buildsystems/vcpkg.cmake"

	// CCompilerName is the C compiler binary expected in the compiler directory.
	CCompilerName = "clang"

	// CXXCompilerName is the C++ compiler binary expected in the compiler directory.
	CXXCompilerName = "clang++"
)

// Derive builds a ToolchainConfig from the two user-supplied base paths
// without touching the filesystem.
//
// Example:
//
//	Derive("/opt", "/usr/lib/llvm-17/bin")
//	→ {/opt/vcpkg/scripts/buildsystems/vcpkg.cmake,
//	   /usr/lib/llvm-17/bin/clang, /usr/lib/llvm-17/bin/clang++}
func Derive(vcpkgRoot, compilerDir string) model.ToolchainConfig {
	return model.ToolchainConfig{
		ToolchainFile: filepath.Join(vcpkgRoot, ToolchainFileSuffix),
		CCompiler:     filepath.Join(compilerDir, CCompilerName),
		CXXCompiler:   filepath.Join(compilerDir, CXXCompilerName),
	}
}

// Resolve derives the toolchain paths and validates them.
// The returned config is only meaningful when err is nil.
func Resolve(vcpkgRoot, compilerDir string) (model.ToolchainConfig, error) {
	cfg := Derive(vcpkgRoot, compilerDir)
	if err := Validate(cfg); err != nil {
		return model.ToolchainConfig{}, err
	}
	return cfg, nil
}

// Validate checks that every path in cfg exists, in this order:
// toolchain file, C compiler, C++ compiler. The first missing path ends
// validation.
func Validate(cfg model.ToolchainConfig) error {
	checks := []struct {
		path string
		kind model.ErrorKind
	}{
		{cfg.ToolchainFile, model.KindMissingToolchainFile},
		{cfg.CCompiler, model.KindMissingCompiler},
		{cfg.CXXCompiler, model.KindMissingCompiler},
	}

	for _, c := range checks {
		if !isFile(c.path) {
			return model.NewCLIError(c.kind, fmt.Sprintf("%s could not be found", c.path))
		}
	}
	return nil
}

// isFile reports whether path names a regular file.
// os.Stat follows symlinks, so a symlinked compiler is accepted.
func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
