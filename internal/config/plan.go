package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/vcbuild/internal/model"
)

const (
	// DefaultSourceDir is the CMake source directory, relative to the
	// directory vcbuild is started from (the project's scripts/ folder).
	DefaultSourceDir = ".."

	// DefaultCMake is the CMake executable, looked up in PATH.
	DefaultCMake = "cmake"

	// DefaultGenerator is the CMake generator name passed with -G.
	DefaultGenerator = "Ninja"

	// DefaultMakeProgram is passed as CMAKE_MAKE_PROGRAM.
	DefaultMakeProgram = "ninja"

	// DefaultJobs is the parallelism handed to the native build tool.
	DefaultJobs = 8

	// DefaultTestBinary is the test executable, relative to a
	// configuration's output directory.
	DefaultTestBinary = "test/memtests"
)

// DefaultTargets are the CMake targets compiled for every configuration.
var DefaultTargets = []string{"mempool", "memtests"}

// DefaultConfigurations are the build types processed when no plan file
// overrides them. Output directories are filled in by ApplyDefaults.
var DefaultConfigurations = []model.BuildConfiguration{
	{Name: "Release"},
	{Name: "Debug"},
}

// Plan is the complete, declarative description of one vcbuild run.
// All relative paths are relative to the working directory of vcbuild.
type Plan struct {
	// SourceDir is the CMake source directory (-S).
	SourceDir string `yaml:"sourceDir" json:"sourceDir"`

	// CMake is the cmake executable used for both generate and build.
	CMake string `yaml:"cmake" json:"cmake"`

	// Generator is the CMake generator name (-G).
	Generator string `yaml:"generator" json:"generator"`

	// MakeProgram is passed as CMAKE_MAKE_PROGRAM. Empty omits the define
	// and lets CMake pick the program for the generator.
	MakeProgram string `yaml:"makeProgram" json:"makeProgram"`

	// Targets restricts the build step to these CMake targets.
	Targets []string `yaml:"targets" json:"targets"`

	// Jobs is the parallelism level forwarded to the native build tool.
	Jobs int `yaml:"jobs" json:"jobs"`

	// TestBinary is the test executable path inside each output directory.
	TestBinary string `yaml:"testBinary" json:"testBinary"`

	// Configurations are processed in order, one after another.
	Configurations []model.BuildConfiguration `yaml:"configurations" json:"configurations"`
}

// Default returns the built-in plan for the given source directory, with
// output directories already assigned.
func Default(sourceDir string) Plan {
	p := base()
	if sourceDir != "" {
		p.SourceDir = sourceDir
	}
	p.ApplyDefaults()
	return p
}

// base returns the defaults without derived output directories. Slices are
// copied so callers can never mutate the package-level defaults.
func base() Plan {
	return Plan{
		SourceDir:      DefaultSourceDir,
		CMake:          DefaultCMake,
		Generator:      DefaultGenerator,
		MakeProgram:    DefaultMakeProgram,
		Targets:        append([]string(nil), DefaultTargets...),
		Jobs:           DefaultJobs,
		TestBinary:     DefaultTestBinary,
		Configurations: append([]model.BuildConfiguration(nil), DefaultConfigurations...),
	}
}

// Load reads a plan file and overlays it on the defaults. Keys missing from
// the file keep their default value; list keys present in the file replace
// the default list entirely.
//
// The returned plan still needs ApplyDefaults before use, so that a source
// directory given on the command line can be applied first.
func Load(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, model.WrapCLIError(model.KindInvalidPlan,
			fmt.Sprintf("failed to read build plan %s", path), err)
	}

	var decode func([]byte, *Plan) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		decode = decodeYAML
	case ".json", ".jsonc":
		decode = decodeJSONC
	default:
		return Plan{}, model.NewCLIError(model.KindInvalidPlan,
			fmt.Sprintf("unsupported build plan format %q (valid: .yaml, .yml, .json, .jsonc)", ext))
	}

	p, err := overlay(data, decode)
	if err != nil {
		return Plan{}, model.WrapCLIError(model.KindInvalidPlan,
			fmt.Sprintf("failed to parse build plan %s", path), err)
	}
	return p, nil
}

// overlay decodes data on top of the defaults. List fields are decoded into
// nil slices so file entries never merge with default entries; a list key
// that is absent from the file keeps the default list.
func overlay(data []byte, decode func([]byte, *Plan) error) (Plan, error) {
	defaults := base()

	p := defaults
	p.Targets = nil
	p.Configurations = nil
	if err := decode(data, &p); err != nil {
		return Plan{}, err
	}

	if p.Targets == nil {
		p.Targets = defaults.Targets
	}
	if p.Configurations == nil {
		p.Configurations = defaults.Configurations
	}
	return p, nil
}

// decodeYAML decodes a YAML document into p, rejecting unknown keys.
// An empty document leaves p untouched.
func decodeYAML(data []byte, p *Plan) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeJSONC strips comments and trailing commas, then decodes into p,
// rejecting unknown keys.
func decodeJSONC(data []byte, p *Plan) error {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	return dec.Decode(p)
}

// ApplyDefaults assigns an output directory to every configuration that
// does not have one: <SourceDir>/build/<lowercase name>.
func (p *Plan) ApplyDefaults() {
	for i := range p.Configurations {
		if p.Configurations[i].OutputDir == "" {
			p.Configurations[i].OutputDir = filepath.Join(
				p.SourceDir, "build", strings.ToLower(p.Configurations[i].Name))
		}
	}
}

// Validate checks that the plan can be executed. It requires at least one
// configuration, unique configuration names, output directories that
// neither coincide nor nest, at least one target and a positive job count.
func (p Plan) Validate() error {
	invalid := func(format string, args ...any) error {
		return model.NewCLIError(model.KindInvalidPlan, "invalid build plan: "+fmt.Sprintf(format, args...))
	}

	if p.SourceDir == "" {
		return invalid("sourceDir must not be empty")
	}
	if p.CMake == "" {
		return invalid("cmake must not be empty")
	}
	if p.Generator == "" {
		return invalid("generator must not be empty")
	}
	if p.TestBinary == "" {
		return invalid("testBinary must not be empty")
	}
	if p.Jobs < 1 {
		return invalid("jobs must be at least 1, got %d", p.Jobs)
	}
	if len(p.Targets) == 0 {
		return invalid("at least one target is required")
	}
	for _, t := range p.Targets {
		if strings.TrimSpace(t) == "" {
			return invalid("target names must not be empty")
		}
	}
	if len(p.Configurations) == 0 {
		return invalid("at least one configuration is required")
	}

	// CMake treats build types case-insensitively, so "debug" and "Debug"
	// would collide.
	names := make(map[string]bool, len(p.Configurations))
	for i, c := range p.Configurations {
		if c.Name == "" {
			return invalid("configuration #%d has no name", i+1)
		}
		key := strings.ToLower(c.Name)
		if names[key] {
			return invalid("duplicate configuration %q", c.Name)
		}
		names[key] = true

		if c.OutputDir == "" {
			return invalid("configuration %q has no output directory", c.Name)
		}
	}

	for i := range p.Configurations {
		for j := i + 1; j < len(p.Configurations); j++ {
			a, b := p.Configurations[i], p.Configurations[j]
			if overlaps(a.OutputDir, b.OutputDir) {
				return invalid("configurations %q and %q share output directory %s / %s",
					a.Name, b.Name, a.OutputDir, b.OutputDir)
			}
		}
	}
	return nil
}

// overlaps reports whether a and b are the same directory or one contains
// the other, comparing cleaned paths.
func overlaps(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	return a == b || within(a, b) || within(b, a)
}

// within reports whether child is located below parent.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
