// Package config holds the declarative build plan: which configurations to
// build, which targets to compile, how CMake is invoked and where the test
// executable ends up.
//
// The built-in defaults reproduce the mempool project layout (Release and
// Debug, targets mempool and memtests, Ninja with -j 8). A plan file can
// override any of them. Two formats are accepted:
//   - YAML (.yaml, .yml), parsed with gopkg.in/yaml.v3
//   - JSON with comments (.json, .jsonc), stripped with
//     github.com/tidwall/jsonc before encoding/json parses it
//
// Unknown keys are rejected in both formats so typos do not silently fall
// back to a default.
package config
