// Package testutil loads the end-to-end scenarios under testdata/scenarios.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rdni/interpreter/pkg/capabilities"
)

// ScenariosDir is the scenario root relative to the module root.
const ScenariosDir = "testdata/scenarios"

// Scenario represents a test scenario loaded from a scenario.yaml file.
type Scenario struct {
	Description string          `yaml:"description,omitempty"`
	Cmd         []string        `yaml:"cmd"`
	Stdin       string          `yaml:"stdin,omitempty"`
	Policy      *ScenarioPolicy `yaml:"policy,omitempty"`
	Expect      ExpectedResult  `yaml:"expect"`
	TimeoutMs   int             `yaml:"timeoutMs,omitempty"`
}

// ScenarioPolicy defines capability permissions for a scenario. It uses the
// policy file schema without the version field.
type ScenarioPolicy struct {
	Allow  []string            `yaml:"allow,omitempty"`
	Deny   []string            `yaml:"deny,omitempty"`
	Limits capabilities.Limits `yaml:"limits,omitempty"`
}

// Build converts the scenario policy through the regular policy parser, so
// scenarios are validated the same way as .tlpolicy.yaml files.
func (p *ScenarioPolicy) Build() (*capabilities.Policy, error) {
	if p == nil {
		return capabilities.DenyAll(), nil
	}
	data, err := yaml.Marshal(capabilities.PolicyFile{
		Version: 1,
		Allow:   p.Allow,
		Deny:    p.Deny,
		Limits:  p.Limits,
	})
	if err != nil {
		return nil, err
	}
	return capabilities.Parse(data)
}

// ExpectedDiag matches a diagnostic by code and, if set, severity and line.
type ExpectedDiag struct {
	Code     string `yaml:"code"`
	Severity string `yaml:"severity,omitempty"`
	Line     int    `yaml:"line,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode       int            `yaml:"exitCode"`
	Stdout         *string        `yaml:"stdout,omitempty"`
	StdoutContains []string       `yaml:"stdoutContains,omitempty"`
	StderrContains []string       `yaml:"stderrContains,omitempty"`
	StderrEmpty    bool           `yaml:"stderrEmpty,omitempty"`
	Diagnostics    []ExpectedDiag `yaml:"diagnostics,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.yaml.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.yaml"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	if len(s.Cmd) < 2 {
		return nil, fmt.Errorf("%s: cmd needs a command and a program file", dir)
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root,
// sorted by name.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.yaml")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ReadProgramFile reads the program file referenced by the scenario cmd.
func ReadProgramFile(scenarioDir string, cmd []string) (string, string, error) {
	if len(cmd) < 2 {
		return "", "", nil
	}
	filename := cmd[1]
	source, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return "", "", err
	}
	return string(source), filename, nil
}

// HasFlag reports whether cmd carries flag after the program file.
func HasFlag(cmd []string, flag string) bool {
	for _, arg := range cmd[1:] {
		if arg == flag {
			return true
		}
	}
	return false
}
