// Package capabilities implements capability policy loading and enforcement
// for host-access modules.
package capabilities

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Capability names.
const (
	FSRead  = "fs.read"
	FSWrite = "fs.write"
	HTTPGet = "http.get"
	ShExec  = "sh.exec"
)

// Known lists every capability a policy may name.
var Known = []string{FSRead, FSWrite, HTTPGet, ShExec}

// ProjectFile and UserFile are the policy locations, searched in order.
const (
	ProjectFile = ".tlpolicy.yaml"
	UserFile    = ".tl/policy.yaml"
)

// Policy defines which capabilities are allowed for program execution.
type Policy struct {
	allowAll bool
	allowed  map[string]bool

	Limits Limits
	// Source is the file the policy was loaded from, empty for built-in
	// policies.
	Source string
}

// Limits are optional execution limits carried by a policy file.
type Limits struct {
	MaxSteps     int64         `yaml:"max_steps,omitempty"`
	MaxCallDepth int           `yaml:"max_call_depth,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
}

// PolicyFile represents the YAML structure of a policy file.
type PolicyFile struct {
	Version int      `yaml:"version"`
	Allow   []string `yaml:"allow,omitempty"`
	Deny    []string `yaml:"deny,omitempty"`
	Limits  Limits   `yaml:"limits,omitempty"`
}

// IsAllowed checks whether a capability is permitted by this policy.
func (p *Policy) IsAllowed(cap string) bool {
	if p == nil {
		return false
	}
	return p.allowAll || p.allowed[cap]
}

// Allowed returns the allowed capabilities, sorted.
func (p *Policy) Allowed() []string {
	var out []string
	for _, cap := range Known {
		if p.IsAllowed(cap) {
			out = append(out, cap)
		}
	}
	sort.Strings(out)
	return out
}

// MarshalYAML renders the effective policy in the file schema.
func (p *Policy) MarshalYAML() (any, error) {
	pf := PolicyFile{Version: 1, Allow: p.Allowed(), Limits: p.Limits}
	for _, cap := range Known {
		if !p.IsAllowed(cap) {
			pf.Deny = append(pf.Deny, cap)
		}
	}
	return pf, nil
}

// LoadPolicy loads the capability policy for a project directory.
// Precedence: project (.tlpolicy.yaml) → user (~/.tl/policy.yaml) → deny-all.
// A missing file falls through; a malformed one is an error.
func LoadPolicy(projectDir string) (*Policy, error) {
	paths := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, UserFile))
	}

	for _, path := range paths {
		p, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return DenyAll(), nil
}

// LoadFile reads a single policy file.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	p.Source = path
	return p, nil
}

// Parse decodes policy YAML.
func Parse(data []byte) (*Policy, error) {
	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	if pf.Version != 1 {
		return nil, fmt.Errorf("unsupported policy version %d", pf.Version)
	}
	return buildPolicy(&pf)
}

func buildPolicy(pf *PolicyFile) (*Policy, error) {
	allowed := make(map[string]bool)

	for _, cap := range pf.Allow {
		if !isKnown(cap) {
			return nil, fmt.Errorf("unknown capability %q", cap)
		}
		allowed[cap] = true
	}

	// Deny overrides allow
	for _, cap := range pf.Deny {
		if !isKnown(cap) {
			return nil, fmt.Errorf("unknown capability %q", cap)
		}
		delete(allowed, cap)
	}

	if pf.Limits.MaxSteps < 0 || pf.Limits.MaxCallDepth < 0 || pf.Limits.Timeout < 0 {
		return nil, fmt.Errorf("limits must not be negative")
	}

	return &Policy{allowed: allowed, Limits: pf.Limits}, nil
}

func isKnown(cap string) bool {
	for _, k := range Known {
		if k == cap {
			return true
		}
	}
	return false
}

// AllowAll returns a policy that permits all capabilities. Used for --unsafe-allow-all.
func AllowAll() *Policy {
	return &Policy{allowAll: true}
}

// DenyAll returns a policy that denies all capabilities.
func DenyAll() *Policy {
	return &Policy{allowed: make(map[string]bool)}
}
