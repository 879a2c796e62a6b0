package capabilities

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	p, err := Parse([]byte(`
version: 1
allow: [fs.read, fs.write, sh.exec]
deny: [fs.write]
limits:
  max_steps: 1000
  max_call_depth: 64
  timeout: 2s
`))
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsAllowed(FSRead) || !p.IsAllowed(ShExec) {
		t.Errorf("expected fs.read and sh.exec to be allowed")
	}
	if p.IsAllowed(FSWrite) {
		t.Errorf("deny should override allow")
	}
	if p.IsAllowed(HTTPGet) {
		t.Errorf("http.get was never allowed")
	}
	want := Limits{MaxSteps: 1000, MaxCallDepth: 64, Timeout: 2 * time.Second}
	if p.Limits != want {
		t.Errorf("limits = %+v, want %+v", p.Limits, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"bad version":        "version: 2\n",
		"missing version":    "allow: [fs.read]\n",
		"unknown capability": "version: 1\nallow: [net.raw]\n",
		"unknown deny":       "version: 1\ndeny: [fs.delete]\n",
		"negative limit":     "version: 1\nlimits: {max_steps: -1}\n",
		"bad duration":       "version: 1\nlimits: {timeout: soon}\n",
		"not yaml":           "version: [1\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src)); err == nil {
				t.Errorf("expected error for %q", src)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	deny := DenyAll()
	allow := AllowAll()
	for _, cap := range Known {
		if deny.IsAllowed(cap) {
			t.Errorf("DenyAll allows %s", cap)
		}
		if !allow.IsAllowed(cap) {
			t.Errorf("AllowAll denies %s", cap)
		}
	}
	var nilPolicy *Policy
	if nilPolicy.IsAllowed(FSRead) {
		t.Errorf("nil policy should deny")
	}
}

func TestLoadPolicy(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()

	p, err := LoadPolicy(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Allowed()) != 0 || p.Source != "" {
		t.Errorf("expected deny-all default, got %v from %q", p.Allowed(), p.Source)
	}

	path := filepath.Join(dir, ProjectFile)
	if err := os.WriteFile(path, []byte("version: 1\nallow: [http.get]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = LoadPolicy(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsAllowed(HTTPGet) || p.Source != path {
		t.Errorf("project policy not loaded: %v from %q", p.Allowed(), p.Source)
	}
}

func TestLoadPolicyUserFallback(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".tl"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(home, UserFile), []byte("version: 1\nallow: [sh.exec]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadPolicy(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !p.IsAllowed(ShExec) {
		t.Errorf("user policy not loaded")
	}
}

func TestLoadPolicyMalformed(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("version: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadPolicy(dir)
	if err == nil || !strings.Contains(err.Error(), ProjectFile) {
		t.Errorf("err = %v, want error naming the file", err)
	}
}

func TestMarshalYAML(t *testing.T) {
	p, err := Parse([]byte("version: 1\nallow: [fs.read]\nlimits: {timeout: 1m}\n"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(out)
	if err != nil {
		t.Fatalf("re-parse %s: %v", out, err)
	}
	if strings.Join(again.Allowed(), ",") != FSRead || again.Limits.Timeout != time.Minute {
		t.Errorf("round trip lost data:\n%s", out)
	}
	if !strings.Contains(string(out), "deny:") {
		t.Errorf("expected denied capabilities listed:\n%s", out)
	}
}
