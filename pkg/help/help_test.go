package help

import (
	"strings"
	"testing"

	"github.com/rdni/interpreter/pkg/stdlib"
)

func TestQUICKREFNonEmpty(t *testing.T) {
	if len(QUICKREF) == 0 {
		t.Fatal("QUICKREF is empty")
	}
}

func TestQUICKREFContainsVersion(t *testing.T) {
	if !strings.Contains(QUICKREF, Version) {
		t.Errorf("QUICKREF does not contain version string %s", Version)
	}
}

func TestQUICKREFListsTopics(t *testing.T) {
	for _, topic := range TopicList {
		if !strings.Contains(QUICKREF, topic) {
			t.Errorf("QUICKREF does not mention topic %q", topic)
		}
	}
}

func TestTopicListMatchesTopics(t *testing.T) {
	for _, name := range TopicList {
		if _, ok := Topics[name]; !ok {
			t.Errorf("TopicList entry %q not in Topics map", name)
		}
	}
	if len(TopicList) != len(Topics) {
		t.Errorf("TopicList has %d entries, Topics has %d", len(TopicList), len(Topics))
	}
}

func TestTopicsNonEmpty(t *testing.T) {
	for name, content := range Topics {
		if len(content) == 0 {
			t.Errorf("topic %q has empty content", name)
		}
	}
}

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"syntax", "syntax"},
		{"diag", "diagnostics"},
		{"ex", "examples"},
		{"  REPL ", "repl"},
		{"mod", "modules"},
	}
	for _, tt := range tests {
		name, content, err := MatchTopic(tt.query)
		if err != nil {
			t.Errorf("MatchTopic(%q): unexpected error: %v", tt.query, err)
			continue
		}
		if name != tt.want {
			t.Errorf("MatchTopic(%q) = %q, want %q", tt.query, name, tt.want)
		}
		if content == "" {
			t.Errorf("MatchTopic(%q) returned empty content", tt.query)
		}
	}
}

func TestMatchTopicErrors(t *testing.T) {
	for _, query := range []string{"nonexistent", "", "s"} {
		if _, _, err := MatchTopic(query); err == nil {
			t.Errorf("MatchTopic(%q): expected error", query)
		}
	}
	_, _, err := MatchTopic("s")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected ambiguous prefix error, got %v", err)
	}
}

func TestStdlibIndex(t *testing.T) {
	idx := StdlibIndex()
	for _, want := range []string{"Total:", "json.parse", "merge", "range(n)"} {
		if !strings.Contains(idx, want) {
			t.Errorf("StdlibIndex missing %q", want)
		}
	}
	if !strings.Contains(idx, "Total: 34 functions") {
		t.Errorf("StdlibIndex should report 34 functions, got:\n%s", idx)
	}
}

func TestStdlibIndexMatchesRegistry(t *testing.T) {
	r := stdlib.NewRegistry()
	stdlib.RegisterDefaults(r, stdlib.IO{})
	registered := r.Names()
	documented := StdlibNames()
	if strings.Join(registered, ",") != strings.Join(documented, ",") {
		t.Errorf("documented builtins differ from registry\nregistered: %v\ndocumented: %v", registered, documented)
	}
}
