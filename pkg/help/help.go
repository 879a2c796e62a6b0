// Package help holds the tl quick reference and the topics shown by
// `tl help TOPIC` and the REPL's .help command.
package help

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the language version reported by the quick reference.
const Version = "v0.1"

// QUICKREF is printed by `tl help` with no topic.
var QUICKREF = `tl ` + Version + ` quick reference

  tl                      start the REPL
  tl run FILE             execute a program
  tl repl [FILE]          start the REPL, optionally preloading FILE
  tl check FILE           parse and validate without running
  tl fmt [--write] FILE   print (or rewrite) FILE in canonical form
  tl trace FILE           execute with an NDJSON event trace
  tl policy               show the effective capability policy
  tl help [TOPIC]         show this reference or a topic

  var x = 1;              mutable binding
  const y = "s";          immutable binding
  function f(a, b) { return a + b; }
  if (c) { } else if (d) { } else { }
  while (c) { }
  for x in [1, 2, 3] { }
  o = {a: 1, b}; o.a = 2; xs[0] = 3;

Topics: ` + strings.Join(TopicList, ", ") + `
`

// TopicList is the display order of Topics.
var TopicList = []string{"syntax", "types", "stdlib", "modules", "caps", "budget", "flow", "diagnostics", "repl", "examples"}

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Statements end with ';' (a missing one is a warning before '}' or EOF is fine).

  var name = expr;        declare (var name; binds null)
  const name = expr;      declare constant, initializer required
  function name(p, q) { ... }
  return expr;            only inside a function
  if (cond) { } else { }  parens optional; else if chains
  while (cond) { }
  for x in list { }       also: for (x in list) { }
  { ... }                 block with its own scope
  // comment

Operators, loosest first:
  =                       assignment, right associative
  == != < > <= >=         comparison
  + -                     additive
  * / %                   multiplicative
  -x  f(x)  o.k  o[k]     unary, call, member
`,

	"types": `TYPES

  null      the null value (a constant binding, not a keyword)
  boolean   true / false
  number    64-bit float; whole numbers print without a fraction
  string    "double quoted", escapes \\ \" \' \n \t
  object    {key: value, shorthand}; insertion ordered
  list      [a, b, c]; xs[-1] is the last element
  function  user-defined closure
  native    builtin implemented by the host

Truthiness: null, false, 0, "" and NaN are falsy; everything else is truthy.
Objects and lists are values: assigning o.k or xs[i] rebinds the root
variable to an updated copy, other references are unchanged.
`,

	"stdlib": `STANDARD LIBRARY

Run 'tl help stdlib' for this list. Every builtin is a plain function value
in the root scope and may be shadowed.

` + StdlibIndex(),

	"modules": `HOST MODULES

  fs.read(path)                 file contents as a string
  fs.write(path, data)          strings raw, other values as JSON
  fs.list(path)                 [{name, type}]
  fs.exists(path)               boolean
  http.get(url, headers?)       {status, headers, body}
  sh.exec(cmd, opts?)           {exitCode, stdout, stderr, durationMs}
                                opts: {cwd, timeoutMs, env}

Each call is checked against the capability policy (see 'caps').
`,

	"caps": `CAPABILITIES

Host modules need a capability: fs.read, fs.write, http.get, sh.exec.
The policy is read from ./.tlpolicy.yaml, then ~/.tl/policy.yaml; without
either, everything is denied.

  version: 1
  allow: [fs.read, http.get]
  deny: [sh.exec]
  limits:
    max_steps: 1000000
    max_call_depth: 256
    timeout: 30s

Deny wins over allow. --unsafe-allow-all grants everything.
A denied call fails with E_CAP_DENIED (exit code 3).
`,

	"budget": `BUDGET

Evaluation can be bounded by
  --max-steps N     statements and loop iterations executed
  --max-depth N     nested function calls
  --timeout DUR     wall clock, e.g. 500ms or 10s
or by the 'limits' block of the policy. Zero means unlimited. Exceeding a
limit fails with E_BUDGET; an interrupted run fails with E_CANCELLED.
`,

	"flow": `CONTROL FLOW

  if / else if / else     each branch runs in its own scope
  while (cond) { }        the condition is evaluated in the enclosing scope
  for x in list { }       x is declared in the enclosing scope if unbound,
                          then assigned each element in turn
  return expr;            leaves the innermost function

Loops have no break or continue; return from a function instead.
A program's value is the value of its last statement.
`,

	"diagnostics": `DIAGNOSTICS

Output form: file:line:col: CODE: message
  ERROR: ...          reported, evaluation continues with a default value
  FATAL ERROR: ...    evaluation stops

Codes:
  E_LEX E_PARSE E_MISSING_SEMI            source errors (exit 2)
  E_UNBOUND E_REDECLARE E_CONST_ASSIGN    names
  E_ARITY E_TYPE E_INDEX E_KEY            values and calls
  E_NOT_CALLABLE E_BAD_ASSIGN E_RETURN_OUTSIDE_FN
  E_ORDER E_STRING_OP                     comparisons and string operators
  E_BUDGET E_CANCELLED                    limits
  E_CAP_DENIED (exit 3) E_IO (exit 4) E_TOOL

--pretty adds a source excerpt; --json prints one JSON object per line.
`,

	"repl": `REPL

  .exit          quit (Ctrl-D also works)
  .help [TOPIC]  show help
  .reset         discard all bindings
  .load FILE     reset, then run FILE

Input with unbalanced braces continues on the next line. Results other
than null are printed. Set 'debug = true;' to print each input's syntax tree.
`,

	"examples": `EXAMPLES

  function fib(n) {
      if (n < 2) { return n; }
      return fib(n - 1) + fib(n - 2);
  }
  print(fib(10));

  var counts = {};
  for w in split("a b a", " ") {
      if (has(counts, w)) { counts[w] = counts[w] + 1; } else { counts[w] = 1; }
  }
  print(counts);

  var cfg = json.parse(fs.read("config.json"));
  print(cfg.name);
`,
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if strings.HasPrefix(name, query) && query != "" {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q (topics: %s)", query, strings.Join(TopicList, ", "))
	}
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}

type entry struct {
	sig  string
	desc string
}

var stdlibGroups = []struct {
	name    string
	entries []entry
}{
	{"core", []entry{
		{"print(...values)", "write values separated by spaces"},
		{"input(prompt?)", "read a line from stdin, null at EOF"},
		{"time()", "seconds since the Unix epoch"},
		{"sleep(seconds)", "pause"},
		{"exit(code?)", "stop the program"},
		{"str(v)", "render as a string"},
		{"int(s)", "parse a number"},
		{"type(v)", "type tag"},
		{"contains(haystack, needle)", "substring, element or key test"},
	}},
	{"lists", []entry{
		{"len(x)", "length of a string, list or object"},
		{"append(list, v)", "new list with v added"},
		{"concat(a, b)", "new list a followed by b"},
		{"range(n) / range(a, b)", "list of numbers"},
		{"sort(list)", "sorted numbers or strings"},
		{"join(list, sep)", "join strings"},
	}},
	{"strings", []entry{
		{"upper(s)", "uppercase"},
		{"lower(s)", "lowercase"},
		{"split(s, sep)", "list of parts"},
		{"trim(s)", "strip surrounding whitespace"},
		{"replace(s, old, new)", "replace every occurrence"},
	}},
	{"objects", []entry{
		{"keys(o)", "keys in insertion order"},
		{"values(o)", "values in insertion order"},
		{"has(o, key)", "key test"},
		{"merge(a, b)", "new object, b wins"},
	}},
	{"math", []entry{
		{"abs(n)", ""},
		{"floor(n)", ""},
		{"ceil(n)", ""},
		{"round(n)", ""},
		{"sqrt(n)", ""},
		{"pow(b, e)", ""},
		{"min(list)", "smallest number"},
		{"max(list)", "largest number"},
	}},
	{"json", []entry{
		{"json.parse(s)", "decode JSON text"},
		{"json.stringify(v)", "encode as JSON"},
	}},
}

// StdlibIndex lists every builtin by group.
func StdlibIndex() string {
	var b strings.Builder
	total := 0
	for _, g := range stdlibGroups {
		fmt.Fprintf(&b, "%s:\n", g.name)
		for _, e := range g.entries {
			if e.desc == "" {
				fmt.Fprintf(&b, "  %s\n", e.sig)
			} else {
				fmt.Fprintf(&b, "  %-28s %s\n", e.sig, e.desc)
			}
			total++
		}
	}
	fmt.Fprintf(&b, "Total: %d functions\n", total)
	return b.String()
}

// StdlibNames returns the builtin names StdlibIndex documents, sorted.
// Module functions are listed under their module name.
func StdlibNames() []string {
	seen := map[string]bool{}
	for _, g := range stdlibGroups {
		for _, e := range g.entries {
			name := e.sig
			if i := strings.IndexAny(name, ".("); i >= 0 {
				name = name[:i]
			}
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
