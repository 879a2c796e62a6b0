package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/rdni/interpreter/pkg/ast"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
	"github.com/rdni/interpreter/pkg/help"
	"github.com/rdni/interpreter/pkg/runtime"
)

const (
	historyFile = ".tl_history"
	promptMain  = "> "
	promptCont  = "... "
	banner      = "tl " + help.Version + " (type .help for help, .exit to quit)"
)

const replHelp = `.exit          quit
.help [TOPIC]  show help
.reset         discard all bindings
.load FILE     reset, then run FILE
`

func cmdRepl(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	rt, code := newRuntime(opts)
	if rt == nil {
		return code
	}

	r := &repl{session: rt.NewSession(), opts: opts, out: os.Stdout}
	if opts.file != "" {
		if code, exit := r.load(opts.file); exit {
			return code
		}
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(r.complete)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	code = 0
	for {
		src, ok := readBalanced(ln)
		if !ok { // Ctrl-D or EOF
			fmt.Println()
			break
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(src), ".") {
			if c, exit := r.command(src); exit {
				code = c
				break
			}
			continue
		}
		if c, exit := r.eval(src, "<repl>"); exit {
			code = c
			break
		}
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return code
}

// readBalanced reads lines until every bracket opened is closed. It returns
// false at EOF. Ctrl-C discards the pending input.
func readBalanced(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if openBrackets(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

// openBrackets counts unclosed (, [ and { outside strings and comments.
func openBrackets(src string) int {
	depth := 0
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

type repl struct {
	session *runtime.Session
	opts    *options
	out     io.Writer
}

// eval runs one input. It reports exit=true only when the program called
// exit.
func (r *repl) eval(src, filename string) (code int, exit bool) {
	rt := r.session.Runtime()
	program, _, err := rt.Parse(src, filename)
	if err != nil {
		printDiags(runtime.ErrorDiagnostics(err), r.opts, src)
		return 0, false
	}
	if r.debugOn() {
		fmt.Fprintln(r.out, ast.Dump(program))
	}

	ctx, cancel := interruptContext()
	defer cancel()
	res, err := r.session.Execute(ctx, program, src)
	if err != nil {
		var exitErr *evaluator.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code, true
		}
		printDiags(runtime.ErrorDiagnostics(err), r.opts, src)
		return 0, false
	}
	if res.Value != nil && res.Value.Type() != evaluator.TypeNull {
		fmt.Fprintln(r.out, res.Value.String())
	}
	return 0, false
}

// complete offers the session's names that extend the identifier at the
// end of line.
func (r *repl) complete(line string) []string {
	start := len(line)
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}
	var out []string
	for _, name := range r.session.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, line[:start]+name)
		}
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// debugOn reports whether the session's debug variable is true.
func (r *repl) debugOn() bool {
	v, ok := r.session.Lookup("debug")
	if !ok {
		return false
	}
	b, ok := v.(evaluator.Bool)
	return ok && b.Value
}

func (r *repl) command(line string) (code int, exit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ".exit", ".quit":
		return 0, true

	case ".help":
		if len(fields) < 2 {
			fmt.Fprint(r.out, replHelp)
			fmt.Fprintf(r.out, "topics: %s\n", strings.Join(help.TopicList, ", "))
			return 0, false
		}
		_, content, err := help.MatchTopic(fields[1])
		if err != nil {
			fmt.Fprintln(r.out, err)
			return 0, false
		}
		fmt.Fprint(r.out, content)

	case ".reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "environment reset.")

	case ".load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: .load <file>")
			return 0, false
		}
		return r.load(fields[1])

	default:
		fmt.Fprintf(r.out, "unknown command %s. Type .help for help.\n", fields[0])
	}
	return 0, false
}

// load resets the session and runs path in it.
func (r *repl) load(path string) (code int, exit bool) {
	src, err := os.ReadFile(path)
	if err != nil {
		printDiags([]diagnostics.Diagnostic{ioDiag(fmt.Errorf("cannot read %s: %w", path, err))}, r.opts, "")
		return 0, false
	}
	r.session.Reset()
	return r.eval(string(src), path)
}
