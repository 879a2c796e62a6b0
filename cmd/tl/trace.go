package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
	"github.com/rdni/interpreter/pkg/runtime"
)

// traceSink writes trace events as NDJSON.
type traceSink struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	err    error
}

// openTraceSink opens path for NDJSON output; "-" means stderr.
func openTraceSink(path string) (*traceSink, error) {
	if path == "-" {
		return newTraceSink(os.Stderr, nil), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return newTraceSink(f, f), nil
}

func newTraceSink(w io.Writer, c io.Closer) *traceSink {
	return &traceSink{enc: json.NewEncoder(w), closer: c}
}

func (s *traceSink) Write(ev evaluator.TraceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = s.enc.Encode(ev)
}

func (s *traceSink) Close() error {
	if s.closer == nil {
		return s.err
	}
	if err := s.closer.Close(); err != nil {
		return err
	}
	return s.err
}

func cmdTrace(args []string) int {
	opts, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if opts.file == "" {
		fmt.Fprintln(os.Stderr, "usage: tl trace <file> [--out <path>] [--json]\n       tl trace --summary <trace.jsonl> [--json]")
		return 1
	}

	if opts.summary {
		f, err := os.Open(opts.file)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", opts.file), nil, "")
			printDiags([]diagnostics.Diagnostic{diag}, opts, "")
			return runtime.ExitIO
		}
		defer f.Close()
		printTraceSummary(os.Stdout, computeTraceSummary(f), opts.json)
		return 0
	}

	source, filename, code := readSource(opts.file, opts)
	if code != 0 {
		return code
	}

	outPath := opts.outFile
	if outPath == "" {
		outPath = "-"
	}
	sink, err := openTraceSink(outPath)
	if err != nil {
		printDiags([]diagnostics.Diagnostic{ioDiag(err)}, opts, "")
		return runtime.ExitIO
	}

	// Events go to the sink and to an in-memory copy for the summary.
	var recorded bytes.Buffer
	copySink := newTraceSink(&recorded, nil)
	trace := func(ev evaluator.TraceEvent) {
		sink.Write(ev)
		copySink.Write(ev)
	}

	rt, code := newRuntime(opts, runtime.WithTrace(trace), runtime.WithRunID(newRunID()))
	if rt == nil {
		sink.Close()
		return code
	}

	ctx, cancel := interruptContext()
	defer cancel()
	_, execErr := rt.Run(ctx, source, filename)
	if err := sink.Close(); err != nil {
		printDiags([]diagnostics.Diagnostic{ioDiag(err)}, opts, "")
	}
	if execErr != nil {
		printDiags(runtime.ErrorDiagnostics(execErr), opts, source)
	}

	printTraceSummary(os.Stderr, computeTraceSummary(&recorded), opts.json)
	return runtime.ExitCode(execErr)
}

// TraceSummary aggregates an NDJSON trace.
type TraceSummary struct {
	RunID          string         `json:"runId"`
	TotalEvents    int            `json:"totalEvents"`
	Calls          int            `json:"calls"`
	CallsByName    map[string]int `json:"callsByName"`
	BuiltinCalls   int            `json:"builtinCalls"`
	BuiltinsByName map[string]int `json:"builtinsByName"`
	LoopIterations int            `json:"loopIterations"`
	ReportedErrors int            `json:"reportedErrors"`
	FatalError     string         `json:"fatalError,omitempty"`
	Steps          int64          `json:"steps"`
	StartTime      string         `json:"startTime,omitempty"`
	EndTime        string         `json:"endTime,omitempty"`
	DurationMs     float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string         `json:"event"`
	RunID string         `json:"runId"`
	TS    string         `json:"ts"`
	Data  map[string]any `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{
		CallsByName:    make(map[string]int),
		BuiltinsByName: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch evaluator.TraceEventType(event.Event) {
		case evaluator.TraceRunStart:
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case evaluator.TraceRunEnd:
			summary.EndTime = event.TS
			if steps, ok := event.Data["steps"].(float64); ok {
				summary.Steps = int64(steps)
			}
			if ms, ok := event.Data["durationMs"].(float64); ok {
				summary.DurationMs = ms
			}
		case evaluator.TraceCallStart:
			summary.Calls++
			if name, ok := event.Data["name"].(string); ok {
				summary.CallsByName[name]++
			}
		case evaluator.TraceBuiltinCall:
			summary.BuiltinCalls++
			if name, ok := event.Data["name"].(string); ok {
				summary.BuiltinsByName[name]++
			}
		case evaluator.TraceLoopIter:
			summary.LoopIterations++
		case evaluator.TraceReportedError:
			summary.ReportedErrors++
		case evaluator.TraceFatalError:
			code, _ := event.Data["code"].(string)
			msg, _ := event.Data["message"].(string)
			summary.FatalError = code + ": " + msg
		}
	}

	// Fall back to timestamps when run_end carried no duration.
	if summary.DurationMs == 0 && summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := parseTime(summary.StartTime)
		end, err2 := parseTime(summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Microseconds()) / 1000
		}
	}

	return summary
}

func printTraceSummary(w io.Writer, s *TraceSummary, asJSON bool) {
	if asJSON {
		b, _ := json.Marshal(s)
		fmt.Fprintln(w, string(b))
		return
	}
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Steps: %d\n", s.Steps)
	fmt.Fprintf(w, "Calls: %d\n", s.Calls)
	printCounts(w, s.CallsByName)
	fmt.Fprintf(w, "Builtin calls: %d\n", s.BuiltinCalls)
	printCounts(w, s.BuiltinsByName)
	fmt.Fprintf(w, "Loop iterations: %d\n", s.LoopIterations)
	if s.ReportedErrors > 0 {
		fmt.Fprintf(w, "Reported errors: %d\n", s.ReportedErrors)
	}
	if s.FatalError != "" {
		fmt.Fprintf(w, "Fatal: %s\n", s.FatalError)
	}
	fmt.Fprintf(w, "Duration: %.3fms\n", s.DurationMs)
}

func printCounts(w io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, counts[name])
	}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time: %s", s)
}
