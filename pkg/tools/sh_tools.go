package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/rdni/interpreter/pkg/capabilities"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

const defaultShTimeout = 30 * time.Second

// sh.exec(cmd, opts?) → {exitCode, stdout, stderr, durationMs}
//
// opts may set cwd, timeoutMs and env (an object of strings).
func shExecTool() Def {
	return Def{
		Module:       "sh",
		Name:         "exec",
		Mode:         "effect",
		CapabilityID: capabilities.ShExec,
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if err := checkArgs("sh.exec", args, 1, 2); err != nil {
				return nil, err
			}
			cmdStr, err := stringParam("sh.exec", args, 0, "cmd")
			if err != nil {
				return nil, err
			}
			opts, err := objectParam("sh.exec", args, 1, "opts")
			if err != nil {
				return nil, err
			}

			cwd := ""
			if v, found := opts.Get("cwd"); found {
				if s, ok := v.(evaluator.String); ok {
					cwd = s.Value
				}
			}

			timeout := defaultShTimeout
			if v, found := opts.Get("timeoutMs"); found {
				if n, ok := v.(evaluator.Number); ok && n.Value > 0 {
					timeout = time.Duration(n.Value) * time.Millisecond
				}
			}

			envVars := os.Environ()
			if v, found := opts.Get("env"); found {
				if envObj, ok := v.(*evaluator.Object); ok {
					for _, kv := range envObj.Pairs {
						if s, ok := kv.Value.(evaluator.String); ok {
							envVars = append(envVars, fmt.Sprintf("%s=%s", kv.Key, s.Value))
						}
					}
				}
			}

			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			var cmd *exec.Cmd
			if runtime.GOOS == "windows" {
				cmd = exec.CommandContext(timeoutCtx, "cmd", "/c", cmdStr)
			} else {
				cmd = exec.CommandContext(timeoutCtx, "sh", "-c", cmdStr)
			}
			cmd.Dir = cwd
			cmd.Env = envVars
			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			start := time.Now()
			err = cmd.Run()
			durationMs := time.Since(start).Milliseconds()

			exitCode := 0
			if err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) {
					return nil, evaluator.Fatalf(diagnostics.ETool, "sh.exec: %v", err)
				}
				exitCode = exitErr.ExitCode()
			}

			return evaluator.NewObject([]evaluator.KeyValue{
				{Key: "exitCode", Value: evaluator.NewNumber(float64(exitCode))},
				{Key: "stdout", Value: evaluator.NewString(stdout.String())},
				{Key: "stderr", Value: evaluator.NewString(stderr.String())},
				{Key: "durationMs", Value: evaluator.NewNumber(float64(durationMs))},
			}), nil
		},
	}
}
