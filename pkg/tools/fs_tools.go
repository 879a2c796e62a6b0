package tools

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rdni/interpreter/pkg/capabilities"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

func ioError(name string, err error) error {
	return evaluator.Fatalf(diagnostics.EIO, "%s: %v", name, err)
}

// fs.read(path) → string
func fsReadTool() Def {
	return Def{
		Module:       "fs",
		Name:         "read",
		Mode:         "read",
		CapabilityID: capabilities.FSRead,
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if err := checkArgs("fs.read", args, 1, 1); err != nil {
				return nil, err
			}
			path, err := stringParam("fs.read", args, 0, "path")
			if err != nil {
				return nil, err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, ioError("fs.read", err)
			}
			return evaluator.NewString(string(data)), nil
		},
	}
}

// fs.write(path, data) → {kind, path, bytes, sha256}
//
// Strings are written as is; any other value is written as indented JSON.
func fsWriteTool() Def {
	return Def{
		Module:       "fs",
		Name:         "write",
		Mode:         "effect",
		CapabilityID: capabilities.FSWrite,
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if err := checkArgs("fs.write", args, 2, 2); err != nil {
				return nil, err
			}
			path, err := stringParam("fs.write", args, 0, "path")
			if err != nil {
				return nil, err
			}

			var content []byte
			if s, ok := args[1].(evaluator.String); ok {
				content = []byte(s.Value)
			} else {
				raw, err := evaluator.ValueToJSON(args[1])
				if err != nil {
					return nil, evaluator.Fatalf(diagnostics.EType, "fs.write: failed to serialize data: %v", err)
				}
				var buf bytes.Buffer
				if err := json.Indent(&buf, raw, "", "  "); err != nil {
					return nil, evaluator.Fatalf(diagnostics.EType, "fs.write: failed to serialize data: %v", err)
				}
				buf.WriteByte('\n')
				content = buf.Bytes()
			}

			resolved, err := filepath.Abs(path)
			if err != nil {
				return nil, ioError("fs.write", err)
			}
			if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
				return nil, ioError("fs.write", err)
			}
			if err := os.WriteFile(resolved, content, 0o644); err != nil {
				return nil, ioError("fs.write", err)
			}

			hash := sha256.Sum256(content)
			return evaluator.NewObject([]evaluator.KeyValue{
				{Key: "kind", Value: evaluator.NewString("file")},
				{Key: "path", Value: evaluator.NewString(resolved)},
				{Key: "bytes", Value: evaluator.NewNumber(float64(len(content)))},
				{Key: "sha256", Value: evaluator.NewString(fmt.Sprintf("%x", hash))},
			}), nil
		},
	}
}

// fs.list(path) → list of {name, type}
func fsListTool() Def {
	return Def{
		Module:       "fs",
		Name:         "list",
		Mode:         "read",
		CapabilityID: capabilities.FSRead,
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if err := checkArgs("fs.list", args, 1, 1); err != nil {
				return nil, err
			}
			path, err := stringParam("fs.list", args, 0, "path")
			if err != nil {
				return nil, err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, ioError("fs.list", err)
			}

			items := make([]evaluator.Value, len(entries))
			for i, entry := range entries {
				entryType := "other"
				if entry.IsDir() {
					entryType = "directory"
				} else if entry.Type().IsRegular() {
					entryType = "file"
				}
				items[i] = evaluator.NewObject([]evaluator.KeyValue{
					{Key: "name", Value: evaluator.NewString(entry.Name())},
					{Key: "type", Value: evaluator.NewString(entryType)},
				})
			}
			return evaluator.NewList(items), nil
		},
	}
}

// fs.exists(path) → bool
func fsExistsTool() Def {
	return Def{
		Module:       "fs",
		Name:         "exists",
		Mode:         "read",
		CapabilityID: capabilities.FSRead,
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if err := checkArgs("fs.exists", args, 1, 1); err != nil {
				return nil, err
			}
			path, err := stringParam("fs.exists", args, 0, "path")
			if err != nil {
				return nil, err
			}
			_, err = os.Stat(path)
			return evaluator.NewBool(err == nil), nil
		},
	}
}
