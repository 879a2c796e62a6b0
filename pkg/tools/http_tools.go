package tools

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rdni/interpreter/pkg/capabilities"
	"github.com/rdni/interpreter/pkg/diagnostics"
	"github.com/rdni/interpreter/pkg/evaluator"
)

// maxBodyBytes caps how much of a response body http.get reads.
const maxBodyBytes = 16 << 20

var httpClient = &http.Client{Timeout: 30 * time.Second}

// http.get(url, headers?) → {status, headers, body}
func httpGetTool() Def {
	return Def{
		Module:       "http",
		Name:         "get",
		Mode:         "read",
		CapabilityID: capabilities.HTTPGet,
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if err := checkArgs("http.get", args, 1, 2); err != nil {
				return nil, err
			}
			rawURL, err := stringParam("http.get", args, 0, "url")
			if err != nil {
				return nil, err
			}
			hdrs, err := objectParam("http.get", args, 1, "headers")
			if err != nil {
				return nil, err
			}

			if strings.HasPrefix(rawURL, "data:") {
				return handleDataURL(rawURL)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, evaluator.Fatalf(diagnostics.ETool, "http.get: %v", err)
			}
			for _, kv := range hdrs.Pairs {
				if s, ok := kv.Value.(evaluator.String); ok {
					req.Header.Set(kv.Key, s.Value)
				}
			}

			resp, err := httpClient.Do(req)
			if err != nil {
				return nil, ioError("http.get", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return nil, ioError("http.get", err)
			}

			names := make([]string, 0, len(resp.Header))
			for k := range resp.Header {
				names = append(names, k)
			}
			sort.Strings(names)
			respHeaders := evaluator.NewObject(nil)
			for _, k := range names {
				respHeaders.Set(strings.ToLower(k), evaluator.NewString(strings.Join(resp.Header[k], ", ")))
			}

			return evaluator.NewObject([]evaluator.KeyValue{
				{Key: "status", Value: evaluator.NewNumber(float64(resp.StatusCode))},
				{Key: "headers", Value: respHeaders},
				{Key: "body", Value: evaluator.NewString(string(body))},
			}), nil
		},
	}
}

// handleDataURL answers data:[mediatype],payload URLs without the network.
func handleDataURL(dataURL string) (evaluator.Value, error) {
	rest := strings.TrimPrefix(dataURL, "data:")

	commaIdx := strings.Index(rest, ",")
	if commaIdx < 0 {
		return nil, evaluator.Fatalf(diagnostics.ETool, "http.get: invalid data URL")
	}

	body := rest[commaIdx+1:]
	decoded, err := url.PathUnescape(body)
	if err != nil {
		decoded = body
	}

	return evaluator.NewObject([]evaluator.KeyValue{
		{Key: "status", Value: evaluator.NewNumber(200)},
		{Key: "headers", Value: evaluator.NewObject(nil)},
		{Key: "body", Value: evaluator.NewString(decoded)},
	}), nil
}
