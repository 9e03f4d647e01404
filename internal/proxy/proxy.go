// Package proxy executes single upstream calls: selector compile, URL
// build, auth attach, HTTP round trip, error mapping, and field filtering.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/guillaumegay13/fieldflow/internal/auth"
	"github.com/guillaumegay13/fieldflow/internal/selector"
	"github.com/guillaumegay13/fieldflow/internal/spec"
	"github.com/guillaumegay13/fieldflow/internal/tooling"
)

// Fault is a per-call upstream failure carrying the upstream status code.
// Credential values are scrubbed from Detail before it is surfaced.
type Fault struct {
	StatusCode int
	Detail     string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", f.StatusCode, f.Detail)
}

// Executor proxies calls for one upstream API. It is safe for concurrent
// use: all fields are set at construction and never mutated.
type Executor struct {
	baseURL string
	client  *http.Client
	auth    auth.Provider
	logger  *zap.Logger
}

// New creates an executor for the given base URL. Keep-alives are disabled
// so every call runs on a fresh connection released on completion.
func New(baseURL string, provider auth.Provider, logger *zap.Logger) *Executor {
	return &Executor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{DisableKeepAlives: true},
		},
		auth:   provider,
		logger: logger,
	}
}

// Execute runs one proxied call. Selector and validation problems surface
// before any network activity; upstream non-2xx responses come back as
// *Fault. The filtered (or raw) decoded JSON body is returned on success.
func (e *Executor) Execute(ctx context.Context, op *spec.Operation, call *tooling.Call) (any, error) {
	var tree *selector.Node
	if len(call.Fields) > 0 {
		var err error
		tree, err = selector.Build(call.Fields)
		if err != nil {
			return nil, err
		}
	}

	// Path substitution is plain text replacement; values are not escaped.
	path := op.Path
	for name, value := range call.PathParams {
		path = strings.ReplaceAll(path, "{"+name+"}", stringify(value))
	}

	target := e.baseURL + path
	if len(call.QueryParams) > 0 {
		values := url.Values{}
		for name, value := range call.QueryParams {
			values.Set(name, stringify(value))
		}
		target += "?" + values.Encode()
	}

	var body io.Reader
	if call.Body != nil {
		encoded, err := json.Marshal(call.Body)
		if err != nil {
			return nil, fmt.Errorf("proxy: encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(op.Method), target, body)
	if err != nil {
		return nil, fmt.Errorf("proxy: building request: %w", err)
	}
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	headers, err := e.auth.GetHeaders(ctx, op)
	if err != nil {
		return nil, err
	}
	var credentials []string
	for name, value := range headers {
		req.Header.Set(name, value)
		credentials = append(credentials, value)
	}
	if len(headers) > 0 {
		// Raw credential values never reach the log.
		e.logger.Debug("attaching auth headers",
			zap.String("operation", op.Name),
			zap.Any("headers", e.auth.SanitizeHeaders(headers)))
	}

	e.logger.Debug("proxying call",
		zap.String("operation", op.Name),
		zap.String("method", req.Method),
		zap.String("url", scrub(target, credentials)))

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("proxy: calling upstream: %s", scrub(err.Error(), credentials))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("proxy: reading upstream response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := fmt.Sprintf("%s %s returned %s", req.Method, target, resp.Status)
		return nil, &Fault{StatusCode: resp.StatusCode, Detail: scrub(detail, credentials)}
	}

	if len(payload) == 0 {
		return map[string]any{}, nil
	}
	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("proxy: decoding upstream response: %w", err)
	}
	if tree != nil {
		return selector.Filter(data, tree), nil
	}
	return data, nil
}

// scrub replaces literal credential values in a message before surfacing it.
func scrub(message string, credentials []string) string {
	for _, credential := range credentials {
		if credential == "" {
			continue
		}
		message = strings.ReplaceAll(message, credential, "[REDACTED]")
		// Bearer/Basic values may leak without their scheme word.
		if _, value, ok := strings.Cut(credential, " "); ok && value != "" {
			message = strings.ReplaceAll(message, value, "[REDACTED]")
		}
	}
	return message
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode to float64; render integral ones plainly.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
