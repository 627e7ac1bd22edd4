// Package fetch performs HTTP requests whose responses are JSON documents,
// decoding them directly into typed values.
//
// The blocking [JSON] function covers ordinary call sites; [NewTask] wraps
// the same request as a [syncexec.Task], for callers that drive work through
// [syncexec.Execute].
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/joeycumines/logiface"
	"github.com/mvrheden/go-syncutil/syncexec"
	"github.com/mvrheden/go-syncutil/traceback"
)

// Config models optional configuration for [JSON] and [NewTask].
type Config struct {
	// Headers are set on the request verbatim.
	Headers map[string]string

	// Body is the request body, if any.
	Body []byte

	// Client is the HTTP client to use.
	// Defaults to [http.DefaultClient], if nil.
	Client *http.Client

	// Logger receives debug logs for each request. Nil disables logging.
	Logger *logiface.Logger[logiface.Event]
}

// supported methods, anything else is rejected before a request is built
var methods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
	http.MethodHead:   {},
	http.MethodPatch:  {},
}

// JSON performs an HTTP request and decodes the response body into T. The
// cfg parameter is optional, and may be nil. All failures are reported as
// [traceback.Error] values carrying the request details as extra data.
func JSON[T any](ctx context.Context, method, url string, cfg *Config) (T, error) {
	var zero T
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Logger

	if _, ok := methods[method]; !ok {
		return zero, traceback.New(`unsupported HTTP method`).
			WithExtraData(map[string]any{`method`: method, `url`: url})
	}

	var body io.Reader
	if cfg.Body != nil {
		body = bytes.NewReader(cfg.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return zero, traceback.New(`error building request`).
			WithExtraData(requestExtraData(url, err, cfg))
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return zero, traceback.New(`error executing request`).
			WithExtraData(requestExtraData(url, err, cfg))
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().
		Str(`method`, method).
		Str(`url`, url).
		Int(`status`, resp.StatusCode).
		Log(`fetch: response received`)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, traceback.New(`error reading response`).
			WithExtraData(requestExtraData(url, err, cfg))
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		extra := requestExtraData(url, err, cfg)
		extra[`response`] = string(data)
		return zero, traceback.New(`error parsing response`).
			WithExtraData(extra)
	}
	return out, nil
}

func requestExtraData(url string, err error, cfg *Config) map[string]any {
	extra := map[string]any{
		`url`:   url,
		`error`: err.Error(),
	}
	if cfg.Headers != nil {
		extra[`headers`] = cfg.Headers
	}
	if cfg.Body != nil {
		extra[`body`] = string(cfg.Body)
	}
	return extra
}

// Result carries the outcome of an offloaded fetch.
type Result[T any] struct {
	Value T
	Err   error
}

// NewTask wraps the request as a [syncexec.Task], performing it on a worker
// goroutine once first polled. Drive it with [syncexec.Execute]:
//
//	res, err := syncexec.Execute(fetch.NewTask[User](ctx, http.MethodGet, url, nil))
func NewTask[T any](ctx context.Context, method, url string, cfg *Config) syncexec.Task[Result[T]] {
	return syncexec.Offload(func() Result[T] {
		value, err := JSON[T](ctx, method, url, cfg)
		return Result[T]{Value: value, Err: err}
	})
}
