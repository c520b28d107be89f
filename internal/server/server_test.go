package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/pipeline"
)

const graphJSON = `{
	"nodes": [{"id": "a", "width": 40, "height": 20}, {"id": "b", "width": 40, "height": 20}],
	"edges": [{"v": "a", "w": "b"}]
}`

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	if cfg.Runner == nil {
		c, err := cache.NewFileCache(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		cfg.Runner = pipeline.NewRunner(c, nil, logger)
	}
	cfg.Logger = logger
	ts := httptest.NewServer(New(cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(HeaderRequestID) == "" {
		t.Error("response should carry a request id")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	ts := newTestServer(t, Config{})
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(HeaderRequestID, "trace-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(HeaderRequestID); got != "trace-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "trace-123")
	}
}

func TestLayout(t *testing.T) {
	ts := newTestServer(t, Config{})
	body := `{"graph": ` + graphJSON + `, "options": {"pipeline": "minimal"}}`

	resp := post(t, ts.URL+"/v1/layout", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}
	var out LayoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Cached || resp.Header.Get("X-Cache") != "MISS" {
		t.Error("first request should miss the cache")
	}
	if len(out.Layout.Nodes) != 2 || len(out.Layout.Edges) != 1 {
		t.Fatalf("layout = %+v, want 2 nodes and 1 edge", out.Layout)
	}
	a, b := out.Layout.Nodes[0], out.Layout.Nodes[1]
	if a.Y >= b.Y {
		t.Errorf("a.Y = %v, b.Y = %v, want a above b", a.Y, b.Y)
	}
	if out.RequestID != resp.Header.Get(HeaderRequestID) {
		t.Errorf("request_id = %q, header = %q", out.RequestID, resp.Header.Get(HeaderRequestID))
	}

	again := post(t, ts.URL+"/v1/layout", body)
	if again.Header.Get("X-Cache") != "HIT" {
		t.Error("second request should hit the cache")
	}
}

func TestLayoutErrors(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 512})
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"Malformed", `{"graph": `, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"UnknownField", `{"graf": {}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"MissingGraph", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"BadOption", `{"graph": ` + graphJSON + `, "options": {"rankdir": "XY"}}`, http.StatusBadRequest, errors.ErrCodeInvalidOption},
		{"Deadline", `{"graph": ` + graphJSON + `, "options": {"timeout": 1, "refresh": true}}`, http.StatusGatewayTimeout, errors.ErrCodeTimeout},
		{"TooLarge", `{"graph": {"nodes": [` + strings.Repeat(`{"id": "x"},`, 100) + `{"id": "y"}]}}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/layout", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if e := decodeError(t, resp); e.Error != tt.code {
				t.Errorf("error code = %s, want %s (%s)", e.Error, tt.code, e.Message)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/v1/render", `{"graph": `+graphJSON+`, "format": "dot"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"a" -> "b"`)) {
		t.Errorf("body is not the DOT drawing:\n%s", body)
	}

	layout := `{"width": 10, "height": 10, "nodes": [{"id": "a", "x": 5, "y": 5, "width": 10, "height": 10}], "edges": []}`
	resp = post(t, ts.URL+"/v1/render", `{"layout": `+layout+`, "format": "json"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %+v", resp.StatusCode, decodeError(t, resp))
	}
}

func TestRenderErrors(t *testing.T) {
	ts := newTestServer(t, Config{})
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"BadFormat", `{"graph": ` + graphJSON + `, "format": "gif"}`, errors.ErrCodeInvalidFormat},
		{"Neither", `{"format": "dot"}`, errors.ErrCodeInvalidInput},
		{"Both", `{"graph": ` + graphJSON + `, "layout": {"nodes": [], "edges": []}, "format": "dot"}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/render", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if e := decodeError(t, resp); e.Error != tt.code {
				t.Errorf("error code = %s, want %s", e.Error, tt.code)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/v2/nothing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if e := decodeError(t, resp); e.Error != errors.ErrCodeNotFound {
		t.Errorf("error code = %s, want NOT_FOUND", e.Error)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidPath, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeFileNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeCacheUnavailable, "x"), http.StatusInternalServerError},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusCode(tt.err); got != tt.want {
			t.Errorf("statusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	observability.SetHTTPHooks(observability.NewPrometheusHooks(reg))
	t.Cleanup(observability.Reset)

	ts := newTestServer(t, Config{Gatherer: reg})
	post(t, ts.URL+"/v1/layout", `{"graph": `+graphJSON+`}`)

	want := `strata_http_requests_total{method="POST",route="/v1/layout",status="200"} 1`
	// The counter is recorded after the response is flushed.
	var body []byte
	for range 50 {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatal(err)
		}
		body, _ = io.ReadAll(resp.Body)
		resp.Body.Close()
		if strings.Contains(string(body), want) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("metrics missing %q:\n%s", want, body)
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{Addr: "127.0.0.1:0", Logger: log.New(io.Discard)})

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe did not return after cancel")
	}
}
