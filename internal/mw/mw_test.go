package mw

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TwigBush/opa-authz/internal/trace"
)

func TestTrace_PropagatesAndMints(t *testing.T) {
	var seen string
	h := Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.From(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(trace.Header, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(trace.Header))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
	assert.Equal(t, seen, rr.Header().Get(trace.Header))
}

func TestTrace_Sources(t *testing.T) {
	var seen string
	h := Trace()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = trace.From(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-7")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "req-7", seen)
	assert.Equal(t, "req-7", rr.Header().Get(trace.Header))
	assert.Equal(t, "req-7", rr.Header().Get("X-Request-ID"))

	req.Header.Set(trace.Header, "trace-1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "trace-1", seen, "TRACE_ID wins over X-Request-ID")

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("x", maxTraceID+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(trace.Header, bad)
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.NotEqual(t, bad, seen)
		assert.NotEmpty(t, seen)
	}
}

func TestNoStore(t *testing.T) {
	rr := httptest.NewRecorder()
	NoStore(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestLogger_RedactsOnError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := Logger(LogOpts{Logger: log, SkipPaths: []string{"/healthz"}})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/boom" {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"error":"policy crashed"}`))
			}
		}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())

	req := httptest.NewRequest(http.MethodPost, "/boom", nil)
	req.Header.Set("Authorization", "Bearer secret")
	h.ServeHTTP(httptest.NewRecorder(), req)
	out := buf.String()
	assert.Contains(t, out, "status=502")
	assert.Contains(t, out, "req_detail")
	assert.Contains(t, out, "policy crashed")
	assert.NotContains(t, out, "secret")
}
