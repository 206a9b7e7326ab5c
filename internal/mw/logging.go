package mw

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/TwigBush/opa-authz/internal/httpx"
	"github.com/TwigBush/opa-authz/internal/trace"
)

type LogOpts struct {
	Logger        *slog.Logger
	SkipPaths     []string
	RedactHeaders []string
}

func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions
}

// Logger writes one line per request, plus the request headers when the
// response is an error.
func Logger(opts LogOpts) func(http.Handler) http.Handler {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	redact := map[string]bool{"authorization": true}
	for _, h := range opts.RedactHeaders {
		redact[strings.ToLower(h)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPreflight(r) || slices.Contains(opts.SkipPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := httpx.NewRecorder(w)
			next.ServeHTTP(rec, r)
			dur := time.Since(start)

			log.Info("req",
				"trace", trace.From(r.Context()),
				"m", r.Method,
				"path", r.URL.Path,
				"status", rec.Code(),
				"ms", dur.Milliseconds(),
				"bytes", rec.Bytes,
			)

			if rec.Code() >= 400 {
				h := map[string]string{}
				for k, vv := range r.Header {
					if len(vv) == 0 {
						continue
					}
					v := vv[0]
					if redact[strings.ToLower(k)] || strings.HasPrefix(strings.ToLower(k), "x-api-key") {
						v = "***redacted***"
					}
					h[k] = v
				}
				log.Warn("req_detail",
					"trace", trace.From(r.Context()),
					"m", r.Method, "path", r.URL.Path,
					"status", rec.Code(), "ms", dur.Milliseconds(),
					"headers", h,
					"body", string(rec.ErrBody),
				)
			}
		})
	}
}
