package mw

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/TwigBush/opa-authz/internal/trace"
)

const maxTraceID = 128

// Trace keys every check to one id so the request log, the decision log and
// the OPA query line up. The id comes from TRACE_ID, then X-Request-ID, and
// is minted when neither carries a usable value.
func Trace() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := traceIDFrom(r)
			w.Header().Set(trace.Header, id)
			w.Header().Set(middleware.RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(trace.With(r.Context(), id)))
		})
	}
}

func traceIDFrom(r *http.Request) string {
	for _, h := range []string{trace.Header, middleware.RequestIDHeader} {
		if id := r.Header.Get(h); validTraceID(id) {
			return id
		}
	}
	return trace.NewID()
}

// validTraceID accepts short printable ids; anything else would end up
// verbatim in logs and in the header sent to OPA.
func validTraceID(id string) bool {
	if id == "" || len(id) > maxTraceID {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}
