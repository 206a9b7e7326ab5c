// internal/trace/trace.go
package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey int

const key ctxKey = 1

// Header carries the trace id between the engine shim, this service and OPA.
const Header = "TRACE_ID"

func NewID() string {
	return uuid.NewString()
}

func With(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, key, id)
}

func From(ctx context.Context) string {
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Ensure returns ctx unchanged when it already carries a trace id and a
// context with a fresh id otherwise.
func Ensure(ctx context.Context) context.Context {
	if From(ctx) != "" {
		return ctx
	}
	return With(ctx, NewID())
}
