package authz

import (
	"context"
	"sync/atomic"
)

// Mock answers without a policy engine. Allow, when set, decides per request;
// otherwise AlwaysAllow applies. Err, when set, is returned for every call.
type Mock struct {
	AlwaysAllow bool
	Allow       func(Request) bool
	Err         error

	calls atomic.Int64
}

func (m *Mock) Decide(ctx context.Context, req Request) (Decision, error) {
	m.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return NoOpinion, err
	}
	if m.Err != nil {
		return NoOpinion, m.Err
	}
	allowed := m.AlwaysAllow
	if m.Allow != nil {
		allowed = m.Allow(req)
	}
	if allowed {
		return Allow, nil
	}
	return NoOpinion, nil
}

// Calls returns how many decisions were requested.
func (m *Mock) Calls() int64 { return m.calls.Load() }
