package authz

import "context"

// Decision is the answer of a policy engine that replied successfully.
// Failures are reported as errors, never as a Decision.
type Decision int

const (
	// NoOpinion covers both an explicit false and a missing result.
	NoOpinion Decision = iota
	Allow
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NoOpinion:
		return "no_opinion"
	default:
		return "unknown"
	}
}

type Decider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

type DeciderFunc func(ctx context.Context, req Request) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}
