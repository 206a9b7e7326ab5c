// Package filter evaluates batches of candidates against a Decider.
package filter

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

type Observer interface {
	ObserveFilter(op authz.Operation, kept, dropped int)
}

type options struct {
	concurrency int
	obs         Observer
}

type Option func(*options)

// WithConcurrency caps the number of decisions in flight. Values below one
// select the default.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func WithObserver(obs Observer) Option { return func(o *options) { o.obs = obs } }

func DefaultConcurrency() int { return 4 * runtime.GOMAXPROCS(0) }

// Evaluate asks d about every candidate and returns the ones it allowed, in
// candidate order and without duplicates. NoOpinion excludes a candidate.
// Any failed decision fails the whole batch: Evaluate then returns nil and
// the first error, and in-flight decisions are cancelled.
func Evaluate[T comparable](
	ctx context.Context,
	d authz.Decider,
	sc types.SecurityContext,
	op authz.Operation,
	candidates []T,
	resourceOf func(T) resource.Resource,
	opts ...Option,
) ([]T, error) {
	o := options{concurrency: DefaultConcurrency()}
	for _, fn := range opts {
		fn(&o)
	}

	items := unique(candidates)
	if len(items) == 0 {
		return []T{}, nil
	}

	allowed := make([]bool, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			req := authz.NewRequest(sc, authz.NewAction(op, resourceOf(item)))
			dec, err := d.Decide(gctx, req)
			if err != nil {
				return fmt.Errorf("%s: candidate %v: %w", op, item, err)
			}
			allowed[i] = dec == authz.Allow
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		if allowed[i] {
			out = append(out, item)
		}
	}
	if o.obs != nil {
		o.obs.ObserveFilter(op, len(out), len(items)-len(out))
	}
	return out, nil
}

func unique[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
