// Package enforce turns the host engine's access checks into policy
// decisions. Every check builds one authorization request; Allow permits,
// NoOpinion is handed to the operation's fallback, and a failed decision is
// reported as a *DecisionError.
package enforce

import (
	"context"
	"errors"
	"log/slog"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/filter"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/trace"
	"github.com/TwigBush/opa-authz/internal/types"
)

// Observer is told about denials and filter results.
type Observer interface {
	ObserveDenial(op authz.Operation)
	ObserveFilter(op authz.Operation, kept, dropped int)
}

type Option func(*Dispatcher)

func WithFallbacks(f Fallbacks) Option { return func(d *Dispatcher) { d.fallbacks = f } }

// WithConcurrency caps in-flight decisions per filter call.
func WithConcurrency(n int) Option { return func(d *Dispatcher) { d.concurrency = n } }

func WithLogger(l *slog.Logger) Option { return func(d *Dispatcher) { d.log = l } }

func WithObserver(o Observer) Option { return func(d *Dispatcher) { d.obs = o } }

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	decider     authz.Decider
	fallbacks   Fallbacks
	concurrency int
	log         *slog.Logger
	obs         Observer
}

// New returns a Dispatcher using the host engine defaults as fallbacks
// unless WithFallbacks says otherwise.
func New(decider authz.Decider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		decider:     decider,
		fallbacks:   HostDefaults(),
		concurrency: filter.DefaultConcurrency(),
		log:         slog.Default(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Dispatcher) check(ctx context.Context, sc types.SecurityContext, op authz.Operation, res resource.Resource) error {
	action := authz.NewAction(op, res)
	dec, err := d.decider.Decide(ctx, authz.NewRequest(sc, action))
	if err != nil {
		d.log.ErrorContext(ctx, "authz_decision_failed",
			"trace", trace.From(ctx),
			"op", op,
			"user", sc.Identity.User,
			"err", err,
		)
		return &DecisionError{Operation: op, Err: err}
	}
	if dec == authz.Allow {
		return nil
	}

	err = d.fallbacks.For(op)(ctx, sc, action)
	var denied *AccessDeniedError
	if errors.As(err, &denied) {
		d.log.InfoContext(ctx, "authz_denied",
			"trace", trace.From(ctx),
			"op", op,
			"user", sc.Identity.User,
			"msg", denied.Message,
		)
		if d.obs != nil {
			d.obs.ObserveDenial(op)
		}
	}
	return err
}

func evaluate[T comparable](ctx context.Context, d *Dispatcher, sc types.SecurityContext, op authz.Operation, candidates []T, resourceOf func(T) resource.Resource) ([]T, error) {
	opts := []filter.Option{filter.WithConcurrency(d.concurrency)}
	if d.obs != nil {
		opts = append(opts, filter.WithObserver(d.obs))
	}
	out, err := filter.Evaluate(ctx, d.decider, sc, op, candidates, resourceOf, opts...)
	if err != nil {
		d.log.ErrorContext(ctx, "authz_filter_failed",
			"trace", trace.From(ctx),
			"op", op,
			"user", sc.Identity.User,
			"candidates", len(candidates),
			"err", err,
		)
		return nil, &DecisionError{Operation: op, Err: err}
	}
	return out, nil
}
