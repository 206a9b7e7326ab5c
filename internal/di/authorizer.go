// Package di wires a Dispatcher from configuration.
package di

import (
	"fmt"
	"log/slog"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/config"
	"github.com/TwigBush/opa-authz/internal/enforce"
	"github.com/TwigBush/opa-authz/internal/metrics"
	"github.com/TwigBush/opa-authz/internal/opa"
)

// ProvideDecider builds the decision backend named by cfg.Backend. m may be
// nil.
func ProvideDecider(cfg *config.Config, log *slog.Logger, m *metrics.Decisions) (authz.Decider, error) {
	switch cfg.Backend {
	case "opa", "":
		u, err := cfg.ParsedPolicyURI()
		if err != nil {
			return nil, err
		}
		opts := []opa.Option{opa.WithLogger(log)}
		if m != nil {
			opts = append(opts, opa.WithObserver(m))
		}
		return opa.New(opa.Config{
			PolicyURI:    u,
			Mode:         opa.Mode(cfg.Mode),
			Timeout:      cfg.Timeout,
			Retries:      cfg.Retries,
			StrictResult: cfg.StrictResult,
			Breaker: opa.BreakerConfig{
				MaxFailures: cfg.Breaker.MaxFailures,
				OpenTimeout: cfg.Breaker.OpenTimeout,
			},
		}, opts...)
	case "fga":
		return authz.NewOpenFGA(authz.OpenFGAConfig{
			APIURL:   cfg.FGA.APIURL,
			StoreID:  cfg.FGA.StoreID,
			APIToken: cfg.FGA.APIToken,
			ModelID:  cfg.FGA.ModelID,
		})
	case "mock":
		// No opinion on anything: the enforcement profile decides every check.
		log.Warn("decision_backend_mock", "profile", cfg.Profile)
		return &authz.Mock{}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// ProvideDispatcher applies the enforcement profile of cfg to decider.
func ProvideDispatcher(cfg *config.Config, decider authz.Decider, log *slog.Logger, m *metrics.Decisions) (*enforce.Dispatcher, error) {
	fallbacks, err := enforce.ForProfile(enforce.Profile(cfg.Profile))
	if err != nil {
		return nil, err
	}
	opts := []enforce.Option{
		enforce.WithFallbacks(fallbacks),
		enforce.WithConcurrency(cfg.Concurrency),
		enforce.WithLogger(log),
	}
	if m != nil {
		opts = append(opts, enforce.WithObserver(m))
	}
	return enforce.New(decider, opts...), nil
}
