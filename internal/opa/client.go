// Package opa asks an Open Policy Agent server for authorization decisions.
package opa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/trace"
)

// Mode selects how requests are addressed to OPA.
type Mode string

const (
	// ModeSingle posts every request to one policy URI and names the
	// operation in the body.
	ModeSingle Mode = "single"
	// ModePerPolicy posts to <base>/<operation policy name>, e.g.
	// <base>/can_execute_query.
	ModePerPolicy Mode = "per-policy"
)

func (m Mode) Valid() bool { return m == ModeSingle || m == ModePerPolicy }

const (
	maxResponseBytes = 1 << 20
	maxErrorBody     = 4096
)

type Config struct {
	PolicyURI *url.URL
	Mode      Mode
	Timeout   time.Duration
	// Retries bounds the extra attempts made after a transport failure.
	Retries   int
	RetryWait time.Duration
	// StrictResult reports a reply without "result" as PolicyNotFound
	// instead of NoOpinion.
	StrictResult bool
	Breaker      BreakerConfig
}

// BreakerConfig trips the breaker after MaxFailures consecutive transport
// failures. Zero MaxFailures disables it.
type BreakerConfig struct {
	MaxFailures uint32
	OpenTimeout time.Duration
}

// Observer receives one call per decision. outcome is "allow", "no_opinion"
// or the Kind of the failure.
type Observer interface {
	ObserveDecision(op authz.Operation, outcome string, elapsed time.Duration)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpc = hc } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }

func WithObserver(o Observer) Option { return func(c *Client) { c.obs = o } }

// Client is safe for concurrent use. Its http.Client and breaker are shared
// by every decision, including the ones issued by filter batches.
type Client struct {
	httpc     *http.Client
	base      *url.URL
	mode      Mode
	strict    bool
	retries   int
	retryWait time.Duration
	breaker   *gobreaker.CircuitBreaker
	log       *slog.Logger
	obs       Observer
}

var _ authz.Decider = (*Client)(nil)

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.PolicyURI == nil {
		return nil, errors.New("opa: policy URI is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSingle
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("opa: unknown mode %q", cfg.Mode)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 100 * time.Millisecond
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 64

	c := &Client{
		httpc:     &http.Client{Timeout: cfg.Timeout, Transport: transport},
		base:      cfg.PolicyURI,
		mode:      cfg.Mode,
		strict:    cfg.StrictResult,
		retries:   cfg.Retries,
		retryWait: cfg.RetryWait,
		log:       slog.Default(),
	}
	if cfg.Breaker.MaxFailures > 0 {
		c.breaker = newBreaker(cfg.Breaker, c)
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func newBreaker(cfg BreakerConfig, c *Client) *gobreaker.CircuitBreaker {
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "opa",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// Replies of any status reached OPA. A call abandoned by its caller
		// says nothing about OPA's health.
		IsSuccessful: func(err error) bool {
			var gone *callerDoneError
			return err == nil || errors.As(err, &gone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("opa_breaker", "from", from.String(), "to", to.String())
		},
	})
}

// Decide sends req to OPA. A nil error always comes with Allow or NoOpinion;
// every failure is a *QueryError.
func (c *Client) Decide(ctx context.Context, req authz.Request) (authz.Decision, error) {
	start := time.Now()
	d, err := c.decide(ctx, req)
	elapsed := time.Since(start)

	outcome := d.String()
	if err != nil {
		outcome = KindOf(err).String()
	}
	if c.obs != nil {
		c.obs.ObserveDecision(req.Action.Operation, outcome, elapsed)
	}
	c.log.DebugContext(ctx, "opa_decision",
		"trace", trace.From(ctx),
		"op", req.Action.Operation,
		"resource", resource.Kind(req.Action.Resource),
		"user", req.Context.Identity.User,
		"outcome", outcome,
		"ms", elapsed.Milliseconds(),
	)
	return d, err
}

func (c *Client) decide(ctx context.Context, req authz.Request) (authz.Decision, error) {
	policy := c.policyName(req.Action.Operation)
	if err := req.Validate(); err != nil {
		return authz.NoOpinion, &QueryError{Kind: KindSerializeFailed, Policy: policy, Err: err}
	}

	payload, err := json.Marshal(c.envelope(req))
	if err != nil {
		return authz.NoOpinion, &QueryError{Kind: KindSerializeFailed, Policy: policy, Err: err}
	}

	resp, err := c.send(ctx, c.endpoint(req.Action.Operation), payload)
	if err != nil {
		return authz.NoOpinion, &QueryError{Kind: KindQueryFailed, Policy: policy, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return authz.NoOpinion, &QueryError{Kind: KindPolicyNotFound, Policy: policy, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return authz.NoOpinion, &QueryError{
			Kind:       KindServerError,
			Policy:     policy,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return authz.NoOpinion, &QueryError{Kind: KindQueryFailed, Policy: policy, Err: err}
	}
	if len(body) > maxResponseBytes {
		return authz.NoOpinion, &QueryError{Kind: KindDeserializeFailed, Policy: policy, Err: errors.New("response too large")}
	}

	result, err := parseResult(body)
	if err != nil {
		return authz.NoOpinion, &QueryError{Kind: KindDeserializeFailed, Policy: policy, Err: err}
	}
	switch {
	case result == nil && c.strict:
		return authz.NoOpinion, &QueryError{Kind: KindPolicyNotFound, Policy: policy}
	case result != nil && *result:
		return authz.Allow, nil
	default:
		return authz.NoOpinion, nil
	}
}

// parseResult accepts a JSON object whose "result" member, when present, is
// a boolean. nil means the member was absent.
func parseResult(body []byte) (*bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("response is not a JSON object")
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	raw, ok := doc["result"]
	if !ok {
		return nil, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, errors.New(`"result" is null`)
	}
	var result bool
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf(`"result": %w`, err)
	}
	return &result, nil
}

func (c *Client) send(ctx context.Context, target string, payload []byte) (*http.Response, error) {
	var resp *http.Response
	attempt := func() error {
		r, err := c.roundTrip(ctx, target, payload)
		if err != nil {
			if ctx.Err() != nil ||
				errors.Is(err, gobreaker.ErrOpenState) ||
				errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = r
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryWait
	bo.MaxInterval = 10 * c.retryWait
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.retries)), ctx)

	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, target string, payload []byte) (*http.Response, error) {
	do := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if id := trace.From(ctx); id != "" {
			req.Header.Set(trace.Header, id)
		}
		return c.httpc.Do(req)
	}
	if c.breaker == nil {
		return do()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, err := c.breaker.Execute(func() (interface{}, error) {
		r, err := do()
		if err != nil && ctx.Err() != nil {
			return nil, &callerDoneError{err: err}
		}
		return r, err
	})
	if err != nil {
		return nil, err
	}
	return r.(*http.Response), nil
}

// callerDoneError marks a transport failure caused by the caller's context
// being cancelled or expiring.
type callerDoneError struct{ err error }

func (e *callerDoneError) Error() string { return e.err.Error() }

func (e *callerDoneError) Unwrap() error { return e.err }

func (c *Client) endpoint(op authz.Operation) string {
	if c.mode == ModePerPolicy {
		return c.base.JoinPath(op.PolicyName()).String()
	}
	return c.base.String()
}

func (c *Client) policyName(op authz.Operation) string {
	if c.mode == ModePerPolicy {
		return op.PolicyName()
	}
	return c.base.String()
}

type query struct {
	Input any `json:"input"`
}

type userInput struct {
	Name string `json:"name"`
}

type perPolicyInput struct {
	User    userInput        `json:"user"`
	Request *resource.Object `json:"request,omitempty"`
}

func (c *Client) envelope(req authz.Request) query {
	if c.mode != ModePerPolicy {
		return query{Input: req}
	}
	in := perPolicyInput{User: userInput{Name: req.Context.Identity.User}}
	if req.Action.Resource != nil {
		in.Request = &resource.Object{Resource: req.Action.Resource}
	}
	return query{Input: in}
}
