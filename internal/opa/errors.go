package opa

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindSerializeFailed Kind = iota + 1
	KindQueryFailed
	KindPolicyNotFound
	KindServerError
	KindDeserializeFailed
)

func (k Kind) String() string {
	switch k {
	case KindSerializeFailed:
		return "serialize_failed"
	case KindQueryFailed:
		return "query_failed"
	case KindPolicyNotFound:
		return "policy_not_found"
	case KindServerError:
		return "server_error"
	case KindDeserializeFailed:
		return "deserialize_failed"
	default:
		return "unknown"
	}
}

var (
	ErrSerializeFailed   = errors.New("failed to serialize OPA query context")
	ErrQueryFailed       = errors.New("failed to query OPA backend")
	ErrPolicyNotFound    = errors.New("OPA policy not found")
	ErrServerError       = errors.New("OPA server error")
	ErrDeserializeFailed = errors.New("failed to deserialize OPA policy response")
)

func (k Kind) sentinel() error {
	switch k {
	case KindSerializeFailed:
		return ErrSerializeFailed
	case KindQueryFailed:
		return ErrQueryFailed
	case KindPolicyNotFound:
		return ErrPolicyNotFound
	case KindServerError:
		return ErrServerError
	case KindDeserializeFailed:
		return ErrDeserializeFailed
	}
	return nil
}

// QueryError is returned for every failed decision. errors.Is matches it
// against the Err* sentinel of its Kind and against the underlying cause.
type QueryError struct {
	Kind   Kind
	Policy string
	// StatusCode and Body are set for KindServerError.
	StatusCode int
	Body       string
	Err        error
}

func (e *QueryError) Error() string {
	switch e.Kind {
	case KindPolicyNotFound:
		return fmt.Sprintf("no OPA policy named %s", e.Policy)
	case KindServerError:
		return fmt.Sprintf("OPA server returned status %d when processing policy %s: %s", e.StatusCode, e.Policy, e.Body)
	}
	msg := e.Kind.sentinel().Error()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *QueryError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the Kind of err, or 0 when err is not a *QueryError.
func KindOf(err error) Kind {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return 0
}
