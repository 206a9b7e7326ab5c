package enforce

import (
	"fmt"

	"github.com/TwigBush/opa-authz/internal/authz"
)

// AccessDeniedError is a policy denial. The host engine reports it to the
// user as-is.
type AccessDeniedError struct {
	Operation authz.Operation
	Message   string
}

func (e *AccessDeniedError) Error() string {
	return "Access Denied: " + e.Message
}

// DecisionError means no decision could be obtained. It is never an access
// denial and must not be shown to the user as one.
type DecisionError struct {
	Operation authz.Operation
	Err       error
}

func (e *DecisionError) Error() string {
	return fmt.Sprintf("authorization decision for %s failed: %v", e.Operation, e.Err)
}

func (e *DecisionError) Unwrap() error { return e.Err }
