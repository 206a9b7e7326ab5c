package authz

import (
	"errors"
	"fmt"

	"github.com/TwigBush/opa-authz/internal/types"
)

var ErrInvalidRequest = errors.New("invalid authorization request")

// Request is the input document sent to the policy engine.
type Request struct {
	Context types.SecurityContext `json:"context"`
	Action  Action                `json:"action"`
}

func NewRequest(sc types.SecurityContext, action Action) Request {
	return Request{Context: sc, Action: action}
}

func (r Request) Validate() error {
	if r.Action.Operation == "" {
		return fmt.Errorf("%w: empty operation", ErrInvalidRequest)
	}
	if !r.Action.Operation.Valid() {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidRequest, r.Action.Operation)
	}
	return nil
}
