package authz

import (
	"encoding/json"

	"github.com/TwigBush/opa-authz/internal/resource"
)

// Action pairs the check being performed with the object it concerns.
// Resource is nil for checks that only depend on the caller, such as
// ExecuteQuery.
type Action struct {
	Operation Operation
	Resource  resource.Resource
}

func NewAction(op Operation, res resource.Resource) Action {
	return Action{Operation: op, Resource: res}
}

func (a Action) MarshalJSON() ([]byte, error) {
	type wire struct {
		Operation Operation        `json:"operation"`
		Resource  *resource.Object `json:"resource,omitempty"`
	}
	w := wire{Operation: a.Operation}
	if a.Resource != nil {
		w.Resource = &resource.Object{Resource: a.Resource}
	}
	return json.Marshal(w)
}
