package enforce

import (
	"context"
	"fmt"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/types"
)

// FallbackFunc runs when the policy engine has no opinion on an action. It
// returns nil to permit the action or an *AccessDeniedError.
type FallbackFunc func(ctx context.Context, sc types.SecurityContext, a authz.Action) error

// Permit allows the action.
func Permit(context.Context, types.SecurityContext, authz.Action) error { return nil }

// Refuse denies the action with the host engine's message for it.
func Refuse(_ context.Context, sc types.SecurityContext, a authz.Action) error {
	return &AccessDeniedError{Operation: a.Operation, Message: denialMessage(sc, a)}
}

// Fallbacks maps operations to the handler used on NoOpinion. Operations
// without an entry are refused.
type Fallbacks map[authz.Operation]FallbackFunc

func (f Fallbacks) For(op authz.Operation) FallbackFunc {
	if fn, ok := f[op]; ok && fn != nil {
		return fn
	}
	return Refuse
}

// permissive lists the checks the host engine allows by default.
var permissive = []authz.Operation{
	authz.OpReadSystemInformation,
	authz.OpShowSchemas,
	authz.OpShowTables,
	authz.OpShowColumns,
	authz.OpShowCurrentRoles,
	authz.OpShowRoleGrants,
	authz.OpShowRoleAuthorizationDescriptors,
	authz.OpShowRoles,
	authz.OpExecuteFunction,
}

// HostDefaults mirrors the host engine's default access control: a few
// read-only checks are permitted, everything else is refused.
func HostDefaults() Fallbacks {
	f := DenyAll()
	for _, op := range permissive {
		f[op] = Permit
	}
	return f
}

// DenyAll refuses every action the policy engine did not allow.
func DenyAll() Fallbacks {
	f := make(Fallbacks)
	for _, op := range authz.Operations() {
		if !op.IsFilter() {
			f[op] = Refuse
		}
	}
	return f
}

type Profile string

const (
	ProfileFallback Profile = "fallback"
	ProfileDeny     Profile = "deny"
)

// ForProfile returns the fallbacks of a deployment profile.
func ForProfile(p Profile) (Fallbacks, error) {
	switch p {
	case ProfileFallback, "":
		return HostDefaults(), nil
	case ProfileDeny:
		return DenyAll(), nil
	}
	return nil, fmt.Errorf("unknown enforcement profile %q", p)
}
