package enforce

import (
	"context"
	"slices"
	"strings"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanImpersonateUser(ctx context.Context, sc types.SecurityContext, user string) error {
	return d.check(ctx, sc, authz.OpImpersonateUser, resource.User{Name: user})
}

// CheckCanSetUser is the legacy form of CheckCanImpersonateUser. The caller
// context is built from the principal and the target user.
func (d *Dispatcher) CheckCanSetUser(ctx context.Context, principal *types.Principal, user string) error {
	sc := types.SecurityContext{Identity: types.Identity{User: user, Principal: principal}}
	return d.CheckCanImpersonateUser(ctx, sc, user)
}

func (d *Dispatcher) CheckCanExecuteQuery(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpExecuteQuery, nil)
}

func (d *Dispatcher) CheckCanViewQueryOwnedBy(ctx context.Context, sc types.SecurityContext, owner types.Identity) error {
	return d.check(ctx, sc, authz.OpViewQueryOwnedBy, resource.Query{Owner: owner})
}

// FilterViewQueryOwnedBy returns the owners whose queries the caller may see.
// Owners that are equal in every field are reported once.
func (d *Dispatcher) FilterViewQueryOwnedBy(ctx context.Context, sc types.SecurityContext, owners []types.Identity) ([]types.Identity, error) {
	byKey := make(map[string]types.Identity, len(owners))
	keys := make([]string, 0, len(owners))
	for _, o := range owners {
		k := identityKey(o)
		if _, ok := byKey[k]; !ok {
			byKey[k] = o
			keys = append(keys, k)
		}
	}
	allowed, err := evaluate(ctx, d, sc, authz.OpFilterViewQueryOwnedBy, keys, func(k string) resource.Resource {
		return resource.Query{Owner: byKey[k]}
	})
	if err != nil {
		return nil, err
	}
	out := make([]types.Identity, 0, len(allowed))
	for _, k := range allowed {
		out = append(out, byKey[k])
	}
	return out, nil
}

func identityKey(id types.Identity) string {
	var sb strings.Builder
	sb.WriteString(id.User)
	sb.WriteByte(0)
	if id.Principal != nil {
		sb.WriteString(id.Principal.String())
	}
	for _, set := range [][]string{id.Groups, id.EnabledRoles} {
		sb.WriteByte(0)
		s := slices.Clone(set)
		slices.Sort(s)
		sb.WriteString(strings.Join(s, "\x1f"))
	}
	return sb.String()
}

func (d *Dispatcher) CheckCanKillQueryOwnedBy(ctx context.Context, sc types.SecurityContext, owner types.Identity) error {
	return d.check(ctx, sc, authz.OpKillQueryOwnedBy, resource.Query{Owner: owner})
}

func (d *Dispatcher) CheckCanReadSystemInformation(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpReadSystemInformation, nil)
}

func (d *Dispatcher) CheckCanWriteSystemInformation(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpWriteSystemInformation, nil)
}

func (d *Dispatcher) CheckCanSetSystemSessionProperty(ctx context.Context, sc types.SecurityContext, property string) error {
	return d.check(ctx, sc, authz.OpSetSystemSessionProperty, resource.SystemSessionProperty{Property: property})
}
