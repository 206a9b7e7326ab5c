package enforce

import (
	"context"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanShowRoles(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpShowRoles, nil)
}

// CheckCanCreateRole takes an optional grantor.
func (d *Dispatcher) CheckCanCreateRole(ctx context.Context, sc types.SecurityContext, role string, grantor *types.Principal) error {
	return d.check(ctx, sc, authz.OpCreateRole, resource.RoleOf(role).GrantedBy(grantor))
}

func (d *Dispatcher) CheckCanDropRole(ctx context.Context, sc types.SecurityContext, role string) error {
	return d.check(ctx, sc, authz.OpDropRole, resource.RoleOf(role))
}

func (d *Dispatcher) CheckCanGrantRoles(ctx context.Context, sc types.SecurityContext, roles []string, grantees []types.Principal, adminOption bool, grantor *types.Principal) error {
	return d.check(ctx, sc, authz.OpGrantRoles, resource.RolesOf(nonNil(roles), nonNilPrincipals(grantees), adminOption, grantor))
}

func (d *Dispatcher) CheckCanRevokeRoles(ctx context.Context, sc types.SecurityContext, roles []string, grantees []types.Principal, adminOption bool, grantor *types.Principal) error {
	return d.check(ctx, sc, authz.OpRevokeRoles, resource.RolesOf(nonNil(roles), nonNilPrincipals(grantees), adminOption, grantor))
}

func (d *Dispatcher) CheckCanShowRoleAuthorizationDescriptors(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpShowRoleAuthorizationDescriptors, nil)
}

func (d *Dispatcher) CheckCanShowCurrentRoles(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpShowCurrentRoles, nil)
}

func (d *Dispatcher) CheckCanShowRoleGrants(ctx context.Context, sc types.SecurityContext) error {
	return d.check(ctx, sc, authz.OpShowRoleGrants, nil)
}

func nonNilPrincipals(p []types.Principal) []types.Principal {
	if p == nil {
		return []types.Principal{}
	}
	return p
}
