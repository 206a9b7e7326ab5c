package enforce

import (
	"context"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanGrantExecuteFunctionPrivilege(ctx context.Context, sc types.SecurityContext, function string, grantee types.Principal, grantOption bool) error {
	return d.check(ctx, sc, authz.OpGrantExecuteFunctionPrivilege,
		resource.FunctionPrivilege(function, grantee).WithGrantOption(grantOption))
}

func (d *Dispatcher) CheckCanGrantSchemaPrivilege(ctx context.Context, sc types.SecurityContext, p types.Privilege, schema types.CatalogSchemaName, grantee types.Principal, grantOption bool) error {
	return d.check(ctx, sc, authz.OpGrantSchemaPrivilege,
		resource.SchemaPrivilege(p, schema, grantee).WithGrantOption(grantOption))
}

// CheckCanDenySchemaPrivilege sends no grantOption; DENY has none.
func (d *Dispatcher) CheckCanDenySchemaPrivilege(ctx context.Context, sc types.SecurityContext, p types.Privilege, schema types.CatalogSchemaName, grantee types.Principal) error {
	return d.check(ctx, sc, authz.OpDenySchemaPrivilege, resource.SchemaPrivilege(p, schema, grantee))
}

func (d *Dispatcher) CheckCanRevokeSchemaPrivilege(ctx context.Context, sc types.SecurityContext, p types.Privilege, schema types.CatalogSchemaName, revokee types.Principal, grantOption bool) error {
	return d.check(ctx, sc, authz.OpRevokeSchemaPrivilege,
		resource.SchemaPrivilege(p, schema, revokee).WithGrantOption(grantOption))
}

func (d *Dispatcher) CheckCanGrantTablePrivilege(ctx context.Context, sc types.SecurityContext, p types.Privilege, table types.CatalogSchemaTableName, grantee types.Principal, grantOption bool) error {
	return d.check(ctx, sc, authz.OpGrantTablePrivilege,
		resource.TablePrivilege(p, table, grantee).WithGrantOption(grantOption))
}

func (d *Dispatcher) CheckCanDenyTablePrivilege(ctx context.Context, sc types.SecurityContext, p types.Privilege, table types.CatalogSchemaTableName, grantee types.Principal) error {
	return d.check(ctx, sc, authz.OpDenyTablePrivilege, resource.TablePrivilege(p, table, grantee))
}

func (d *Dispatcher) CheckCanRevokeTablePrivilege(ctx context.Context, sc types.SecurityContext, p types.Privilege, table types.CatalogSchemaTableName, revokee types.Principal, grantOption bool) error {
	return d.check(ctx, sc, authz.OpRevokeTablePrivilege,
		resource.TablePrivilege(p, table, revokee).WithGrantOption(grantOption))
}
