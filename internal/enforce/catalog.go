package enforce

import (
	"context"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanAccessCatalog(ctx context.Context, sc types.SecurityContext, catalog string) error {
	return d.check(ctx, sc, authz.OpAccessCatalog, resource.CatalogOf(catalog))
}

func (d *Dispatcher) FilterCatalogs(ctx context.Context, sc types.SecurityContext, catalogs []string) ([]string, error) {
	return evaluate(ctx, d, sc, authz.OpFilterCatalogs, catalogs, func(c string) resource.Resource {
		return resource.CatalogOf(c)
	})
}

func (d *Dispatcher) CheckCanSetCatalogSessionProperty(ctx context.Context, sc types.SecurityContext, catalog, property string) error {
	return d.check(ctx, sc, authz.OpSetCatalogSessionProperty, resource.CatalogOf(catalog).WithProperty(property))
}

// CheckCanCreateSchema sends properties only when the host passed some.
func (d *Dispatcher) CheckCanCreateSchema(ctx context.Context, sc types.SecurityContext, schema types.CatalogSchemaName, properties map[string]any) error {
	return d.check(ctx, sc, authz.OpCreateSchema, resource.SchemaOf(schema).WithProperties(properties))
}

func (d *Dispatcher) CheckCanDropSchema(ctx context.Context, sc types.SecurityContext, schema types.CatalogSchemaName) error {
	return d.check(ctx, sc, authz.OpDropSchema, resource.SchemaOf(schema))
}

func (d *Dispatcher) CheckCanRenameSchema(ctx context.Context, sc types.SecurityContext, schema types.CatalogSchemaName, newName string) error {
	return d.check(ctx, sc, authz.OpRenameSchema, resource.SchemaOf(schema).RenamedTo(newName))
}

func (d *Dispatcher) CheckCanSetSchemaAuthorization(ctx context.Context, sc types.SecurityContext, schema types.CatalogSchemaName, principal types.Principal) error {
	return d.check(ctx, sc, authz.OpSetSchemaAuthorization, resource.SchemaOf(schema).OwnedBy(principal))
}

func (d *Dispatcher) CheckCanShowSchemas(ctx context.Context, sc types.SecurityContext, catalog string) error {
	return d.check(ctx, sc, authz.OpShowSchemas, resource.SchemasIn(catalog))
}

func (d *Dispatcher) FilterSchemas(ctx context.Context, sc types.SecurityContext, catalog string, schemas []string) ([]string, error) {
	return evaluate(ctx, d, sc, authz.OpFilterSchemas, schemas, func(s string) resource.Resource {
		return resource.SchemaOf(types.CatalogSchemaName{Catalog: catalog, Schema: s})
	})
}

func (d *Dispatcher) CheckCanShowCreateSchema(ctx context.Context, sc types.SecurityContext, schema types.CatalogSchemaName) error {
	return d.check(ctx, sc, authz.OpShowCreateSchema, resource.SchemaOf(schema))
}
