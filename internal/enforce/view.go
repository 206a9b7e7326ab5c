package enforce

import (
	"context"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanCreateView(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpCreateView, resource.ViewOf(view))
}

func (d *Dispatcher) CheckCanRenameView(ctx context.Context, sc types.SecurityContext, view, newView types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpRenameView, resource.ViewOf(view).RenamedTo(newView))
}

func (d *Dispatcher) CheckCanSetViewAuthorization(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName, principal types.Principal) error {
	return d.check(ctx, sc, authz.OpSetViewAuthorization, resource.ViewOf(view).OwnedBy(principal))
}

func (d *Dispatcher) CheckCanDropView(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpDropView, resource.ViewOf(view))
}

// CheckCanCreateViewWithSelectFromColumns is asked for the table a new view
// selects from, with the columns it reads.
func (d *Dispatcher) CheckCanCreateViewWithSelectFromColumns(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, columns []string) error {
	return d.check(ctx, sc, authz.OpCreateViewWithSelectFromColumns, resource.ViewOf(table).WithColumns(nonNil(columns)))
}

func (d *Dispatcher) CheckCanCreateMaterializedView(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName, properties map[string]any) error {
	return d.check(ctx, sc, authz.OpCreateMaterializedView, resource.ViewOf(view).WithProperties(properties))
}

func (d *Dispatcher) CheckCanRefreshMaterializedView(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpRefreshMaterializedView, resource.ViewOf(view))
}

func (d *Dispatcher) CheckCanSetMaterializedViewProperties(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName, properties map[string]any) error {
	if properties == nil {
		properties = map[string]any{}
	}
	return d.check(ctx, sc, authz.OpSetMaterializedViewProperties, resource.ViewOf(view).WithProperties(properties))
}

func (d *Dispatcher) CheckCanDropMaterializedView(ctx context.Context, sc types.SecurityContext, view types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpDropMaterializedView, resource.ViewOf(view))
}

func (d *Dispatcher) CheckCanRenameMaterializedView(ctx context.Context, sc types.SecurityContext, view, newView types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpRenameMaterializedView, resource.ViewOf(view).RenamedTo(newView))
}
