package enforce

import (
	"context"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanShowCreateTable(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpShowCreateTable, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanCreateTable(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, properties map[string]any) error {
	return d.check(ctx, sc, authz.OpCreateTable, resource.TableOf(table).WithProperties(properties))
}

func (d *Dispatcher) CheckCanDropTable(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpDropTable, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanRenameTable(ctx context.Context, sc types.SecurityContext, table, newTable types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpRenameTable, resource.TableOf(table).RenamedTo(newTable))
}

// CheckCanSetTableProperties takes the properties being changed. A nil
// value resets the property and is sent as "".
func (d *Dispatcher) CheckCanSetTableProperties(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, properties map[string]any) error {
	if properties == nil {
		properties = map[string]any{}
	}
	return d.check(ctx, sc, authz.OpSetTableProperties, resource.TableOf(table).WithProperties(properties))
}

func (d *Dispatcher) CheckCanSetTableComment(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpSetTableComment, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanSetColumnComment(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpSetColumnComment, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanShowTables(ctx context.Context, sc types.SecurityContext, schema types.CatalogSchemaName) error {
	return d.check(ctx, sc, authz.OpShowTables, resource.SchemaOf(schema))
}

// FilterTables returns the tables of catalog the caller may see.
func (d *Dispatcher) FilterTables(ctx context.Context, sc types.SecurityContext, catalog string, tables []types.SchemaTableName) ([]types.SchemaTableName, error) {
	return evaluate(ctx, d, sc, authz.OpFilterTables, tables, func(t types.SchemaTableName) resource.Resource {
		return resource.TableOf(types.TableName(catalog, t.Schema, t.Table))
	})
}

func (d *Dispatcher) CheckCanShowColumns(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpShowColumns, resource.TableOf(table))
}

func (d *Dispatcher) FilterColumns(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, columns []string) ([]string, error) {
	base := resource.TableOf(table)
	return evaluate(ctx, d, sc, authz.OpFilterColumns, columns, func(c string) resource.Resource {
		return base.WithColumn(c)
	})
}

func (d *Dispatcher) CheckCanAddColumn(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpAddColumn, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanDropColumn(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpDropColumn, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanSetTableAuthorization(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, principal types.Principal) error {
	return d.check(ctx, sc, authz.OpSetTableAuthorization, resource.TableOf(table).OwnedBy(principal))
}

func (d *Dispatcher) CheckCanRenameColumn(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpRenameColumn, resource.TableOf(table))
}

// CheckCanSelectFromColumns sends the column set even when it is empty,
// e.g. for SELECT count(*).
func (d *Dispatcher) CheckCanSelectFromColumns(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, columns []string) error {
	return d.check(ctx, sc, authz.OpSelectFromColumns, resource.TableOf(table).WithColumns(nonNil(columns)))
}

func (d *Dispatcher) CheckCanInsertIntoTable(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpInsertIntoTable, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanDeleteFromTable(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpDeleteFromTable, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanTruncateTable(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName) error {
	return d.check(ctx, sc, authz.OpTruncateTable, resource.TableOf(table))
}

func (d *Dispatcher) CheckCanUpdateTableColumns(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, columns []string) error {
	return d.check(ctx, sc, authz.OpUpdateTableColumns, resource.TableOf(table).WithColumns(nonNil(columns)))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
