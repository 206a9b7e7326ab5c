package enforce

import (
	"context"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func (d *Dispatcher) CheckCanExecuteProcedure(ctx context.Context, sc types.SecurityContext, procedure types.CatalogSchemaRoutineName) error {
	return d.check(ctx, sc, authz.OpExecuteProcedure, resource.RoutineOf(procedure))
}

func (d *Dispatcher) CheckCanExecuteFunction(ctx context.Context, sc types.SecurityContext, function string) error {
	return d.check(ctx, sc, authz.OpExecuteFunction, resource.FunctionOf(function))
}

func (d *Dispatcher) CheckCanExecuteTableProcedure(ctx context.Context, sc types.SecurityContext, table types.CatalogSchemaTableName, procedure string) error {
	return d.check(ctx, sc, authz.OpExecuteTableProcedure, resource.TableProcedureOf(table, procedure))
}
