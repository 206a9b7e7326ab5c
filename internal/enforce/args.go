package enforce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/types"
)

var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrInvalidArgs      = errors.New("invalid arguments")
)

// Args carries the parameters of a check by name, for callers that select
// the check at run time (the HTTP surface and the CLI). Each check reads
// only the fields it needs.
type Args struct {
	User       string                        `json:"user,omitempty"`
	Owner      *types.Identity               `json:"owner,omitempty"`
	Property   string                        `json:"property,omitempty"`
	Catalog    string                        `json:"catalog,omitempty"`
	Schema     string                        `json:"schema,omitempty"`
	Table      string                        `json:"table,omitempty"`
	NewName    string                        `json:"newName,omitempty"`
	NewTable   *types.CatalogSchemaTableName `json:"newTable,omitempty"`
	Principal  *types.Principal              `json:"principal,omitempty"`
	Columns    []string                      `json:"columns,omitempty"`
	Properties map[string]any                `json:"properties,omitempty"`
	Privilege  types.Privilege               `json:"privilege,omitempty"`
	Grantee    *types.Principal              `json:"grantee,omitempty"`
	Grantees   []types.Principal             `json:"grantees,omitempty"`
	Grantor    *types.Principal              `json:"grantor,omitempty"`
	Option     bool                          `json:"option,omitempty"`
	Role       string                        `json:"role,omitempty"`
	Roles      []string                      `json:"roles,omitempty"`
	Function   string                        `json:"function,omitempty"`
	Procedure  string                        `json:"procedure,omitempty"`
}

func (a Args) schemaName() types.CatalogSchemaName {
	return types.CatalogSchemaName{Catalog: a.Catalog, Schema: a.Schema}
}

func (a Args) tableName() types.CatalogSchemaTableName {
	return types.TableName(a.Catalog, a.Schema, a.Table)
}

func missing(field string) error { return fmt.Errorf("%w: %s is required", ErrInvalidArgs, field) }

func (a Args) need(fields ...string) error {
	for _, f := range fields {
		var empty bool
		switch f {
		case "user":
			empty = a.User == ""
		case "owner":
			empty = a.Owner == nil
		case "property":
			empty = a.Property == ""
		case "catalog":
			empty = a.Catalog == ""
		case "schema":
			empty = a.Schema == ""
		case "table":
			empty = a.Table == ""
		case "newName":
			empty = a.NewName == ""
		case "newTable":
			empty = a.NewTable == nil
		case "principal":
			empty = a.Principal == nil
		case "privilege":
			empty = !a.Privilege.Valid()
		case "grantee":
			empty = a.Grantee == nil
		case "role":
			empty = a.Role == ""
		case "function":
			empty = a.Function == ""
		case "procedure":
			empty = a.Procedure == ""
		}
		if empty {
			return missing(f)
		}
	}
	return nil
}

type checkFunc func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error

// checks has one entry per non-filter operation. Required fields are
// verified before the check runs.
var checks = map[authz.Operation]struct {
	needs []string
	run   checkFunc
}{
	authz.OpImpersonateUser: {[]string{"user"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanImpersonateUser(ctx, sc, a.User)
	}},
	authz.OpExecuteQuery: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanExecuteQuery(ctx, sc)
	}},
	authz.OpViewQueryOwnedBy: {[]string{"owner"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanViewQueryOwnedBy(ctx, sc, *a.Owner)
	}},
	authz.OpKillQueryOwnedBy: {[]string{"owner"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanKillQueryOwnedBy(ctx, sc, *a.Owner)
	}},
	authz.OpReadSystemInformation: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanReadSystemInformation(ctx, sc)
	}},
	authz.OpWriteSystemInformation: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanWriteSystemInformation(ctx, sc)
	}},
	authz.OpSetSystemSessionProperty: {[]string{"property"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetSystemSessionProperty(ctx, sc, a.Property)
	}},

	authz.OpAccessCatalog: {[]string{"catalog"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanAccessCatalog(ctx, sc, a.Catalog)
	}},
	authz.OpSetCatalogSessionProperty: {[]string{"catalog", "property"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetCatalogSessionProperty(ctx, sc, a.Catalog, a.Property)
	}},

	authz.OpCreateSchema: {[]string{"catalog", "schema"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanCreateSchema(ctx, sc, a.schemaName(), a.Properties)
	}},
	authz.OpDropSchema: {[]string{"catalog", "schema"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDropSchema(ctx, sc, a.schemaName())
	}},
	authz.OpRenameSchema: {[]string{"catalog", "schema", "newName"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRenameSchema(ctx, sc, a.schemaName(), a.NewName)
	}},
	authz.OpSetSchemaAuthorization: {[]string{"catalog", "schema", "principal"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetSchemaAuthorization(ctx, sc, a.schemaName(), *a.Principal)
	}},
	authz.OpShowSchemas: {[]string{"catalog"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowSchemas(ctx, sc, a.Catalog)
	}},
	authz.OpShowCreateSchema: {[]string{"catalog", "schema"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowCreateSchema(ctx, sc, a.schemaName())
	}},

	authz.OpShowCreateTable: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowCreateTable(ctx, sc, a.tableName())
	}},
	authz.OpCreateTable: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanCreateTable(ctx, sc, a.tableName(), a.Properties)
	}},
	authz.OpDropTable: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDropTable(ctx, sc, a.tableName())
	}},
	authz.OpRenameTable: {append(tableFields[:3:3], "newTable"), func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRenameTable(ctx, sc, a.tableName(), *a.NewTable)
	}},
	authz.OpSetTableProperties: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetTableProperties(ctx, sc, a.tableName(), a.Properties)
	}},
	authz.OpSetTableComment: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetTableComment(ctx, sc, a.tableName())
	}},
	authz.OpSetColumnComment: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetColumnComment(ctx, sc, a.tableName())
	}},
	authz.OpShowTables: {[]string{"catalog", "schema"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowTables(ctx, sc, a.schemaName())
	}},
	authz.OpShowColumns: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowColumns(ctx, sc, a.tableName())
	}},
	authz.OpAddColumn: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanAddColumn(ctx, sc, a.tableName())
	}},
	authz.OpDropColumn: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDropColumn(ctx, sc, a.tableName())
	}},
	authz.OpSetTableAuthorization: {append(tableFields[:3:3], "principal"), func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetTableAuthorization(ctx, sc, a.tableName(), *a.Principal)
	}},
	authz.OpRenameColumn: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRenameColumn(ctx, sc, a.tableName())
	}},
	authz.OpSelectFromColumns: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSelectFromColumns(ctx, sc, a.tableName(), a.Columns)
	}},
	authz.OpInsertIntoTable: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanInsertIntoTable(ctx, sc, a.tableName())
	}},
	authz.OpDeleteFromTable: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDeleteFromTable(ctx, sc, a.tableName())
	}},
	authz.OpTruncateTable: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanTruncateTable(ctx, sc, a.tableName())
	}},
	authz.OpUpdateTableColumns: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanUpdateTableColumns(ctx, sc, a.tableName(), a.Columns)
	}},

	authz.OpCreateView: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanCreateView(ctx, sc, a.tableName())
	}},
	authz.OpRenameView: {append(tableFields[:3:3], "newTable"), func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRenameView(ctx, sc, a.tableName(), *a.NewTable)
	}},
	authz.OpSetViewAuthorization: {append(tableFields[:3:3], "principal"), func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetViewAuthorization(ctx, sc, a.tableName(), *a.Principal)
	}},
	authz.OpDropView: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDropView(ctx, sc, a.tableName())
	}},
	authz.OpCreateViewWithSelectFromColumns: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanCreateViewWithSelectFromColumns(ctx, sc, a.tableName(), a.Columns)
	}},
	authz.OpCreateMaterializedView: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanCreateMaterializedView(ctx, sc, a.tableName(), a.Properties)
	}},
	authz.OpRefreshMaterializedView: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRefreshMaterializedView(ctx, sc, a.tableName())
	}},
	authz.OpSetMaterializedViewProperties: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanSetMaterializedViewProperties(ctx, sc, a.tableName(), a.Properties)
	}},
	authz.OpDropMaterializedView: {tableFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDropMaterializedView(ctx, sc, a.tableName())
	}},
	authz.OpRenameMaterializedView: {append(tableFields[:3:3], "newTable"), func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRenameMaterializedView(ctx, sc, a.tableName(), *a.NewTable)
	}},

	authz.OpGrantExecuteFunctionPrivilege: {[]string{"function", "grantee"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanGrantExecuteFunctionPrivilege(ctx, sc, a.Function, *a.Grantee, a.Option)
	}},
	authz.OpGrantSchemaPrivilege: {schemaPrivilegeFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanGrantSchemaPrivilege(ctx, sc, a.Privilege, a.schemaName(), *a.Grantee, a.Option)
	}},
	authz.OpDenySchemaPrivilege: {schemaPrivilegeFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDenySchemaPrivilege(ctx, sc, a.Privilege, a.schemaName(), *a.Grantee)
	}},
	authz.OpRevokeSchemaPrivilege: {schemaPrivilegeFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRevokeSchemaPrivilege(ctx, sc, a.Privilege, a.schemaName(), *a.Grantee, a.Option)
	}},
	authz.OpGrantTablePrivilege: {tablePrivilegeFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanGrantTablePrivilege(ctx, sc, a.Privilege, a.tableName(), *a.Grantee, a.Option)
	}},
	authz.OpDenyTablePrivilege: {tablePrivilegeFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDenyTablePrivilege(ctx, sc, a.Privilege, a.tableName(), *a.Grantee)
	}},
	authz.OpRevokeTablePrivilege: {tablePrivilegeFields, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRevokeTablePrivilege(ctx, sc, a.Privilege, a.tableName(), *a.Grantee, a.Option)
	}},

	authz.OpShowRoles: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowRoles(ctx, sc)
	}},
	authz.OpCreateRole: {[]string{"role"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanCreateRole(ctx, sc, a.Role, a.Grantor)
	}},
	authz.OpDropRole: {[]string{"role"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanDropRole(ctx, sc, a.Role)
	}},
	authz.OpGrantRoles: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanGrantRoles(ctx, sc, a.Roles, a.Grantees, a.Option, a.Grantor)
	}},
	authz.OpRevokeRoles: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanRevokeRoles(ctx, sc, a.Roles, a.Grantees, a.Option, a.Grantor)
	}},
	authz.OpShowRoleAuthorizationDescriptors: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowRoleAuthorizationDescriptors(ctx, sc)
	}},
	authz.OpShowCurrentRoles: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowCurrentRoles(ctx, sc)
	}},
	authz.OpShowRoleGrants: {nil, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanShowRoleGrants(ctx, sc)
	}},

	authz.OpExecuteProcedure: {[]string{"catalog", "schema", "procedure"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanExecuteProcedure(ctx, sc, types.CatalogSchemaRoutineName{Catalog: a.Catalog, Schema: a.Schema, Routine: a.Procedure})
	}},
	authz.OpExecuteFunction: {[]string{"function"}, func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanExecuteFunction(ctx, sc, a.Function)
	}},
	authz.OpExecuteTableProcedure: {append(tableFields[:3:3], "procedure"), func(ctx context.Context, d *Dispatcher, sc types.SecurityContext, a Args) error {
		return d.CheckCanExecuteTableProcedure(ctx, sc, a.tableName(), a.Procedure)
	}},
}

var (
	tableFields           = []string{"catalog", "schema", "table"}
	schemaPrivilegeFields = []string{"privilege", "catalog", "schema", "grantee"}
	tablePrivilegeFields  = []string{"privilege", "catalog", "schema", "table", "grantee"}
)

// Check runs the check named by op. It returns ErrUnknownOperation for
// filter and unknown operations and ErrInvalidArgs when a required argument
// is missing; otherwise it behaves like the matching CheckCan method.
func (d *Dispatcher) Check(ctx context.Context, op authz.Operation, sc types.SecurityContext, a Args) error {
	c, ok := checks[op]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownOperation, op)
	}
	if err := a.need(c.needs...); err != nil {
		return err
	}
	return c.run(ctx, d, sc, a)
}

// Filter runs the filter named by op over candidates, a JSON array whose
// element type depends on op: identities for FilterViewQueryOwnedBy,
// {schemaName, tableName} objects for FilterTables, strings otherwise.
func (d *Dispatcher) Filter(ctx context.Context, op authz.Operation, sc types.SecurityContext, a Args, candidates json.RawMessage) (any, error) {
	switch op {
	case authz.OpFilterViewQueryOwnedBy:
		var owners []types.Identity
		if err := decodeCandidates(candidates, &owners); err != nil {
			return nil, err
		}
		return d.FilterViewQueryOwnedBy(ctx, sc, owners)
	case authz.OpFilterCatalogs:
		var names []string
		if err := decodeCandidates(candidates, &names); err != nil {
			return nil, err
		}
		return d.FilterCatalogs(ctx, sc, names)
	case authz.OpFilterSchemas:
		if err := a.need("catalog"); err != nil {
			return nil, err
		}
		var names []string
		if err := decodeCandidates(candidates, &names); err != nil {
			return nil, err
		}
		return d.FilterSchemas(ctx, sc, a.Catalog, names)
	case authz.OpFilterTables:
		if err := a.need("catalog"); err != nil {
			return nil, err
		}
		var tables []types.SchemaTableName
		if err := decodeCandidates(candidates, &tables); err != nil {
			return nil, err
		}
		return d.FilterTables(ctx, sc, a.Catalog, tables)
	case authz.OpFilterColumns:
		if err := a.need(tableFields...); err != nil {
			return nil, err
		}
		var columns []string
		if err := decodeCandidates(candidates, &columns); err != nil {
			return nil, err
		}
		return d.FilterColumns(ctx, sc, a.tableName(), columns)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op)
}

func decodeCandidates(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: candidates: %v", ErrInvalidArgs, err)
	}
	return nil
}
