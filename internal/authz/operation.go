package authz

import (
	"strings"
	"unicode"
)

// Operation names the check that produced a request. The string value is
// sent to the policy engine verbatim.
type Operation string

const (
	OpImpersonateUser          Operation = "ImpersonateUser"
	OpExecuteQuery             Operation = "ExecuteQuery"
	OpViewQueryOwnedBy         Operation = "ViewQueryOwnedBy"
	OpFilterViewQueryOwnedBy   Operation = "FilterViewQueryOwnedBy"
	OpKillQueryOwnedBy         Operation = "KillQueryOwnedBy"
	OpReadSystemInformation    Operation = "ReadSystemInformation"
	OpWriteSystemInformation   Operation = "WriteSystemInformation"
	OpSetSystemSessionProperty Operation = "SetSystemSessionProperty"

	OpAccessCatalog             Operation = "AccessCatalog"
	OpFilterCatalogs            Operation = "FilterCatalogs"
	OpSetCatalogSessionProperty Operation = "SetCatalogSessionProperty"

	OpCreateSchema           Operation = "CreateSchema"
	OpDropSchema             Operation = "DropSchema"
	OpRenameSchema           Operation = "RenameSchema"
	OpSetSchemaAuthorization Operation = "SetSchemaAuthorization"
	OpShowSchemas            Operation = "ShowSchemas"
	OpFilterSchemas          Operation = "FilterSchemas"
	OpShowCreateSchema       Operation = "ShowCreateSchema"

	OpShowCreateTable       Operation = "ShowCreateTable"
	OpCreateTable           Operation = "CreateTable"
	OpDropTable             Operation = "DropTable"
	OpRenameTable           Operation = "RenameTable"
	OpSetTableProperties    Operation = "SetTableProperties"
	OpSetTableComment       Operation = "SetTableComment"
	OpSetColumnComment      Operation = "SetColumnComment"
	OpShowTables            Operation = "ShowTables"
	OpFilterTables          Operation = "FilterTables"
	OpShowColumns           Operation = "ShowColumns"
	OpFilterColumns         Operation = "FilterColumns"
	OpAddColumn             Operation = "AddColumn"
	OpDropColumn            Operation = "DropColumn"
	OpSetTableAuthorization Operation = "SetTableAuthorization"
	OpRenameColumn          Operation = "RenameColumn"
	OpSelectFromColumns     Operation = "SelectFromColumns"
	OpInsertIntoTable       Operation = "InsertIntoTable"
	OpDeleteFromTable       Operation = "DeleteFromTable"
	OpTruncateTable         Operation = "TruncateTable"
	OpUpdateTableColumns    Operation = "UpdateTableColumns"

	OpCreateView                      Operation = "CreateView"
	OpRenameView                      Operation = "RenameView"
	OpSetViewAuthorization            Operation = "SetViewAuthorization"
	OpDropView                        Operation = "DropView"
	OpCreateViewWithSelectFromColumns Operation = "CreateViewWithSelectFromColumns"
	OpCreateMaterializedView          Operation = "CreateMaterializedView"
	OpRefreshMaterializedView         Operation = "RefreshMaterializedView"
	OpSetMaterializedViewProperties   Operation = "SetMaterializedViewProperties"
	OpDropMaterializedView            Operation = "DropMaterializedView"
	OpRenameMaterializedView          Operation = "RenameMaterializedView"

	OpGrantExecuteFunctionPrivilege Operation = "GrantExecuteFunctionPrivilege"
	OpGrantSchemaPrivilege          Operation = "GrantSchemaPrivilege"
	OpDenySchemaPrivilege           Operation = "DenySchemaPrivilege"
	OpRevokeSchemaPrivilege         Operation = "RevokeSchemaPrivilege"
	OpGrantTablePrivilege           Operation = "GrantTablePrivilege"
	OpDenyTablePrivilege            Operation = "DenyTablePrivilege"
	OpRevokeTablePrivilege          Operation = "RevokeTablePrivilege"

	OpShowRoles                        Operation = "ShowRoles"
	OpCreateRole                       Operation = "CreateRole"
	OpDropRole                         Operation = "DropRole"
	OpGrantRoles                       Operation = "GrantRoles"
	OpRevokeRoles                      Operation = "RevokeRoles"
	OpShowRoleAuthorizationDescriptors Operation = "ShowRoleAuthorizationDescriptors"
	OpShowCurrentRoles                 Operation = "ShowCurrentRoles"
	OpShowRoleGrants                   Operation = "ShowRoleGrants"

	OpExecuteProcedure      Operation = "ExecuteProcedure"
	OpExecuteFunction       Operation = "ExecuteFunction"
	OpExecuteTableProcedure Operation = "ExecuteTableProcedure"
)

var operations = []Operation{
	OpImpersonateUser, OpExecuteQuery, OpViewQueryOwnedBy, OpFilterViewQueryOwnedBy,
	OpKillQueryOwnedBy, OpReadSystemInformation, OpWriteSystemInformation,
	OpSetSystemSessionProperty,
	OpAccessCatalog, OpFilterCatalogs, OpSetCatalogSessionProperty,
	OpCreateSchema, OpDropSchema, OpRenameSchema, OpSetSchemaAuthorization, OpShowSchemas,
	OpFilterSchemas, OpShowCreateSchema,
	OpShowCreateTable, OpCreateTable, OpDropTable, OpRenameTable, OpSetTableProperties,
	OpSetTableComment, OpSetColumnComment, OpShowTables, OpFilterTables, OpShowColumns,
	OpFilterColumns, OpAddColumn, OpDropColumn, OpSetTableAuthorization, OpRenameColumn,
	OpSelectFromColumns, OpInsertIntoTable, OpDeleteFromTable, OpTruncateTable,
	OpUpdateTableColumns,
	OpCreateView, OpRenameView, OpSetViewAuthorization, OpDropView,
	OpCreateViewWithSelectFromColumns, OpCreateMaterializedView, OpRefreshMaterializedView,
	OpSetMaterializedViewProperties, OpDropMaterializedView, OpRenameMaterializedView,
	OpGrantExecuteFunctionPrivilege, OpGrantSchemaPrivilege, OpDenySchemaPrivilege,
	OpRevokeSchemaPrivilege, OpGrantTablePrivilege, OpDenyTablePrivilege,
	OpRevokeTablePrivilege,
	OpShowRoles, OpCreateRole, OpDropRole, OpGrantRoles, OpRevokeRoles,
	OpShowRoleAuthorizationDescriptors, OpShowCurrentRoles, OpShowRoleGrants,
	OpExecuteProcedure, OpExecuteFunction, OpExecuteTableProcedure,
}

var known = func() map[Operation]struct{} {
	m := make(map[Operation]struct{}, len(operations))
	for _, op := range operations {
		m[op] = struct{}{}
	}
	return m
}()

// Operations returns every known operation.
func Operations() []Operation {
	out := make([]Operation, len(operations))
	copy(out, operations)
	return out
}

func (o Operation) Valid() bool {
	_, ok := known[o]
	return ok
}

func (o Operation) String() string { return string(o) }

// IsFilter reports whether o is evaluated per candidate by the filter evaluator.
func (o Operation) IsFilter() bool {
	switch o {
	case OpFilterViewQueryOwnedBy, OpFilterCatalogs, OpFilterSchemas, OpFilterTables, OpFilterColumns:
		return true
	}
	return false
}

// PolicyName is the policy document queried for o when every check has its
// own policy, e.g. ExecuteQuery -> can_execute_query.
func (o Operation) PolicyName() string {
	var sb strings.Builder
	sb.WriteString("can")
	for _, r := range string(o) {
		if unicode.IsUpper(r) {
			sb.WriteByte('_')
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
