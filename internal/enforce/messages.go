package enforce

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

// denialMessage renders the message the host engine uses when it refuses
// action on its own.
func denialMessage(sc types.SecurityContext, a authz.Action) string {
	res := a.Resource
	switch a.Operation {
	case authz.OpImpersonateUser:
		return fmt.Sprintf("User %s cannot impersonate user %s", sc.Identity.User, userOf(res))
	case authz.OpExecuteQuery:
		return "Cannot execute query"
	case authz.OpViewQueryOwnedBy:
		return "Cannot view query owned by " + ownerOf(res)
	case authz.OpKillQueryOwnedBy:
		return "Cannot kill query owned by " + ownerOf(res)
	case authz.OpReadSystemInformation:
		return "Cannot read system information"
	case authz.OpWriteSystemInformation:
		return "Cannot write system information"
	case authz.OpSetSystemSessionProperty:
		if p, ok := res.(resource.SystemSessionProperty); ok {
			return "Cannot set system session property " + p.Property
		}

	case authz.OpAccessCatalog:
		if c, ok := res.(resource.Catalog); ok {
			return "Cannot access catalog " + c.Name
		}
	case authz.OpSetCatalogSessionProperty:
		if c, ok := res.(resource.Catalog); ok {
			return fmt.Sprintf("Cannot set catalog session property %s.%s", c.Name, c.PropertyName)
		}

	case authz.OpCreateSchema:
		return "Cannot create schema " + schemaOf(res)
	case authz.OpDropSchema:
		return "Cannot drop schema " + schemaOf(res)
	case authz.OpRenameSchema:
		if s, ok := res.(resource.Schema); ok {
			return fmt.Sprintf("Cannot rename schema from %s to %s", schemaOf(res), s.NewSchema)
		}
	case authz.OpSetSchemaAuthorization:
		return fmt.Sprintf("Cannot set authorization for schema %s to %s", schemaOf(res), principalOf(res))
	case authz.OpShowSchemas:
		return "Cannot show schemas"
	case authz.OpShowCreateSchema:
		return "Cannot show create schema for " + schemaOf(res)

	case authz.OpShowCreateTable:
		return "Cannot show create table for " + tableOf(res)
	case authz.OpCreateTable:
		return "Cannot create table " + tableOf(res)
	case authz.OpDropTable:
		return "Cannot drop table " + tableOf(res)
	case authz.OpRenameTable:
		return fmt.Sprintf("Cannot rename table from %s to %s", tableOf(res), newTableOf(res))
	case authz.OpSetTableProperties:
		return "Cannot set table properties to " + tableOf(res)
	case authz.OpSetTableComment:
		return "Cannot comment table to " + tableOf(res)
	case authz.OpSetColumnComment:
		return "Cannot comment column to " + tableOf(res)
	case authz.OpShowTables:
		return "Cannot show tables of schema " + schemaOf(res)
	case authz.OpShowColumns:
		return "Cannot show columns of table " + tableOf(res)
	case authz.OpAddColumn:
		return "Cannot add a column to table " + tableOf(res)
	case authz.OpDropColumn:
		return "Cannot drop a column from table " + tableOf(res)
	case authz.OpSetTableAuthorization:
		return fmt.Sprintf("Cannot set authorization for table %s to %s", tableOf(res), principalOf(res))
	case authz.OpRenameColumn:
		return "Cannot rename a column in table " + tableOf(res)
	case authz.OpSelectFromColumns:
		return fmt.Sprintf("Cannot select from columns %s in table or view %s", columnsOf(res), tableOf(res))
	case authz.OpInsertIntoTable:
		return "Cannot insert into table " + tableOf(res)
	case authz.OpDeleteFromTable:
		return "Cannot delete from table " + tableOf(res)
	case authz.OpTruncateTable:
		return "Cannot truncate table " + tableOf(res)
	case authz.OpUpdateTableColumns:
		return fmt.Sprintf("Cannot update columns %s in table %s", columnsOf(res), tableOf(res))

	case authz.OpCreateView:
		return "Cannot create view " + tableOf(res)
	case authz.OpRenameView:
		return fmt.Sprintf("Cannot rename view from %s to %s", tableOf(res), newTableOf(res))
	case authz.OpSetViewAuthorization:
		return fmt.Sprintf("Cannot set authorization for view %s to %s", tableOf(res), principalOf(res))
	case authz.OpDropView:
		return "Cannot drop view " + tableOf(res)
	case authz.OpCreateViewWithSelectFromColumns:
		return fmt.Sprintf("Cannot create view that selects from %s", tableOf(res))
	case authz.OpCreateMaterializedView:
		return "Cannot create materialized view " + tableOf(res)
	case authz.OpRefreshMaterializedView:
		return "Cannot refresh materialized view " + tableOf(res)
	case authz.OpSetMaterializedViewProperties:
		return "Cannot set properties of materialized view " + tableOf(res)
	case authz.OpDropMaterializedView:
		return "Cannot drop materialized view " + tableOf(res)
	case authz.OpRenameMaterializedView:
		return fmt.Sprintf("Cannot rename materialized view from %s to %s", tableOf(res), newTableOf(res))

	case authz.OpGrantExecuteFunctionPrivilege:
		if p, ok := res.(resource.Authorization); ok {
			return fmt.Sprintf("Cannot grant execute privilege on function %s to %s", p.FunctionName, p.Grantee)
		}
	case authz.OpGrantSchemaPrivilege, authz.OpDenySchemaPrivilege, authz.OpRevokeSchemaPrivilege,
		authz.OpGrantTablePrivilege, authz.OpDenyTablePrivilege, authz.OpRevokeTablePrivilege:
		return privilegeMessage(a.Operation, res)

	case authz.OpShowRoles:
		return "Cannot show roles"
	case authz.OpCreateRole:
		return "Cannot create role " + roleOf(res)
	case authz.OpDropRole:
		return "Cannot drop role " + roleOf(res)
	case authz.OpGrantRoles:
		return fmt.Sprintf("Cannot grant roles %s to %s", roleOf(res), granteesOf(res))
	case authz.OpRevokeRoles:
		return fmt.Sprintf("Cannot revoke roles %s from %s", roleOf(res), granteesOf(res))
	case authz.OpShowRoleAuthorizationDescriptors:
		return "Cannot show role authorization descriptors"
	case authz.OpShowCurrentRoles:
		return "Cannot show current roles"
	case authz.OpShowRoleGrants:
		return "Cannot show role grants"

	case authz.OpExecuteProcedure:
		if e, ok := res.(resource.Execution); ok && e.Routine != nil {
			return "Cannot execute procedure " + e.Routine.String()
		}
	case authz.OpExecuteFunction:
		if e, ok := res.(resource.Execution); ok {
			return "Cannot execute function " + e.FunctionName
		}
	case authz.OpExecuteTableProcedure:
		if e, ok := res.(resource.Execution); ok && e.Table != nil {
			return fmt.Sprintf("Cannot execute table procedure %s on %s", e.Procedure, e.Table)
		}
	}
	return "Cannot perform " + string(a.Operation)
}

func privilegeMessage(op authz.Operation, res resource.Resource) string {
	p, ok := res.(resource.Authorization)
	if !ok {
		return "Cannot perform " + string(op)
	}
	verb, prep := "grant", "to"
	switch op {
	case authz.OpDenySchemaPrivilege, authz.OpDenyTablePrivilege:
		verb = "deny"
	case authz.OpRevokeSchemaPrivilege, authz.OpRevokeTablePrivilege:
		verb, prep = "revoke", "from"
	}
	target := "schema "
	switch {
	case p.Schema != nil:
		target += p.Schema.String()
	case p.Table != nil:
		target = "table " + p.Table.String()
	}
	return fmt.Sprintf("Cannot %s privilege %s on %s %s %s", verb, p.Privilege, target, prep, p.Grantee)
}

func userOf(res resource.Resource) string {
	if u, ok := res.(resource.User); ok {
		return u.Name
	}
	return ""
}

func ownerOf(res resource.Resource) string {
	if q, ok := res.(resource.Query); ok {
		return q.Owner.User
	}
	return ""
}

func schemaOf(res resource.Resource) string {
	s, ok := res.(resource.Schema)
	if !ok {
		return ""
	}
	if s.Schema == "" {
		return s.Catalog
	}
	return s.Catalog + "." + s.Schema
}

func asTable(res resource.Resource) (resource.Table, bool) {
	switch v := res.(type) {
	case resource.Table:
		return v, true
	case resource.View:
		return resource.Table(v), true
	}
	return resource.Table{}, false
}

func tableOf(res resource.Resource) string {
	if t, ok := asTable(res); ok {
		return t.Name().String()
	}
	return ""
}

func newTableOf(res resource.Resource) string {
	if t, ok := asTable(res); ok && t.NewTable != nil {
		return t.NewTable.String()
	}
	return ""
}

func columnsOf(res resource.Resource) string {
	t, _ := asTable(res)
	return "[" + strings.Join(t.Columns, ", ") + "]"
}

func principalOf(res resource.Resource) string {
	switch v := res.(type) {
	case resource.Schema:
		if v.Principal != nil {
			return v.Principal.String()
		}
	default:
		if t, ok := asTable(res); ok && t.Principal != nil {
			return t.Principal.String()
		}
	}
	return ""
}

func roleOf(res resource.Resource) string {
	r, ok := res.(resource.Role)
	if !ok {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return "[" + strings.Join(r.Names, ", ") + "]"
}

func granteesOf(res resource.Resource) string {
	r, _ := res.(resource.Role)
	names := make([]string, 0, len(r.Grantees))
	for _, g := range r.Grantees {
		names = append(names, g.String())
	}
	sort.Strings(names)
	return "[" + strings.Join(names, ", ") + "]"
}
