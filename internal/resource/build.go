package resource

import (
	"maps"
	"sort"

	"github.com/TwigBush/opa-authz/internal/types"
)

func CatalogOf(name string) Catalog { return Catalog{Name: name} }

func (c Catalog) WithProperty(name string) Catalog {
	c.PropertyName = name
	return c
}

// SchemaOf refers to a schema. For catalog level checks such as ShowSchemas
// use SchemasIn, which leaves the schema name unset.
func SchemaOf(n types.CatalogSchemaName) Schema {
	return Schema{Catalog: n.Catalog, Schema: n.Schema}
}

func SchemasIn(catalog string) Schema { return Schema{Catalog: catalog} }

func (s Schema) RenamedTo(newName string) Schema {
	s.NewSchema = newName
	return s
}

func (s Schema) OwnedBy(p types.Principal) Schema {
	s.Principal = &p
	return s
}

func (s Schema) WithProperties(props map[string]any) Schema {
	s.Properties = cloneProps(props)
	return s
}

func TableOf(n types.CatalogSchemaTableName) Table {
	return Table{Catalog: n.Catalog, Schema: n.Schema, Table: n.Table}
}

func (t Table) Name() types.CatalogSchemaTableName {
	return types.TableName(t.Catalog, t.Schema, t.Table)
}

func (t Table) WithColumn(column string) Table {
	t.Column = column
	return t
}

// WithColumns records a column set. An empty non-nil set is sent as [].
func (t Table) WithColumns(columns []string) Table {
	if columns == nil {
		t.Columns = nil
		return t
	}
	t.Columns = types.SortedSet(columns)
	return t
}

func (t Table) WithProperties(props map[string]any) Table {
	t.Properties = cloneProps(props)
	return t
}

func (t Table) RenamedTo(n types.CatalogSchemaTableName) Table {
	t.NewTable = &n
	return t
}

func (t Table) OwnedBy(p types.Principal) Table {
	t.Principal = &p
	return t
}

func ViewOf(n types.CatalogSchemaTableName) View { return View(TableOf(n)) }

func (v View) Name() types.CatalogSchemaTableName { return Table(v).Name() }

func (v View) WithColumns(columns []string) View { return View(Table(v).WithColumns(columns)) }

func (v View) WithProperties(props map[string]any) View {
	return View(Table(v).WithProperties(props))
}

func (v View) RenamedTo(n types.CatalogSchemaTableName) View { return View(Table(v).RenamedTo(n)) }

func (v View) OwnedBy(p types.Principal) View { return View(Table(v).OwnedBy(p)) }

func RoleOf(name string) Role { return Role{Name: name} }

func (r Role) GrantedBy(grantor *types.Principal) Role {
	if grantor != nil {
		g := *grantor
		r.Grantor = &g
	}
	return r
}

// RolesOf describes a grant or revoke of several roles to several grantees.
func RolesOf(names []string, grantees []types.Principal, adminOption bool, grantor *types.Principal) Role {
	r := Role{
		Names:       types.SortedSet(names),
		Grantees:    sortedPrincipals(grantees),
		AdminOption: Bool(adminOption),
	}
	return r.GrantedBy(grantor)
}

func RoutineOf(n types.CatalogSchemaRoutineName) Execution {
	return Execution{Routine: &n}
}

func FunctionOf(name string) Execution { return Execution{FunctionName: name} }

func TableProcedureOf(table types.CatalogSchemaTableName, procedure string) Execution {
	return Execution{Table: &table, Procedure: procedure}
}

func SchemaPrivilege(p types.Privilege, schema types.CatalogSchemaName, grantee types.Principal) Authorization {
	return Authorization{Privilege: p, Schema: &schema, Grantee: grantee}
}

func TablePrivilege(p types.Privilege, table types.CatalogSchemaTableName, grantee types.Principal) Authorization {
	return Authorization{Privilege: p, Table: &table, Grantee: grantee}
}

func FunctionPrivilege(function string, grantee types.Principal) Authorization {
	return Authorization{FunctionName: function, Grantee: grantee}
}

func (a Authorization) WithGrantOption(grantOption bool) Authorization {
	a.GrantOption = Bool(grantOption)
	return a
}

// cloneProps copies props, turning nil values (properties being reset) into "".
func cloneProps(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := maps.Clone(props)
	for k, v := range out {
		if v == nil {
			out[k] = ""
		}
	}
	return out
}

func sortedPrincipals(ps []types.Principal) []types.Principal {
	if ps == nil {
		return nil
	}
	out := make([]types.Principal, 0, len(ps))
	seen := make(map[types.Principal]struct{}, len(ps))
	for _, p := range ps {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out
}
