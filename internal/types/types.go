package types

import (
	"fmt"
	"sort"
)

type PrincipalType string

const (
	PrincipalUser PrincipalType = "USER"
	PrincipalRole PrincipalType = "ROLE"
)

// Principal is a user or role referenced by grant, revoke and ownership checks.
type Principal struct {
	Type PrincipalType `json:"type"`
	Name string        `json:"name"`
}

func (p Principal) String() string {
	return fmt.Sprintf("%s %s", p.Type, p.Name)
}

// Identity is the caller as seen by the query engine.
type Identity struct {
	User      string     `json:"user"`
	Groups    []string   `json:"groups,omitempty"`
	Principal *Principal `json:"principal,omitempty"`
	// EnabledRoles are the roles active in the session.
	EnabledRoles []string `json:"enabledRoles,omitempty"`
}

// SecurityContext is the per-call context the engine hands to every check.
// It is read, never mutated.
type SecurityContext struct {
	Identity Identity `json:"identity"`
	// OriginalIdentity is set when the session runs as an impersonated user.
	OriginalIdentity *Identity `json:"originalIdentity,omitempty"`
	QueryID          string    `json:"queryId,omitempty"`
}

func ContextFor(user string, groups ...string) SecurityContext {
	return SecurityContext{Identity: Identity{User: user, Groups: groups}}
}

type CatalogSchemaName struct {
	Catalog string `json:"catalogName"`
	Schema  string `json:"schemaName"`
}

func (n CatalogSchemaName) String() string { return n.Catalog + "." + n.Schema }

type SchemaTableName struct {
	Schema string `json:"schemaName"`
	Table  string `json:"tableName"`
}

func (n SchemaTableName) String() string { return n.Schema + "." + n.Table }

type CatalogSchemaTableName struct {
	Catalog string `json:"catalogName"`
	Schema  string `json:"schemaName"`
	Table   string `json:"tableName"`
}

func TableName(catalog, schema, table string) CatalogSchemaTableName {
	return CatalogSchemaTableName{Catalog: catalog, Schema: schema, Table: table}
}

func (n CatalogSchemaTableName) SchemaName() CatalogSchemaName {
	return CatalogSchemaName{Catalog: n.Catalog, Schema: n.Schema}
}

func (n CatalogSchemaTableName) String() string {
	return n.Catalog + "." + n.Schema + "." + n.Table
}

type CatalogSchemaRoutineName struct {
	Catalog string `json:"catalogName"`
	Schema  string `json:"schemaName"`
	Routine string `json:"routineName"`
}

func (n CatalogSchemaRoutineName) String() string {
	return n.Catalog + "." + n.Schema + "." + n.Routine
}

type Privilege string

const (
	PrivilegeCreate Privilege = "CREATE"
	PrivilegeSelect Privilege = "SELECT"
	PrivilegeDelete Privilege = "DELETE"
	PrivilegeInsert Privilege = "INSERT"
	PrivilegeUpdate Privilege = "UPDATE"
)

func (p Privilege) Valid() bool {
	switch p {
	case PrivilegeCreate, PrivilegeSelect, PrivilegeDelete, PrivilegeInsert, PrivilegeUpdate:
		return true
	}
	return false
}

// SortedSet returns a sorted copy of s without duplicates.
func SortedSet(s []string) []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
