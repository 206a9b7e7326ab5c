// Package resource describes the object an authorization check is about.
//
// A Resource is exactly one of the variant types declared here. Values are
// built with the *Of constructors and the With* methods, which return copies,
// so a Resource never changes after it has been handed to a request.
package resource

import (
	"encoding/json"
	"fmt"

	"github.com/TwigBush/opa-authz/internal/types"
)

// Resource is implemented only by the variants in this package.
type Resource interface {
	key() string
}

type User struct {
	Name string `json:"name"`
}

type Query struct {
	Owner types.Identity `json:"owner"`
}

type SystemSessionProperty struct {
	Property string `json:"property"`
}

type Catalog struct {
	Name         string `json:"name"`
	PropertyName string `json:"propertyName,omitempty"`
}

type Schema struct {
	Catalog    string           `json:"catalogName"`
	Schema     string           `json:"schemaName,omitempty"`
	NewSchema  string           `json:"newSchemaName,omitempty"`
	Principal  *types.Principal `json:"principal,omitempty"`
	Properties map[string]any   `json:"properties,omitzero"`
}

// Table is used for tables and their columns. Nil slices and maps are
// omitted on the wire, empty ones are sent as empty.
type Table struct {
	Catalog    string                        `json:"catalogName"`
	Schema     string                        `json:"schemaName"`
	Table      string                        `json:"tableName"`
	Column     string                        `json:"column,omitempty"`
	Columns    []string                      `json:"columns,omitzero"`
	Properties map[string]any                `json:"properties,omitzero"`
	NewTable   *types.CatalogSchemaTableName `json:"newTable,omitempty"`
	Principal  *types.Principal              `json:"principal,omitempty"`
}

// View has the shape of Table and covers views and materialized views.
type View Table

type Role struct {
	Name        string            `json:"name,omitempty"`
	Names       []string          `json:"names,omitzero"`
	Grantees    []types.Principal `json:"grantees,omitzero"`
	Grantor     *types.Principal  `json:"grantor,omitempty"`
	AdminOption *bool             `json:"adminOption,omitempty"`
}

type Execution struct {
	Routine      *types.CatalogSchemaRoutineName `json:"routine,omitempty"`
	FunctionName string                          `json:"functionName,omitempty"`
	Table        *types.CatalogSchemaTableName   `json:"table,omitempty"`
	Procedure    string                          `json:"procedure,omitempty"`
}

// Authorization describes a privilege grant, deny or revoke on a schema,
// a table or a function.
type Authorization struct {
	Privilege    types.Privilege               `json:"privilege,omitempty"`
	Schema       *types.CatalogSchemaName      `json:"schema,omitempty"`
	Table        *types.CatalogSchemaTableName `json:"table,omitempty"`
	FunctionName string                        `json:"functionName,omitempty"`
	Grantee      types.Principal               `json:"grantee"`
	GrantOption  *bool                         `json:"grantOption,omitempty"`
}

func (User) key() string                  { return "user" }
func (Query) key() string                 { return "query" }
func (SystemSessionProperty) key() string { return "systemSessionProperty" }
func (Catalog) key() string               { return "catalog" }
func (Schema) key() string                { return "schema" }
func (Table) key() string                 { return "table" }
func (View) key() string                  { return "view" }
func (Role) key() string                  { return "role" }
func (Execution) key() string             { return "execution" }
func (Authorization) key() string         { return "authorization" }

// Kind returns the wire key of r, or "" for nil.
func Kind(r Resource) string {
	if r == nil {
		return ""
	}
	return r.key()
}

// Object is the JSON form of a Resource: a single key naming the variant.
type Object struct {
	Resource Resource
}

func (o Object) MarshalJSON() ([]byte, error) {
	var body any
	switch v := o.Resource.(type) {
	case nil:
		return []byte("null"), nil
	case User:
		body = v
	case Query:
		body = v
	case SystemSessionProperty:
		body = v
	case Catalog:
		body = v
	case Schema:
		body = v
	case Table:
		body = v
	case View:
		body = Table(v)
	case Role:
		body = v
	case Execution:
		body = v
	case Authorization:
		body = v
	default:
		return nil, fmt.Errorf("resource: unsupported variant %T", o.Resource)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", o.Resource.key(), err)
	}
	return json.Marshal(map[string]json.RawMessage{o.Resource.key(): b})
}

// Marshal encodes r as {"<kind>": {...}}.
func Marshal(r Resource) ([]byte, error) {
	return json.Marshal(Object{Resource: r})
}

func Bool(b bool) *bool { return &b }
