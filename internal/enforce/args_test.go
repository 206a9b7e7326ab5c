package enforce

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/resource"
	"github.com/TwigBush/opa-authz/internal/types"
)

func TestChecks_CoverEveryOperation(t *testing.T) {
	for _, op := range authz.Operations() {
		_, ok := checks[op]
		assert.Equal(t, !op.IsFilter(), ok, op)
	}
}

func fullArgs() Args {
	p := types.Principal{Type: types.PrincipalUser, Name: "carol"}
	return Args{
		User:      "alice",
		Owner:     &types.Identity{User: "alice"},
		Property:  "query_max_memory",
		Catalog:   "hive",
		Schema:    "web",
		Table:     "clicks",
		NewName:   "web2",
		NewTable:  &types.CatalogSchemaTableName{Catalog: "hive", Schema: "web", Table: "clicks2"},
		Principal: &p,
		Columns:   []string{"id"},
		Privilege: types.PrivilegeSelect,
		Grantee:   &p,
		Grantees:  []types.Principal{p},
		Role:      "analysts",
		Roles:     []string{"analysts"},
		Function:  "lower",
		Procedure: "optimize",
	}
}

func TestCheck_RunsEveryOperationByName(t *testing.T) {
	for op := range checks {
		c := &capture{}
		d := New(c, WithLogger(quiet))
		require.NoError(t, d.Check(context.Background(), op, types.ContextFor("bob"), fullArgs()), op)
		assert.Equal(t, op, c.last(t).Action.Operation)
	}
}

func TestCheck_Errors(t *testing.T) {
	d := New(&authz.Mock{AlwaysAllow: true}, WithLogger(quiet))
	ctx := context.Background()
	sc := types.ContextFor("bob")

	err := d.Check(ctx, "DropEverything", sc, Args{})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	err = d.Check(ctx, authz.OpFilterCatalogs, sc, Args{})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	err = d.Check(ctx, authz.OpDropTable, sc, Args{Catalog: "hive", Schema: "web"})
	assert.ErrorIs(t, err, ErrInvalidArgs)
	assert.Contains(t, err.Error(), "table")

	err = d.Check(ctx, authz.OpGrantSchemaPrivilege, sc, Args{Catalog: "hive", Schema: "web", Privilege: "OWN"})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestFilter_DecodesCandidatesPerOperation(t *testing.T) {
	m := &authz.Mock{Allow: func(r authz.Request) bool {
		switch v := r.Action.Resource.(type) {
		case resource.Table:
			return v.Table != "secret" && v.Column != "ssn"
		case resource.Query:
			return v.Owner.User != "root"
		}
		return true
	}}
	d := New(m, WithLogger(quiet))
	ctx := context.Background()
	sc := types.ContextFor("bob")

	got, err := d.Filter(ctx, authz.OpFilterTables, sc, Args{Catalog: "hive"},
		json.RawMessage(`[{"schemaName":"web","tableName":"clicks"},{"schemaName":"web","tableName":"secret"}]`))
	require.NoError(t, err)
	assert.Equal(t, []types.SchemaTableName{{Schema: "web", Table: "clicks"}}, got)

	got, err = d.Filter(ctx, authz.OpFilterColumns, sc, Args{Catalog: "hive", Schema: "hr", Table: "people"},
		json.RawMessage(`["name","ssn"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, got)

	got, err = d.Filter(ctx, authz.OpFilterViewQueryOwnedBy, sc, Args{},
		json.RawMessage(`[{"user":"root"},{"user":"alice"}]`))
	require.NoError(t, err)
	assert.Equal(t, []types.Identity{{User: "alice"}}, got)

	got, err = d.Filter(ctx, authz.OpFilterCatalogs, sc, Args{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got)

	_, err = d.Filter(ctx, authz.OpFilterSchemas, sc, Args{}, json.RawMessage(`["web"]`))
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = d.Filter(ctx, authz.OpFilterCatalogs, sc, Args{}, json.RawMessage(`{"not":"a list"}`))
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = d.Filter(ctx, authz.OpAccessCatalog, sc, Args{}, nil)
	assert.ErrorIs(t, err, ErrUnknownOperation)
}
