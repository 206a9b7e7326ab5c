package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/types"
)

var filterKinds = map[string]authz.Operation{
	"catalogs": authz.OpFilterCatalogs,
	"schemas":  authz.OpFilterSchemas,
	"tables":   authz.OpFilterTables,
	"columns":  authz.OpFilterColumns,
	"queries":  authz.OpFilterViewQueryOwnedBy,
}

// filterCandidates encodes names the way Dispatcher.Filter expects them for
// op: schema.table pairs for tables, owner identities for queries.
func filterCandidates(op authz.Operation, names []string) (json.RawMessage, error) {
	var v any = names
	switch op {
	case authz.OpFilterTables:
		tables := make([]types.SchemaTableName, 0, len(names))
		for _, n := range names {
			schema, table, ok := strings.Cut(n, ".")
			if !ok || schema == "" || table == "" {
				return nil, fmt.Errorf("table %q: want schema.table", n)
			}
			tables = append(tables, types.SchemaTableName{Schema: schema, Table: table})
		}
		v = tables
	case authz.OpFilterViewQueryOwnedBy:
		owners := make([]types.Identity, 0, len(names))
		for _, n := range names {
			owners = append(owners, types.Identity{User: n})
		}
		v = owners
	}
	if names == nil {
		v = []string{}
	}
	return json.Marshal(v)
}

func cmdFilter() *cobra.Command {
	var (
		id  identityFlags
		arg argFlags
	)

	cmd := &cobra.Command{
		Use:   "filter <catalogs|schemas|tables|columns|queries> [candidate...]",
		Short: "Keep only the candidates the caller may see",
		Example: `  opa-authz filter catalogs --user alice hive iceberg system
  opa-authz filter tables --user alice --catalog hive web.clicks web.secret
  opa-authz filter columns --user alice --catalog hive --schema hr --table people name ssn`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(); err != nil {
				return err
			}
			op, ok := filterKinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown filter %q", args[0])
			}
			candidates, err := filterCandidates(op, args[1:])
			if err != nil {
				return err
			}
			a, err := arg.args()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, _, err := dispatcher(cfg, cmd.ErrOrStderr(), nil)
			if err != nil {
				return err
			}

			kept, err := d.Filter(cmd.Context(), op, id.context(), a, candidates)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output == "json" {
				return printJSON(w, kept)
			}
			switch v := kept.(type) {
			case []string:
				for _, s := range v {
					fmt.Fprintln(w, s)
				}
			case []types.SchemaTableName:
				for _, t := range v {
					fmt.Fprintln(w, t)
				}
			case []types.Identity:
				for _, o := range v {
					fmt.Fprintln(w, o.User)
				}
			}
			return nil
		},
	}

	id.register(cmd)
	arg.register(cmd)
	return cmd
}
