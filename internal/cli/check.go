package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/enforce"
	"github.com/TwigBush/opa-authz/internal/types"
)

// identityFlags describe the caller of a check or filter.
type identityFlags struct {
	user   string
	groups []string
	roles  []string
}

func (f *identityFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.user, "user", "", "calling user (required)")
	cmd.Flags().StringSliceVar(&f.groups, "group", nil, "groups of the calling user")
	cmd.Flags().StringSliceVar(&f.roles, "enabled-role", nil, "roles enabled in the session")
	_ = cmd.MarkFlagRequired("user")
}

func (f *identityFlags) context() types.SecurityContext {
	sc := types.ContextFor(f.user, f.groups...)
	sc.Identity.EnabledRoles = f.roles
	return sc
}

// argFlags fill enforce.Args. --args is applied first and the named flags
// override it.
type argFlags struct {
	raw       string
	catalog   string
	schema    string
	table     string
	columns   []string
	newName   string
	target    string
	privilege string
	function  string
	procedure string
}

func (f *argFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.raw, "args", "", `check arguments as JSON, e.g. '{"grantee":{"type":"USER","name":"carol"}}'`)
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "catalog name")
	cmd.Flags().StringVar(&f.schema, "schema", "", "schema name")
	cmd.Flags().StringVar(&f.table, "table", "", "table or view name")
	cmd.Flags().StringSliceVar(&f.columns, "column", nil, "column names")
	cmd.Flags().StringVar(&f.newName, "new-name", "", "new schema or column name")
	cmd.Flags().StringVar(&f.target, "target-user", "", "user being impersonated, viewed or killed")
	cmd.Flags().StringVar(&f.privilege, "privilege", "", "privilege for grant, deny and revoke checks")
	cmd.Flags().StringVar(&f.function, "function", "", "function name")
	cmd.Flags().StringVar(&f.procedure, "procedure", "", "procedure name")
}

func (f *argFlags) args() (enforce.Args, error) {
	var a enforce.Args
	if f.raw != "" {
		if err := json.Unmarshal([]byte(f.raw), &a); err != nil {
			return a, fmt.Errorf("--args: %w", err)
		}
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&a.Catalog, f.catalog)
	set(&a.Schema, f.schema)
	set(&a.Table, f.table)
	set(&a.NewName, f.newName)
	set(&a.User, f.target)
	set(&a.Function, f.function)
	set(&a.Procedure, f.procedure)
	if f.privilege != "" {
		a.Privilege = types.Privilege(strings.ToUpper(f.privilege))
	}
	if f.columns != nil {
		a.Columns = f.columns
	}
	if a.User != "" && a.Owner == nil {
		a.Owner = &types.Identity{User: a.User}
	}
	return a, nil
}

type checkResult struct {
	Operation authz.Operation `json:"operation"`
	Allowed   bool            `json:"allowed"`
	Message   string          `json:"message,omitempty"`
}

func cmdCheck() *cobra.Command {
	var (
		id  identityFlags
		arg argFlags
	)

	cmd := &cobra.Command{
		Use:   "check <operation>",
		Short: "Run one access check against the configured backend",
		Example: `  opa-authz check AccessCatalog --user alice --catalog hive
  opa-authz check SelectFromColumns --user alice --catalog hive --schema web --table clicks --column id,ts
  opa-authz check ImpersonateUser --user alice --target-user bob`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(); err != nil {
				return err
			}
			op := authz.Operation(args[0])
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

			res := checkResult{Operation: op, Allowed: true}
			err = d.Check(cmd.Context(), op, id.context(), a)
			var denied *enforce.AccessDeniedError
			switch {
			case errors.As(err, &denied):
				res.Allowed = false
				res.Message = denied.Message
			case err != nil:
				return err
			}

			w := cmd.OutOrStdout()
			if output == "json" {
				if err := printJSON(w, res); err != nil {
					return err
				}
			} else if res.Allowed {
				fmt.Fprintln(w, "ALLOW")
			} else {
				fmt.Fprintf(w, "DENY: %s\n", res.Message)
			}
			if !res.Allowed {
				return ErrDenied
			}
			return nil
		},
	}

	id.register(cmd)
	arg.register(cmd)
	return cmd
}
