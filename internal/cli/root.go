package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	output    string
	cfgPath   string
	policyURI string
	backend   string
	profile   string
)

// ErrDenied is returned by check when the dispatcher denied access. The
// denial has already been printed.
var ErrDenied = errors.New("access denied")

var rootCmd = newRootCmd()

func Execute() error { return rootCmd.Execute() }

// newRootCmd builds the command tree. Building it again resets every flag to
// its default.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "opa-authz",
		Short: "OPA access control for SQL engine checks",
	}

	root.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text|json")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (env OPA_AUTHZ_* applies either way)")
	root.PersistentFlags().StringVar(&policyURI, "policy-uri", "", "OPA decision endpoint, overrides policy_uri")
	root.PersistentFlags().StringVar(&backend, "backend", "", "decision backend: opa|fga|mock, overrides backend")
	root.PersistentFlags().StringVar(&profile, "profile", "", "enforcement profile: fallback|deny, overrides profile")

	root.AddCommand(cmdServe(), cmdCheck(), cmdFilter(), cmdVersion())

	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetHelpCommand(&cobra.Command{
		Use:   "help",
		Short: "Show help",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().Help()
		},
	})
	root.Run = func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "Use -h for help, for example: opa-authz check AccessCatalog --user alice --catalog hive")
	}
	return root
}
