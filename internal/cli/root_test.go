package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

// resetFlags rebuilds the command tree so globals and flags go back to their
// defaults and tests do not bleed state into each other.
func resetFlags(t *testing.T) {
	t.Helper()

	rootCmd = newRootCmd()
	rootCmd.SetArgs([]string{})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
}

func TestRootDefaultsAndFlags(t *testing.T) {
	resetFlags(t)

	if got, want := rootCmd.Use, "opa-authz"; got != want {
		t.Fatalf("Use = %q, want %q", got, want)
	}
	if !rootCmd.SilenceUsage {
		t.Fatalf("SilenceUsage = false, want true")
	}
	if !rootCmd.SilenceErrors {
		t.Fatalf("SilenceErrors = false, want true")
	}
	if output != "text" {
		t.Fatalf("output default = %q, want %q", output, "text")
	}
	if cfgPath != "" || policyURI != "" || backend != "" || profile != "" {
		t.Fatalf("overrides not empty: config=%q policy-uri=%q backend=%q profile=%q", cfgPath, policyURI, backend, profile)
	}

	for _, name := range []string{"serve", "check", "filter", "version"} {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Fatalf("subcommand %q not registered (err=%v)", name, err)
		}
	}
}

func TestHelpCommandRuns(t *testing.T) {
	resetFlags(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"help"})

	if err := Execute(); err != nil {
		t.Fatalf("help Execute() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "opa-authz") || !strings.Contains(out, "Usage:") {
		t.Fatalf("help output did not contain expected text; got:\n%s", out)
	}
}

func TestExecuteNoArgsPrintsHint(t *testing.T) {
	resetFlags(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	if err := Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Use -h for help") {
		t.Fatalf("expected hint to be printed, got:\n%s", buf.String())
	}
}

func TestFlagOverridesAreApplied(t *testing.T) {
	resetFlags(t)

	rootCmd.SetArgs([]string{
		"--output", "json",
		"--policy-uri", "http://opa:8181/v1/data/trino/allow",
		"--backend", "mock",
		"--profile", "deny",
	})
	if err := Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if output != "json" {
		t.Fatalf("output = %q, want %q", output, "json")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.PolicyURI != "http://opa:8181/v1/data/trino/allow" {
		t.Fatalf("PolicyURI = %q", cfg.PolicyURI)
	}
	if cfg.Backend != "mock" || cfg.Profile != "deny" {
		t.Fatalf("Backend = %q, Profile = %q, want mock, deny", cfg.Backend, cfg.Profile)
	}
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	if err := Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "opa-authz ") {
		t.Fatalf("version output = %q", buf.String())
	}
}
