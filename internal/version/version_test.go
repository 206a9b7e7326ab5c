package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestLdflagsWin(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	if got := String(); got != "opa-authz v1.2.3" {
		t.Fatalf("String() = %q", got)
	}
	i := Get()
	if i.GoVersion != runtime.Version() {
		t.Fatalf("GoVersion = %q, want %q", i.GoVersion, runtime.Version())
	}
	if !strings.Contains(Verbose(), "v1.2.3 (commit: ") {
		t.Fatalf("Verbose() = %q", Verbose())
	}
}
