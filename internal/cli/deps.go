package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/TwigBush/opa-authz/internal/config"
	"github.com/TwigBush/opa-authz/internal/di"
	"github.com/TwigBush/opa-authz/internal/enforce"
	"github.com/TwigBush/opa-authz/internal/metrics"
)

func loadConfig() (*config.Config, error) {
	overrides := map[string]any{}
	if policyURI != "" {
		overrides["policy_uri"] = policyURI
	}
	if backend != "" {
		overrides["backend"] = backend
	}
	if profile != "" {
		overrides["profile"] = profile
	}
	return config.Load(cfgPath, overrides)
}

// dispatcher builds the dispatcher described by the loaded config. Logs go to
// logw. m may be nil.
func dispatcher(cfg *config.Config, logw io.Writer, m *metrics.Decisions) (*enforce.Dispatcher, *slog.Logger, error) {
	log := cfg.Logger(logw)
	dec, err := di.ProvideDecider(cfg, log, m)
	if err != nil {
		return nil, nil, err
	}
	d, err := di.ProvideDispatcher(cfg, dec, log, m)
	if err != nil {
		return nil, nil, err
	}
	return d, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkOutput() error {
	switch output {
	case "text", "json":
		return nil
	}
	return fmt.Errorf("unknown output %q (want text or json)", output)
}
