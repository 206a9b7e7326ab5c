package di

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwigBush/opa-authz/internal/authz"
	"github.com/TwigBush/opa-authz/internal/config"
	"github.com/TwigBush/opa-authz/internal/enforce"
	"github.com/TwigBush/opa-authz/internal/metrics"
	"github.com/TwigBush/opa-authz/internal/opa"
	"github.com/TwigBush/opa-authz/internal/types"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestProvideDecider(t *testing.T) {
	cfg := &config.Config{
		Backend:   "opa",
		PolicyURI: "http://opa:8181/v1/data/trino/allow",
		Mode:      "single",
		Timeout:   time.Second,
	}
	d, err := ProvideDecider(cfg, quiet, metrics.New())
	require.NoError(t, err)
	assert.IsType(t, &opa.Client{}, d)

	cfg.Backend = "mock"
	d, err = ProvideDecider(cfg, quiet, nil)
	require.NoError(t, err)
	assert.IsType(t, &authz.Mock{}, d)
	dec, err := d.Decide(context.Background(), authz.NewRequest(types.ContextFor("bob"), authz.NewAction(authz.OpExecuteQuery, nil)))
	require.NoError(t, err)
	assert.Equal(t, authz.NoOpinion, dec, "mock backend must not allow by itself")

	cfg.Backend = "opa"
	cfg.PolicyURI = ""
	_, err = ProvideDecider(cfg, quiet, nil)
	assert.ErrorIs(t, err, config.ErrURIRequired)

	cfg.Backend = "ldap"
	_, err = ProvideDecider(cfg, quiet, nil)
	assert.Error(t, err)
}

func TestMockBackendDefersToProfile(t *testing.T) {
	ctx := context.Background()
	sc := types.ContextFor("bob")
	for _, profile := range []string{"fallback", "deny"} {
		cfg := &config.Config{Backend: "mock", Profile: profile, Concurrency: 2}
		dec, err := ProvideDecider(cfg, quiet, nil)
		require.NoError(t, err)
		d, err := ProvideDispatcher(cfg, dec, quiet, nil)
		require.NoError(t, err)

		var denied *enforce.AccessDeniedError
		assert.True(t, errors.As(d.CheckCanAccessCatalog(ctx, sc, "hive"), &denied), profile)
	}

	cfg := &config.Config{Backend: "mock", Profile: "fallback", Concurrency: 2}
	dec, err := ProvideDecider(cfg, quiet, nil)
	require.NoError(t, err)
	d, err := ProvideDispatcher(cfg, dec, quiet, nil)
	require.NoError(t, err)
	assert.NoError(t, d.CheckCanShowSchemas(ctx, sc, "hive"), "host default still permits ShowSchemas")
}

func TestProvideDispatcher_Profiles(t *testing.T) {
	ctx := context.Background()
	sc := types.ContextFor("bob")
	noOpinion := &authz.Mock{}

	d, err := ProvideDispatcher(&config.Config{Profile: "fallback", Concurrency: 2}, noOpinion, quiet, metrics.New())
	require.NoError(t, err)
	assert.NoError(t, d.CheckCanShowRoles(ctx, sc))

	d, err = ProvideDispatcher(&config.Config{Profile: "deny", Concurrency: 2}, noOpinion, quiet, nil)
	require.NoError(t, err)
	var denied *enforce.AccessDeniedError
	assert.ErrorAs(t, d.CheckCanShowRoles(ctx, sc), &denied)

	_, err = ProvideDispatcher(&config.Config{Profile: "mixed"}, noOpinion, quiet, nil)
	assert.Error(t, err)
}
