package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_FileAndDefaults(t *testing.T) {
	p := writeConfig(t, `
policy_uri: http://opa:8181/v1/data/trino/allow
mode: per-policy
breaker:
  max_failures: 3
`)
	c, err := Load(p, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://opa:8181/v1/data/trino/allow", c.PolicyURI)
	assert.Equal(t, "per-policy", c.Mode)
	assert.Equal(t, "fallback", c.Profile)
	assert.Equal(t, "opa", c.Backend)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 2, c.Retries)
	assert.Equal(t, 16, c.Concurrency)
	assert.False(t, c.StrictResult)
	assert.EqualValues(t, 3, c.Breaker.MaxFailures)
	assert.Equal(t, 30*time.Second, c.Breaker.OpenTimeout)
	assert.Equal(t, ":8190", c.ListenAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPA_AUTHZ_POLICY_URI", "https://opa.internal/v1/data/trino")
	t.Setenv("OPA_AUTHZ_PROFILE", "deny")
	t.Setenv("OPA_AUTHZ_TIMEOUT", "750ms")
	t.Setenv("OPA_AUTHZ_STRICT_RESULT", "true")
	t.Setenv("OPA_AUTHZ_BREAKER_OPEN_TIMEOUT", "1m")

	c, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://opa.internal/v1/data/trino", c.PolicyURI)
	assert.Equal(t, "deny", c.Profile)
	assert.Equal(t, 750*time.Millisecond, c.Timeout)
	assert.True(t, c.StrictResult)
	assert.Equal(t, time.Minute, c.Breaker.OpenTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OPA_AUTHZ_POLICY_URI", "http://from-env:8181/v1/data/trino/allow")
	c, err := Load("", map[string]any{
		"policy_uri":           "http://from-flag:8181/v1/data/trino/allow",
		"breaker.max_failures": 9,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://from-flag:8181/v1/data/trino/allow", c.PolicyURI)
	assert.EqualValues(t, 9, c.Breaker.MaxFailures)
}

func TestLoad_MissingURI(t *testing.T) {
	_, err := Load("", nil)
	assert.ErrorIs(t, err, ErrURIRequired)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestParseURI(t *testing.T) {
	u, err := ParseURI("http://localhost:8181/v1/data/trino/allow")
	require.NoError(t, err)
	assert.Equal(t, "/v1/data/trino/allow", u.Path)

	for _, raw := range []string{"://bad", "ftp://opa/allow", "/v1/data/trino", "http://"} {
		_, err := ParseURI(raw)
		var invalid *URIInvalidError
		require.True(t, errors.As(err, &invalid), raw)
		assert.Equal(t, raw, invalid.URI)
		assert.ErrorIs(t, err, ErrURIInvalid, raw)
	}

	_, err = ParseURI("  ")
	assert.ErrorIs(t, err, ErrURIRequired)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			PolicyURI:   "http://opa:8181/v1/data/trino/allow",
			Mode:        "single",
			Profile:     "fallback",
			Backend:     "opa",
			Timeout:     time.Second,
			Concurrency: 4,
		}
	}
	c := base()
	require.NoError(t, c.Validate())

	c = base()
	c.Backend, c.PolicyURI = "mock", ""
	assert.NoError(t, c.Validate())

	c = base()
	c.Backend = "fga"
	assert.Error(t, c.Validate())
	c.FGA = FGA{APIURL: "http://fga:8080", StoreID: "01H"}
	assert.NoError(t, c.Validate())

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Mode = "both" },
		func(c *Config) { c.Profile = "lenient" },
		func(c *Config) { c.Backend = "ldap" },
		func(c *Config) { c.Timeout = 0 },
		func(c *Config) { c.Retries = -1 },
		func(c *Config) { c.Concurrency = 0 },
		func(c *Config) { c.LogLevel = "loud" },
	} {
		c := base()
		mutate(&c)
		assert.Error(t, c.Validate())
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	c := Config{LogLevel: "warn", LogJSON: true}
	l := c.Logger(&buf)
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}
