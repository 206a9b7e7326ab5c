// Package config loads service settings from a YAML file and OPA_AUTHZ_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrURIRequired = errors.New("policy_uri is required")
	ErrURIInvalid  = errors.New("policy_uri is invalid")
)

// URIInvalidError reports a policy_uri that is not an absolute http(s) URI.
type URIInvalidError struct {
	URI string
	Err error
}

func (e *URIInvalidError) Error() string {
	return fmt.Sprintf("policy_uri %q is invalid: %v", e.URI, e.Err)
}

func (e *URIInvalidError) Unwrap() []error { return []error{ErrURIInvalid, e.Err} }

const EnvPrefix = "OPA_AUTHZ"

type Config struct {
	PolicyURI    string        `yaml:"policy_uri"    mapstructure:"policy_uri"`
	Mode         string        `yaml:"mode"          mapstructure:"mode"`
	Profile      string        `yaml:"profile"       mapstructure:"profile"`
	Backend      string        `yaml:"backend"       mapstructure:"backend"`
	Timeout      time.Duration `yaml:"timeout"       mapstructure:"timeout"`
	Retries      int           `yaml:"retries"       mapstructure:"retries"`
	Concurrency  int           `yaml:"concurrency"   mapstructure:"concurrency"`
	StrictResult bool          `yaml:"strict_result" mapstructure:"strict_result"`
	Breaker      Breaker       `yaml:"breaker"       mapstructure:"breaker"`
	ListenAddr   string        `yaml:"listen_addr"   mapstructure:"listen_addr"`
	LogLevel     string        `yaml:"log_level"     mapstructure:"log_level"`
	LogJSON      bool          `yaml:"log_json"      mapstructure:"log_json"`
	FGA          FGA           `yaml:"fga"           mapstructure:"fga"`
}

type Breaker struct {
	MaxFailures uint32        `yaml:"max_failures" mapstructure:"max_failures"`
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout"`
}

type FGA struct {
	APIURL   string `yaml:"api_url"   mapstructure:"api_url"`
	StoreID  string `yaml:"store_id"  mapstructure:"store_id"`
	ModelID  string `yaml:"model_id"  mapstructure:"model_id"`
	APIToken string `yaml:"api_token" mapstructure:"api_token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("policy_uri", "")
	v.SetDefault("mode", "single")
	v.SetDefault("profile", "fallback")
	v.SetDefault("backend", "opa")
	v.SetDefault("timeout", 5*time.Second)
	v.SetDefault("retries", 2)
	v.SetDefault("concurrency", 16)
	v.SetDefault("strict_result", false)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 30*time.Second)
	v.SetDefault("listen_addr", ":8190")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("fga.api_url", "")
	v.SetDefault("fga.store_id", "")
	v.SetDefault("fga.model_id", "")
	v.SetDefault("fga.api_token", "")
}

// Load reads path when it is non-empty, applies environment overrides, then
// overrides (keyed like the file, e.g. "breaker.max_failures"), and
// validates the result.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// OPA_AUTHZ_POLICY_URI, OPA_AUTHZ_BREAKER_MAX_FAILURES, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for k, val := range overrides {
		v.Set(k, val)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case "opa":
		if _, err := c.ParsedPolicyURI(); err != nil {
			return err
		}
	case "fga":
		if c.FGA.APIURL == "" || c.FGA.StoreID == "" {
			return errors.New("fga backend needs fga.api_url and fga.store_id")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Mode != "single" && c.Mode != "per-policy" {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.Profile != "fallback" && c.Profile != "deny" {
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParsedPolicyURI returns policy_uri as an absolute http(s) URL.
func (c *Config) ParsedPolicyURI() (*url.URL, error) {
	return ParseURI(c.PolicyURI)
}

func ParseURI(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrURIRequired
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &URIInvalidError{URI: raw, Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &URIInvalidError{URI: raw, Err: fmt.Errorf("scheme must be http or https, got %q", u.Scheme)}
	}
	if u.Host == "" {
		return nil, &URIInvalidError{URI: raw, Err: errors.New("missing host")}
	}
	return u, nil
}
