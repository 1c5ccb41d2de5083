package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nfhs-dash/internal/etl"
	"github.com/nfhs-dash/internal/logging"
	"github.com/nfhs-dash/internal/match"
	"github.com/nfhs-dash/internal/overrides"
	"github.com/nfhs-dash/internal/views"
	"github.com/nfhs-dash/internal/web"
)

// Config is the dashboard configuration file
type Config struct {
	Matching  match.Config   `yaml:"matching"`
	Views     views.Config   `yaml:"views"`
	Columns   views.Columns  `yaml:"columns"`
	Sources   etl.Sources    `yaml:"sources"`
	Overrides string         `yaml:"overrides"` // path to a YAML override table; empty uses the built-in table
	Store     StoreConfig    `yaml:"store"`
	Web       web.Config     `yaml:"web"`
	Logging   logging.Config `yaml:"logging"`
	Debug     bool           `yaml:"debug"`
}

// StoreConfig selects the audit database; an empty driver disables it
type StoreConfig struct {
	Driver string `yaml:"driver"` // postgres, sqlite
	DSN    string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Matching: match.DefaultConfig(),
		Views:    views.DefaultConfig(),
		Columns:  views.DistrictColumns(),
		Sources:  etl.DefaultSources(),
		Web:      web.DefaultConfig(),
		Logging:  logging.DefaultConfig(),
	}
}

// Load reads a YAML configuration file over the defaults and applies NFHS_*
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
			cfg.resolvePaths(filepath.Dir(path))
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	c.Matching.Scorer = GetEnv("NFHS_SCORER", c.Matching.Scorer)
	c.Matching.Cutoff = GetEnvFloat("NFHS_CUTOFF", c.Matching.Cutoff)

	c.Sources.Districts = GetEnv("NFHS_DISTRICTS", c.Sources.Districts)
	c.Sources.Boundaries = GetEnv("NFHS_BOUNDARIES", c.Sources.Boundaries)
	c.Sources.Trend = GetEnv("NFHS_TREND", c.Sources.Trend)
	c.Sources.Factsheet = GetEnv("NFHS_FACTSHEET", c.Sources.Factsheet)
	c.Sources.Equity = GetEnv("NFHS_EQUITY", c.Sources.Equity)
	c.Overrides = GetEnv("NFHS_OVERRIDES", c.Overrides)

	c.Store.Driver = GetEnv("NFHS_STORE_DRIVER", c.Store.Driver)
	c.Store.DSN = GetEnv("NFHS_STORE_DSN", c.Store.DSN)

	c.Web.Server.Host = GetEnv("NFHS_HOST", c.Web.Server.Host)
	c.Web.Server.Port = GetEnvInt("NFHS_PORT", c.Web.Server.Port)
	c.Web.Cache.TTL = GetEnvDuration("NFHS_CACHE_TTL", c.Web.Cache.TTL)
	c.Web.Auth.Token = GetEnv("NFHS_API_TOKEN", c.Web.Auth.Token)
	c.Web.Features.ManualOverrideEnabled = GetEnvBool("NFHS_MANUAL_OVERRIDES", c.Web.Features.ManualOverrideEnabled)
	if origins := GetEnv("NFHS_CORS_ORIGINS", ""); origins != "" {
		c.Web.CORS.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Logging.Level = GetEnv("NFHS_LOG_LEVEL", c.Logging.Level)
	c.Debug = GetEnvBool("NFHS_DEBUG", c.Debug)
}

// resolvePaths makes relative source paths relative to the config file
func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{
		&c.Sources.Districts, &c.Sources.Boundaries, &c.Sources.Trend,
		&c.Sources.Factsheet, &c.Sources.Equity, &c.Overrides,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Validate checks values that would make every build fail
func (c *Config) Validate() error {
	if c.Matching.Cutoff < 0 || c.Matching.Cutoff > 1 {
		return fmt.Errorf("matching cutoff %v is outside [0, 1]", c.Matching.Cutoff)
	}
	if _, err := match.ScorerFor(c.Matching.Scorer); err != nil {
		return err
	}
	if len(c.Views.Rounds) == 0 {
		return fmt.Errorf("at least one survey round must be configured")
	}
	if c.Sources.EquityHeaderRow < 0 {
		return fmt.Errorf("equity header row %d must not be negative", c.Sources.EquityHeaderRow)
	}
	switch c.Store.Driver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

// LoadOverrides returns the configured override table, or the built-in one
func (c *Config) LoadOverrides() (*overrides.Table, error) {
	if c.Overrides == "" {
		return overrides.Default(), nil
	}
	return overrides.Load(c.Overrides)
}

// PipelineOptions returns the etl options for this configuration
func (c *Config) PipelineOptions() etl.Options {
	return etl.Options{
		Matching: c.Matching,
		Views:    c.Views,
		Columns:  c.Columns,
		Debug:    c.Debug,
	}
}
