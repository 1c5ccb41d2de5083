package web

import (
	"fmt"
	"time"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig  `yaml:"server"`
	CORS     CORSConfig    `yaml:"cors"`
	Cache    CacheConfig   `yaml:"cache"`
	Auth     AuthConfig    `yaml:"auth"`
	Features FeatureConfig `yaml:"features"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int           `yaml:"port"`
	Host         string        `yaml:"host"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// CORSConfig lists the origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CacheConfig bounds the per-snapshot view cache
type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl"`
	Cleanup time.Duration `yaml:"cleanup"`
}

// AuthConfig guards the mutation endpoints; an empty token disables the check
type AuthConfig struct {
	Token string `yaml:"token"`
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	RefreshEnabled        bool `yaml:"refresh_enabled"`
	ManualOverrideEnabled bool `yaml:"manual_override_enabled"`
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
		},
		Cache: CacheConfig{
			TTL:     10 * time.Minute,
			Cleanup: 30 * time.Minute,
		},
		Features: FeatureConfig{
			RefreshEnabled:        true,
			ManualOverrideEnabled: false,
		},
	}
}
