// Package groupsvc is a reference implementation of the SafeTravel group
// endpoints. It lets the monitoring loop run end to end against a local
// backend.
package groupsvc

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigEnv names the variable holding an optional YAML config path
const ConfigEnv = "GROUPD_CONFIG"

// DefaultSafeDistanceKm is how far a member may be from the group centre
const DefaultSafeDistanceKm = 0.2

// Config holds the groupd server settings
type Config struct {
	Addr            string        `koanf:"addr"`
	DBPath          string        `koanf:"db_path"`
	SafeDistanceKm  float64       `koanf:"safe_distance_km"`
	LogLevel        string        `koanf:"log_level"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":9090",
		DBPath:          "groupd.db",
		SafeDistanceKm:  DefaultSafeDistanceKm,
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
	}
}

// LoadConfig builds a Config by layering, low to high:
//  1. defaults
//  2. the YAML file at path, or at $GROUPD_CONFIG when path is empty
//  3. env (prefix GROUPD_)
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// GROUPD_SAFE_DISTANCE_KM -> safe_distance_km
	envProvider := env.Provider("GROUPD_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "groupd_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.SafeDistanceKm <= 0 {
		return errors.New("safe_distance_km must be positive")
	}
	return nil
}
