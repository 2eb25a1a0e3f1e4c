package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for modelsmith.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (the warehouse password) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Warehouse connection (schema discovery and sample values)
	Warehouse WarehouseConfig `yaml:"warehouse"`

	// Stage is where published model artifacts land
	Stage StageConfig `yaml:"stage"`

	// Inference tuning
	Inference InferenceConfig `yaml:"inference"`
}

// WarehouseConfig holds warehouse connection configuration.
// Kind selects the adapter; the remaining fields are shared across engines.
type WarehouseConfig struct {
	Kind     string `yaml:"kind" env:"WAREHOUSE_KIND" env-default:"postgres"`
	Host     string `yaml:"host" env:"WAREHOUSE_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"WAREHOUSE_PORT" env-default:"0"` // 0 means the engine default
	User     string `yaml:"user" env:"WAREHOUSE_USER" env-default:"modelsmith"`
	Password string `yaml:"-" env:"WAREHOUSE_PASSWORD"` // Secret - not in YAML
	Database string `yaml:"database" env:"WAREHOUSE_DATABASE" env-default:"modelsmith"`
	SSLMode  string `yaml:"ssl_mode" env:"WAREHOUSE_SSLMODE" env-default:"require"`
}

// StageConfig identifies the stage artifacts are published to and how to
// reach it. The stage store is PostgreSQL-backed regardless of the
// warehouse kind, so it carries its own connection fields; when Host is
// empty and the warehouse is postgres, the warehouse connection is
// reused.
type StageConfig struct {
	Database string `yaml:"database" env:"STAGE_DATABASE" env-default:"modelsmith"`
	Schema   string `yaml:"schema" env:"STAGE_SCHEMA" env-default:"public"`
	Name     string `yaml:"name" env:"STAGE_NAME" env-default:"semantic_models"`

	Host     string `yaml:"host" env:"STAGE_HOST" env-default:""`
	Port     int    `yaml:"port" env:"STAGE_PORT" env-default:"0"`
	User     string `yaml:"user" env:"STAGE_USER" env-default:""`
	Password string `yaml:"-" env:"STAGE_PASSWORD"` // Secret - not in YAML
	SSLMode  string `yaml:"ssl_mode" env:"STAGE_SSLMODE" env-default:""`
}

// InferenceConfig holds column inference settings.
type InferenceConfig struct {
	// SampleValueLimit is how many distinct values are sampled per
	// categorical dimension during inference.
	SampleValueLimit int `yaml:"sample_value_limit" env:"INFERENCE_SAMPLE_VALUE_LIMIT" env-default:"10"`
}

// supportedWarehouseKinds are the adapters this build ships with.
var supportedWarehouseKinds = []string{"postgres", "mssql"}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Environment variables override YAML values. The warehouse password must come
// from WAREHOUSE_PASSWORD (yaml:"-" field).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	kind := strings.ToLower(strings.TrimSpace(c.Warehouse.Kind))
	supported := false
	for _, k := range supportedWarehouseKinds {
		if kind == k {
			c.Warehouse.Kind = kind
			supported = true
			break
		}
	}
	if !supported {
		return fmt.Errorf("unsupported warehouse kind %q (supported: %s)",
			c.Warehouse.Kind, strings.Join(supportedWarehouseKinds, ", "))
	}

	// The stage store speaks the postgres protocol. A non-postgres
	// warehouse connection cannot back it.
	if c.Stage.Host == "" && c.Warehouse.Kind != "postgres" {
		return fmt.Errorf("stage.host is required when warehouse kind is %q", c.Warehouse.Kind)
	}

	return nil
}

// StageConnection resolves the stage connection fields, falling back to
// the warehouse connection when no stage host is configured.
func (c *Config) StageConnection() StageConfig {
	stage := c.Stage
	if stage.Host == "" {
		stage.Host = c.Warehouse.Host
		stage.Port = c.Warehouse.Port
		stage.User = c.Warehouse.User
		stage.Password = c.Warehouse.Password
		stage.SSLMode = c.Warehouse.SSLMode
	}
	if stage.SSLMode == "" {
		stage.SSLMode = c.Warehouse.SSLMode
	}
	return stage
}

// IsLocal returns true when running in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}
