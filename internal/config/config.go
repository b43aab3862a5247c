// Package config defines the runtime configuration for the pipeline
// binaries. Values come from an optional YAML file plus environment
// variables; environment always wins for fields that support both, and
// secrets (the warehouse DSN) are env-only.
package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the pipeline and intake binaries.
type Config struct {
	// Environment tags every enriched record and log line: dev, staging, prod.
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"dev"`

	// LogMode selects the logger config: "dev" or "prod".
	LogMode string `yaml:"log_mode" env:"LOG_MODE" env-default:"dev"`

	// Source is the provenance tag stamped on ingested records.
	Source string `yaml:"source" env:"INGEST_SOURCE" env-default:"intake_api"`

	Store     StoreConfig     `yaml:"store"`
	Intake    IntakeConfig    `yaml:"intake"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StoreConfig selects the object-store backend and the three layer buckets.
type StoreConfig struct {
	// Kind selects the blobstore backend: "fs" or "gcs".
	Kind string `yaml:"kind" env:"STORE_KIND" env-default:"fs"`

	// Root is the base directory for the fs backend; ignored by gcs.
	Root string `yaml:"root" env:"STORE_ROOT" env-default:"./data"`

	BronzeBucket string `yaml:"bronze_bucket" env:"BRONZE_BUCKET" env-default:"ecommerce-analytics-dev-bronze"`
	SilverBucket string `yaml:"silver_bucket" env:"SILVER_BUCKET" env-default:"ecommerce-analytics-dev-silver"`
	GoldBucket   string `yaml:"gold_bucket" env:"GOLD_BUCKET" env-default:"ecommerce-analytics-dev-gold"`
}

// IntakeConfig configures the HTTP intake service.
type IntakeConfig struct {
	Addr string `yaml:"addr" env:"INTAKE_ADDR" env-default:":8080"`
}

// WarehouseConfig configures the optional gold-layer publish target.
type WarehouseConfig struct {
	// DSN is the Postgres connection string. Secret: env only.
	DSN string `yaml:"-" env:"WAREHOUSE_DSN"`
}

// MetricsConfig selects the metrics backend for batch invocations.
type MetricsConfig struct {
	// Backend: "pushgateway" or "none".
	Backend        string `yaml:"backend" env:"METRICS_BACKEND" env-default:"none"`
	PushgatewayURL string `yaml:"pushgateway_url" env:"PUSHGATEWAY_URL" env-default:"http://localhost:9091"`
}

// Load reads configuration from the YAML file at path (when non-empty) and
// then from the environment.
func Load(path string) (Config, error) {
	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	return cfg, err
}
