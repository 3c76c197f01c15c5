package config

import (
	"time"

	redisclient "github.com/zainulabidin776/apodflow/internal/infra/redis"
	"github.com/zainulabidin776/apodflow/internal/infra/storage/postgres"
	"github.com/zainulabidin776/apodflow/internal/versioning"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	Pipeline   PipelineConfig     `yaml:"pipeline"`
	NASA       NASAConfig         `yaml:"nasa"`
	Versioning versioning.Config  `yaml:"versioning"`
	Redis      redisclient.Config `yaml:"redis"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// PipelineConfig holds scheduling and data-directory settings.
type PipelineConfig struct {
	DataDir      string        `yaml:"data_dir"` // working tree for CSV, metadata and git
	CSVFile      string        `yaml:"csv_file"` // file name inside data_dir
	RunInterval  time.Duration `yaml:"run_interval"`
	RunOnStartup bool          `yaml:"run_on_startup"`
}

// NASAConfig holds upstream API settings.
type NASAConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}
