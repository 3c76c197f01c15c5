package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Pipeline.DataDir == "" {
		cfg.Pipeline.DataDir = "data"
	}
	if cfg.Pipeline.CSVFile == "" {
		cfg.Pipeline.CSVFile = "apod_data.csv"
	}
	if cfg.Pipeline.RunInterval == 0 {
		cfg.Pipeline.RunInterval = 24 * time.Hour
	}
	if cfg.NASA.Endpoint == "" {
		cfg.NASA.Endpoint = "https://api.nasa.gov/planetary/apod"
	}
	if cfg.NASA.APIKey == "" {
		cfg.NASA.APIKey = "DEMO_KEY"
	}
	if cfg.NASA.Timeout == 0 {
		cfg.NASA.Timeout = 30 * time.Second
	}
	if cfg.NASA.MaxRetries == 0 {
		cfg.NASA.MaxRetries = 5
	}
	if cfg.NASA.BaseBackoff == 0 {
		cfg.NASA.BaseBackoff = 5 * time.Second
	}
	if cfg.NASA.MaxBackoff == 0 {
		cfg.NASA.MaxBackoff = 60 * time.Second
	}
	if cfg.Versioning.Branch == "" {
		cfg.Versioning.Branch = "main"
	}
	if cfg.Versioning.RemoteName == "" {
		cfg.Versioning.RemoteName = "origin"
	}
	if cfg.Versioning.AuthorName == "" {
		cfg.Versioning.AuthorName = "Apodflow Pipeline"
	}
	if cfg.Versioning.AuthorEmail == "" {
		cfg.Versioning.AuthorEmail = "pipeline@apodflow.local"
	}
	if cfg.Versioning.DVCBinary == "" {
		cfg.Versioning.DVCBinary = "dvc"
	}
}
