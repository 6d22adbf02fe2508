/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package config loads and validates the engine's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config holds the full engine configuration.
type Config struct {
	InstanceName string        `yaml:"instance_name"`
	Storage      StorageConfig `yaml:"storage"`
	Timer        TimerConfig   `yaml:"timer"`
	RestAPI      RestAPIConfig `yaml:"rest_api"`
	Logger       LoggerConfig  `yaml:"logger"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type      string `yaml:"type"` // "memory" or "badger"
	Directory string `yaml:"directory"`
}

// TimerConfig configures the durable timer manager.
type TimerConfig struct {
	// CheckInterval is parsed from YAML but not read by the timer manager:
	// recovered timers are rescheduled at their exact remaining time, and
	// the firing loop sleeps until the next due timer.
	CheckInterval string `yaml:"check_interval"`
}

// RestAPIConfig configures the ingestion HTTP surface.
type RestAPIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// LoggerConfig configures the structured logger.
type LoggerConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Directory     string `yaml:"directory"`
	MaxSize       int64  `yaml:"max_size"`
	MaxAge        int    `yaml:"max_age"`
	MaxBackups    int    `yaml:"max_backups"`
	EnableConsole bool   `yaml:"enable_console"`
}

// Default returns a configuration suitable for local development: in-memory
// storage, console-only logging.
func Default() *Config {
	return &Config{
		InstanceName: "cepengine-dev",
		Storage: StorageConfig{
			Type:      "memory",
			Directory: "./data",
		},
		Timer: TimerConfig{
			CheckInterval: "1s",
		},
		RestAPI: RestAPIConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Logger: LoggerConfig{
			Level:         "info",
			Format:        "text",
			Directory:     "./logs",
			MaxSize:       50,
			MaxAge:        14,
			MaxBackups:    5,
			EnableConsole: true,
		},
	}
}

// Load reads and parses a YAML config file, filling unset fields from
// Default.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration invariants that fail fast per spec.md §7
// (InvalidConfiguration).
func Validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "memory", "badger":
	default:
		return fmt.Errorf("storage.type must be \"memory\" or \"badger\", got %q", cfg.Storage.Type)
	}

	if cfg.Storage.Type == "badger" && cfg.Storage.Directory == "" {
		return fmt.Errorf("storage.directory is required for badger storage")
	}

	if cfg.RestAPI.Port <= 0 || cfg.RestAPI.Port > 65535 {
		return fmt.Errorf("rest_api.port must be in (0,65535], got %d", cfg.RestAPI.Port)
	}

	switch cfg.Logger.Format {
	case "json", "text", "":
	default:
		return fmt.Errorf("logger.format must be \"json\" or \"text\", got %q", cfg.Logger.Format)
	}

	return nil
}
