// Package config provides configuration loading and management for
// dmriseparate. It handles loading configuration from YAML files and
// provides default values matching the tool's conventional behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Separation parameters
	Separation struct {
		// BValueThreshold is the b-value (s/mm2) below which a frame
		// is classified as b=0 when a bvals file is supplied
		BValueThreshold float64 `yaml:"bvalueThreshold"`

		// Average enables temporal averaging of each separated volume
		Average bool `yaml:"average"`

		// RemoveTempFiles controls cleanup of the staging directory
		RemoveTempFiles bool `yaml:"removeTempFiles"`
	} `yaml:"separation"`

	// Output parameters
	Output struct {
		// Folder is the destination for the separated volumes
		Folder string `yaml:"folder"`

		// Verbose controls the level of progress output
		Verbose bool `yaml:"verbose"`

		// PreviewFrames enables PNG previews of the separated volumes
		PreviewFrames bool `yaml:"previewFrames"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default separation parameters
	cfg.Separation.BValueThreshold = 100
	cfg.Separation.Average = true
	cfg.Separation.RemoveTempFiles = true

	// Set default output parameters
	cfg.Output.Folder = "./"
	cfg.Output.Verbose = true
	cfg.Output.PreviewFrames = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
