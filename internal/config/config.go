// Package config loads the labd configuration file: the server address and
// the ordered set of devices the daemon owns.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file labd looks for when no explicit
// path is given.
const DefaultPath = "labd.yml"

// DefaultAddress is the request/reply socket address shared by server and
// client.
const DefaultAddress = "127.0.0.1:14337"

// DefaultResultsPath is where sequence measurements land when the
// configuration does not name a database.
const DefaultResultsPath = "labd-results.db"

// Config is the root of the labd configuration file.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Results ResultsConfig  `yaml:"results"`
	Devices []DeviceConfig `yaml:"devices"`
}

// ServerConfig holds the request/reply socket settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// ResultsConfig points at the sqlite database sequence runs record into.
type ResultsConfig struct {
	Path string `yaml:"path"`
}

// DeviceConfig declares one device: its name, kind, driver identifier, and
// the driver-specific argument map validated against the driver's schema at
// device creation.
type DeviceConfig struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Driver string         `yaml:"driver"`
	Args   map[string]any `yaml:"args"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", cleanPath, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Parse decodes configuration bytes strictly: unknown fields are rejected
// rather than dropped.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = DefaultAddress
	}
	if cfg.Results.Path == "" {
		cfg.Results.Path = DefaultResultsPath
	}

	seen := make(map[string]bool, len(cfg.Devices))
	for i, dev := range cfg.Devices {
		if dev.Name == "" {
			return nil, fmt.Errorf("device %d: name is required", i)
		}
		if dev.Driver == "" {
			return nil, fmt.Errorf("device %q: driver is required", dev.Name)
		}
		if seen[dev.Name] {
			return nil, fmt.Errorf("device %q declared twice", dev.Name)
		}
		seen[dev.Name] = true
	}

	return cfg, nil
}

// Device returns the configuration entry for name, if present.
func (c *Config) Device(name string) (DeviceConfig, bool) {
	for _, dev := range c.Devices {
		if dev.Name == name {
			return dev, true
		}
	}
	return DeviceConfig{}, false
}
