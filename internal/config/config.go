// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config holds the gpurt command's settings, read from YAML.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/gpurt"
	"github.com/gogpu/gpurt/internal/sph"
)

const (
	DefaultBackend  = "vulkan"
	DefaultLogLevel = "warn"
	DefaultWidth    = 800
	DefaultHeight   = 800
	DefaultPoint    = 4.0
)

type Config struct {
	Backend      string        `yaml:"backend"`
	Adapter      string        `yaml:"adapter,omitempty"`
	LogLevel     string        `yaml:"log_level"`
	WaitInterval time.Duration `yaml:"wait_interval"`
	ShaderCache  int           `yaml:"shader_cache,omitempty"`
	SPH          SPHConfig     `yaml:"sph"`
}

type SPHConfig struct {
	Steps      int     `yaml:"steps"`
	PrintEvery int     `yaml:"print_every"`
	Spacing    float64 `yaml:"spacing"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	PointSize  float32 `yaml:"point_size"`
	MaxSpeed   float32 `yaml:"max_speed"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:      DefaultBackend,
		LogLevel:     DefaultLogLevel,
		WaitInterval: gpurt.DefaultWaitInterval,
		SPH: SPHConfig{
			Steps:      sph.DefaultSteps,
			PrintEvery: sph.DefaultPrintEvery,
			Spacing:    sph.Spacing,
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			PointSize:  DefaultPoint,
			MaxSpeed:   2,
		},
	}
}

// Load reads path over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644) //nolint:gosec // G306: config is not secret
}

// Validate checks the backend name, log level and sizes.
func (c *Config) Validate() error {
	if _, err := c.BackendKind(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.ShaderCache < 0 {
		return fmt.Errorf("%w: shader cache size %d", gpurt.ErrInvalidArgument, c.ShaderCache)
	}
	if c.SPH.Spacing <= 0 {
		return fmt.Errorf("%w: sph spacing %v", gpurt.ErrInvalidArgument, c.SPH.Spacing)
	}
	return nil
}

// BackendKind parses Backend.
func (c *Config) BackendKind() (gpurt.Backend, error) {
	switch b := gpurt.Backend(strings.ToLower(strings.TrimSpace(c.Backend))); b {
	case gpurt.BackendVulkan, gpurt.BackendNoop:
		return b, nil
	case "":
		return gpurt.BackendVulkan, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q", gpurt.ErrInvalidArgument, c.Backend)
	}
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", gpurt.ErrInvalidArgument, c.LogLevel)
	}
	return l, nil
}

// DeviceOptions converts the device settings. Call Validate first.
func (c *Config) DeviceOptions() []gpurt.DeviceOption {
	b, _ := c.BackendKind()
	opts := []gpurt.DeviceOption{gpurt.WithBackend(b), gpurt.WithWaitInterval(c.WaitInterval)}
	if c.Adapter != "" {
		opts = append(opts, gpurt.WithAdapter(c.Adapter))
	}
	if c.ShaderCache > 0 {
		opts = append(opts, gpurt.WithShaderCache(c.ShaderCache))
	}
	return opts
}
