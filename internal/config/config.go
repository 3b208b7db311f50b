// Package config provides configuration management for railviz.
//
// Config file locations (priority order):
//  1. $RAILVIZ_CONFIG
//  2. ./railviz.yaml
//  3. $XDG_CONFIG_HOME/railviz/config.yaml
//  4. ~/.config/railviz/config.yaml
//  5. /etc/railviz/config.yaml
//
// Missing files are not an error; every section has defaults. Relative
// file references in a config file resolve against its directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultAddr          = ":3000"
	DefaultWidth         = 800.0
	DefaultHeight        = 600.0
	DefaultOffset        = 50.0
	DefaultMaxIterations = 300
	DefaultDatabasePath  = ":memory:"
	DefaultWatchSession  = "watch"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	if abs, err := filepath.Abs(path); err == nil {
		cfg.resolvePaths(filepath.Dir(abs))
	}
	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = Duration(60 * time.Second)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if c.Canvas.Width == 0 {
		c.Canvas.Width = DefaultWidth
	}
	if c.Canvas.Height == 0 {
		c.Canvas.Height = DefaultHeight
	}
	if c.Canvas.Offset == 0 {
		c.Canvas.Offset = DefaultOffset
	}

	if c.Layout.MaxIterations == 0 {
		c.Layout.MaxIterations = DefaultMaxIterations
	}
	if c.Layout.TickInterval == 0 {
		c.Layout.TickInterval = Duration(16 * time.Millisecond)
	}

	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}

	if c.Watch.SessionID == "" {
		c.Watch.SessionID = DefaultWatchSession
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(200 * time.Millisecond)
	}
}

// Validate rejects settings the renderer cannot work with
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas: width and height must be positive, got %gx%g", c.Canvas.Width, c.Canvas.Height)
	}
	if 2*c.Canvas.Offset >= c.Canvas.Width || 2*c.Canvas.Offset >= c.Canvas.Height {
		return fmt.Errorf("canvas: offset %g leaves no drawing area", c.Canvas.Offset)
	}
	if c.Layout.VelocityDecay < 0 || c.Layout.VelocityDecay >= 1 {
		return fmt.Errorf("layout: velocity_decay must be in [0,1), got %g", c.Layout.VelocityDecay)
	}
	if c.Layout.MaxIterations < 0 {
		return fmt.Errorf("layout: max_iterations must not be negative")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Server: %s, Database: %s\n", c.Server.Addr, c.Database.Path)
	summary += fmt.Sprintf("Canvas: %gx%g offset %g, aspect correction %v\n",
		c.Canvas.Width, c.Canvas.Height, c.Canvas.Offset, c.Canvas.AspectCorrection)
	summary += fmt.Sprintf("Layout: max %d ticks every %s", c.Layout.MaxIterations, c.Layout.TickInterval.Duration())
	if c.Watch.Path != "" {
		summary += fmt.Sprintf("\nWatching: %s as session %q", c.Watch.Path, c.Watch.SessionID)
	}
	return summary
}
