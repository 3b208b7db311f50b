package config

import "time"

// Config is the railviz configuration file
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Canvas   CanvasConfig   `yaml:"canvas"`
	Layout   LayoutConfig   `yaml:"layout"`
	Database DatabaseConfig `yaml:"database"`
	Assets   AssetsConfig   `yaml:"assets"`
	Watch    WatchConfig    `yaml:"watch"`
}

// ServerConfig configures the HTTP server. A zero write timeout leaves
// event streams open.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout,omitempty"`
	IdleTimeout     Duration `yaml:"idle_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// CanvasConfig is the drawing surface
type CanvasConfig struct {
	Width            float64 `yaml:"width"`
	Height           float64 `yaml:"height"`
	Offset           float64 `yaml:"offset"`
	AspectCorrection bool    `yaml:"aspect_correction"`
}

// LayoutConfig tunes the force simulation. Zero values use the engine
// defaults.
type LayoutConfig struct {
	Seed          int64    `yaml:"seed,omitempty"`
	LinkDistance  float64  `yaml:"link_distance,omitempty"`
	AlphaMin      float64  `yaml:"alpha_min,omitempty"`
	AlphaDecay    float64  `yaml:"alpha_decay,omitempty"`
	VelocityDecay float64  `yaml:"velocity_decay,omitempty"`
	MaxIterations int      `yaml:"max_iterations"`
	TickInterval  Duration `yaml:"tick_interval"`
}

// DatabaseConfig locates the payload store
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AssetsConfig points at replaceable render assets
type AssetsConfig struct {
	// SignalIcon is an SVG file; empty uses the built-in icon
	SignalIcon string `yaml:"signal_icon,omitempty"`
}

// WatchConfig re-renders a payload file whenever it changes
type WatchConfig struct {
	Path      string   `yaml:"path,omitempty"`
	SessionID string   `yaml:"session"`
	Debounce  Duration `yaml:"debounce"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
