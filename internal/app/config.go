// Package app wires the pipeline modules (capture, scaler, converter,
// encoder, discovery) behind the Service Manager, loads configuration,
// and handles process lifecycle (signals, graceful shutdown).
package app

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration: one nested struct
// per subsystem, following the ssungk-SOL config.go shape.
type Config struct {
	Capture   CaptureConfig   `yaml:"capture"`
	Scaler    ScalerConfig    `yaml:"scaler"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type CaptureConfig struct {
	Technology    string `yaml:"technology"` // "auto", "desktop_duplication", "x11", "wayland"
	FrameRate     int    `yaml:"frame_rate"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	MonitorIndex  int    `yaml:"monitor_index"`
	CaptureCursor bool   `yaml:"capture_cursor"`
}

type ScalerConfig struct {
	TargetWidth  int `yaml:"target_width"`
	TargetHeight int `yaml:"target_height"`
}

type EncoderConfig struct {
	Bitrate   int    `yaml:"bitrate"`
	QueueSize int    `yaml:"queue_size"`
	Codec     string `yaml:"codec"`
}

type DiscoveryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceType string `yaml:"service_type"`
}

type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully populated default configuration.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			Technology: "auto",
			FrameRate:  30,
			Width:      0,
			Height:     0,
		},
		Scaler: ScalerConfig{
			TargetWidth:  1280,
			TargetHeight: 720,
		},
		Encoder: EncoderConfig{
			Bitrate:   4_000_000,
			QueueSize: 64,
			Codec:     "h264",
		},
		Discovery: DiscoveryConfig{
			Enabled:     true,
			ServiceType: "remote-desk",
		},
		API: APIConfig{
			Enabled: true,
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a YAML file over DefaultConfig's values. A missing
// file is not an error; the defaults are used as-is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("app: read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("app: parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Capture.FrameRate < 1 {
		return fmt.Errorf("capture.frame_rate must be >= 1, got %d", c.Capture.FrameRate)
	}
	if c.Scaler.TargetWidth <= 0 || c.Scaler.TargetHeight <= 0 {
		return fmt.Errorf("scaler target dimensions must be positive")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1-65535, got %d", c.API.Port)
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(c.Logging.Level)
	ok := false
	for _, l := range validLevels {
		if level == l {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLevels, c.Logging.Level)
	}
	return nil
}
