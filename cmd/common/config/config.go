// Package config provides configuration loading for cwkey.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gigurra/cwkey/cmd/keyer"
)

// Config represents the cwkey configuration file structure.
type Config struct {
	DotMs    int      `json:"dot_ms,omitempty"`
	WPM      int      `json:"wpm,omitempty"` // Overrides dot_ms when set
	TickMs   int      `json:"tick_ms,omitempty"`
	Capacity int      `json:"capacity,omitempty"`
	Sinks    []string `json:"sinks,omitempty"`
	Tone     *Tone    `json:"tone,omitempty"`
}

// Tone holds settings for the audio sink.
type Tone struct {
	FrequencyHz float64 `json:"frequency_hz"`
	Volume      float64 `json:"volume"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DotMs:    int(keyer.DefaultDotDuration / time.Millisecond),
		TickMs:   10,
		Capacity: keyer.DefaultCapacity,
		Sinks:    []string{"console"},
		Tone: &Tone{
			FrequencyHz: 700,
			Volume:      0.5,
		},
	}
}

// DotDuration returns the unit duration, preferring WPM when it is set.
func (c *Config) DotDuration() time.Duration {
	if c.WPM > 0 {
		return keyer.DotDurationForWPM(c.WPM)
	}
	return time.Duration(c.DotMs) * time.Millisecond
}

// TickInterval returns how often the engine is ticked.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// KeyerConfig converts to an engine config.
func (c *Config) KeyerConfig() keyer.Config {
	return keyer.Config{
		DotDuration: c.DotDuration(),
		Capacity:    c.Capacity,
	}
}

// ConfigDir returns the cwkey config directory (~/.cwkey).
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cwkey")
}

// ConfigPath returns the path to the config file (~/.cwkey/config.json).
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load loads the config from ~/.cwkey/config.json.
// Returns default config if file doesn't exist.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom loads the config at path, applying defaults for missing fields.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	defaults := DefaultConfig()
	if config.DotMs <= 0 {
		config.DotMs = defaults.DotMs
	}
	if config.TickMs <= 0 {
		config.TickMs = defaults.TickMs
	}
	if config.Capacity <= 0 {
		config.Capacity = defaults.Capacity
	}
	if len(config.Sinks) == 0 {
		config.Sinks = defaults.Sinks
	}
	if config.Tone == nil {
		config.Tone = defaults.Tone
	} else {
		if config.Tone.FrequencyHz <= 0 {
			config.Tone.FrequencyHz = defaults.Tone.FrequencyHz
		}
		if config.Tone.Volume <= 0 || config.Tone.Volume > 1 {
			config.Tone.Volume = defaults.Tone.Volume
		}
	}

	return &config, nil
}

// Save saves the config to ~/.cwkey/config.json.
func Save(config *Config) error {
	return SaveTo(ConfigPath(), config)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
