// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"pianotune/internal/physics"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug mode (verbose logging, raw spectrum dumps).
	LogLevel  string          `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	Command   string          `yaml:"command,omitempty"` // A one-off command to execute instead of running the engine (e.g., "devices", "version").
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`           // Audio capture and analysis settings.
	Piano     PianoConfig     `yaml:"piano"`              // Instrument being measured.
	Transport TransportConfig `yaml:"transport"`          // Data transport settings (UDP, WebSocket).
}

// AnalyzerConfig holds settings related to audio input and the
// measurement pipeline.
type AnalyzerConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz. The pipeline only supports 96000.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Number of audio frames per capture callback.
	RecordRaw       bool    `yaml:"record_raw"`        // Tee captured samples to a diagnostic WAV file alongside live analysis.
	RecordDir       string  `yaml:"record_dir"`        // Directory for raw diagnostic recordings.
}

// PianoConfig describes the instrument currently being measured.
type PianoConfig struct {
	Type           string  `yaml:"type"`             // One of domain.ParsePianoType's recognized names; empty means unset.
	LengthCM       float64 `yaml:"length_cm"`        // Instrument length, used only for display/record-keeping.
	ScaleBreakMIDI int     `yaml:"scale_break_midi"` // MIDI index of the wound/plain string scale break.
}

// TransportConfig holds settings related to sending processed data over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable UDP broadcast of NoteMeasurement updates.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Minimum interval between UDP sends.

	WebsocketEnabled bool   `yaml:"websocket_enabled"` // Enable the WebSocket spectrum broadcast server.
	WebsocketAddr    string `yaml:"websocket_addr"`    // Listen address for the WebSocket server (e.g., ":8080").
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Analyzer: AnalyzerConfig{
			InputDevice:     -1, // -1 for default device.
			SampleRate:      physics.SampleRate,
			FramesPerBuffer: 1024,
			RecordRaw:       false,
			RecordDir:       "./recordings",
		},
		Piano: PianoConfig{
			ScaleBreakMIDI: 40,
		},
		Transport: TransportConfig{
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  100 * time.Millisecond,
			WebsocketEnabled: false,
			WebsocketAddr:    ":8080",
		},
	}

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return &cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the loaded configuration against the pipeline's
// hard constraints.
func (c *Config) Validate() error {
	if c.Analyzer.SampleRate != physics.SampleRate {
		return fmt.Errorf("analyzer.sample_rate must be %v, got %v", physics.SampleRate, c.Analyzer.SampleRate)
	}
	if c.Analyzer.FramesPerBuffer <= 0 {
		return fmt.Errorf("analyzer.frames_per_buffer must be positive, got %d", c.Analyzer.FramesPerBuffer)
	}

	if c.Piano.Type != "" {
		if c.Piano.ScaleBreakMIDI < physics.MinMIDI || c.Piano.ScaleBreakMIDI > physics.MaxMIDI {
			return fmt.Errorf("piano.scale_break_midi %d out of range [%d, %d]", c.Piano.ScaleBreakMIDI, physics.MinMIDI, physics.MaxMIDI)
		}
	}

	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			return fmt.Errorf("transport.udp_target_address must be set when UDP is enabled")
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WebsocketEnabled && c.Transport.WebsocketAddr == "" {
		return fmt.Errorf("transport.websocket_addr must be set when the websocket transport is enabled")
	}

	return nil
}

func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}

	// ENV_SCALE_BREAK_MIDI
	if val, ok := os.LookupEnv("ENV_SCALE_BREAK_MIDI"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			cfg.Piano.ScaleBreakMIDI = iVal
		}
	}

	// ENV_UDP_{...}
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
		}
	}

	// ENV_WEBSOCKET_{...}
	if val, ok := os.LookupEnv("ENV_WEBSOCKET_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.WebsocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_WEBSOCKET_ADDR"); ok {
		cfg.Transport.WebsocketAddr = val
	}
}
