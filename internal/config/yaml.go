// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"insync/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (forces debug logging).
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Microphone capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Novelty curve and peak detection settings.
	Spawn     SpawnConfig     `yaml:"spawn"`     // Enemy spawn scheduler settings.
	Game      GameConfig      `yaml:"game"`      // Main loop settings.
	Recording RecordingConfig `yaml:"recording"` // Microphone recording settings.
	Transport TransportConfig `yaml:"transport"` // Spawn and telemetry transports.
	Metrics   MetricsConfig   `yaml:"metrics"`   // Prometheus endpoint.
}

// AudioConfig holds settings related to audio input.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for audio input (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz, 0 for the device default.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per callback; also the FFT size, must be a power of two.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the PortAudio device.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture; only the first one is analysed.
	FFTWindow       string  `yaml:"fft_window"`        // Window applied before the FFT ("rectangular", "hann", ...).
	QueueSize       int     `yaml:"queue_size"`        // Buffers held for the game loop before the oldest is dropped.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Noise gate level 0.0-1.0, 0 disables the gate.
}

// AnalysisConfig holds the novelty curve parameters.
type AnalysisConfig struct {
	Window          int     `yaml:"window"`            // Novelty points in the moving baseline.
	Threshold       float64 `yaml:"threshold"`         // Minimum distance above the baseline to count as a peak.
	MinPeakInterval int     `yaml:"min_peak_interval"` // Frames to suppress after a peak, 0 disables suppression.
}

// SpawnConfig holds the scheduler parameters.
type SpawnConfig struct {
	Interval time.Duration `yaml:"interval"` // Period of the radial batch timer.
	Overflow string        `yaml:"overflow"` // "drop-newest" or "drop-oldest" when a batch is still pending.
	Seed     uint64        `yaml:"seed"`     // Random seed, 0 seeds from the clock.
}

// GameConfig holds main loop settings.
type GameConfig struct {
	FrameRate int `yaml:"frame_rate"` // Frames per second of the update loop.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the microphone stream to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory for recordings when no explicit file is given.
	File      string `yaml:"file"`       // Explicit output file, overrides OutputDir.
	BitDepth  int    `yaml:"bit_depth"`  // Bit depth of the WAV file (16 or 32).
}

// TransportConfig holds settings for publishing spawns and telemetry.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Broadcast spawn events on /ws.
	WebSocketAddress string        `yaml:"websocket_address"`  // Listen address for /ws and /metrics.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send novelty telemetry over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets.
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between UDP packets.
}

// MetricsConfig controls the Prometheus endpoint served next to /ws.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			InputChannels:   DefaultInputChannels,
			FFTWindow:       DefaultFFTWindow,
			QueueSize:       DefaultQueueSize,
			GateThreshold:   DefaultGateThreshold,
		},
		Analysis: AnalysisConfig{
			Window:          DefaultNoveltyWindow,
			Threshold:       DefaultThreshold,
			MinPeakInterval: DefaultMinPeakInterval,
		},
		Spawn: SpawnConfig{
			Interval: DefaultSpawnInterval,
			Overflow: DefaultOverflow,
			Seed:     DefaultSeed,
		},
		Game: GameConfig{
			FrameRate: DefaultFrameRate,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultRecordingBitDepth,
		},
		Transport: TransportConfig{
			WebSocketEnabled: true,
			WebSocketAddress: DefaultWebSocketAddress,
			UDPTargetAddress: DefaultUDPTargetAddress,
			UDPSendInterval:  DefaultUDPSendInterval,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches the working directory for "insync.yaml" then "config.yaml". If no file is
// found, it uses built-in defaults. Environment overrides are applied last, then the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, candidate := range []string{"insync.yaml", "config.yaml"} {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that every value is usable by the capture and analysis pipeline.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}

	// Audio
	if c.Audio.InputDevice < MinDeviceID {
		return fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice)
	}
	if c.Audio.SampleRate != 0 && (c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate) {
		return fmt.Errorf("audio.sample_rate must be 0 or within %d-%d Hz, got %.0f",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) ||
		c.Audio.FramesPerBuffer < MinBufferFrames || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be a power of two within %d-%d, got %d",
			MinBufferFrames, MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Audio.InputChannels < 1 {
		return fmt.Errorf("audio.input_channels must be positive, got %d", c.Audio.InputChannels)
	}
	if c.Audio.QueueSize < 1 {
		return fmt.Errorf("audio.queue_size must be positive, got %d", c.Audio.QueueSize)
	}
	if c.Audio.GateThreshold < 0 || c.Audio.GateThreshold > 1 {
		return fmt.Errorf("audio.gate_threshold must be within 0.0-1.0, got %f", c.Audio.GateThreshold)
	}

	// Analysis
	if c.Analysis.Window < 2 {
		return fmt.Errorf("analysis.window must be at least 2, got %d", c.Analysis.Window)
	}
	if c.Analysis.Threshold < 0 {
		return fmt.Errorf("analysis.threshold must not be negative, got %f", c.Analysis.Threshold)
	}
	if c.Analysis.MinPeakInterval < 0 {
		return fmt.Errorf("analysis.min_peak_interval must not be negative, got %d", c.Analysis.MinPeakInterval)
	}

	// Spawn
	if c.Spawn.Interval <= 0 {
		return fmt.Errorf("spawn.interval must be positive, got %s", c.Spawn.Interval)
	}
	switch c.Spawn.Overflow {
	case OverflowDropNewest, OverflowDropOldest:
	default:
		return fmt.Errorf("spawn.overflow must be %q or %q, got %q",
			OverflowDropNewest, OverflowDropOldest, c.Spawn.Overflow)
	}

	if c.Game.FrameRate <= 0 {
		return fmt.Errorf("game.frame_rate must be positive, got %d", c.Game.FrameRate)
	}

	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 32 {
		return fmt.Errorf("recording.bit_depth must be 16 or 32, got %d", c.Recording.BitDepth)
	}

	// Transport
	if c.Transport.WebSocketEnabled || c.Metrics.Enabled {
		if c.Transport.WebSocketAddress == "" {
			return fmt.Errorf("transport.websocket_address must be set when websocket or metrics are enabled")
		}
	}
	if c.Transport.UDPEnabled {
		if !strings.Contains(c.Transport.UDPTargetAddress, ":") {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?)", c.Transport.UDPTargetAddress)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}

	return nil
}

// parseLevel accepts the same names as the log package without importing it.
func parseLevel(level string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return level, true
	}
	return level, false
}

// applyEnvOverrides applies ENV_* variables on top of file and default values.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	// ENV_AUDIO_DEVICE
	if val, ok := os.LookupEnv("ENV_AUDIO_DEVICE"); ok {
		if iVal, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = iVal
		}
	}
	// ENV_SPAWN_INTERVAL
	if val, ok := os.LookupEnv("ENV_SPAWN_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Spawn.Interval = dur
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
	}

	// ENV_UDP_{...}
	// These are specific to the telemetry transport.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
		}
	}
}
