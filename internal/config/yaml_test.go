// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "insync.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("frames_per_buffer = %d, want %d", cfg.Audio.FramesPerBuffer, DefaultFramesPerBuffer)
	}
	if cfg.Analysis.Window != DefaultNoveltyWindow || cfg.Analysis.Threshold != DefaultThreshold {
		t.Errorf("analysis defaults = %+v", cfg.Analysis)
	}
	if cfg.Spawn.Interval != DefaultSpawnInterval {
		t.Errorf("spawn.interval = %s, want %s", cfg.Spawn.Interval, DefaultSpawnInterval)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  frames_per_buffer: 512
  fft_window: hann
analysis:
  window: 64
  threshold: 4.5
  min_peak_interval: 3
spawn:
  interval: 2s
  overflow: drop-oldest
  seed: 42
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Audio.FramesPerBuffer != 512 || cfg.Audio.FFTWindow != "hann" {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	// Unset keys keep their defaults.
	if cfg.Audio.QueueSize != DefaultQueueSize {
		t.Errorf("queue_size = %d, want default %d", cfg.Audio.QueueSize, DefaultQueueSize)
	}
	if cfg.Analysis.Window != 64 || cfg.Analysis.Threshold != 4.5 || cfg.Analysis.MinPeakInterval != 3 {
		t.Errorf("analysis = %+v", cfg.Analysis)
	}
	if cfg.Spawn.Interval != 2*time.Second || cfg.Spawn.Overflow != OverflowDropOldest || cfg.Spawn.Seed != 42 {
		t.Errorf("spawn = %+v", cfg.Spawn)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_SPAWN_INTERVAL", "3s")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.2:9999")
	t.Setenv("ENV_AUDIO_DEVICE", "not-a-number")

	path := writeTempConfig(t, "spawn:\n  interval: 4s\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Spawn.Interval != 3*time.Second {
		t.Errorf("spawn.interval = %s, want env override 3s", cfg.Spawn.Interval)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPTargetAddress != "10.0.0.2:9999" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if cfg.Audio.InputDevice != DefaultDeviceID {
		t.Errorf("invalid ENV_AUDIO_DEVICE should be ignored, got %d", cfg.Audio.InputDevice)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"frames not power of two", func(c *Config) { c.Audio.FramesPerBuffer = 300 }, "frames_per_buffer"},
		{"frames too large", func(c *Config) { c.Audio.FramesPerBuffer = 16384 }, "frames_per_buffer"},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }, "sample_rate"},
		{"device below default", func(c *Config) { c.Audio.InputDevice = -2 }, "input_device"},
		{"zero queue", func(c *Config) { c.Audio.QueueSize = 0 }, "queue_size"},
		{"gate above one", func(c *Config) { c.Audio.GateThreshold = 1.5 }, "gate_threshold"},
		{"tiny window", func(c *Config) { c.Analysis.Window = 1 }, "analysis.window"},
		{"negative threshold", func(c *Config) { c.Analysis.Threshold = -1 }, "analysis.threshold"},
		{"zero interval", func(c *Config) { c.Spawn.Interval = 0 }, "spawn.interval"},
		{"unknown overflow", func(c *Config) { c.Spawn.Overflow = "panic" }, "spawn.overflow"},
		{"zero frame rate", func(c *Config) { c.Game.FrameRate = 0 }, "frame_rate"},
		{"bad bit depth", func(c *Config) { c.Recording.Enabled = true; c.Recording.BitDepth = 8 }, "bit_depth"},
		{"udp without port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "udp_target_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
