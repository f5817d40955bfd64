package config

import "time"

// Defaults and hard limits for the capture, analysis and spawn pipeline.
const (
	// Audio capture
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 0           // 0 uses the device default rate
	DefaultFramesPerBuffer = 256         // Samples per callback, also the FFT size
	DefaultInputChannels   = 1           // Mono
	DefaultLowLatency      = false       // Standard latency mode
	DefaultFFTWindow       = "rectangular"
	DefaultQueueSize       = 8   // Buffers held between the callback and the game loop
	DefaultGateThreshold   = 0.0 // Noise gate disabled

	// Novelty analysis
	DefaultNoveltyWindow   = 128  // Trailing novelty points used for the baseline
	DefaultThreshold       = 10.0 // Minimum distance above the baseline for a peak
	DefaultMinPeakInterval = 0    // Frames; 0 reports every frame above threshold

	// Spawning
	DefaultSpawnInterval = 5 * time.Second
	DefaultOverflow      = OverflowDropNewest
	DefaultSeed          = 0 // 0 seeds from the clock

	// Game loop
	DefaultFrameRate = 60

	// Recording
	DefaultRecordingDir      = "./recordings"
	DefaultRecordingBitDepth = 16

	// Transport
	DefaultWebSocketAddress = ":8080"
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MinBufferFrames = 16
	MaxBufferFrames = 8192 // Maximum frames per buffer (power of 2)
)

// Overflow policies for the timer to game loop mailbox.
const (
	OverflowDropNewest = "drop-newest"
	OverflowDropOldest = "drop-oldest"
)
