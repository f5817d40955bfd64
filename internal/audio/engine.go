// SPDX-License-Identifier: MIT
/*
Package audio captures microphone input with PortAudio and hands fixed-size
mono float32 buffers to the game loop.

Thread Safety:
  - The PortAudio callback is the only writer of the capture ring.
  - Buffers reach the game loop through a bounded drop-oldest mailbox, so the
    callback never blocks and a stalled loop only loses the oldest audio.
  - Recording state is atomic; the encoder itself is guarded by a mutex.
*/
package audio

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"insync/internal/config"
	"insync/internal/log"
	"insync/internal/mailbox"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

// Engine owns the input stream and the capture ring.
type Engine struct {
	// Core configuration and state.
	config     config.AudioConfig
	sampleRate float64

	// Audio input handling.
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// ring holds QueueSize+2 buffers: those pending in out, the one the game
	// loop is reading and the one being filled.
	ring [][]float32
	next int
	out  *mailbox.Mailbox[[]float32]

	// Noise gate for signal conditioning.
	gateEnabled   bool
	gateThreshold float32 // Absolute amplitude threshold (0.0-1.0)
	gated         atomic.Uint64

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	recMu       sync.Mutex
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	sampleScale float64
	bitDepth    int
}

// NewEngine resolves the configured input device and prepares the capture
// ring. Buffers are posted to out; the stream is not opened until
// StartInputStream.
func NewEngine(cfg config.AudioConfig, bitDepth int, out *mailbox.Mailbox[[]float32]) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	e, err := newEngine(cfg, inputDevice.DefaultSampleRate, bitDepth, out)
	if err != nil {
		return nil, err
	}
	e.inputDevice = inputDevice

	if cfg.InputChannels > inputDevice.MaxInputChannels {
		return nil, fmt.Errorf("device %s has %d input channels, %d requested",
			inputDevice.Name, inputDevice.MaxInputChannels, cfg.InputChannels)
	}

	if cfg.LowLatency {
		e.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		e.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return e, nil
}

// newEngine builds an engine without a device. deviceRate is used when the
// configured sample rate is 0.
func newEngine(cfg config.AudioConfig, deviceRate float64, bitDepth int, out *mailbox.Mailbox[[]float32]) (*Engine, error) {
	if out == nil {
		return nil, fmt.Errorf("audio engine requires an output mailbox")
	}
	if cfg.FramesPerBuffer < 1 || cfg.InputChannels < 1 {
		return nil, fmt.Errorf("invalid buffer layout: %d frames, %d channels", cfg.FramesPerBuffer, cfg.InputChannels)
	}

	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = deviceRate
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("no sample rate configured and device reports none")
	}

	ring := make([][]float32, out.Cap()+2)
	for i := range ring {
		ring[i] = make([]float32, cfg.FramesPerBuffer)
	}

	e := &Engine{
		config:     cfg,
		sampleRate: sampleRate,
		ring:       ring,
		out:        out,
		bitDepth:   bitDepth,
	}
	e.SetGateThreshold(cfg.GateThreshold)
	e.gateEnabled = cfg.GateThreshold > 0

	return e, nil
}

// SampleRate returns the rate the stream is opened with.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// FramesPerBuffer returns the length of every posted buffer.
func (e *Engine) FramesPerBuffer() int { return e.config.FramesPerBuffer }

// DeviceName returns the input device name, empty without a device.
func (e *Engine) DeviceName() string {
	if e.inputDevice == nil {
		return ""
	}
	return e.inputDevice.Name
}

// Gated returns how many buffers the noise gate silenced.
func (e *Engine) Gated() uint64 { return e.gated.Load() }

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.InputChannels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.FramesPerBuffer,
		SampleRate:      e.sampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return fmt.Errorf("failed to open input stream on %s: %w", e.inputDevice.Name, err)
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		e.inputStream = nil
		return fmt.Errorf("failed to start input stream: %w", err)
	}

	log.With("audio").Infof("capturing %s at %.0f Hz, %d frames per buffer",
		e.inputDevice.Name, e.sampleRate, e.config.FramesPerBuffer)
	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the PortAudio callback. in is interleaved with
// InputChannels channels; only the first channel is kept.
// Performance Critical:
//   - Uses pre-allocated ring buffers only
//   - Never blocks on the game loop
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	buffer := e.ring[e.next]
	e.next = (e.next + 1) % len(e.ring)

	channels := e.config.InputChannels
	if channels == 1 {
		clear(buffer[copy(buffer, in):])
	} else {
		for i := range buffer {
			if i*channels < len(in) {
				buffer[i] = in[i*channels]
			} else {
				buffer[i] = 0
			}
		}
	}

	if atomic.LoadInt32(&e.isRecording) == 1 {
		e.record(buffer)
	}

	if e.gateEnabled && e.applyGate(buffer) {
		e.gated.Add(1)
	}

	e.out.Post(buffer)
}

// record appends buffer to the WAV file. Errors are logged, not fatal.
func (e *Engine) record(buffer []float32) {
	e.recMu.Lock()
	defer e.recMu.Unlock()

	if e.wavEncoder == nil {
		return
	}

	for i, sample := range buffer {
		e.sampleBuf.Data[i] = int(float64(clampSample(sample)) * e.sampleScale)
	}
	e.sampleBuf.Data = e.sampleBuf.Data[:len(buffer)]

	if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
		log.Errorf("Error writing to WAV file: %v", err)
	}
}

func (e *Engine) Close() error {
	if atomic.LoadInt32(&e.isRecording) == 1 {
		if err := e.StopRecording(); err != nil {
			return err
		}
	}

	if err := e.StopInputStream(); err != nil {
		return err
	}

	return nil
}

func clampSample(s float32) float32 {
	return max(-1, min(1, s))
}
