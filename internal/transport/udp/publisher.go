// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"insync/internal/analysis"
	applog "insync/internal/log"
)

// HeaderSize is the packet length without the spectrum payload.
const HeaderSize = 4 + 8 + 4 + 4 + 1 + 2

// UDPPublisher periodically reads the latest novelty telemetry from a
// snapshot, packs it into a binary packet and sends it with a UDPSender.
// It runs in a separate goroutine managed by Start and Stop methods.
type UDPPublisher struct {
	sender   *UDPSender         // The underlying UDP sender instance.
	snapshot *analysis.Snapshot // Written by the game loop every frame.
	interval time.Duration      // The interval at which packets are sent.

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Channel used to signal the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects access to ticker and doneChan during Start/Stop.

	sequenceNum uint32 // Monotonically increasing sequence number for packets.

	// Pre-allocated buffers reused by every packet.
	spectrumBuffer []float64
	f32Buffer      []float32
	packetBuffer   *bytes.Buffer
}

// NewUDPPublisher creates and initializes a new UDPPublisher.
// If the provided interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, snapshot *analysis.Snapshot) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if snapshot == nil {
		return nil, fmt.Errorf("UDPPublisher: snapshot cannot be nil")
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	bins := snapshot.Bins()
	applog.Infof("UDPPublisher: Initializing (Interval: %s, Spectrum Bins: %d)", interval, bins)

	return &UDPPublisher{
		sender:         sender,
		snapshot:       snapshot,
		interval:       interval,
		spectrumBuffer: make([]float64, bins),
		f32Buffer:      make([]float32, bins),
		packetBuffer:   bytes.NewBuffer(make([]byte, 0, HeaderSize+4*bins)),
	}, nil
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Publisher goroutine finished after %d packets.", p.sequenceNum)
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Novelty           | float32        | 4            | Newest raw flux         |
| Normalised        | float32        | 4            | Newest normalised value |
| Peak              | uint8          | 1            | 1 if the frame fired    |
| Spectrum Count    | uint16         | 2            | Number of floats (N)    |
| Spectrum          | []float32      | N * 4        | Log-compressed spectrum |
+-----------------------------------------------------------------------------+
*/

// buildAndSendPacket runs on each tick. Errors skip the packet.
func (p *UDPPublisher) buildAndSendPacket() {
	packet, err := p.buildPacket(time.Now())
	if err != nil {
		applog.Errorf("UDPPublisher: %v", err)
		return
	}

	if err := p.sender.Send(packet); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packet))
	}
}

// buildPacket packs the current snapshot. The returned slice is only valid
// until the next call.
func (p *UDPPublisher) buildPacket(now time.Time) ([]byte, error) {
	tel, err := p.snapshot.Load(p.spectrumBuffer)
	if err != nil {
		return nil, fmt.Errorf("error loading snapshot: %w", err)
	}

	spectrum := p.f32Buffer[:tel.Bins]
	for i := range spectrum {
		spectrum[i] = float32(p.spectrumBuffer[i])
	}

	var peak uint8
	if tel.Peak {
		peak = 1
	}

	p.sequenceNum++
	p.packetBuffer.Reset()

	fields := []any{
		p.sequenceNum,
		now.UnixNano(),
		float32(tel.Novelty),
		float32(tel.Normalised),
		peak,
		uint16(len(spectrum)),
		spectrum,
	}
	for _, f := range fields {
		if err := binary.Write(p.packetBuffer, binary.BigEndian, f); err != nil {
			return nil, fmt.Errorf("error packing data into binary buffer: %w", err)
		}
	}

	return p.packetBuffer.Bytes(), nil
}

// Close implements the io.Closer interface. It gracefully stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

var _ interface{ Close() error } = (*UDPPublisher)(nil)
