package game

import (
	"sync/atomic"

	"insync/internal/log"
	"insync/internal/spawn"
	"insync/internal/transport"
)

// SpawnEvent is the JSON message published for each enemy.
type SpawnEvent struct {
	Type string `json:"type"`
	spawn.Spawn
}

// BroadcastFactory is the headless EnemyFactory: it publishes every spawn on
// a transport for an external renderer.
type BroadcastFactory struct {
	transport transport.Transport
	created   atomic.Uint64
}

var _ spawn.EnemyFactory = (*BroadcastFactory)(nil)

// NewBroadcastFactory creates a factory publishing on t.
func NewBroadcastFactory(t transport.Transport) *BroadcastFactory {
	return &BroadcastFactory{transport: t}
}

func (f *BroadcastFactory) CreateEnemy(s spawn.Spawn) {
	f.created.Add(1)
	if err := f.transport.Send(SpawnEvent{Type: "spawn", Spawn: s}); err != nil {
		log.Warnf("Failed to publish spawn %s/%d: %v", s.Batch, s.Index, err)
	}
}

// Created returns how many enemies were created.
func (f *BroadcastFactory) Created() uint64 { return f.created.Load() }
