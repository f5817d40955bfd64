// Package mailbox provides the bounded, non-blocking hand-off used between
// producer goroutines (audio callback, spawn timer) and the game loop.
//
// Neither side ever blocks: Post reports whether the value was accepted and
// TryTake reports whether a value was available. When the mailbox is full the
// configured Policy decides which value is lost; every loss is counted.
package mailbox

import (
	"fmt"
	"sync/atomic"
)

// Policy selects what happens when Post finds the mailbox full.
type Policy int

const (
	// DropNewest rejects the value being posted and keeps the pending ones.
	DropNewest Policy = iota
	// DropOldest evicts the oldest pending value to make room.
	DropOldest
)

// String returns the config name of the policy.
func (p Policy) String() string {
	switch p {
	case DropNewest:
		return "drop-newest"
	case DropOldest:
		return "drop-oldest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts a config name into a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "drop-newest":
		return DropNewest, nil
	case "drop-oldest":
		return DropOldest, nil
	default:
		return DropNewest, fmt.Errorf("unknown mailbox policy %q", name)
	}
}

// Mailbox is a fixed-capacity FIFO safe for one producer and one consumer.
type Mailbox[T any] struct {
	slots   chan T
	policy  Policy
	posted  atomic.Uint64
	dropped atomic.Uint64
}

// New creates a mailbox holding at most capacity values.
func New[T any](capacity int, policy Policy) (*Mailbox[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("mailbox capacity must be positive, got %d", capacity)
	}
	return &Mailbox[T]{
		slots:  make(chan T, capacity),
		policy: policy,
	}, nil
}

// Post offers v without blocking and reports whether v was queued.
// Under DropOldest a full mailbox loses its oldest value instead of v; the
// consumer draining concurrently can only make room, so the second attempt
// fails only if another producer refilled the slot.
func (m *Mailbox[T]) Post(v T) bool {
	m.posted.Add(1)

	select {
	case m.slots <- v:
		return true
	default:
	}

	if m.policy == DropNewest {
		m.dropped.Add(1)
		return false
	}

	select {
	case <-m.slots:
		m.dropped.Add(1)
	default:
	}

	select {
	case m.slots <- v:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

// TryTake returns the oldest pending value, or false if there is none.
func (m *Mailbox[T]) TryTake() (T, bool) {
	select {
	case v := <-m.slots:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Len returns the number of pending values.
func (m *Mailbox[T]) Len() int { return len(m.slots) }

// Cap returns the capacity.
func (m *Mailbox[T]) Cap() int { return cap(m.slots) }

// Posted returns how many values were offered in total.
func (m *Mailbox[T]) Posted() uint64 { return m.posted.Load() }

// Dropped returns how many values were lost to overflow.
func (m *Mailbox[T]) Dropped() uint64 { return m.dropped.Load() }
