// SPDX-License-Identifier: MIT
package spawn

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"insync/internal/log"
	"insync/internal/mailbox"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Spawn is one enemy handed to the factory.
type Spawn struct {
	Batch    uuid.UUID `json:"batch"`
	Source   Source    `json:"source"`
	Index    int       `json:"index"` // Position within the batch in generation order.
	Position Position  `json:"position"`
}

// EnemyFactory creates enemies in the game world. It is called from the game
// loop goroutine only.
type EnemyFactory interface {
	CreateEnemy(s Spawn)
}

// FactoryFunc adapts a function to EnemyFactory.
type FactoryFunc func(Spawn)

func (f FactoryFunc) CreateEnemy(s Spawn) { f(s) }

// Options configures a Scheduler.
type Options struct {
	Interval time.Duration  // Radial batch period.
	Overflow mailbox.Policy // What to drop when a timer batch is still pending.
	Seed     uint64         // 0 seeds from the clock.
}

// Scheduler merges the radial timer and audio peaks into spawn batches.
//
// The timer runs on its own goroutine between Start and Stop and hands each
// batch to the game loop through a single-slot mailbox. Run is called by the
// game loop once per frame.
type Scheduler struct {
	interval time.Duration
	factory  EnemyFactory
	pending  *mailbox.Mailbox[Batch]
	overflow mailbox.Policy
	now      func() time.Time
	entry    *logrus.Entry

	timerRand Rand // Used only by the ticker goroutine.
	peakRand  Rand // Used only by Run.

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(opts Options, factory EnemyFactory) (*Scheduler, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return newScheduler(opts, factory,
		rand.New(rand.NewPCG(seed, 1)),
		rand.New(rand.NewPCG(seed, 2)))
}

func newScheduler(opts Options, factory EnemyFactory, timerRand, peakRand Rand) (*Scheduler, error) {
	if factory == nil {
		return nil, fmt.Errorf("spawn scheduler requires an enemy factory")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("spawn interval must be positive, got %s", opts.Interval)
	}
	pending, err := mailbox.New[Batch](1, opts.Overflow)
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		interval:  opts.Interval,
		factory:   factory,
		pending:   pending,
		overflow:  opts.Overflow,
		now:       time.Now,
		entry:     log.With("spawn"),
		timerRand: timerRand,
		peakRand:  peakRand,
	}, nil
}

// Start launches the ticker goroutine. Calling Start while running is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		return
	}

	s.ticker = time.NewTicker(s.interval)
	s.doneChan = make(chan struct{})
	s.stopOnce = sync.Once{}

	ticker := s.ticker
	doneChan := s.doneChan

	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.entry.Infof("Spawn timer started (Interval: %s)", s.interval)
		for {
			select {
			case <-ticker.C:
				s.Tick()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop halts the ticker goroutine and waits for it. A batch already posted
// stays pending. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.ticker == nil {
		s.mu.Unlock()
		return
	}

	s.stopOnce.Do(func() {
		close(s.doneChan)
		s.ticker.Stop()
		s.ticker = nil
	})

	s.mu.Unlock()

	s.wg.Wait()
	s.entry.Info("Spawn timer stopped")
}

// Tick builds one radial batch and posts it for the game loop. It is what the
// ticker goroutine runs on every interval.
func (s *Scheduler) Tick() {
	batch := RadialBatch(s.timerRand, s.now())
	before := s.pending.Dropped()
	s.pending.Post(batch)
	if s.pending.Dropped() != before {
		s.entry.WithField("batch", batch.ID).Warnf(
			"Spawn batch still pending, applied %s (%d dropped in total)", s.overflow, s.pending.Dropped())
	}
}

// Run dispatches the pending timer batch, if any, and one single-enemy batch
// per audio peak. It never blocks. The batches handed to the factory are
// returned for bookkeeping.
func (s *Scheduler) Run(peaks int) []Batch {
	var batches []Batch

	if b, ok := s.pending.TryTake(); ok {
		if s.dispatch(b) {
			batches = append(batches, b)
		}
	}

	for range peaks {
		b := Batch{
			ID:        uuid.New(),
			Source:    SourcePeak,
			Positions: []Position{Single(s.peakRand)},
			CreatedAt: s.now(),
		}
		s.dispatch(b)
		batches = append(batches, b)
	}

	return batches
}

// dispatch hands positions to the factory newest first and reports whether
// there was anything to hand over.
func (s *Scheduler) dispatch(b Batch) bool {
	if len(b.Positions) == 0 {
		return false
	}
	for i := len(b.Positions) - 1; i >= 0; i-- {
		s.factory.CreateEnemy(Spawn{
			Batch:    b.ID,
			Source:   b.Source,
			Index:    i,
			Position: b.Positions[i],
		})
	}
	s.entry.Debugf("Spawned %d enemies from %s batch %s", len(b.Positions), b.Source, b.ID)
	return true
}

// Dropped returns how many timer batches were lost to overflow.
func (s *Scheduler) Dropped() uint64 { return s.pending.Dropped() }

// Interval returns the timer period.
func (s *Scheduler) Interval() time.Duration { return s.interval }
