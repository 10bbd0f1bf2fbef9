// Package dispatch implements the Dispatch Buffer (component G): an
// in-memory FIFO of pre-allocated missions, plus the hydrator daemon that
// keeps it above a low-watermark.
//
// Grounded on a ticker+mutex+logger+metrics daemon shape and
// original_source/apps/orchestrator/src/services/mission_hydrator.rs for
// the hydration policy itself.
package dispatch

import (
	"sync"
	"time"

	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/nexus"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultLowWatermark is the buffer depth below which the hydrator
	// daemon pre-allocates a fresh batch.
	DefaultLowWatermark = 100
	// DefaultBatchVolume is how many missions one hydration cycle requests.
	DefaultBatchVolume = 500
	// DefaultCycleInterval is the hydrator daemon's tick period.
	DefaultCycleInterval = 15 * time.Second
)

// Allocator is what the hydrator daemon calls to manufacture a fresh
// batch of missions; pkg/mission.Engine.PreAllocate satisfies this.
type Allocator interface {
	PreAllocate(scenarioID string, volume int, clockHz int64) ([]*types.Mission, error)
}

// SystemStateReader lets the hydrator read the active scenario fresh on
// every cycle, so a scenario change takes effect without a restart.
type SystemStateReader interface {
	GetSystemState() (*types.SystemState, error)
}

// Buffer is a single-process in-memory FIFO of pre-allocated missions.
type Buffer struct {
	mu       sync.Mutex
	missions []*types.Mission

	lowWatermark  int
	batchVolume   int
	cycleInterval time.Duration

	allocator Allocator
	state     SystemStateReader
	nexus     *nexus.Nexus

	logger zerolog.Logger
	stopCh chan struct{}
}

// NewBuffer constructs a Dispatch Buffer with its default tunables.
func NewBuffer(allocator Allocator, state SystemStateReader, nx *nexus.Nexus) *Buffer {
	return &Buffer{
		lowWatermark:  DefaultLowWatermark,
		batchVolume:   DefaultBatchVolume,
		cycleInterval: DefaultCycleInterval,
		allocator:     allocator,
		state:         state,
		nexus:         nx,
		logger:        log.WithComponent("dispatch"),
		stopCh:        make(chan struct{}),
	}
}

// Pull dequeues one mission in O(1), or returns nil if empty.
func (b *Buffer) Pull() *types.Mission {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.missions) == 0 {
		return nil
	}
	m := b.missions[0]
	b.missions = b.missions[1:]
	metrics.DispatchBufferDepth.Set(float64(len(b.missions)))
	return m
}

// Hydrate enqueues a batch at the tail in O(n).
func (b *Buffer) Hydrate(batch []*types.Mission) {
	if len(batch) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.missions = append(b.missions, batch...)
	metrics.DispatchBufferDepth.Set(float64(len(b.missions)))
}

// Depth returns the current buffer size.
func (b *Buffer) Depth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.missions)
}

// Start launches the hydrator daemon.
func (b *Buffer) Start() {
	go b.run()
}

// Stop halts the hydrator daemon.
func (b *Buffer) Stop() {
	close(b.stopCh)
}

func (b *Buffer) run() {
	ticker := time.NewTicker(b.cycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.cycle()
		case <-b.stopCh:
			return
		}
	}
}

func (b *Buffer) cycle() {
	if b.nexus != nil && b.nexus.Integrity() == nexus.AwaitingCertification {
		return
	}

	depth := b.Depth()
	if depth >= b.lowWatermark {
		return
	}

	st, err := b.state.GetSystemState()
	if err != nil {
		b.logger.Error().Err(err).Msg("reading system state")
		return
	}
	if st.ActiveScenarioConfig == "" {
		return
	}

	batch, err := b.allocator.PreAllocate(st.ActiveScenarioConfig, b.batchVolume, st.ActiveScenarioClockHz)
	if err != nil {
		b.logger.Error().Err(err).Msg("pre-allocate failed")
		return
	}
	b.Hydrate(batch)
	metrics.HydrationCyclesTotal.Inc()
	metrics.HydrationVolumeTotal.Add(float64(len(batch)))
	b.logger.Info().Int("batch", len(batch)).Int("depth", b.Depth()).Msg("hydration cycle complete")
}
