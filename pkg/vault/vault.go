// Package vault implements the Finding Vault (component H): a RAM-resident
// staging area for discovered private-key material, drained to the
// tactical store by a periodic flusher so a single slow write never blocks
// a worker's finding submission.
//
// Grounded on original_source/apps/orchestrator/src/services/finding_vault.rs
// and its ticker+stopCh daemon shape for the flusher.
package vault

import (
	"sync"
	"time"

	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultFlushInterval is how often the flusher daemon drains the vault.
const DefaultFlushInterval = 5 * time.Second

// Persister is what the flusher calls to commit a drained batch; bbolt's
// ON CONFLICT DO NOTHING semantics in pkg/storage.Store.BatchPersistFindings
// make retries after a failed flush idempotent.
type Persister interface {
	BatchPersistFindings(findings []*types.Finding) error
}

// Vault is an in-RAM ordered set of findings awaiting durable persistence.
type Vault struct {
	mu       sync.Mutex
	pending  []*types.Finding

	flushInterval time.Duration
	store         Persister
	logger        zerolog.Logger
	stopCh        chan struct{}
}

// New constructs a Vault backed by store, flushing on the default interval.
func New(store Persister) *Vault {
	return &Vault{
		pending:       nil,
		flushInterval: DefaultFlushInterval,
		store:         store,
		logger:        log.WithComponent("vault"),
		stopCh:        make(chan struct{}),
	}
}

// Deposit appends a finding to the pending set in O(1) under an exclusive
// lock. It never touches the store directly; a slow disk never blocks a
// worker's finding submission.
func (v *Vault) Deposit(f *types.Finding) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = append(v.pending, f)
	metrics.FindingsDepositedTotal.Inc()
}

// DrainForFlush swaps out the pending slice and returns it, leaving the
// vault empty for new deposits while the flusher persists the drained
// batch.
func (v *Vault) DrainForFlush() []*types.Finding {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.pending) == 0 {
		return nil
	}
	drained := v.pending
	v.pending = nil
	return drained
}

// restore re-prepends a batch that failed to persist, ahead of anything
// deposited since, so findings are never lost to a transient store error.
func (v *Vault) restore(batch []*types.Finding) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pending = append(batch, v.pending...)
}

// Start launches the flusher daemon.
func (v *Vault) Start() {
	go v.run()
}

// Stop halts the flusher daemon. Callers should Flush once more afterward
// to drain anything deposited between the final tick and Stop.
func (v *Vault) Stop() {
	close(v.stopCh)
}

func (v *Vault) run() {
	ticker := time.NewTicker(v.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			v.Flush()
		case <-v.stopCh:
			return
		}
	}
}

// Flush drains the vault and persists the batch, restoring it on failure.
func (v *Vault) Flush() {
	batch := v.DrainForFlush()
	if len(batch) == 0 {
		return
	}
	if err := v.store.BatchPersistFindings(batch); err != nil {
		v.logger.Error().Err(err).Int("count", len(batch)).Msg("finding flush failed, restoring batch")
		v.restore(batch)
		return
	}
	metrics.FindingsFlushedTotal.Add(float64(len(batch)))
	v.logger.Info().Int("count", len(batch)).Msg("findings flushed")
}
