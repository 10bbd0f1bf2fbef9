// Package strategy implements the Strategy Engines (component D): the hot
// scan loops workers run over scalar ranges, dictionary phrases,
// weak-PRNG replays, and synthetic performance-buffer entropy.
//
// Grounded on
// original_source/libs/domain/mining-strategy/src/engines/{sequential,dictionary,forensic,satoshi_xp}_engine.rs,
// whose FindingHandler/AtomicU64/AtomicBool contract this package's Filter/
// FindingSink/atomic.Uint64/stop-channel contract reproduces in Go idiom.
package strategy

import (
	"sync/atomic"
)

// Filter is the census membership test an engine queries per candidate.
// pkg/filter.ShardedFilter satisfies this.
type Filter interface {
	Query(key []byte) bool
}

// FindingSink receives a candidate that tested positive in the filter.
// Engines never dedup; the Finding Vault absorbs duplicates.
type FindingSink func(address, material, sourceDescription string)

// Engine is the shared contract every strategy implements: run to
// completion or until stop fires, reconciling effort exactly, and return a
// checkpoint from which the same scan could resume.
type Engine interface {
	Run(filter Filter, stop <-chan struct{}, effort *atomic.Uint64, sink FindingSink) (checkpoint string, err error)
}
