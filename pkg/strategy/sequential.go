package strategy

import (
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/nullshard/prospector/pkg/address"
	"github.com/nullshard/prospector/pkg/curve"
	"github.com/nullshard/prospector/pkg/types"
)

// telemetryBatch is the effort-counter reconciliation granularity used by
// the sequential and dictionary engines.
const telemetryBatch = 1000

// windowSize is how many Jacobian points accumulate before a Montgomery
// batch inversion converts the whole window to affine coordinates at once.
const windowSize = 256

// Sequential walks consecutive 256-bit scalars by projective Jacobian
// addition, never performing more than one scalar multiplication (the
// bootstrap at start_hex) for the entire range.
type Sequential struct {
	Params *types.SequentialParams
}

// Run implements Engine.
func (s *Sequential) Run(filter Filter, stop <-chan struct{}, effort *atomic.Uint64, sink FindingSink) (string, error) {
	startScalar, ok := new(big.Int).SetString(normalizeHex(s.Params.StartHex), 16)
	if !ok {
		return "", fmt.Errorf("strategy: sequential: bad start_hex %q", s.Params.StartHex)
	}
	endScalar, ok := new(big.Int).SetString(normalizeHex(s.Params.EndHex), 16)
	if !ok {
		return "", fmt.Errorf("strategy: sequential: bad end_hex %q", s.Params.EndHex)
	}

	p, err := curve.BootstrapScalarMul(s.Params.StartHex)
	if err != nil {
		return "", fmt.Errorf("strategy: sequential: bootstrap: %w", err)
	}
	g := curve.Generator()

	scalar := new(big.Int).Set(startScalar)
	checkpoint := fmt.Sprintf("%064x", scalar)

	window := make([]curve.JacobianPoint, 0, windowSize)
	windowScalars := make([]*big.Int, 0, windowSize)
	var sinceTelemetry uint64

	flush := func() {
		xs, ys, oks := curve.BatchToAffine(window)
		for i, x := range xs {
			if !oks[i] {
				continue
			}
			addr := address.FromXY(x, ys[i], true)
			if filter.Query([]byte(addr)) {
				sink(addr, fmt.Sprintf("%064x", windowScalars[i]), "sequential-sweep")
			}
		}
		window = window[:0]
		windowScalars = windowScalars[:0]
	}

	reconcile := func() {
		if sinceTelemetry > 0 {
			effort.Add(sinceTelemetry)
			sinceTelemetry = 0
		}
	}

	for scalar.Cmp(endScalar) < 0 {
		select {
		case <-stop:
			flush()
			reconcile()
			return checkpoint, nil
		default:
		}

		window = append(window, p)
		windowScalars = append(windowScalars, new(big.Int).Set(scalar))
		if len(window) >= windowSize {
			flush()
		}

		// P_i + G; the -G edge case resolves to Infinity inside Add and is
		// skipped (as ok=false) by the next flush rather than crashing.
		p = curve.Add(p, g)
		scalar.Add(scalar, big.NewInt(1))
		checkpoint = fmt.Sprintf("%064x", scalar)

		sinceTelemetry++
		if sinceTelemetry >= telemetryBatch {
			reconcile()
			select {
			case <-stop:
				flush()
				return checkpoint, nil
			default:
			}
		}
	}

	flush()
	reconcile()
	return checkpoint, nil
}

func normalizeHex(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}
