package workerengine

import (
	"fmt"

	"github.com/nullshard/prospector/pkg/strategy"
	"github.com/nullshard/prospector/pkg/types"
)

// buildEngine selects and constructs the strategy.Engine a mission's
// tagged Strategy variant names. Exactly one *Params field is populated
// for the strategy's Kind; an empty or mismatched params field is a
// server-side data error, not a transient fault.
func buildEngine(s types.Strategy) (strategy.Engine, error) {
	switch s.Kind {
	case types.StrategySequential:
		if s.Sequential == nil {
			return nil, fmt.Errorf("workerengine: sequential strategy missing params")
		}
		return &strategy.Sequential{Params: s.Sequential}, nil

	case types.StrategyDictionary:
		if s.Dictionary == nil {
			return nil, fmt.Errorf("workerengine: dictionary strategy missing params")
		}
		return &strategy.Dictionary{Params: s.Dictionary}, nil

	case types.StrategyForensicReplay:
		if s.Forensic == nil {
			return nil, fmt.Errorf("workerengine: forensic_replay strategy missing params")
		}
		return &strategy.ForensicReplay{Params: s.Forensic}, nil

	case types.StrategyPerformanceBuffer:
		if s.PerfBuffer == nil {
			return nil, fmt.Errorf("workerengine: performance_buffer_replay strategy missing params")
		}
		return &strategy.PerformanceBufferReplay{
			Params:   s.PerfBuffer,
			Template: strategy.BuildPerfTemplate(uint64(s.PerfBuffer.ClockHz)),
		}, nil

	default:
		return nil, fmt.Errorf("workerengine: unknown strategy kind %q", s.Kind)
	}
}
