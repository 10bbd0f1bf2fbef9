package workerengine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nullshard/prospector/pkg/filter"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/strategy"
	"github.com/nullshard/prospector/pkg/types"
)

const (
	// defaultLeaseSeconds mirrors the Mission Lifecycle Engine's default
	// when a mission somehow arrives with LeaseSeconds unset.
	defaultLeaseSeconds = 900

	idlePollInterval     = 2 * time.Second
	acquireRetryInterval = 5 * time.Second
	telemetryInterval    = 5 * time.Second
)

// Worker drives one or more CPU-bound hot loops against the orchestrator's
// swarm API: acquire, run a strategy engine to candidate-exhaustion or
// stop, report, repeat. One hot loop per core, each with its own
// effort counter and stop signal, sharing a single finding sink.
//
// Reworked around strategy.Engine instead of a container task, following
// original_source/apps/worker-node/src for the lease/heartbeat/telemetry
// cadence this loop reproduces.
type Worker struct {
	client           *Client
	workerID         string
	cores            int
	filters          map[string]*filter.ShardedFilter
	censusAuditToken string
	hostname         string
	logger           zerolog.Logger
}

// NewWorker constructs a Worker that will run cores concurrent hot loops,
// each able to query any stratum in filters. censusAuditToken is the
// hydrated manifest's audit token, declared on every Acquire call so the
// orchestrator can refuse dispatch on a stale or mismatched filter
// (spec §4.8).
func NewWorker(client *Client, workerID string, cores int, filters map[string]*filter.ShardedFilter, censusAuditToken string) *Worker {
	return &Worker{
		client:           client,
		workerID:         workerID,
		cores:            cores,
		filters:          filters,
		censusAuditToken: censusAuditToken,
		hostname:         hostname(),
		logger:           log.WithComponent("worker-runtime"),
	}
}

// Run launches one driver goroutine per core and blocks until stop closes
// and every in-flight mission has wound down. On stop, the current mission
// on each core is left active — the orchestrator's zombie sweeper reclaims
// it once the lease expires.
func (w *Worker) Run(stop <-chan struct{}) {
	var wg sync.WaitGroup
	for i := 0; i < w.cores; i++ {
		wg.Add(1)
		go func(core int) {
			defer wg.Done()
			w.driveCore(core, stop)
		}(i)
	}
	wg.Wait()
}

func (w *Worker) driveCore(core int, stop <-chan struct{}) {
	logger := w.logger.With().Int("core", core).Logger()

	for {
		select {
		case <-stop:
			return
		default:
		}

		mission, err := w.client.Acquire(types.AcquireRequest{
			WorkerID: w.workerID,
			Capability: types.WorkerCapability{
				RAMMB:    detectRAMMB(),
				CPUCores: w.cores,
				SIMDAVX2: detectAVX2(),
			},
			CensusAuditToken: w.censusAuditToken,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("acquire failed")
			if !sleepOrStop(acquireRetryInterval, stop) {
				return
			}
			continue
		}
		if mission == nil {
			if !sleepOrStop(idlePollInterval, stop) {
				return
			}
			continue
		}

		logger.Info().Str("mission_id", mission.ID).Str("strategy", string(mission.Strategy.Kind)).Msg("mission acquired")
		if err := w.runMission(mission, stop, logger); err != nil {
			logger.Error().Err(err).Str("mission_id", mission.ID).Msg("mission run failed")
		}
	}
}

// runMission runs one mission to exhaustion or stop, keeping a heartbeat
// and a telemetry reporter alive alongside the hot loop, then reports
// completion; a run cut short by coreStop is not reported and the mission
// stays active. An error here leaves the mission active server-side; the
// worker moves on to acquire the next one rather than retrying in place.
func (w *Worker) runMission(mission *types.Mission, coreStop <-chan struct{}, logger zerolog.Logger) error {
	engine, err := buildEngine(mission.Strategy)
	if err != nil {
		return fmt.Errorf("workerengine: %w", err)
	}

	missionStop := make(chan struct{})
	var closeOnce sync.Once
	closeMissionStop := func() { closeOnce.Do(func() { close(missionStop) }) }
	var effort atomic.Uint64

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		select {
		case <-coreStop:
			closeMissionStop()
		case <-missionStop:
		}
	}()

	heartbeatDone := make(chan struct{})
	go w.heartbeatLoop(mission, missionStop, heartbeatDone, logger)

	telemetryDone := make(chan struct{})
	go w.telemetryLoop(mission.ID, &effort, missionStop, telemetryDone, logger)

	start := time.Now()
	checkpoint, runErr := engine.Run(w.queryFilter(logger), missionStop, &effort, w.sinkFor(mission, logger))
	elapsed := time.Since(start)

	closeMissionStop()
	<-forwardDone
	<-heartbeatDone
	<-telemetryDone

	metrics.EffortTotal.WithLabelValues(string(mission.Strategy.Kind)).Add(float64(effort.Load()))

	if runErr != nil {
		return fmt.Errorf("strategy run: %w", runErr)
	}

	select {
	case <-coreStop:
		logger.Info().Str("mission_id", mission.ID).Str("checkpoint", checkpoint).Msg("stopped, leaving mission active")
		return nil
	default:
	}

	report := types.AuditReport{
		MissionID:    mission.ID,
		EffortVolume: fmt.Sprintf("%d", effort.Load()),
		Checkpoint:   checkpoint,
		DurationMs:   elapsed.Milliseconds(),
	}
	if err := w.client.Complete(report); err != nil {
		return fmt.Errorf("reporting completion: %w", err)
	}
	logger.Info().
		Str("mission_id", mission.ID).
		Str("checkpoint", checkpoint).
		Uint64("effort", effort.Load()).
		Msg("mission completed")
	return nil
}

func (w *Worker) heartbeatLoop(mission *types.Mission, stop <-chan struct{}, done chan<- struct{}, logger zerolog.Logger) {
	defer close(done)

	ticker := time.NewTicker(leaseHeartbeatInterval(mission.LeaseSeconds))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := w.client.Heartbeat(mission.ID); err != nil {
				logger.Warn().Err(err).Str("mission_id", mission.ID).Msg("heartbeat failed")
			}
		}
	}
}

func (w *Worker) telemetryLoop(missionID string, effort *atomic.Uint64, stop <-chan struct{}, done chan<- struct{}, logger zerolog.Logger) {
	defer close(done)

	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	var last uint64
	lastAt := time.Now()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			current := effort.Load()
			delta := current - last
			elapsed := now.Sub(lastAt).Seconds()
			var hashrate float64
			if elapsed > 0 {
				hashrate = float64(delta) / elapsed
			}
			last = current
			lastAt = now

			t := types.WorkerTelemetry{
				WorkerID:         w.workerID,
				Hostname:         w.hostname,
				Hashrate:         hashrate,
				CurrentMissionID: missionID,
				Thermal:          thermalCelsius(),
				CPULoad:          loadPercent(w.cores),
				Timestamp:        now,
			}
			if err := w.client.SendTelemetry(t); err != nil {
				logger.Warn().Err(err).Msg("telemetry send failed")
			}
		}
	}
}

// sinkFor returns the FindingSink an Engine.Run call reports positives
// through: construct the Finding record and hand it to the orchestrator.
// A failed report is logged and dropped rather than retried — a lost
// finding report is recoverable by re-running the same mission range, a
// luxury the design accepts in exchange for keeping the hot loop's sink
// non-blocking on anything but the one HTTP call itself.
func (w *Worker) sinkFor(mission *types.Mission, logger zerolog.Logger) strategy.FindingSink {
	return func(address, material, sourceDescription string) {
		f := types.Finding{
			ID:                       uuid.New().String(),
			Address:                  address,
			PrivateKeyMaterial:       material,
			SourceEntropyDescription: sourceDescription,
			WalletType:               walletTypeFor(mission.Strategy.Kind),
			WorkerID:                 w.workerID,
			MissionID:                mission.ID,
			DetectedAt:               time.Now(),
		}
		if err := w.client.ReportFinding(f); err != nil {
			logger.Error().Err(err).Str("address", address).Msg("reporting finding failed")
			return
		}
		logger.Warn().Str("address", address).Str("mission_id", mission.ID).Msg("finding reported")
	}
}

// queryFilter wraps every stratum this worker has hydrated into a single
// strategy.Filter: a key is a hit if any stratum's sharded filter reports
// one, and every query (hit or miss) is counted for the filter_queries
// metric.
func (w *Worker) queryFilter(logger zerolog.Logger) strategy.Filter {
	return queryFunc(func(key []byte) bool {
		for _, f := range w.filters {
			if f.Query(key) {
				metrics.FilterQueriesTotal.WithLabelValues("positive").Inc()
				return true
			}
		}
		metrics.FilterQueriesTotal.WithLabelValues("negative").Inc()
		return false
	})
}

type queryFunc func(key []byte) bool

func (q queryFunc) Query(key []byte) bool { return q(key) }

func walletTypeFor(kind types.StrategyKind) string {
	switch kind {
	case types.StrategySequential, types.StrategyPerformanceBuffer:
		return "p2pkh_compressed"
	default:
		return "p2pkh_uncompressed"
	}
}

func leaseHeartbeatInterval(leaseSeconds int) time.Duration {
	if leaseSeconds <= 0 {
		leaseSeconds = defaultLeaseSeconds
	}
	interval := time.Duration(leaseSeconds) * time.Second / 3
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}

func sleepOrStop(d time.Duration, stop <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

