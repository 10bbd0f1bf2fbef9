/*
Package types defines the data model shared across the orchestrator and
the worker: missions and their strategy variants, findings, worker
telemetry, the census manifest, and the system-state singleton.

This package is the foundation of the data model. It defines:

  - Mission lifecycle state (queued/active/completed/abandoned/archived)
  - Strategy variants (Sequential, Dictionary, ForensicReplay,
    PerformanceBufferReplay) — a closed tagged union, one per Mission
  - Completion reporting (AuditReport) and the chained integrity hash
  - Findings (candidate private-key/address pairs)
  - Ephemeral worker telemetry and capability declarations
  - The census manifest and audit token binding a worker's loaded filter
    to a specific census version
  - The SystemState singleton (active scenario config, active census
    audit token)

# Core Types

Mission lifecycle:
  - Mission: the unit of dispatchable work; a Strategy plus lifecycle
    fields (status, worker_id, heartbeat/started/completed/archived
    timestamps, attempt_count, checkpoint, integrity_hash)
  - MissionStatus: queued, active, completed, abandoned, archived
  - Strategy: tagged variant selecting exactly one of Sequential,
    Dictionary, Forensic, PerfBuffer
  - SequentialParams, DictionaryParams, ForensicReplayParams,
    PerformanceBufferParams: the per-variant scan parameters

Completion and audit:
  - AuditReport: what a worker POSTs to /swarm/job/complete — mission id,
    effort volume (a decimal string, since it may exceed 64 bits),
    checkpoint, duration
  - Mission.IntegrityHash: the chained SHA-256 over
    (prev_hash ‖ mission_id ‖ effort ‖ checkpoint), computed by
    pkg/mission.Complete, never by this package directly

Findings:
  - Finding: an immutable candidate private-key/address pair, staged by
    the Finding Vault, persisted to the tactical store, eventually
    replicated to the strategic archive by the Archival Relay

Worker telemetry:
  - WorkerTelemetry: ephemeral per-worker status (hashrate, thermal,
    cpu_load, current mission); last value retained per worker
  - WorkerCapability: declared once per acquire call (ram_mb, cpu_cores,
    simd_avx2)

Census:
  - StratumDigest: one named stratum's combined shard digest
  - CensusManifest: the sealed census's strata plus its audit token

System state:
  - SystemState: the singleton active_scenario_config,
    active_census_audit_token, and active_scenario_clock_hz row

# Usage

Constructing a Sequential mission (what the Dispatch Buffer's hydrator
does for a Sequential or Dictionary scenario, via
mission.Engine.CreateMission):

	m := &types.Mission{
		Strategy: types.Strategy{
			Kind: types.StrategySequential,
			Sequential: &types.SequentialParams{
				StartHex: "a8a",
				EndHex:   "b00",
			},
		},
		LeaseSeconds: 900,
	}

Reporting completion (what a worker sends to /swarm/job/complete):

	report := types.AuditReport{
		MissionID:    m.ID,
		EffortVolume: "120",
		Checkpoint:   "a94",
		DurationMs:   842,
	}

Reading worker capability on acquire:

	req := types.AcquireRequest{
		WorkerID: "worker-7",
		Capability: types.WorkerCapability{
			RAMMB: 8192, CPUCores: 8, SIMDAVX2: true,
		},
	}

# State Machine

Missions follow the state machine documented fully in pkg/mission:

	queued → active → completed → archived
	  ↑        │
	  └── requeue (zombie sweep, attempt_count++)

This package only defines the MissionStatus enum and the fields that
carry a mission through it; the transitions themselves — and the
invariant that no transition skips a state — are enforced exclusively by
pkg/mission's transactional operations, never by direct field mutation.

# Design Patterns

Tagged variants instead of inheritance: Strategy and the nexus status
pair (see pkg/nexus) are closed sum types distinguished by a Kind field
and a set of mutually-exclusive optional pointers, not an interface
hierarchy — a sweep's strategy is known and fixed for the mission's
entire lifetime, so pattern matching on Kind is sufficient; the worker
switches on Kind once per mission to pick its strategy engine.

Decimal-string effort: EffortVolume and TotalEffort are strings, not
integers — a Sequential or PerformanceBufferReplay mission's candidate
count can exceed what fits in 64 bits over a long enough range, and the
chained integrity hash treats the value as an opaque string input
regardless, so no arithmetic is ever performed on it outside telemetry
display.

Optional fields as pointers: LastHeartbeatAt, StartedAt, CompletedAt,
ArchivedAt are *time.Time so that "never happened" round-trips through
JSON distinctly from the zero time.

# Integration Points

This package integrates with:

  - pkg/storage: persists Mission, Finding, WorkerTelemetry, and
    SystemState as JSON in their respective buckets
  - pkg/mission: the only package permitted to mutate Mission's
    lifecycle fields
  - pkg/api: marshals these types directly as the JSON wire format for
    the worker-facing HTTP surface (no Protocol Buffer layer)
  - pkg/strategy: produces Findings and checkpoints consumed as these
    types by the worker runtime
  - pkg/filter, pkg/census: produce and consume CensusManifest

# Thread Safety

Types in this package carry no internal synchronization: callers must
not share a *Mission or *Finding across goroutines without external
locking. pkg/storage's transactional API is what synchronizes every
persisted mutation; in-memory holders (pkg/dispatch's buffer, pkg/vault's
staging set) own their own locks around the Mission/Finding values they
hold.

# See Also

  - pkg/mission for the lifecycle operations over Mission
  - pkg/storage for the persistence layer
  - pkg/filter and pkg/census for CensusManifest's producer
  - spec section 3 (Data Model) for the full invariant list
*/
package types
