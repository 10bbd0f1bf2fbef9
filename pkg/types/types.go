// Package types defines the data model shared across the orchestrator and
// worker: missions, strategies, findings, telemetry, and the census
// manifest that binds a worker's loaded filter to the orchestrator's
// expectations.
package types

import "time"

// MissionStatus is the lifecycle state of a Mission.
type MissionStatus string

const (
	MissionQueued    MissionStatus = "queued"
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionAbandoned MissionStatus = "abandoned"
	MissionArchived  MissionStatus = "archived"
)

// StrategyKind tags which Strategy variant a Mission carries.
type StrategyKind string

const (
	StrategySequential        StrategyKind = "sequential"
	StrategyDictionary        StrategyKind = "dictionary"
	StrategyForensicReplay    StrategyKind = "forensic_replay"
	StrategyPerformanceBuffer StrategyKind = "performance_buffer_replay"
)

// ForensicReplayKind names the specific broken PRNG a ForensicReplay
// strategy reproduces.
type ForensicReplayKind string

const (
	WeakRNGA ForensicReplayKind = "weak-rng-A"
	WeakRNGB ForensicReplayKind = "weak-rng-B"
)

// Strategy is a tagged variant describing the candidate space a Mission
// sweeps. Exactly one of the *Params fields is populated, selected by Kind.
type Strategy struct {
	Kind StrategyKind `json:"kind"`

	Sequential *SequentialParams        `json:"sequential,omitempty"`
	Dictionary *DictionaryParams        `json:"dictionary,omitempty"`
	Forensic   *ForensicReplayParams    `json:"forensic,omitempty"`
	PerfBuffer *PerformanceBufferParams `json:"perf_buffer,omitempty"`
}

// SequentialParams scans consecutive 256-bit scalars in [StartHex, EndHex).
type SequentialParams struct {
	StartHex string `json:"start_hex"`
	EndHex   string `json:"end_hex"`
}

// DictionaryParams hashes candidate phrases fetched from SourceURL, up to
// Limit entries.
type DictionaryParams struct {
	SourceURL string `json:"source_url"`
	Limit     int    `json:"limit"`
}

// ForensicReplayParams reproduces a known-broken PRNG for every seed in
// [SeedStart, SeedEnd).
type ForensicReplayParams struct {
	Kind      ForensicReplayKind `json:"kind"`
	SeedStart int64              `json:"seed_start"`
	SeedEnd   int64              `json:"seed_end"`
}

// PerformanceBufferParams replays a deterministic entropy mixer over a
// synthetic OS performance buffer, for uptime seconds in
// [UptimeSStart, UptimeSEnd) crossed with qpc ticks in [0, ClockHz).
type PerformanceBufferParams struct {
	ScenarioID   string `json:"scenario_id"`
	UptimeSStart int64  `json:"uptime_s_start"`
	UptimeSEnd   int64  `json:"uptime_s_end"`
	ClockHz      int64  `json:"clock_hz"`
}

// Mission is a unit of dispatchable work: a Strategy plus lifecycle state.
// Created by the Dispatch Buffer's hydrator, owned by the Mission
// Lifecycle Engine, mutated only through its transactional API.
type Mission struct {
	ID                    string        `json:"id"`
	Sequence              uint64        `json:"sequence"`
	Strategy              Strategy      `json:"strategy"`
	RequiredCapabilityTag string        `json:"required_capability_tag,omitempty"`
	LeaseSeconds          int           `json:"lease_seconds"`
	Status                MissionStatus `json:"status"`

	WorkerID        string     `json:"worker_id,omitempty"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`

	AttemptCount  int    `json:"attempt_count"`
	TotalEffort   string `json:"total_effort,omitempty"`
	DurationMs    int64  `json:"duration_ms,omitempty"`
	Checkpoint    string `json:"checkpoint,omitempty"`
	IntegrityHash string `json:"integrity_hash,omitempty"`
}

// AuditReport is what a worker sends on mission completion.
type AuditReport struct {
	MissionID    string `json:"mission_id"`
	EffortVolume string `json:"effort_volume"`
	Checkpoint   string `json:"checkpoint"`
	DurationMs   int64  `json:"duration_ms"`
}

// Finding is a candidate private-key/address pair whose address tested
// positive in the census filter. Immutable once created.
type Finding struct {
	ID                       string     `json:"id"`
	Address                  string     `json:"address"`
	PrivateKeyMaterial       string     `json:"private_key_material"`
	SourceEntropyDescription string     `json:"source_entropy_description"`
	WalletType               string     `json:"wallet_type"`
	WorkerID                 string     `json:"worker_id"`
	MissionID                string     `json:"mission_id,omitempty"`
	DetectedAt               time.Time  `json:"detected_at"`
	ArchivedAt               *time.Time `json:"archived_at,omitempty"`
}

// WorkerTelemetry is ephemeral per-worker status; last value retained.
type WorkerTelemetry struct {
	WorkerID         string    `json:"worker_id"`
	Hostname         string    `json:"hostname"`
	Hashrate         float64   `json:"hashrate"`
	CurrentMissionID string    `json:"current_mission_id,omitempty"`
	Thermal          float64   `json:"thermal"`
	CPULoad          float64   `json:"cpu_load"`
	Timestamp        time.Time `json:"timestamp"`
}

// IsHealthy reports whether the telemetry sample is within nominal thermal
// and load bounds. Informational only; not used by any invariant.
func (t WorkerTelemetry) IsHealthy() bool {
	return t.Thermal < 90 && t.CPULoad < 98
}

// StratumDigest is one named stratum's combined shard digest, as recorded
// in a CensusManifest.
type StratumDigest struct {
	Name         string   `json:"name"`
	ShardDigests []string `json:"shard_digests"`
}

// CensusManifest describes a sealed census: its strata and the audit token
// that binds a worker's loaded filter to this exact version.
type CensusManifest struct {
	AuditToken string          `json:"audit_token"`
	Strata     []StratumDigest `json:"strata"`
}

// SystemState holds the singleton operational configuration rows.
type SystemState struct {
	ActiveScenarioConfig   string `json:"active_scenario_config"`
	ActiveCensusAuditToken string `json:"active_census_audit_token"`
	ActiveScenarioClockHz  int64  `json:"active_scenario_clock_hz"`
}

// WorkerCapability is declared by a worker on job acquisition.
type WorkerCapability struct {
	RAMMB    int  `json:"ram_mb"`
	CPUCores int  `json:"cpu_cores"`
	SIMDAVX2 bool `json:"simd_avx2"`
}

// AcquireRequest is the body of POST /swarm/job/acquire. CensusAuditToken
// is the audit token of the census manifest the worker has loaded; the
// orchestrator refuses to dispatch when it differs from
// SystemState.ActiveCensusAuditToken, since a stale or mismatched filter
// would silently miss (or fabricate) collisions.
type AcquireRequest struct {
	WorkerID         string           `json:"worker_id"`
	Capability       WorkerCapability `json:"capability"`
	CensusAuditToken string           `json:"census_audit_token"`
}

// KeepaliveRequest is the body of POST /swarm/job/keepalive.
type KeepaliveRequest struct {
	ID string `json:"id"`
}
