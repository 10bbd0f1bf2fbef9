/*
Package storage provides BoltDB-backed state persistence for the tactical
store: the orchestrator's single source of truth for mission lifecycle,
findings, worker telemetry, and the global system-state singleton.

The storage package exposes a thin Store wrapping a single bbolt database,
plus package-level helpers (PutMission, GetMissionTx, ...) that operate
within an existing transaction so that pkg/mission can compose multiple
reads and writes into one atomic operation. All records are serialized as
JSON and stored in separate buckets for isolation.

# Architecture

	┌──────────────────── BOLTDB STORAGE ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │                 Store                        │          │
	│  │  - File: <dataDir>/prospector.db             │          │
	│  │  - Format: B+tree with MVCC                  │          │
	│  │  - Transactions: ACID with fsync              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Bucket Structure                 │          │
	│  │  ┌────────────────────────────┐             │          │
	│  │  │ jobs           (Mission ID)│             │          │
	│  │  │ findings       (Finding ID)│             │          │
	│  │  │ workers        (Worker ID) │             │          │
	│  │  │ system_state   (fixed key) │             │          │
	│  │  └────────────────────────────┘             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │        Transaction Management                 │          │
	│  │  - Read: db.View() - concurrent reads        │          │
	│  │  - Write: db.Update() - serialized writes     │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Store:
  - Wraps a single *bolt.DB
  - Single database file per orchestrator process
  - Buckets created idempotently on Open
  - Thread-safe via bbolt's own transaction model; bbolt serializes all
    writers, which is what lets pkg/mission's Assign and PreAllocate race
    safely without any additional locking (see pkg/mission's package doc).

Buckets:
  - jobs: Mission records, the Mission Lifecycle Engine's backing store
  - findings: Finding records staged by the Finding Vault and drained by
    the Archival Relay
  - workers: last-known WorkerTelemetry sample per worker, one row each
  - system_state: the SystemState singleton (active scenario config,
    active census audit token), stored under a single fixed key

Transaction model:
  - Read transactions (View): concurrent, consistent MVCC snapshots
  - Write transactions (Update): serialized, atomic commits with fsync
  - This package only hands the caller a transaction or a finished
    result; the serializable-writer guarantee that pkg/mission's §4.2
    contention policy depends on comes from bbolt itself, not from any
    extra locking here.

# Operations

Mission (jobs bucket):
  - PutMission / GetMissionTx: upsert and point-lookup inside an existing
    transaction, used by pkg/mission to compose assign/complete/requeue
  - GetMission: point-lookup in its own read-only transaction
  - ListMissions(pred): full bucket scan with an in-memory predicate,
    returned in ascending key order (bbolt's native Cursor/ForEach order;
    keys are random UUIDs, so this is not insertion order — that is
    Mission.Sequence)
  - MarkMissionArchived: idempotent status flip to archived plus
    archived_at stamp, called by the Archival Relay

Findings (findings bucket):
  - PutFinding: upsert inside an existing transaction
  - BatchPersistFindings: one transaction, skipping any id already
    present (ON CONFLICT DO NOTHING semantics) so a Finding Vault flush
    retry is always safe
  - ListFindings(pred), MarkFindingArchived: scan and idempotent archive
    stamp, mirroring the mission-side operations

Workers (workers bucket):
  - PutWorkerTelemetry: last-value-retained upsert, called on every
    POST /swarm/heartbeat
  - ListWorkerTelemetry: full scan, backs GET /swarm/status
  - DeleteWorkerTelemetry: removes one worker's row; nothing prunes
    stale rows on a schedule

System state (system_state bucket):
  - GetSystemState: returns the zero value if never set
  - PutSystemState: overwrite of the singleton row

# Usage

	store, err := storage.Open("/var/lib/prospector")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	// Composing a transactional operation (what pkg/mission does):
	err = store.Update(func(tx *bolt.Tx) error {
		m, err := storage.GetMissionTx(tx, missionID)
		if err != nil || m == nil {
			return err
		}
		m.Status = types.MissionActive
		return storage.PutMission(tx, m)
	})

	// Simple reads and writes:
	findings, err := store.ListFindings(func(f *types.Finding) bool {
		return f.ArchivedAt == nil
	})
	err = store.PutWorkerTelemetry(&types.WorkerTelemetry{WorkerID: "w1"})

# Design Patterns

Upsert pattern: Put is always an overwrite; callers never need an
existence check before writing.

Idempotent archival: MarkMissionArchived and MarkFindingArchived are
no-ops on a row already archived, which is what lets the Archival Relay
retry a failed POST without double-counting on the next cycle.

Predicate-filtered scans: ListMissions/ListFindings take an in-memory
predicate rather than maintaining secondary indexes; acceptable at this
system's scale (hundreds of thousands of missions, not billions), and
it keeps every query expressible without a schema migration.

Transaction composition: pkg/storage exports both a Store-level API
(its own transaction) and a Tx-level API (an existing transaction) for
the handful of callers, exclusively in pkg/mission, that must chain
several reads and writes as a single atomic unit.

# Data Integrity

Transaction guarantees follow directly from bbolt: all-or-nothing
commits, snapshot-isolated reads, serialized writes, fsync'd durability.
The chained integrity hash over completed missions (pkg/mission's
I3) depends on pkg/mission scanning the jobs bucket through the same
write transaction that seals the next mission, so it finds the single
most-recently-completed one — see pkg/mission.Complete.

# See Also

  - pkg/mission for the transactional mission lifecycle built on top of
    this package
  - pkg/types for the record definitions stored here
  - pkg/vault and pkg/archival for the two daemons that read/write the
    findings bucket
  - BoltDB documentation: https://github.com/etcd-io/bbolt
*/
package storage
