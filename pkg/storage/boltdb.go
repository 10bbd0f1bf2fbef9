// Package storage is the tactical store: table definitions, upserts, and
// scans over a single bbolt database (component M). The transactional
// semantics layered on top of these primitives — atomic assign, complete,
// requeue, zombie sweep — belong to pkg/mission (component F); this
// package only owns bucket layout and raw get/put/scan.
package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nullshard/prospector/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// Bucket names. jobs holds Missions, keyed by mission id. findings holds
// Findings, keyed by finding id. workers holds WorkerTelemetry, keyed by
// worker id, last-value-retained. system_state holds the SystemState
// singleton under a fixed key.
var (
	BucketJobs         = []byte("jobs")
	BucketFindings     = []byte("findings")
	BucketWorkers      = []byte("workers")
	BucketSystemState  = []byte("system_state")
	systemStateKey     = []byte("singleton")
)

// Store wraps a bbolt database holding the tactical schema.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the tactical store at dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "prospector.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open tactical store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{BucketJobs, BucketFindings, BucketWorkers, BucketSystemState} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Update runs fn inside a read-write transaction. Callers in pkg/mission
// use this directly to implement multi-step transactional operations
// (assign, complete, requeue, pre-allocate) against the jobs bucket.
func (s *Store) Update(fn func(tx *bolt.Tx) error) error {
	return s.db.Update(fn)
}

// View runs fn inside a read-only transaction.
func (s *Store) View(fn func(tx *bolt.Tx) error) error {
	return s.db.View(fn)
}

// --- Missions (jobs bucket) ---

// PutMission upserts a mission record within an existing transaction.
func PutMission(tx *bolt.Tx, m *types.Mission) error {
	b := tx.Bucket(BucketJobs)
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return b.Put([]byte(m.ID), data)
}

// GetMissionTx reads a mission within an existing transaction. Returns nil,
// nil if absent.
func GetMissionTx(tx *bolt.Tx, id string) (*types.Mission, error) {
	b := tx.Bucket(BucketJobs)
	data := b.Get([]byte(id))
	if data == nil {
		return nil, nil
	}
	var m types.Mission
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMission reads a single mission in its own read-only transaction.
func (s *Store) GetMission(id string) (*types.Mission, error) {
	var m *types.Mission
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		m, err = GetMissionTx(tx, id)
		return err
	})
	return m, err
}

// ListMissions returns every mission matching pred, in ascending key
// (mission id) order as bbolt's ForEach yields it. Mission ids are random
// UUIDs, so this is not insertion order; Mission.Sequence records that.
func (s *Store) ListMissions(pred func(*types.Mission) bool) ([]*types.Mission, error) {
	var out []*types.Mission
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketJobs)
		return b.ForEach(func(k, v []byte) error {
			var m types.Mission
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			if pred == nil || pred(&m) {
				out = append(out, &m)
			}
			return nil
		})
	})
	return out, err
}

// MarkMissionArchived stamps a completed mission's archived_at field and
// flips its status to archived, idempotently.
func (s *Store) MarkMissionArchived(id string, archivedAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		m, err := GetMissionTx(tx, id)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("mission not found: %s", id)
		}
		if m.Status == types.MissionArchived {
			return nil
		}
		m.Status = types.MissionArchived
		m.ArchivedAt = &archivedAt
		return PutMission(tx, m)
	})
}

// --- Findings ---

// PutFinding upserts a finding record within an existing transaction.
func PutFinding(tx *bolt.Tx, f *types.Finding) error {
	b := tx.Bucket(BucketFindings)
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return b.Put([]byte(f.ID), data)
}

// BatchPersistFindings writes a batch of findings in one transaction,
// silently skipping ids already present (ON CONFLICT(id) DO NOTHING
// semantics), so the call is safe to retry.
func (s *Store) BatchPersistFindings(findings []*types.Finding) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketFindings)
		for _, f := range findings {
			if b.Get([]byte(f.ID)) != nil {
				continue
			}
			data, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(f.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListFindings returns every finding matching pred.
func (s *Store) ListFindings(pred func(*types.Finding) bool) ([]*types.Finding, error) {
	var out []*types.Finding
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketFindings)
		return b.ForEach(func(k, v []byte) error {
			var f types.Finding
			if err := json.Unmarshal(v, &f); err != nil {
				return err
			}
			if pred == nil || pred(&f) {
				out = append(out, &f)
			}
			return nil
		})
	})
	return out, err
}

// MarkFindingArchived stamps a finding's archived_at field, idempotently
// (re-stamping an already-archived row is a no-op return).
func (s *Store) MarkFindingArchived(id string, archivedAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketFindings)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("finding not found: %s", id)
		}
		var f types.Finding
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		if f.ArchivedAt != nil {
			return nil
		}
		f.ArchivedAt = &archivedAt
		out, err := json.Marshal(&f)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), out)
	})
}

// --- Workers (telemetry) ---

// PutWorkerTelemetry upserts the last-known telemetry for a worker.
func (s *Store) PutWorkerTelemetry(t *types.WorkerTelemetry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketWorkers)
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return b.Put([]byte(t.WorkerID), data)
	})
}

// ListWorkerTelemetry returns every known worker's last telemetry sample.
func (s *Store) ListWorkerTelemetry() ([]*types.WorkerTelemetry, error) {
	var out []*types.WorkerTelemetry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketWorkers)
		return b.ForEach(func(k, v []byte) error {
			var t types.WorkerTelemetry
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}
			out = append(out, &t)
			return nil
		})
	})
	return out, err
}

// DeleteWorkerTelemetry removes a worker's telemetry row. No daemon calls
// it on a schedule; telemetry rows persist until deleted explicitly.
func (s *Store) DeleteWorkerTelemetry(workerID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BucketWorkers).Delete([]byte(workerID))
	})
}

// --- System state ---

// GetSystemState reads the singleton system state row, returning the zero
// value if it has never been set.
func (s *Store) GetSystemState() (*types.SystemState, error) {
	var st types.SystemState
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketSystemState)
		data := b.Get(systemStateKey)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &st)
	})
	return &st, err
}

// PutSystemState overwrites the singleton system state row.
func (s *Store) PutSystemState(st *types.SystemState) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(BucketSystemState)
		data, err := json.Marshal(st)
		if err != nil {
			return err
		}
		return b.Put(systemStateKey, data)
	})
}
