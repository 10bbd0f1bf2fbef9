// Package mission implements the Mission Lifecycle Engine (component F):
// transactional assign/heartbeat/complete/requeue/pre-allocate, and the
// cryptographically chained integrity hash over completed missions.
//
// Grounded on pkg/storage/boltdb.go's transactional Create/Get/List
// pattern and
// original_source/apps/orchestrator/src/state/mission_control.rs /
// services/reaper.rs for the state-machine operations themselves.
//
// Every operation here runs inside a single bbolt read-write transaction.
// bbolt serializes all writers, so assign and pre-allocate racing against
// each other resolves for free: there is never more than one writer
// transaction in flight, a stronger guarantee than the SELECT MAX ... FOR
// UPDATE / UNIQUE index fallback a backing store without true range
// locking would need.
package mission

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/storage"
	"github.com/nullshard/prospector/pkg/types"
	bolt "go.etcd.io/bbolt"
)

// GenesisHash is the fixed constant used as prev_hash for the very first
// completed mission in the ledger.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000"

// PreAllocateWindowSeconds is the width of each pre-allocated
// PerformanceBufferReplay uptime window.
const PreAllocateWindowSeconds = 60

// ErrMissionNotFoundOrExpired is returned by Heartbeat for a mission that
// is missing or not active; non-fatal to the caller.
var ErrMissionNotFoundOrExpired = errors.New("mission: missing or expired")

// ErrNotActive is returned when the caller tried to complete a mission
// that is not currently active.
var ErrNotActive = errors.New("mission: not active")

// Engine owns all mutation of mission state in the tactical store.
type Engine struct {
	store *storage.Store
}

// NewEngine constructs a Mission Lifecycle Engine over store.
func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// Assign selects one queued mission matching capabilityTag, marks it
// active for workerID, and returns it. Ties among equally-eligible
// missions break by lowest Sequence (insertion order), preventing
// starvation. Returns (nil, nil) if no mission is eligible.
func (e *Engine) Assign(workerID, capabilityTag string) (*types.Mission, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.AssignDuration)

	var result *types.Mission
	err := e.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(storage.BucketJobs)
		var best *types.Mission

		err := forEachMission(tx, func(m *types.Mission) error {
			if m.Status != types.MissionQueued {
				return nil
			}
			if capabilityTag != "" && m.RequiredCapabilityTag != "" && m.RequiredCapabilityTag != capabilityTag {
				return nil
			}
			if best == nil || m.Sequence < best.Sequence {
				best = m
			}
			return nil
		})
		if err != nil {
			return err
		}
		if best == nil {
			return nil
		}

		now := time.Now().UTC()
		best.Status = types.MissionActive
		best.WorkerID = workerID
		best.LastHeartbeatAt = &now
		best.StartedAt = &now

		data, err := marshalMission(best)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(best.ID), data); err != nil {
			return err
		}
		result = best
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil {
		metrics.MissionsAssignedTotal.Inc()
		log.WithComponent("mission").Info().Str("mission_id", result.ID).Str("worker_id", workerID).Msg("mission assigned")
	}
	return result, err
}

// Heartbeat refreshes last_heartbeat_at for an active mission. A late
// heartbeat for a mission that is no longer active (requeued, completed)
// is reported as ErrMissionNotFoundOrExpired, which is non-fatal: the
// caller (worker) simply learns its lease is gone.
func (e *Engine) Heartbeat(missionID string) error {
	return e.store.Update(func(tx *bolt.Tx) error {
		m, err := storage.GetMissionTx(tx, missionID)
		if err != nil {
			return err
		}
		if m == nil || m.Status != types.MissionActive {
			return ErrMissionNotFoundOrExpired
		}
		now := time.Now().UTC()
		m.LastHeartbeatAt = &now
		return storage.PutMission(tx, m)
	})
}

// Complete seals a mission: computes the chained integrity hash over the
// most recently completed mission (by completed_at), and writes the
// completion fields.
func (e *Engine) Complete(report types.AuditReport) error {
	err := e.store.Update(func(tx *bolt.Tx) error {
		m, err := storage.GetMissionTx(tx, report.MissionID)
		if err != nil {
			return err
		}
		if m == nil || m.Status != types.MissionActive {
			return ErrNotActive
		}

		prevHash, err := mostRecentCompletedHash(tx)
		if err != nil {
			return err
		}

		newHash := chainHash(prevHash, m.ID, report.EffortVolume, report.Checkpoint)

		now := time.Now().UTC()
		m.Status = types.MissionCompleted
		m.TotalEffort = report.EffortVolume
		m.DurationMs = report.DurationMs
		m.Checkpoint = report.Checkpoint
		m.IntegrityHash = newHash
		m.CompletedAt = &now

		return storage.PutMission(tx, m)
	})
	if err == nil {
		metrics.MissionsCompletedTotal.Inc()
		log.WithComponent("mission").Info().Str("mission_id", report.MissionID).Msg("mission completed")
	}
	return err
}

// chainHash computes H(prev ‖ mission_id ‖ effort ‖ checkpoint) as a
// hex-encoded SHA-256 digest.
func chainHash(prevHash, missionID, effort, checkpoint string) string {
	h := sha256.New()
	h.Write([]byte(prevHash))
	h.Write([]byte(missionID))
	h.Write([]byte(effort))
	h.Write([]byte(checkpoint))
	return fmt.Sprintf("%x", h.Sum(nil))
}

func mostRecentCompletedHash(tx *bolt.Tx) (string, error) {
	var latest *types.Mission
	err := forEachMission(tx, func(m *types.Mission) error {
		if m.Status != types.MissionCompleted {
			return nil
		}
		if m.CompletedAt == nil {
			return nil
		}
		if latest == nil || m.CompletedAt.After(*latest.CompletedAt) {
			latest = m
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if latest == nil {
		return GenesisHash, nil
	}
	return latest.IntegrityHash, nil
}

// ZombieSweep returns the ids of active missions whose last heartbeat is
// older than thresholdSeconds.
func (e *Engine) ZombieSweep(thresholdSeconds int) ([]string, error) {
	var ids []string
	cutoff := time.Now().UTC().Add(-time.Duration(thresholdSeconds) * time.Second)

	err := e.store.View(func(tx *bolt.Tx) error {
		return forEachMission(tx, func(m *types.Mission) error {
			if m.Status != types.MissionActive {
				return nil
			}
			if m.LastHeartbeatAt == nil || m.LastHeartbeatAt.Before(cutoff) {
				ids = append(ids, m.ID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		metrics.ZombieSweepFoundTotal.Add(float64(len(ids)))
	}
	return ids, nil
}

// Requeue resets every id in ids to queued, clearing worker assignment and
// incrementing attempt_count, all within one transaction.
func (e *Engine) Requeue(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	err := e.store.Update(func(tx *bolt.Tx) error {
		for _, id := range ids {
			m, err := storage.GetMissionTx(tx, id)
			if err != nil {
				return err
			}
			if m == nil {
				continue
			}
			m.Status = types.MissionQueued
			m.WorkerID = ""
			m.LastHeartbeatAt = nil
			m.AttemptCount++
			if err := storage.PutMission(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		metrics.MissionsRequeuedTotal.Add(float64(len(ids)))
	}
	return err
}

// PreAllocate inserts volume queued PerformanceBufferReplay missions
// spanning consecutive 60-second uptime windows for scenarioID, starting
// just past the current maximum uptime_s_end for that scenario. Windows
// never overlap.
func (e *Engine) PreAllocate(scenarioID string, volume int, clockHz int64) ([]*types.Mission, error) {
	var created []*types.Mission

	err := e.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(storage.BucketJobs)

		var maxEnd int64
		err := forEachMission(tx, func(m *types.Mission) error {
			if m.Strategy.Kind != types.StrategyPerformanceBuffer || m.Strategy.PerfBuffer == nil {
				return nil
			}
			if m.Strategy.PerfBuffer.ScenarioID != scenarioID {
				return nil
			}
			if m.Strategy.PerfBuffer.UptimeSEnd > maxEnd {
				maxEnd = m.Strategy.PerfBuffer.UptimeSEnd
			}
			return nil
		})
		if err != nil {
			return err
		}

		start := maxEnd
		for i := 0; i < volume; i++ {
			end := start + PreAllocateWindowSeconds
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			m := &types.Mission{
				ID:           uuid.New().String(),
				Sequence:     seq,
				LeaseSeconds: 900,
				Status:       types.MissionQueued,
				Strategy: types.Strategy{
					Kind: types.StrategyPerformanceBuffer,
					PerfBuffer: &types.PerformanceBufferParams{
						ScenarioID:   scenarioID,
						UptimeSStart: start,
						UptimeSEnd:   end,
						ClockHz:      clockHz,
					},
				},
			}
			data, err := marshalMission(m)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(m.ID), data); err != nil {
				return err
			}
			created = append(created, m)
			start = end
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CreateMission inserts a single queued mission (used for Sequential and
// Dictionary strategies, which the hydrator seeds directly rather than
// via PreAllocate's window scheme).
func (e *Engine) CreateMission(m *types.Mission) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = types.MissionQueued
	}
	if m.LeaseSeconds == 0 {
		m.LeaseSeconds = 900
	}
	return e.store.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(storage.BucketJobs)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		m.Sequence = seq
		data, err := marshalMission(m)
		if err != nil {
			return err
		}
		return b.Put([]byte(m.ID), data)
	})
}

// QueuedDepth returns the number of currently queued missions.
func (e *Engine) QueuedDepth() (int, error) {
	missions, err := e.store.ListMissions(func(m *types.Mission) bool {
		return m.Status == types.MissionQueued
	})
	if err != nil {
		return 0, err
	}
	return len(missions), nil
}

// forEachMission scans the jobs bucket within an existing transaction,
// in ascending key (mission id) order, as bbolt's Cursor/ForEach natively
// provide.
func forEachMission(tx *bolt.Tx, fn func(*types.Mission) error) error {
	b := tx.Bucket(storage.BucketJobs)
	return b.ForEach(func(k, v []byte) error {
		m, err := unmarshalMission(v)
		if err != nil {
			return err
		}
		return fn(m)
	})
}

func marshalMission(m *types.Mission) ([]byte, error) {
	return json.Marshal(m)
}

func unmarshalMission(data []byte) (*types.Mission, error) {
	var m types.Mission
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SortMissionsBySequence sorts missions ascending by insertion order;
// exported for tests that need deterministic ordering assertions.
func SortMissionsBySequence(missions []*types.Mission) {
	sort.Slice(missions, func(i, j int) bool { return missions[i].Sequence < missions[j].Sequence })
}
