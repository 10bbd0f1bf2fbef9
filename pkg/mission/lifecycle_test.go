package mission

import (
	"testing"
	"time"

	"github.com/nullshard/prospector/pkg/storage"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewEngine(store)
}

func seedQueuedMission(t *testing.T, e *Engine, capabilityTag string) *types.Mission {
	t.Helper()
	m := &types.Mission{
		RequiredCapabilityTag: capabilityTag,
		Strategy: types.Strategy{
			Kind: types.StrategySequential,
			Sequential: &types.SequentialParams{
				StartHex: "1",
				EndHex:   "100",
			},
		},
	}
	require.NoError(t, e.CreateMission(m))
	return m
}

func TestAssignReturnsNilWhenNoEligibleMission(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestAssignPicksLowestSequenceFirst(t *testing.T) {
	e := newTestEngine(t)
	first := seedQueuedMission(t, e, "")
	second := seedQueuedMission(t, e, "")

	assigned, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, assigned)
	assert.Equal(t, first.ID, assigned.ID)
	assert.NotEqual(t, second.ID, assigned.ID)
	assert.Equal(t, types.MissionActive, assigned.Status)
	assert.Equal(t, "worker-1", assigned.WorkerID)
	assert.NotNil(t, assigned.StartedAt)
	assert.NotNil(t, assigned.LastHeartbeatAt)
}

func TestAssignRespectsCapabilityTag(t *testing.T) {
	e := newTestEngine(t)
	seedQueuedMission(t, e, "simd_avx2")
	generic := seedQueuedMission(t, e, "")

	assigned, err := e.Assign("worker-1", "no-simd")
	require.NoError(t, err)
	require.NotNil(t, assigned)
	// the tagged mission doesn't match "no-simd"; the untagged one is eligible for anyone
	assert.Equal(t, generic.ID, assigned.ID)
}

func TestAssignDoesNotReassignActiveMission(t *testing.T) {
	e := newTestEngine(t)
	seedQueuedMission(t, e, "")

	first, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := e.Assign("worker-2", "")
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestHeartbeatUpdatesActiveMission(t *testing.T) {
	e := newTestEngine(t)
	seedQueuedMission(t, e, "")
	assigned, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, assigned)

	before := *assigned.LastHeartbeatAt
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, e.Heartbeat(assigned.ID))

	stored, err := e.store.GetMission(assigned.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastHeartbeatAt.After(before))
}

func TestHeartbeatOnQueuedMissionIsNotFoundOrExpired(t *testing.T) {
	e := newTestEngine(t)
	m := seedQueuedMission(t, e, "")
	err := e.Heartbeat(m.ID)
	assert.ErrorIs(t, err, ErrMissionNotFoundOrExpired)
}

func TestHeartbeatUnknownMissionIsNotFoundOrExpired(t *testing.T) {
	e := newTestEngine(t)
	err := e.Heartbeat("does-not-exist")
	assert.ErrorIs(t, err, ErrMissionNotFoundOrExpired)
}

func TestCompleteOnNonActiveMissionFails(t *testing.T) {
	e := newTestEngine(t)
	m := seedQueuedMission(t, e, "")
	err := e.Complete(types.AuditReport{MissionID: m.ID, EffortVolume: "10", Checkpoint: "abc"})
	assert.ErrorIs(t, err, ErrNotActive)
}

// TestCompleteFirstMissionChainsFromGenesis is P1 (partial): the first
// completed mission in an empty ledger must chain from GenesisHash.
func TestCompleteFirstMissionChainsFromGenesis(t *testing.T) {
	e := newTestEngine(t)
	m := seedQueuedMission(t, e, "")
	assigned, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, assigned)

	report := types.AuditReport{MissionID: m.ID, EffortVolume: "256", Checkpoint: "100"}
	require.NoError(t, e.Complete(report))

	stored, err := e.store.GetMission(m.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MissionCompleted, stored.Status)
	assert.Equal(t, chainHash(GenesisHash, m.ID, report.EffortVolume, report.Checkpoint), stored.IntegrityHash)
}

// TestCompleteSecondMissionChainsFromFirst is P1: the ledger's integrity
// hash must chain — each completion's prev_hash is the prior completion's
// integrity_hash, not GenesisHash again.
func TestCompleteSecondMissionChainsFromFirst(t *testing.T) {
	e := newTestEngine(t)

	m1 := seedQueuedMission(t, e, "")
	a1, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, a1)
	require.NoError(t, e.Complete(types.AuditReport{MissionID: m1.ID, EffortVolume: "1", Checkpoint: "a"}))

	stored1, err := e.store.GetMission(m1.ID)
	require.NoError(t, err)

	m2 := seedQueuedMission(t, e, "")
	a2, err := e.Assign("worker-2", "")
	require.NoError(t, err)
	require.NotNil(t, a2)
	require.NoError(t, e.Complete(types.AuditReport{MissionID: m2.ID, EffortVolume: "2", Checkpoint: "b"}))

	stored2, err := e.store.GetMission(m2.ID)
	require.NoError(t, err)

	want := chainHash(stored1.IntegrityHash, m2.ID, "2", "b")
	assert.Equal(t, want, stored2.IntegrityHash)
	assert.NotEqual(t, stored1.IntegrityHash, stored2.IntegrityHash)
}

// TestZombieSweepFindsStaleActiveMissionAndRequeueResets is the zombie-recovery scenario
// from the spec's end-to-end tests: a mission whose heartbeat is older
// than the threshold is reported, and Requeue resets it cleanly.
func TestZombieSweepFindsStaleActiveMissionAndRequeueResets(t *testing.T) {
	e := newTestEngine(t)
	m := seedQueuedMission(t, e, "")
	assigned, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, assigned)

	stale := time.Now().UTC().Add(-10 * time.Minute)

	current, err := e.store.GetMission(assigned.ID)
	require.NoError(t, err)
	current.LastHeartbeatAt = &stale
	require.NoError(t, e.store.Update(func(tx *bolt.Tx) error {
		return storage.PutMission(tx, current)
	}))

	ids, err := e.ZombieSweep(60)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, assigned.ID, ids[0])

	require.NoError(t, e.Requeue(ids))

	requeued, err := e.store.GetMission(assigned.ID)
	require.NoError(t, err)
	assert.Equal(t, types.MissionQueued, requeued.Status)
	assert.Empty(t, requeued.WorkerID)
	assert.Nil(t, requeued.LastHeartbeatAt)
	assert.Equal(t, 1, requeued.AttemptCount)
	_ = m
}

func TestZombieSweepIgnoresFreshHeartbeat(t *testing.T) {
	e := newTestEngine(t)
	seedQueuedMission(t, e, "")
	assigned, err := e.Assign("worker-1", "")
	require.NoError(t, err)
	require.NotNil(t, assigned)

	ids, err := e.ZombieSweep(300)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRequeueEmptyIDsIsNoop(t *testing.T) {
	e := newTestEngine(t)
	assert.NoError(t, e.Requeue(nil))
}

// TestPreAllocateWindowsDoNotOverlap is P3: successive pre-allocated
// PerformanceBufferReplay windows must be contiguous and non-overlapping.
func TestPreAllocateWindowsDoNotOverlap(t *testing.T) {
	e := newTestEngine(t)
	created, err := e.PreAllocate("scenario-xp-1", 3, 1000)
	require.NoError(t, err)
	require.Len(t, created, 3)

	SortMissionsBySequence(created)
	var prevEnd int64
	for i, m := range created {
		require.Equal(t, types.StrategyPerformanceBuffer, m.Strategy.Kind)
		require.NotNil(t, m.Strategy.PerfBuffer)
		if i > 0 {
			assert.Equal(t, prevEnd, m.Strategy.PerfBuffer.UptimeSStart)
		}
		assert.Equal(t, m.Strategy.PerfBuffer.UptimeSStart+PreAllocateWindowSeconds, m.Strategy.PerfBuffer.UptimeSEnd)
		prevEnd = m.Strategy.PerfBuffer.UptimeSEnd
	}
}

func TestPreAllocateContinuesFromExistingMaxEnd(t *testing.T) {
	e := newTestEngine(t)
	first, err := e.PreAllocate("scenario-a", 1, 1000)
	require.NoError(t, err)
	require.Len(t, first, 1)
	firstEnd := first[0].Strategy.PerfBuffer.UptimeSEnd

	second, err := e.PreAllocate("scenario-a", 1, 1000)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, firstEnd, second[0].Strategy.PerfBuffer.UptimeSStart)
}

func TestPreAllocateScenariosAreIndependent(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.PreAllocate("scenario-a", 2, 1000)
	require.NoError(t, err)

	b, err := e.PreAllocate("scenario-b", 1, 1000)
	require.NoError(t, err)
	require.Len(t, b, 1)
	assert.Equal(t, int64(0), b[0].Strategy.PerfBuffer.UptimeSStart)
}

func TestCreateMissionDefaultsFields(t *testing.T) {
	e := newTestEngine(t)
	m := &types.Mission{}
	require.NoError(t, e.CreateMission(m))
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, types.MissionQueued, m.Status)
	assert.Equal(t, 900, m.LeaseSeconds)
}

func TestQueuedDepthCountsOnlyQueued(t *testing.T) {
	e := newTestEngine(t)
	seedQueuedMission(t, e, "")
	seedQueuedMission(t, e, "")
	assigned := seedQueuedMission(t, e, "")
	_, err := e.Assign("worker-1", "")
	require.NoError(t, err)

	depth, err := e.QueuedDepth()
	require.NoError(t, err)
	// two remain queued; the one Assign picked (lowest sequence) is now active
	assert.Equal(t, 2, depth)
	_ = assigned
}
