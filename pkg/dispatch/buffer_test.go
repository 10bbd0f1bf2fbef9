package dispatch

import (
	"errors"
	"testing"
	"time"

	"github.com/nullshard/prospector/pkg/nexus"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAllocator struct {
	missions []*types.Mission
	err      error
	calls    int
}

func (f *fakeAllocator) PreAllocate(scenarioID string, volume int, clockHz int64) ([]*types.Mission, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.missions, nil
}

type fakeStateReader struct {
	state *types.SystemState
	err   error
}

func (f *fakeStateReader) GetSystemState() (*types.SystemState, error) {
	return f.state, f.err
}

func missionBatch(n int) []*types.Mission {
	out := make([]*types.Mission, n)
	for i := range out {
		out[i] = &types.Mission{ID: "m", Status: types.MissionQueued}
	}
	return out
}

func TestPullOnEmptyBufferReturnsNil(t *testing.T) {
	b := NewBuffer(&fakeAllocator{}, &fakeStateReader{}, nexus.New())
	assert.Nil(t, b.Pull())
}

func TestHydrateThenPullIsFIFO(t *testing.T) {
	b := NewBuffer(&fakeAllocator{}, &fakeStateReader{}, nexus.New())
	first := &types.Mission{ID: "first"}
	second := &types.Mission{ID: "second"}
	b.Hydrate([]*types.Mission{first, second})

	assert.Equal(t, 2, b.Depth())
	assert.Equal(t, "first", b.Pull().ID)
	assert.Equal(t, "second", b.Pull().ID)
	assert.Nil(t, b.Pull())
}

func TestHydrateEmptyBatchIsNoop(t *testing.T) {
	b := NewBuffer(&fakeAllocator{}, &fakeStateReader{}, nexus.New())
	b.Hydrate(nil)
	assert.Equal(t, 0, b.Depth())
}

func TestCycleSkipsWhenNexusAwaitingCertification(t *testing.T) {
	alloc := &fakeAllocator{missions: missionBatch(5)}
	nx := nexus.New() // defaults to AwaitingCertification
	b := NewBuffer(alloc, &fakeStateReader{state: &types.SystemState{ActiveScenarioConfig: "s1"}}, nx)

	b.cycle()
	assert.Equal(t, 0, alloc.calls)
	assert.Equal(t, 0, b.Depth())
}

func TestCycleSkipsWhenDepthAtOrAboveLowWatermark(t *testing.T) {
	alloc := &fakeAllocator{missions: missionBatch(5)}
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	b := NewBuffer(alloc, &fakeStateReader{state: &types.SystemState{ActiveScenarioConfig: "s1"}}, nx)
	b.lowWatermark = 1
	b.Hydrate(missionBatch(1))

	b.cycle()
	assert.Equal(t, 0, alloc.calls)
}

func TestCycleSkipsWhenNoActiveScenario(t *testing.T) {
	alloc := &fakeAllocator{missions: missionBatch(5)}
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	b := NewBuffer(alloc, &fakeStateReader{state: &types.SystemState{}}, nx)

	b.cycle()
	assert.Equal(t, 0, alloc.calls)
	assert.Equal(t, 0, b.Depth())
}

func TestCycleHydratesFromAllocator(t *testing.T) {
	alloc := &fakeAllocator{missions: missionBatch(5)}
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	b := NewBuffer(alloc, &fakeStateReader{state: &types.SystemState{ActiveScenarioConfig: "s1"}}, nx)

	b.cycle()
	assert.Equal(t, 1, alloc.calls)
	assert.Equal(t, 5, b.Depth())
}

func TestCycleHandlesSystemStateError(t *testing.T) {
	alloc := &fakeAllocator{missions: missionBatch(5)}
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	b := NewBuffer(alloc, &fakeStateReader{err: errors.New("boom")}, nx)

	b.cycle()
	assert.Equal(t, 0, alloc.calls)
	assert.Equal(t, 0, b.Depth())
}

func TestCycleHandlesAllocatorError(t *testing.T) {
	alloc := &fakeAllocator{err: errors.New("allocator boom")}
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	b := NewBuffer(alloc, &fakeStateReader{state: &types.SystemState{ActiveScenarioConfig: "s1"}}, nx)

	b.cycle()
	assert.Equal(t, 0, b.Depth())
}

// TestStartStopRespondsPromptly is P5 applied to the hydrator daemon: Stop
// must halt the run loop without requiring a full cycleInterval to elapse.
func TestStartStopRespondsPromptly(t *testing.T) {
	alloc := &fakeAllocator{missions: missionBatch(1)}
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	b := NewBuffer(alloc, &fakeStateReader{state: &types.SystemState{ActiveScenarioConfig: "s1"}}, nx)
	b.cycleInterval = time.Hour // would never fire naturally within the test

	b.Start()

	done := make(chan struct{})
	go func() {
		b.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return promptly")
	}
	require.Equal(t, 0, alloc.calls)
}
