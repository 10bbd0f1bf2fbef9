package resurrection

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nullshard/prospector/pkg/nexus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	zombies      []string
	sweepErr     error
	requeueErr   error
	requeueCalls [][]string
}

func (f *fakeLedger) ZombieSweep(thresholdSeconds int) ([]string, error) {
	return f.zombies, f.sweepErr
}

func (f *fakeLedger) Requeue(ids []string) error {
	f.requeueCalls = append(f.requeueCalls, ids)
	return f.requeueErr
}

func operationalNexus() *nexus.Nexus {
	nx := nexus.New()
	nx.SetIntegrity(nexus.CertifiedOperational)
	return nx
}

func TestCycleSkipsWhenNexusNotOperational(t *testing.T) {
	ledger := &fakeLedger{zombies: []string{"m1"}}
	d := New(ledger, nexus.New(), "", "") // default nexus is AwaitingCertification+FullExecution, which IS operational
	d.nexus.SetMode(nexus.EmergencyStop)

	d.cycle()
	assert.Empty(t, ledger.requeueCalls)
}

func TestCycleNoopWhenNoZombies(t *testing.T) {
	ledger := &fakeLedger{}
	d := New(ledger, operationalNexus(), "", "")
	d.cycle()
	assert.Empty(t, ledger.requeueCalls)
}

func TestCycleSweepErrorStopsCycle(t *testing.T) {
	ledger := &fakeLedger{sweepErr: errors.New("bolt unavailable")}
	d := New(ledger, operationalNexus(), "", "")
	d.cycle()
	assert.Empty(t, ledger.requeueCalls)
}

// TestCycleRequeuesWithoutExpansionURLConfigured exercises the no-op
// success path: no provisioner configured means requeue proceeds.
func TestCycleRequeuesWithoutExpansionURLConfigured(t *testing.T) {
	ledger := &fakeLedger{zombies: []string{"m1", "m2"}}
	d := New(ledger, operationalNexus(), "", "")
	d.cycle()
	require.Len(t, ledger.requeueCalls, 1)
	assert.Equal(t, []string{"m1", "m2"}, ledger.requeueCalls[0])
}

// TestCycleLeavesZombiesVisibleWhenExpansionSignalFails is spec §4.6: a
// failing expansion signal must NOT requeue, so zombies remain visible for
// the next cycle instead of silently masking the outage.
func TestCycleLeavesZombiesVisibleWhenExpansionSignalFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ledger := &fakeLedger{zombies: []string{"m1"}}
	d := New(ledger, operationalNexus(), srv.URL, "")
	d.cycle()
	assert.Empty(t, ledger.requeueCalls)
}

func TestCycleRequeuesAfterSuccessfulExpansionSignal(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ledger := &fakeLedger{zombies: []string{"m1"}}
	d := New(ledger, operationalNexus(), srv.URL, "secret-token")
	d.cycle()

	require.Len(t, ledger.requeueCalls, 1)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestSignalExpansionNoURLIsNoopSuccess(t *testing.T) {
	d := New(&fakeLedger{}, operationalNexus(), "", "")
	assert.NoError(t, d.signalExpansion(3))
}

func TestSignalExpansionNonTwoXXIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	d := New(&fakeLedger{}, operationalNexus(), srv.URL, "")
	assert.Error(t, d.signalExpansion(1))
}

// TestStartStopRespondsPromptly is P5 applied to the resurrection daemon.
func TestStartStopRespondsPromptly(t *testing.T) {
	d := New(&fakeLedger{}, operationalNexus(), "", "")
	d.cycleInterval = time.Hour
	d.Start()

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return promptly")
	}
}
