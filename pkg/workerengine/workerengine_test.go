package workerengine

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nullshard/prospector/pkg/strategy"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEngineSequential(t *testing.T) {
	eng, err := buildEngine(types.Strategy{
		Kind:       types.StrategySequential,
		Sequential: &types.SequentialParams{StartHex: "1", EndHex: "2"},
	})
	require.NoError(t, err)
	_, ok := eng.(*strategy.Sequential)
	assert.True(t, ok)
}

func TestBuildEngineMissingParamsIsError(t *testing.T) {
	_, err := buildEngine(types.Strategy{Kind: types.StrategySequential})
	assert.Error(t, err)

	_, err = buildEngine(types.Strategy{Kind: types.StrategyDictionary})
	assert.Error(t, err)

	_, err = buildEngine(types.Strategy{Kind: types.StrategyForensicReplay})
	assert.Error(t, err)

	_, err = buildEngine(types.Strategy{Kind: types.StrategyPerformanceBuffer})
	assert.Error(t, err)
}

func TestBuildEngineUnknownKindIsError(t *testing.T) {
	_, err := buildEngine(types.Strategy{Kind: "not-a-real-kind"})
	assert.Error(t, err)
}

func TestBuildEnginePerformanceBufferGeneratesTemplate(t *testing.T) {
	eng, err := buildEngine(types.Strategy{
		Kind: types.StrategyPerformanceBuffer,
		PerfBuffer: &types.PerformanceBufferParams{
			ScenarioID: "s", UptimeSStart: 0, UptimeSEnd: 1, ClockHz: 100,
		},
	})
	require.NoError(t, err)
	p, ok := eng.(*strategy.PerformanceBufferReplay)
	require.True(t, ok)
	assert.Len(t, p.Template, strategy.PerfBufferSize)
}

func TestWalletTypeForStrategyKind(t *testing.T) {
	assert.Equal(t, "p2pkh_compressed", walletTypeFor(types.StrategySequential))
	assert.Equal(t, "p2pkh_compressed", walletTypeFor(types.StrategyPerformanceBuffer))
	assert.Equal(t, "p2pkh_uncompressed", walletTypeFor(types.StrategyDictionary))
	assert.Equal(t, "p2pkh_uncompressed", walletTypeFor(types.StrategyForensicReplay))
}

func TestLeaseHeartbeatIntervalIsOneThirdOfLease(t *testing.T) {
	assert.Equal(t, 300*time.Second, leaseHeartbeatInterval(900))
}

func TestLeaseHeartbeatIntervalFloorsAtOneSecond(t *testing.T) {
	assert.Equal(t, time.Second, leaseHeartbeatInterval(1))
}

func TestLeaseHeartbeatIntervalDefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, leaseHeartbeatInterval(defaultLeaseSeconds), leaseHeartbeatInterval(0))
}

func TestSleepOrStopReturnsTrueOnTimerElapse(t *testing.T) {
	stop := make(chan struct{})
	assert.True(t, sleepOrStop(10*time.Millisecond, stop))
}

func TestSleepOrStopReturnsFalseOnStop(t *testing.T) {
	stop := make(chan struct{})
	close(stop)
	assert.False(t, sleepOrStop(time.Hour, stop))
}

func TestQueryFuncAdaptsPlainFunction(t *testing.T) {
	var q strategy.Filter = queryFunc(func(key []byte) bool { return string(key) == "hit" })
	assert.True(t, q.Query([]byte("hit")))
	assert.False(t, q.Query([]byte("miss")))
}

func TestClientAcquireReturnsMissionOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swarm/job/acquire", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(types.Mission{ID: "m1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	m, err := c.Acquire(types.AcquireRequest{WorkerID: "w1"})
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "m1", m.ID)
}

func TestClientAcquireReturnsNilOn204(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	m, err := c.Acquire(types.AcquireRequest{WorkerID: "w1"})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestClientAcquireReturnsNilOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	m, err := c.Acquire(types.AcquireRequest{WorkerID: "w1"})
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestClientAcquireErrorsOn503(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Acquire(types.AcquireRequest{WorkerID: "w1"})
	assert.Error(t, err)
}

func TestClientHeartbeatPostsKeepalive(t *testing.T) {
	var gotBody types.KeepaliveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swarm/job/keepalive", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.Heartbeat("m1"))
	assert.Equal(t, "m1", gotBody.ID)
}

func TestClientCompletePostsAuditReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swarm/job/complete", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.Complete(types.AuditReport{MissionID: "m1"}))
}

func TestClientReportFindingPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/swarm/finding", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.ReportFinding(types.Finding{ID: "f1"}))
}

func TestClientFetchResourceReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources/stratum_manifest.json", r.URL.Path)
		w.Write([]byte(`{"audit_token":"abc"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	data, err := c.FetchResource("stratum_manifest.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "abc")
}

func TestClientFetchResourceErrorsOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.FetchResource("missing.bin")
	assert.Error(t, err)
}
