// Package api implements the External Interfaces: the plain bearer-token
// JSON HTTP surface workers call to acquire, heartbeat, complete, and
// report findings against, plus the static resource server that hands
// out the sealed census artifact.
//
// Grounded on an http.ServeMux + JSON handler pattern and
// original_source/apps/orchestrator/src/handlers/swarm.rs, routes.rs,
// middleware.rs for the route table and the auth/operational gating
// middleware chain. Replaces a prior mTLS gRPC server entirely — the
// wire protocol here is bearer-token JSON over plain HTTP, which removes
// any need for certificate-issuance machinery.
package api

import (
	"net/http"
	"time"

	"github.com/nullshard/prospector/pkg/dispatch"
	"github.com/nullshard/prospector/pkg/events"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/nexus"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/nullshard/prospector/pkg/vault"
	"github.com/rs/zerolog"
)

// Ledger is the subset of pkg/mission.Engine the API surface drives.
type Ledger interface {
	Assign(workerID, capabilityTag string) (*types.Mission, error)
	Heartbeat(missionID string) error
	Complete(report types.AuditReport) error
}

// TelemetryStore is the subset of pkg/storage.Store worker telemetry
// reads and writes directly — it has no daemon of its own, unlike
// findings (pkg/vault) and missions (pkg/mission). GetSystemState also
// lets handleAcquire gate dispatch on the worker's declared census audit
// token matching the active one (spec §4.8).
type TelemetryStore interface {
	PutWorkerTelemetry(t *types.WorkerTelemetry) error
	ListWorkerTelemetry() ([]*types.WorkerTelemetry, error)
	GetSystemState() (*types.SystemState, error)
}

// Server bundles every orchestrator subsystem a request handler can
// touch into one value with individually guarded interior-mutable
// fields — shared read-mostly access, no single global mutex.
type Server struct {
	ledger Ledger
	buffer *dispatch.Buffer
	vault  *vault.Vault
	store  TelemetryStore
	nexus  *nexus.Nexus
	broker *events.Broker

	resourceDir     string
	workerAuthToken string

	mux    *http.ServeMux
	logger zerolog.Logger
}

// New constructs the API server and registers every route.
func New(ledger Ledger, buffer *dispatch.Buffer, v *vault.Vault, store TelemetryStore, nx *nexus.Nexus, broker *events.Broker, resourceDir, workerAuthToken string) *Server {
	s := &Server{
		ledger:          ledger,
		buffer:          buffer,
		vault:           v,
		store:           store,
		nexus:           nx,
		broker:          broker,
		resourceDir:     resourceDir,
		workerAuthToken: workerAuthToken,
		mux:             http.NewServeMux(),
		logger:          log.WithComponent("api"),
	}
	s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler, ready for
// http.Server.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Handle("/health", s.instrument("/health", http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/metrics", metrics.Handler())

	s.mux.Handle("/swarm/heartbeat", s.instrument("/swarm/heartbeat", s.auth(http.HandlerFunc(s.handleTelemetry))))
	s.mux.Handle("/swarm/status", s.instrument("/swarm/status", s.auth(http.HandlerFunc(s.handleStatus))))
	s.mux.Handle("/swarm/job/acquire", s.instrument("/swarm/job/acquire", s.auth(s.gated(http.HandlerFunc(s.handleAcquire)))))
	s.mux.Handle("/swarm/job/keepalive", s.instrument("/swarm/job/keepalive", s.auth(s.gated(http.HandlerFunc(s.handleKeepalive)))))
	s.mux.Handle("/swarm/job/complete", s.instrument("/swarm/job/complete", s.auth(http.HandlerFunc(s.handleComplete))))
	s.mux.Handle("/swarm/finding", s.instrument("/swarm/finding", s.auth(http.HandlerFunc(s.handleFinding))))

	s.mux.Handle("/resources/", s.auth(http.StripPrefix("/resources/", http.FileServer(http.Dir(s.resourceDir)))))
}

// ListenAndServe starts the HTTP server on addr, with the same
// read/write/idle timeout tuning used across this repository's other
// HTTP servers.
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}
