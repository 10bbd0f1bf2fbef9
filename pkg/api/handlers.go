package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/nullshard/prospector/pkg/events"
	"github.com/nullshard/prospector/pkg/mission"
	"github.com/nullshard/prospector/pkg/types"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleTelemetry accepts a worker's periodic WorkerTelemetry report
// (POST /swarm/heartbeat). Named distinctly from the mission
// heartbeat/keepalive route below: one refreshes a mission's lease, the
// other records fleet health.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var t types.WorkerTelemetry
	if err := decodeJSON(r, &t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid telemetry body")
		return
	}
	if err := s.store.PutWorkerTelemetry(&t); err != nil {
		s.logger.Error().Err(err).Str("worker_id", t.WorkerID).Msg("storing telemetry")
		writeError(w, http.StatusInternalServerError, "storing telemetry")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	telemetry, err := s.store.ListWorkerTelemetry()
	if err != nil {
		s.logger.Error().Err(err).Msg("listing telemetry")
		writeError(w, http.StatusInternalServerError, "listing telemetry")
		return
	}
	writeJSON(w, http.StatusOK, telemetry)
}

// handleAcquire assigns the next eligible queued mission to the
// requesting worker, deriving a capability tag from the reported
// WorkerCapability (the AVX2 field is the only capability currently
// bound to a required_capability_tag value — see DESIGN.md).
// Goes straight to the Ledger's own scan-and-claim rather than the
// Dispatch Buffer's in-memory FIFO: the buffer exists to keep storage
// topped up with pre-allocated missions ahead of demand, not to serve as
// a second source of truth for who currently holds a mission.
func (s *Server) handleAcquire(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req types.AcquireRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid acquire body")
		return
	}

	state, err := s.store.GetSystemState()
	if err != nil {
		s.logger.Error().Err(err).Msg("reading system state")
		writeError(w, http.StatusInternalServerError, "reading system state")
		return
	}
	if state != nil && state.ActiveCensusAuditToken != "" && req.CensusAuditToken != state.ActiveCensusAuditToken {
		s.logger.Warn().Str("worker_id", req.WorkerID).Msg("census audit token mismatch on acquire")
		writeError(w, http.StatusServiceUnavailable, "census audit token mismatch: worker is not certified against the active census")
		return
	}

	m, err := s.ledger.Assign(req.WorkerID, capabilityTagFor(req.Capability))
	if err != nil {
		s.logger.Error().Err(err).Str("worker_id", req.WorkerID).Msg("assign failed")
		writeError(w, http.StatusInternalServerError, "assign failed")
		return
	}
	if m == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleKeepalive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req types.KeepaliveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid keepalive body")
		return
	}
	if err := s.ledger.Heartbeat(req.ID); err != nil {
		if errors.Is(err, mission.ErrMissionNotFoundOrExpired) {
			writeError(w, http.StatusNotFound, "mission not found or expired")
			return
		}
		s.logger.Error().Err(err).Str("mission_id", req.ID).Msg("heartbeat failed")
		writeError(w, http.StatusInternalServerError, "heartbeat failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var report types.AuditReport
	if err := decodeJSON(r, &report); err != nil {
		writeError(w, http.StatusBadRequest, "invalid completion report")
		return
	}
	if err := s.ledger.Complete(report); err != nil {
		if errors.Is(err, mission.ErrNotActive) {
			writeError(w, http.StatusConflict, "mission not active")
			return
		}
		s.logger.Error().Err(err).Str("mission_id", report.MissionID).Msg("complete failed")
		writeError(w, http.StatusInternalServerError, "complete failed")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleFinding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var f types.Finding
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid finding body")
		return
	}
	s.vault.Deposit(&f)
	s.broker.Publish(&events.Event{
		Type:     events.EventFindingReported,
		Message:  f.MissionID,
		Metadata: map[string]string{"address": f.Address},
	})
	w.WriteHeader(http.StatusCreated)
}

// capabilityTagFor derives the one required_capability_tag value this
// system currently recognizes. AVX2 gates a SIMD field-arithmetic fast
// path left as a future optimization; no other capability field carries
// scheduling significance yet.
func capabilityTagFor(c types.WorkerCapability) string {
	if c.SIMDAVX2 {
		return "avx2"
	}
	return ""
}

func decodeJSON(r *http.Request, out interface{}) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
