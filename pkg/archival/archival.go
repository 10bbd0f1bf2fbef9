// Package archival implements the Archival Relay and Parity Auditor
// (component I): two independent drain streams replicating completed
// missions and findings from the tactical store to a strategic HTTP sink,
// plus a slow background auditor comparing row counts between the two.
//
// Grounded on original_source/apps/orchestrator/src/services/archival_relay.rs
// and original_source/apps/orchestrator/src/services/parity_auditor.rs; the
// daemon shape follows the ticker + stopCh + logger pattern used
// throughout this package's sibling daemons.
package archival

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nullshard/prospector/pkg/events"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/rs/zerolog"
)

const (
	// DefaultDrainInterval is how often each drain stream runs.
	DefaultDrainInterval = 60 * time.Second
	// DefaultAuditInterval is how often the parity auditor compares counts.
	DefaultAuditInterval = 3600 * time.Second

	missionBatchSize = 25
	findingBatchSize = 10
)

// Store is the tactical-store surface the relay needs.
type Store interface {
	ListMissions(pred func(*types.Mission) bool) ([]*types.Mission, error)
	ListFindings(pred func(*types.Finding) bool) ([]*types.Finding, error)
	MarkMissionArchived(id string, archivedAt time.Time) error
	MarkFindingArchived(id string, archivedAt time.Time) error
}

// Relay drains completed missions and unarchived findings to a strategic
// HTTP sink and periodically audits parity between the two stores.
type Relay struct {
	store  Store
	client *http.Client
	broker *events.Broker
	logger zerolog.Logger

	baseURL    string
	serviceKey string

	missionTicker *time.Ticker
	findingTicker *time.Ticker
	auditTicker   *time.Ticker
	stopCh        chan struct{}
}

// New constructs a Relay posting to baseURL with serviceKey bearer auth.
func New(store Store, broker *events.Broker, baseURL, serviceKey string) *Relay {
	return &Relay{
		store:      store,
		client:     &http.Client{Timeout: 10 * time.Second},
		broker:     broker,
		logger:     log.WithComponent("archival"),
		baseURL:    baseURL,
		serviceKey: serviceKey,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the two drain streams and the parity auditor as
// independent goroutines on independent tickers.
func (r *Relay) Start() {
	r.missionTicker = time.NewTicker(DefaultDrainInterval)
	r.findingTicker = time.NewTicker(DefaultDrainInterval)
	r.auditTicker = time.NewTicker(DefaultAuditInterval)

	go r.loop(r.missionTicker, r.drainMissions)
	go r.loop(r.findingTicker, r.drainFindings)
	go r.loop(r.auditTicker, r.auditParity)
}

// Stop halts all three loops.
func (r *Relay) Stop() {
	close(r.stopCh)
	r.missionTicker.Stop()
	r.findingTicker.Stop()
	r.auditTicker.Stop()
}

func (r *Relay) loop(ticker *time.Ticker, cycle func()) {
	for {
		select {
		case <-ticker.C:
			cycle()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Relay) drainMissions() {
	rows, err := r.store.ListMissions(func(m *types.Mission) bool {
		return m.Status == types.MissionCompleted && m.ArchivedAt == nil
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("listing completed missions for archival")
		return
	}
	if len(rows) > missionBatchSize {
		rows = rows[:missionBatchSize]
	}

	for _, m := range rows {
		if err := r.postJSON("missions", "/strategic/missions", map[string]any{"original_mission_id": m.ID, "mission": m}); err != nil {
			r.logger.Warn().Err(err).Str("mission_id", m.ID).Msg("mission archival POST failed, retrying next cycle")
			continue
		}
		now := time.Now()
		if err := r.store.MarkMissionArchived(m.ID, now); err != nil {
			r.logger.Error().Err(err).Str("mission_id", m.ID).Msg("marking mission archived")
			continue
		}
		r.broker.Publish(&events.Event{Type: events.EventMissionArchived, Metadata: map[string]string{"mission_id": m.ID}})
	}
}

func (r *Relay) drainFindings() {
	rows, err := r.store.ListFindings(func(f *types.Finding) bool { return f.ArchivedAt == nil })
	if err != nil {
		r.logger.Error().Err(err).Msg("listing findings for archival")
		return
	}
	if len(rows) > findingBatchSize {
		rows = rows[:findingBatchSize]
	}

	for _, f := range rows {
		if err := r.postJSON("findings", "/strategic/findings", map[string]any{"original_id": f.ID, "finding": f}); err != nil {
			r.logger.Warn().Err(err).Str("finding_id", f.ID).Msg("finding archival POST failed, retrying next cycle")
			continue
		}
		now := time.Now()
		if err := r.store.MarkFindingArchived(f.ID, now); err != nil {
			r.logger.Error().Err(err).Str("finding_id", f.ID).Msg("marking finding archived")
			continue
		}
		r.broker.Publish(&events.Event{Type: events.EventFindingArchived, Metadata: map[string]string{"finding_id": f.ID}})
	}
}

// auditParity compares tactical's completed-mission count against
// strategic's range-count header. A positive drift is reported, never
// auto-remediated.
func (r *Relay) auditParity() {
	tactical, err := r.store.ListMissions(func(m *types.Mission) bool { return m.Status == types.MissionCompleted })
	if err != nil {
		r.logger.Error().Err(err).Msg("counting tactical completed missions")
		return
	}

	strategic, err := r.strategicCompletedCount()
	if err != nil {
		r.logger.Error().Err(err).Msg("reading strategic completed count")
		return
	}

	drift := len(tactical) - strategic
	if drift > 0 {
		metrics.ArchivalDriftTotal.Add(float64(drift))
		r.logger.Warn().Int("tactical", len(tactical)).Int("strategic", strategic).Int("drift", drift).Msg("archival parity drift detected")
		r.broker.Publish(&events.Event{
			Type:    events.EventArchivalDrift,
			Message: fmt.Sprintf("tactical exceeds strategic by %d completed missions", drift),
		})
	}
}

func (r *Relay) strategicCompletedCount() (int, error) {
	req, err := http.NewRequest(http.MethodHead, r.baseURL+"/strategic/missions/count", nil)
	if err != nil {
		return 0, err
	}
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var count int
	if _, err := fmt.Sscanf(resp.Header.Get("X-Range-Count"), "%d", &count); err != nil {
		return 0, fmt.Errorf("archival: parsing X-Range-Count: %w", err)
	}
	return count, nil
}

func (r *Relay) postJSON(stream, path string, body any) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.ArchivalRelayDuration, stream)

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, r.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")
	r.authorize(req)

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("archival: %s returned %d", path, resp.StatusCode)
	}
	return nil
}

func (r *Relay) authorize(req *http.Request) {
	if r.serviceKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.serviceKey)
	}
}
