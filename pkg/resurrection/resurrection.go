// Package resurrection implements the Resurrection/Autoscaler daemon
// (component J): a 60-second cycle that sweeps for zombie missions,
// requests external capacity to cover them, and only then requeues them —
// so a persistently failing expansion signal leaves the zombies visible
// for the next cycle rather than quietly masking an outage.
//
// Grounded on
// original_source/apps/orchestrator/src/services/resurrection.rs and
// its ticker+stopCh+logger daemon shape.
package resurrection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/metrics"
	"github.com/nullshard/prospector/pkg/nexus"
	"github.com/rs/zerolog"
)

// DefaultCycleInterval is the resurrection cycle period, independent of
// (and longer than) the dispatch hydrator's tick.
const DefaultCycleInterval = 60 * time.Second

// DefaultZombieThresholdSeconds is the heartbeat staleness cutoff passed to
// the zombie sweep.
const DefaultZombieThresholdSeconds = 300

// Ledger is the subset of pkg/mission.Engine the daemon drives.
type Ledger interface {
	ZombieSweep(thresholdSeconds int) ([]string, error)
	Requeue(ids []string) error
}

// Daemon runs the resurrection cycle.
type Daemon struct {
	ledger            Ledger
	nexus             *nexus.Nexus
	client            *http.Client
	expansionURL      string
	expansionToken    string
	zombieThreshold   int
	cycleInterval     time.Duration
	logger            zerolog.Logger
	stopCh            chan struct{}
}

// New constructs a resurrection Daemon. expansionURL may be empty, in
// which case the expansion signal is skipped and requeue proceeds
// unconditionally (no external provisioner configured).
func New(ledger Ledger, nx *nexus.Nexus, expansionURL, expansionToken string) *Daemon {
	return &Daemon{
		ledger:          ledger,
		nexus:           nx,
		client:          &http.Client{Timeout: 10 * time.Second},
		expansionURL:    expansionURL,
		expansionToken:  expansionToken,
		zombieThreshold: DefaultZombieThresholdSeconds,
		cycleInterval:   DefaultCycleInterval,
		logger:          log.WithComponent("resurrection"),
		stopCh:          make(chan struct{}),
	}
}

// Start launches the daemon loop.
func (d *Daemon) Start() { go d.run() }

// Stop halts the daemon loop.
func (d *Daemon) Stop() { close(d.stopCh) }

func (d *Daemon) run() {
	ticker := time.NewTicker(d.cycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cycle()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Daemon) cycle() {
	if !d.nexus.IsOperational() {
		return
	}

	ids, err := d.ledger.ZombieSweep(d.zombieThreshold)
	if err != nil {
		d.logger.Error().Err(err).Msg("zombie sweep failed")
		return
	}
	if len(ids) == 0 {
		return
	}
	d.logger.Warn().Int("count", len(ids)).Msg("zombie missions detected")

	if err := d.signalExpansion(len(ids)); err != nil {
		metrics.ExpansionSignalsTotal.WithLabelValues("failure").Inc()
		d.logger.Error().Err(err).Int("count", len(ids)).Msg("expansion signal failed, leaving zombies visible")
		return
	}
	metrics.ExpansionSignalsTotal.WithLabelValues("success").Inc()

	if err := d.ledger.Requeue(ids); err != nil {
		d.logger.Error().Err(err).Msg("requeue after expansion signal failed")
		return
	}
	d.logger.Info().Int("count", len(ids)).Msg("zombie missions requeued")
}

// signalExpansion posts {count} to the external provisioner. A nil error
// with no configured URL is a no-op success, so environments without an
// autoscaler still requeue zombies promptly.
func (d *Daemon) signalExpansion(count int) error {
	if d.expansionURL == "" {
		return nil
	}

	body, err := json.Marshal(map[string]int{"count": count})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, d.expansionURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.expansionToken != "" {
		req.Header.Set("Authorization", "Bearer "+d.expansionToken)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resurrection: expansion signal returned %d", resp.StatusCode)
	}
	return nil
}
