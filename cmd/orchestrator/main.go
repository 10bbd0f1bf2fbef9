// Command orchestrator runs the full set of orchestrator-side daemons: the
// Mission Lifecycle Engine, the Dispatch Buffer hydrator, the Finding
// Vault flusher, the Archival Relay, the Resurrection autoscaler daemon,
// the Certification Authority, and the External Interfaces HTTP server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nullshard/prospector/pkg/api"
	"github.com/nullshard/prospector/pkg/archival"
	"github.com/nullshard/prospector/pkg/census"
	"github.com/nullshard/prospector/pkg/config"
	"github.com/nullshard/prospector/pkg/dispatch"
	"github.com/nullshard/prospector/pkg/events"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/mission"
	"github.com/nullshard/prospector/pkg/nexus"
	"github.com/nullshard/prospector/pkg/resurrection"
	"github.com/nullshard/prospector/pkg/storage"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/nullshard/prospector/pkg/vault"
)

const resourceDir = "./resources"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "orchestrator: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadOrchestratorConfig()
	if err != nil {
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	logger := log.WithComponent("orchestrator-main")

	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening tactical store: %w", err)
	}
	defer store.Close()

	nx := nexus.New()
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	if err := certifyCensus(store, nx); err != nil {
		logger.Error().Err(err).Msg("census certification failed, marking compromised")
		nx.SetCompromised(err.Error())
	}

	missionEngine := mission.NewEngine(store)

	buffer := dispatch.NewBuffer(missionEngine, store, nx)
	buffer.Start()
	defer buffer.Stop()

	findingVault := vault.New(store)
	findingVault.Start()
	defer findingVault.Stop()

	relay := archival.New(store, broker, cfg.StrategicURL, cfg.StrategicServiceKey)
	relay.Start()
	defer relay.Stop()

	resurrectionDaemon := resurrection.New(missionEngine, nx, cfg.ExpansionProviderURL, cfg.ExpansionToken)
	resurrectionDaemon.Start()
	defer resurrectionDaemon.Stop()

	ca := nexus.NewCertificationAuthority(nx, broker, cfg.GoldenVectorAddress)
	go ca.Run()

	server := api.New(missionEngine, buffer, findingVault, store, nx, broker, resourceDir, cfg.WorkerAuthToken)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Int("port", cfg.Port).Msg("orchestrator listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("http server failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during http shutdown")
	}

	logger.Info().Msg("orchestrator stopped")
	return nil
}

// certifyCensus loads the sealed census artifact from disk and compares
// its audit token against the last certified token recorded in the
// tactical store. A match (or a first-ever boot with no prior record)
// advances the nexus to CertificationInProgress, which lets
// CertificationAuthority.Run complete the handshake once a worker reports
// the golden vector finding. Any mismatch means the resource directory
// was reseeded without a matching data migration and the deployment
// should not serve work.
func certifyCensus(store *storage.Store, nx *nexus.Nexus) error {
	manifest, err := census.LoadManifest(resourceDir)
	if err != nil {
		return fmt.Errorf("loading census manifest: %w", err)
	}

	state, err := store.GetSystemState()
	if err != nil {
		return fmt.Errorf("reading system state: %w", err)
	}
	if state == nil {
		state = &types.SystemState{}
	}

	if state.ActiveCensusAuditToken != "" && state.ActiveCensusAuditToken != manifest.AuditToken {
		return fmt.Errorf("census audit token mismatch: store has %q, resources have %q",
			state.ActiveCensusAuditToken, manifest.AuditToken)
	}

	state.ActiveCensusAuditToken = manifest.AuditToken
	if err := store.PutSystemState(state); err != nil {
		return fmt.Errorf("persisting system state: %w", err)
	}

	nx.SetIntegrity(nexus.CertificationInProgress)
	return nil
}
