// Command worker runs the Worker Runtime (component E): it hydrates the
// sealed census filter from the orchestrator, then drives one hot loop
// per configured core against the swarm API until signaled to stop.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nullshard/prospector/pkg/config"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/workerengine"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the worker runtime against an orchestrator",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	logger := log.WithComponent("worker-main")

	client := workerengine.NewClient(cfg.OrchestratorURL, cfg.AuthToken)

	logger.Info().Str("orchestrator", cfg.OrchestratorURL).Msg("hydrating filter")
	manifest, filters, err := workerengine.HydrateFilter(client, cfg.ResourceDir)
	if err != nil {
		return fmt.Errorf("hydrating filter: %w", err)
	}
	logger.Info().Str("audit_token", manifest.AuditToken).Int("strata", len(filters)).Msg("filter hydrated")

	w := workerengine.NewWorker(client, cfg.WorkerID, cfg.Cores, filters, manifest.AuditToken)

	stop := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutdown signal received, finishing in-flight missions")
		close(stop)
	}()

	logger.Info().Str("worker_id", cfg.WorkerID).Int("cores", cfg.Cores).Msg("worker runtime starting")
	w.Run(stop)
	logger.Info().Msg("worker runtime stopped")
	return nil
}
