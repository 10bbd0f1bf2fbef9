// Package config assembles process configuration from environment
// variables, the same way cmd/warren/main.go assembles flags and env for
// the orchestrator and worker binaries.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
)

// FatalConfigError indicates a startup condition that should abort the
// process with exit code 1.
type FatalConfigError struct {
	Field  string
	Reason string
}

func (e *FatalConfigError) Error() string {
	return fmt.Sprintf("fatal config: %s: %s", e.Field, e.Reason)
}

// OrchestratorConfig holds the orchestrator binary's startup configuration.
type OrchestratorConfig struct {
	DataDir              string
	Port                 int
	AuthToken            string
	WorkerAuthToken      string
	StrategicURL         string
	StrategicServiceKey  string
	PublicURL            string
	GoldenVectorAddress  string
	ExpansionProviderURL string
	ExpansionToken       string
	LogLevel             string
	LogJSON              bool
}

// LoadOrchestratorConfig reads the orchestrator's configuration from the
// environment. DATABASE_URL is used as the tactical store's data
// directory (the bbolt file is prospector.db inside it).
func LoadOrchestratorConfig() (*OrchestratorConfig, error) {
	dataDir := os.Getenv("DATABASE_URL")
	if dataDir == "" {
		return nil, &FatalConfigError{Field: "DATABASE_URL", Reason: "required, unreachable tactical store"}
	}

	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, &FatalConfigError{Field: "PORT", Reason: "must be numeric"}
		}
		port = p
	}

	cfg := &OrchestratorConfig{
		DataDir:              dataDir,
		Port:                 port,
		AuthToken:            os.Getenv("AUTH_TOKEN"),
		WorkerAuthToken:      os.Getenv("WORKER_AUTH_TOKEN"),
		StrategicURL:         os.Getenv("STRATEGIC_URL"),
		StrategicServiceKey:  os.Getenv("STRATEGIC_SERVICE_KEY"),
		PublicURL:            os.Getenv("PUBLIC_URL"),
		GoldenVectorAddress:  envOr("GOLDEN_VECTOR_ADDRESS", "12cbqSREwGrvtd3LsBhymWvCX9A9Snd9E7"),
		ExpansionProviderURL: os.Getenv("EXPANSION_PROVIDER_URL"),
		ExpansionToken:       envOr("GITHUB_PAT", os.Getenv("EXPANSION_TOKEN")),
		LogLevel:             envOr("LOG_LEVEL", "info"),
		LogJSON:              os.Getenv("LOG_FORMAT") == "json",
	}

	return cfg, nil
}

// WorkerConfig holds the worker binary's startup configuration.
type WorkerConfig struct {
	WorkerID        string
	OrchestratorURL string
	AuthToken       string
	ResourceDir     string
	Cores           int
	LogLevel        string
	LogJSON         bool
}

// LoadWorkerConfig reads the worker's configuration from the environment.
func LoadWorkerConfig() (*WorkerConfig, error) {
	orchURL := os.Getenv("PUBLIC_URL")
	if orchURL == "" {
		return nil, &FatalConfigError{Field: "PUBLIC_URL", Reason: "required, orchestrator address unknown"}
	}

	cores := runtime.NumCPU()
	if v := os.Getenv("CORES"); v != "" {
		c, err := strconv.Atoi(v)
		if err != nil || c <= 0 {
			return nil, &FatalConfigError{Field: "CORES", Reason: "must be a positive integer"}
		}
		cores = c
	}

	cfg := &WorkerConfig{
		WorkerID:        envOr("WORKER_ID", defaultWorkerID()),
		OrchestratorURL: orchURL,
		AuthToken:       os.Getenv("WORKER_AUTH_TOKEN"),
		ResourceDir:     envOr("RESOURCE_DIR", "./resources"),
		Cores:           cores,
		LogLevel:        envOr("LOG_LEVEL", "info"),
		LogJSON:         os.Getenv("LOG_FORMAT") == "json",
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "worker-unknown"
	}
	return host
}
