package workerengine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nullshard/prospector/pkg/filter"
	"github.com/nullshard/prospector/pkg/log"
	"github.com/nullshard/prospector/pkg/types"
	"github.com/rs/zerolog"
)

// HydrateFilter downloads the sealed stratum manifest and every shard it
// names into resourceDir, retrying with bounded exponential backoff — the
// orchestrator's /resources endpoint can be briefly unavailable right
// after a census rebuild. Returns the loaded manifest and one ShardedFilter
// per stratum, keyed by stratum name.
//
// Grounded on pkg/census/census.go's Seal/LoadManifest/LoadStratum shape
// (same repository) and original_source/apps/orchestrator/src/bootstrap.rs
// for the boot-time integrity check this feeds.
func HydrateFilter(client *Client, resourceDir string) (*types.CensusManifest, map[string]*filter.ShardedFilter, error) {
	logger := log.WithComponent("worker-hydration")

	var manifest types.CensusManifest
	err := withBackoff(func() error {
		data, err := client.FetchResource("stratum_manifest.json")
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &manifest)
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("workerengine: fetching manifest: %w", err)
	}

	if err := os.MkdirAll(resourceDir, 0755); err != nil {
		return nil, nil, err
	}
	manifestPath := filepath.Join(resourceDir, "stratum_manifest.json")
	raw, err := json.Marshal(&manifest)
	if err != nil {
		return nil, nil, err
	}
	if err := os.WriteFile(manifestPath, raw, 0644); err != nil {
		return nil, nil, err
	}

	filters := make(map[string]*filter.ShardedFilter, len(manifest.Strata))
	for _, stratum := range manifest.Strata {
		shardCount := len(stratum.ShardDigests)
		stratumDir := filepath.Join(resourceDir, stratum.Name)
		if err := os.MkdirAll(stratumDir, 0755); err != nil {
			return nil, nil, err
		}

		for i := 0; i < shardCount; i++ {
			shardName := filter.ShardFileName(i)
			err := withBackoff(func() error {
				data, err := client.FetchResource(stratum.Name + "/" + shardName)
				if err != nil {
					return err
				}
				return os.WriteFile(filepath.Join(stratumDir, shardName), data, 0644)
			}, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("workerengine: fetching shard %s/%s: %w", stratum.Name, shardName, err)
			}
		}

		f, err := filter.Load(stratumDir, shardCount)
		if err != nil {
			return nil, nil, fmt.Errorf("workerengine: loading stratum %s: %w", stratum.Name, err)
		}
		filters[stratum.Name] = f
	}

	return &manifest, filters, nil
}

// withBackoff retries op with a bounded exponential backoff, at most 8
// attempts and giving up once ~60 s have elapsed, logging each retry.
func withBackoff(op func() error, logger zerolog.Logger) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 15 * time.Second
	b.MaxElapsedTime = 60 * time.Second

	return backoff.RetryNotify(op, backoff.WithMaxRetries(b, 7), func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("wait", wait).Msg("retrying after error")
	})
}
