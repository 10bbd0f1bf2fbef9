// Package census implements the Census Bootstrap (component L): it
// partitions a raw set of addresses into chronological strata, builds a
// sharded filter per stratum, and seals a manifest binding the whole
// artifact to a single audit token.
//
// Grounded on
// original_source/apps/census-taker/src/partitioner.rs
// (ForensicPartitioner::partition_and_crystallize) and
// original_source/apps/orchestrator/src/bootstrap.rs /
// bootstrap_forensics.rs for the boot-time integrity check this package's
// consumer (cmd/orchestrator) performs.
package census

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nullshard/prospector/pkg/filter"
	"github.com/nullshard/prospector/pkg/types"
)

// Record is one raw UTXO-owner observation fed into the partitioner.
type Record struct {
	Address        string
	BlockTimestamp time.Time
}

// strataConfig names the three chronological strata recovered from
// original_source/partitioner.rs, each with its own filter sizing.
var strataConfig = []struct {
	name   string
	maxN   uint64
	fp     float64
	shards int
	inYear func(int) bool
}{
	{
		name:   "satoshi_era",
		maxN:   2_000_000,
		fp:     1e-6,
		shards: 4,
		inYear: func(y int) bool { return y == 2009 || y == 2010 },
	},
	{
		name:   "vulnerable_legacy",
		maxN:   10_000_000,
		fp:     1e-6,
		shards: 4,
		inYear: func(y int) bool { return y >= 2011 && y <= 2013 },
	},
	{
		name:   "standard_legacy",
		maxN:   30_000_000,
		fp:     1e-5,
		shards: 4,
		inYear: func(y int) bool { return y < 2009 || y > 2013 },
	},
}

// Stratum is one sealed chronological partition.
type Stratum struct {
	Name   string
	Filter *filter.ShardedFilter
}

// Census is the full sealed artifact: its strata and the manifest
// derived from them.
type Census struct {
	Strata   []Stratum
	Manifest types.CensusManifest
}

// Partition classifies records into strata by calendar year and builds a
// sharded filter per stratum, matching
// ForensicPartitioner::partition_and_crystallize.
func Partition(records []Record) (*Census, error) {
	strata := make([]Stratum, len(strataConfig))
	for i, cfg := range strataConfig {
		f, err := filter.NewSharded(cfg.shards, cfg.maxN, cfg.fp)
		if err != nil {
			return nil, fmt.Errorf("census: building stratum %s: %w", cfg.name, err)
		}
		strata[i] = Stratum{Name: cfg.name, Filter: f}
	}

	for _, r := range records {
		year := r.BlockTimestamp.Year()
		for i, cfg := range strataConfig {
			if cfg.inYear(year) {
				strata[i].Filter.Insert([]byte(r.Address))
				break
			}
		}
	}

	manifest := types.CensusManifest{Strata: make([]types.StratumDigest, len(strata))}
	var allDigests []string
	for i, s := range strata {
		digests := make([]string, s.Filter.ShardCount())
		for shardIdx := 0; shardIdx < s.Filter.ShardCount(); shardIdx++ {
			d, err := s.Filter.ShardDigest(shardIdx)
			if err != nil {
				return nil, err
			}
			digests[shardIdx] = fmt.Sprintf("%x", d)
		}
		manifest.Strata[i] = types.StratumDigest{Name: s.Name, ShardDigests: digests}
		allDigests = append(allDigests, digests...)
	}

	token, err := combinedAuditToken(strata)
	if err != nil {
		return nil, err
	}
	manifest.AuditToken = token

	return &Census{Strata: strata, Manifest: manifest}, nil
}

func combinedAuditToken(strata []Stratum) (string, error) {
	// Each stratum already has its own per-stratum token (SHA-256 over
	// its own shard digests); the global token is SHA-256 over those
	// per-stratum tokens, in strata order.
	var concat []byte
	for _, s := range strata {
		tok, err := s.Filter.AuditToken()
		if err != nil {
			return "", err
		}
		raw, err := hex.DecodeString(tok)
		if err != nil {
			return "", err
		}
		concat = append(concat, raw...)
	}
	sum := sha256.Sum256(concat)
	return fmt.Sprintf("%x", sum), nil
}

// Seal persists every stratum's shard files and the manifest to dir.
func (c *Census) Seal(dir string) error {
	for _, s := range c.Strata {
		stratumDir := filepath.Join(dir, s.Name)
		if err := os.MkdirAll(stratumDir, 0755); err != nil {
			return err
		}
		if err := s.Filter.Save(stratumDir); err != nil {
			return err
		}
	}

	manifestPath := filepath.Join(dir, "stratum_manifest.json")
	data, err := json.MarshalIndent(c.Manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(manifestPath, data, 0644)
}

// LoadManifest reads a previously sealed manifest from dir.
func LoadManifest(dir string) (*types.CensusManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "stratum_manifest.json"))
	if err != nil {
		return nil, err
	}
	var m types.CensusManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadStratum loads a sealed stratum's sharded filter from dir/name.
func LoadStratum(dir, name string, shardCount int) (*filter.ShardedFilter, error) {
	return filter.Load(filepath.Join(dir, name), shardCount)
}
