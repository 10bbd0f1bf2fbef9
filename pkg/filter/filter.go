// Package filter implements the Sharded Probabilistic Filter (component
// C/L): an N-way sharded Bloom filter over the census of addresses under
// investigation, with per-shard content digests and a combined audit
// token that binds a worker's loaded filter to a specific census
// version.
//
// Grounded on
// original_source/apps/census-taker/src/partitioner.rs
// (ForensicPartitioner::partition_and_crystallize, save_and_hash_strata).
// The shard implementation itself is github.com/holiman/bloomfilter/v2;
// key hashing uses the standard library's FNV-1a (hash.Hash64), the
// canonical pairing for that library's Add/Contains API.
package filter

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"

	"github.com/holiman/bloomfilter/v2"
)

// DefaultShardCount is the default N for a ShardedFilter.
const DefaultShardCount = 4

// ShardedFilter is an N-way sharded Bloom filter. Insert and Query route a
// key to exactly one shard via hash(key) mod N, then test k-hash Bloom
// membership within that shard only.
type ShardedFilter struct {
	shards []*bloomfilter.Filter
}

// NewSharded creates a ShardedFilter of n shards, each sized for maxN
// elements at false-positive rate fp (github.com/holiman/bloomfilter/v2's
// OptimalM/OptimalK pick m and k accordingly). Every shard uses the same
// fixed hash keys, so identical inserts give byte-identical shards.
func NewSharded(n int, maxN uint64, fp float64) (*ShardedFilter, error) {
	if n <= 0 {
		n = DefaultShardCount
	}
	m := bloomfilter.OptimalM(maxN, fp)
	keys := make([]uint64, bloomfilter.OptimalK(m, maxN))
	for j := range keys {
		keys[j] = 0x9E3779B97F4A7C15 * uint64(j+1)
	}
	shards := make([]*bloomfilter.Filter, n)
	for i := range shards {
		f, err := bloomfilter.NewWithKeys(m, keys)
		if err != nil {
			return nil, fmt.Errorf("filter: shard %d: %w", i, err)
		}
		shards[i] = f
	}
	return &ShardedFilter{shards: shards}, nil
}

// ShardCount returns N.
func (sf *ShardedFilter) ShardCount() int { return len(sf.shards) }

func keyHash(key []byte) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}

func (sf *ShardedFilter) shardIndex(key []byte) int {
	return int(keyHash(key) % uint64(len(sf.shards)))
}

// Insert routes key to its shard and adds it.
func (sf *ShardedFilter) Insert(key []byte) {
	idx := sf.shardIndex(key)
	sf.shards[idx].Add(fnvHash64(keyHash(key)))
}

// Query routes key to its shard and tests membership there only.
func (sf *ShardedFilter) Query(key []byte) bool {
	idx := sf.shardIndex(key)
	return sf.shards[idx].Contains(fnvHash64(keyHash(key)))
}

// fnvHash64 adapts a precomputed 64-bit digest to the hash.Hash64
// interface bloomfilter.Filter.Add/Contains expect, without rehashing.
type fnvHash64 uint64

func (h fnvHash64) Sum64() uint64 { return uint64(h) }
func (h fnvHash64) Write(p []byte) (int, error) {
	return 0, fmt.Errorf("filter: fnvHash64 is a precomputed-digest adapter, not writable")
}
func (h fnvHash64) Sum(b []byte) []byte   { return b }
func (h fnvHash64) Reset()                {}
func (h fnvHash64) Size() int             { return 8 }
func (h fnvHash64) BlockSize() int        { return 1 }

// ShardDigest returns SHA-256 over shard i's canonical binary encoding.
func (sf *ShardedFilter) ShardDigest(i int) ([32]byte, error) {
	var buf bytes.Buffer
	if _, err := sf.shards[i].WriteTo(&buf); err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// AuditToken computes SHA-256 over the concatenation of every shard's
// digest, in shard order.
func (sf *ShardedFilter) AuditToken() (string, error) {
	var concat bytes.Buffer
	for i := range sf.shards {
		d, err := sf.ShardDigest(i)
		if err != nil {
			return "", err
		}
		concat.Write(d[:])
	}
	sum := sha256.Sum256(concat.Bytes())
	return fmt.Sprintf("%x", sum), nil
}

// ShardFileName returns the canonical on-disk name for shard i.
func ShardFileName(i int) string {
	return fmt.Sprintf("filter_shard_%d.bin", i)
}

// Save writes every shard to dir using the canonical filter_shard_<i>.bin
// naming.
func (sf *ShardedFilter) Save(dir string) error {
	for i, shard := range sf.shards {
		path := filepath.Join(dir, ShardFileName(i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("filter: create %s: %w", path, err)
		}
		_, err = shard.WriteTo(f)
		closeErr := f.Close()
		if err != nil {
			return fmt.Errorf("filter: write %s: %w", path, err)
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return nil
}

// Load reads n shards from dir using the canonical naming.
func Load(dir string, n int) (*ShardedFilter, error) {
	shards := make([]*bloomfilter.Filter, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, ShardFileName(i))
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("filter: open %s: %w", path, err)
		}
		shard := &bloomfilter.Filter{}
		_, err = shard.ReadFrom(f)
		closeErr := f.Close()
		if err != nil {
			return nil, fmt.Errorf("filter: read %s: %w", path, err)
		}
		if closeErr != nil {
			return nil, closeErr
		}
		shards[i] = shard
	}
	return &ShardedFilter{shards: shards}, nil
}
