package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertThenQueryIsPositive(t *testing.T) {
	sf, err := NewSharded(4, 1000, 1e-6)
	require.NoError(t, err)

	key := []byte("1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa")
	sf.Insert(key)
	assert.True(t, sf.Query(key))
}

func TestQueryMissingKeyIsNegative(t *testing.T) {
	sf, err := NewSharded(4, 1000, 1e-9)
	require.NoError(t, err)

	sf.Insert([]byte("present"))
	assert.False(t, sf.Query([]byte("definitely-not-inserted")))
}

func TestZeroShardCountDefaultsToDefaultShardCount(t *testing.T) {
	sf, err := NewSharded(0, 100, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, DefaultShardCount, sf.ShardCount())
}

// TestShardIndexDeterministic is P6: the same key must always route to the
// same shard and the same membership verdict across repeated queries.
func TestShardIndexDeterministic(t *testing.T) {
	sf, err := NewSharded(8, 1000, 1e-6)
	require.NoError(t, err)

	key := []byte("deterministic-routing-key")
	sf.Insert(key)

	for i := 0; i < 25; i++ {
		assert.True(t, sf.Query(key))
	}
}

func TestAuditTokenDeterministicForIdenticalContent(t *testing.T) {
	sfA, err := NewSharded(4, 1000, 1e-6)
	require.NoError(t, err)
	sfB, err := NewSharded(4, 1000, 1e-6)
	require.NoError(t, err)

	keys := [][]byte{[]byte("addr1"), []byte("addr2"), []byte("addr3")}
	for _, k := range keys {
		sfA.Insert(k)
		sfB.Insert(k)
	}

	tokenA, err := sfA.AuditToken()
	require.NoError(t, err)
	tokenB, err := sfB.AuditToken()
	require.NoError(t, err)

	assert.Equal(t, tokenA, tokenB)
	assert.Len(t, tokenA, 64) // hex-encoded SHA-256
}

func TestAuditTokenChangesWithContent(t *testing.T) {
	sf, err := NewSharded(4, 1000, 1e-6)
	require.NoError(t, err)
	before, err := sf.AuditToken()
	require.NoError(t, err)

	sf.Insert([]byte("a-new-address"))
	after, err := sf.AuditToken()
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestShardFileNameConvention(t *testing.T) {
	assert.Equal(t, "filter_shard_0.bin", ShardFileName(0))
	assert.Equal(t, "filter_shard_3.bin", ShardFileName(3))
}

func TestSaveThenLoadPreservesMembership(t *testing.T) {
	dir := t.TempDir()

	sf, err := NewSharded(4, 1000, 1e-6)
	require.NoError(t, err)
	key := []byte("roundtrip-address")
	sf.Insert(key)

	require.NoError(t, sf.Save(dir))

	loaded, err := Load(dir, 4)
	require.NoError(t, err)

	assert.True(t, loaded.Query(key))
	assert.False(t, loaded.Query([]byte("never-inserted")))
}

func TestShardDigestDeterministic(t *testing.T) {
	sf, err := NewSharded(2, 100, 1e-6)
	require.NoError(t, err)
	sf.Insert([]byte("x"))

	d1, err := sf.ShardDigest(0)
	require.NoError(t, err)
	d2, err := sf.ShardDigest(0)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}
