package address

import (
	"math/big"
	"testing"

	"github.com/nullshard/prospector/pkg/field"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedFromXYEvenYUsesPrefix02(t *testing.T) {
	x := field.FromBigInt(big.NewInt(1))
	y := field.FromBigInt(big.NewInt(2)) // even
	pk := CompressedFromXY(x, y)
	require.Len(t, pk, 33)
	assert.Equal(t, byte(0x02), pk[0])
}

func TestCompressedFromXYOddYUsesPrefix03(t *testing.T) {
	x := field.FromBigInt(big.NewInt(1))
	y := field.FromBigInt(big.NewInt(3)) // odd
	pk := CompressedFromXY(x, y)
	require.Len(t, pk, 33)
	assert.Equal(t, byte(0x03), pk[0])
}

func TestUncompressedLayout(t *testing.T) {
	x := field.FromBigInt(big.NewInt(11))
	y := field.FromBigInt(big.NewInt(22))
	pk := Uncompressed(x, y)
	require.Len(t, pk, 65)
	assert.Equal(t, byte(0x04), pk[0])
	assert.Equal(t, x.Bytes(), pk[1:33])
	assert.Equal(t, y.Bytes(), pk[33:])
}

func TestHash160Length(t *testing.T) {
	h := Hash160([]byte("arbitrary payload"))
	assert.Len(t, h, 20)
}

func TestFromPubkeyProducesBase58Address(t *testing.T) {
	x := field.FromBigInt(big.NewInt(12345))
	y := field.FromBigInt(big.NewInt(2))
	addr := FromXY(x, y, true)
	assert.NotEmpty(t, addr)
	assert.Equal(t, byte('1'), addr[0]) // mainnet P2PKH addresses start with '1'
}

// TestFromXYOddYAndEvenYProduceDifferentAddresses guards against collapsing
// both parities to the same prefix: every engine must encode the real y it
// recovered, since half of all collisions have odd y and would otherwise be
// missed entirely.
func TestFromXYOddYAndEvenYProduceDifferentAddresses(t *testing.T) {
	x := field.FromBigInt(big.NewInt(1))
	evenY := field.FromBigInt(big.NewInt(2))
	oddY := field.FromBigInt(big.NewInt(3))

	assert.NotEqual(t, FromXY(x, evenY, true), FromXY(x, oddY, true))
}

func TestFromXYDeterministic(t *testing.T) {
	x := field.FromBigInt(big.NewInt(777))
	y := field.FromBigInt(big.NewInt(888))
	a1 := FromXY(x, y, true)
	a2 := FromXY(x, y, true)
	assert.Equal(t, a1, a2)
}

func TestCompressedAndUncompressedProduceDifferentAddresses(t *testing.T) {
	x := field.FromBigInt(big.NewInt(42))
	y := field.FromBigInt(big.NewInt(43))
	compressed := FromXY(x, y, true)
	uncompressed := FromXY(x, y, false)
	assert.NotEqual(t, compressed, uncompressed)
}
