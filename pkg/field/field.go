// Package field implements modular arithmetic over the secp256k1 base
// field, mod p = 2^256 - 2^32 - 977. It is the bottom layer of component A
// (Field/Curve Primitives): the Jacobian point arithmetic in pkg/curve is
// built entirely out of the operations here.
//
// Grounded on original_source/libs/core/math-engine/src/field.rs, whose
// add_modular/multiply_modular/invert methods were left as todo!() stubs
// in the Rust original — the implementation below is this repository's
// own, following the doc comment's Fermat's-little-theorem hint for
// inversion.
package field

import "math/big"

// P is the secp256k1 field prime.
var P = mustHex("fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")

// N is the secp256k1 group order, used for scalar-side wraparound in the
// Sequential engine.
var N = mustHex("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

func mustHex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("field: bad constant " + s)
	}
	return v
}

// Element is a field element reduced mod P. The zero value is not a valid
// element; use Zero() or FromBytes.
type Element struct {
	v *big.Int
}

// Zero returns the additive identity.
func Zero() Element { return Element{v: new(big.Int)} }

// One returns the multiplicative identity.
func One() Element { return Element{v: big.NewInt(1)} }

// FromBytes interprets b as a big-endian integer and reduces it mod P.
func FromBytes(b []byte) Element {
	v := new(big.Int).SetBytes(b)
	v.Mod(v, P)
	return Element{v: v}
}

// FromBigInt reduces x mod P into a new Element. x is not mutated.
func FromBigInt(x *big.Int) Element {
	v := new(big.Int).Mod(x, P)
	return Element{v: v}
}

// Bytes returns the element's canonical 32-byte big-endian encoding.
func (e Element) Bytes() []byte {
	out := make([]byte, 32)
	b := e.v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// Add returns e + o mod P.
func (e Element) Add(o Element) Element {
	r := new(big.Int).Add(e.v, o.v)
	r.Mod(r, P)
	return Element{v: r}
}

// Sub returns e - o mod P.
func (e Element) Sub(o Element) Element {
	r := new(big.Int).Sub(e.v, o.v)
	r.Mod(r, P)
	return Element{v: r}
}

// Mul returns e * o mod P.
func (e Element) Mul(o Element) Element {
	r := new(big.Int).Mul(e.v, o.v)
	r.Mod(r, P)
	return Element{v: r}
}

// Square returns e * e mod P.
func (e Element) Square() Element {
	return e.Mul(e)
}

// Neg returns -e mod P.
func (e Element) Neg() Element {
	r := new(big.Int).Neg(e.v)
	r.Mod(r, P)
	return Element{v: r}
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool {
	return e.v.Sign() == 0
}

// Equal reports whether e and o represent the same residue.
func (e Element) Equal(o Element) bool {
	return e.v.Cmp(o.v) == 0
}

// Invert returns the multiplicative inverse of e mod P via Fermat's
// little theorem (e^(P-2) mod P), since P is prime. Panics if e is zero.
func (e Element) Invert() Element {
	if e.IsZero() {
		panic("field: invert of zero")
	}
	exp := new(big.Int).Sub(P, big.NewInt(2))
	r := new(big.Int).Exp(e.v, exp, P)
	return Element{v: r}
}

// BatchInvert inverts every element of in, using Montgomery's trick: one
// modular inversion plus 3*len(in) multiplications, instead of len(in)
// independent inversions. The result must equal element-wise Invert()
// bit-for-bit; this is a pure batching optimization, never an
// approximation.
func BatchInvert(in []Element) []Element {
	n := len(in)
	if n == 0 {
		return nil
	}

	// prefix[i] = in[0] * in[1] * ... * in[i-1]; prefix[0] = 1.
	prefix := make([]Element, n+1)
	prefix[0] = One()
	for i := 0; i < n; i++ {
		prefix[i+1] = prefix[i].Mul(in[i])
	}

	// Single inversion of the running product of all elements.
	inv := prefix[n].Invert()

	out := make([]Element, n)
	for i := n - 1; i >= 0; i-- {
		// inv currently holds the inverse of prefix[i+1] = in[0]*...*in[i].
		out[i] = inv.Mul(prefix[i])
		inv = inv.Mul(in[i])
	}
	return out
}

// ScalarMod reduces a 256-bit big-endian scalar mod N (the group order),
// used when a sequential sweep's scalar wraps past the curve order.
func ScalarMod(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	v.Mod(v, N)
	return v
}
