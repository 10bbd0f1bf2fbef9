// Package curve implements secp256k1 point arithmetic in Jacobian
// (projective) coordinates: the allocation-light accumulation path the
// Sequential strategy engine rides for its hot loop (component A).
//
// Grounded on original_source/libs/core/math-engine/src/curve.rs, whose
// UnifiedCurveEngine::add_points_unified and double_point implement the
// Cohen/Chudnovsky formulas reproduced here; the one-time bootstrap
// scalar multiplication (k0*G) is the single spot it is acceptable to
// lean on a library to do the work, via github.com/btcsuite/btcd/btcec/v2
// — see BootstrapScalarMul.
package curve

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/nullshard/prospector/pkg/field"
)

// JacobianPoint is a secp256k1 curve point in Jacobian coordinates
// (X, Y, Z) representing the affine point (X/Z^2, Y/Z^3). The point at
// infinity is represented by Z == 0.
type JacobianPoint struct {
	X, Y, Z field.Element
}

// Infinity returns the point at infinity.
func Infinity() JacobianPoint {
	return JacobianPoint{X: field.One(), Y: field.One(), Z: field.Zero()}
}

// IsInfinity reports whether p is the point at infinity.
func (p JacobianPoint) IsInfinity() bool {
	return p.Z.IsZero()
}

// Generator is the secp256k1 base point G, in Jacobian coordinates with
// Z = 1.
func Generator() JacobianPoint {
	gx, _ := new(big.Int).SetString("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798", 16)
	gy, _ := new(big.Int).SetString("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8", 16)
	return JacobianPoint{
		X: field.FromBigInt(gx),
		Y: field.FromBigInt(gy),
		Z: field.One(),
	}
}

// Add returns p1 + p2 using the general (unequal-Z) Jacobian addition
// formula. Falls back to Double when p1 == p2, and returns Infinity when
// p1 == -p2 — a sweep landing exactly on the generator's inverse is
// treated as a non-match, not a crash.
func Add(p1, p2 JacobianPoint) JacobianPoint {
	if p1.IsInfinity() {
		return p2
	}
	if p2.IsInfinity() {
		return p1
	}

	z1z1 := p1.Z.Square()
	z2z2 := p2.Z.Square()
	u1 := p1.X.Mul(z2z2)
	u2 := p2.X.Mul(z1z1)
	s1 := p1.Y.Mul(p2.Z).Mul(z2z2)
	s2 := p2.Y.Mul(p1.Z).Mul(z1z1)

	h := u2.Sub(u1)
	r := s2.Sub(s1)

	if h.IsZero() {
		if r.IsZero() {
			return Double(p1)
		}
		return Infinity()
	}

	hh := h.Square()
	hhh := h.Mul(hh)
	v := u1.Mul(hh)

	x3 := r.Square().Sub(hhh).Sub(v).Sub(v)
	y3 := r.Mul(v.Sub(x3)).Sub(s1.Mul(hhh))
	z3 := p1.Z.Mul(p2.Z).Mul(h)

	return JacobianPoint{X: x3, Y: y3, Z: z3}
}

// Double returns 2*p using the a=0 doubling formula ("dbl-2009-l").
func Double(p JacobianPoint) JacobianPoint {
	if p.IsInfinity() || p.Y.IsZero() {
		return Infinity()
	}

	a := p.X.Square()
	b := p.Y.Square()
	c := b.Square()

	xb := p.X.Add(b)
	d := xb.Square().Sub(a).Sub(c)
	d = d.Add(d)

	e := a.Add(a).Add(a)
	f := e.Square()

	x3 := f.Sub(d).Sub(d)
	y3 := e.Mul(d.Sub(x3)).Sub(eightC(c))
	z3 := p.Y.Mul(p.Z)
	z3 = z3.Add(z3)

	return JacobianPoint{X: x3, Y: y3, Z: z3}
}

func eightC(c field.Element) field.Element {
	c2 := c.Add(c)
	c4 := c2.Add(c2)
	return c4.Add(c4)
}

// ToAffine converts a Jacobian point to affine (x, y), costing exactly one
// modular inversion. ok is false for the point at infinity.
func ToAffine(p JacobianPoint) (x, y field.Element, ok bool) {
	if p.IsInfinity() {
		return field.Zero(), field.Zero(), false
	}
	zInv := p.Z.Invert()
	zInv2 := zInv.Square()
	zInv3 := zInv2.Mul(zInv)
	return p.X.Mul(zInv2), p.Y.Mul(zInv3), true
}

// BatchToAffine converts a window of Jacobian points to affine coordinates
// using Montgomery's batch-inversion trick (one inversion, 3k
// multiplications instead of k inversions). Results must match ToAffine
// called per-point, bit-for-bit; infinite points are skipped and ok[i]
// is false for them.
func BatchToAffine(pts []JacobianPoint) (xs, ys []field.Element, ok []bool) {
	n := len(pts)
	xs = make([]field.Element, n)
	ys = make([]field.Element, n)
	ok = make([]bool, n)

	zs := make([]field.Element, 0, n)
	idx := make([]int, 0, n)
	for i, p := range pts {
		if p.IsInfinity() {
			continue
		}
		zs = append(zs, p.Z)
		idx = append(idx, i)
	}

	zInvs := field.BatchInvert(zs)
	for j, i := range idx {
		zInv := zInvs[j]
		zInv2 := zInv.Square()
		zInv3 := zInv2.Mul(zInv)
		xs[i] = pts[i].X.Mul(zInv2)
		ys[i] = pts[i].Y.Mul(zInv3)
		ok[i] = true
	}
	return xs, ys, ok
}

// BootstrapScalarMul computes k*G for a 256-bit big-endian hex scalar
// using btcec/v2's constant-time scalar multiplication, establishing the
// Sequential engine's starting point P0 before the hot loop takes over
// with pure Jacobian addition.
func BootstrapScalarMul(startHex string) (JacobianPoint, error) {
	raw, err := hex.DecodeString(normalizeHex(startHex))
	if err != nil {
		return JacobianPoint{}, fmt.Errorf("curve: bad scalar hex: %w", err)
	}
	var scalar btcec.ModNScalar
	overflow := scalar.SetByteSlice(raw)
	_ = overflow // wraparound past the group order is permitted, not an error
	if scalar.IsZero() {
		return Infinity(), nil
	}

	var result btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&scalar, &result)
	result.ToAffine()

	x := new(big.Int).SetBytes(result.X.Bytes()[:])
	y := new(big.Int).SetBytes(result.Y.Bytes()[:])

	return JacobianPoint{
		X: field.FromBigInt(x),
		Y: field.FromBigInt(y),
		Z: field.One(),
	}, nil
}

func normalizeHex(s string) string {
	if len(s)%2 == 1 {
		return "0" + s
	}
	return s
}
