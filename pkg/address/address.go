// Package address derives legacy Bitcoin-style addresses from secp256k1
// public keys (component B): compressed-pubkey encoding -> hash160 ->
// base58check.
//
// Grounded on original_source/libs/core/generators/src/address_legacy.rs's
// pubkey_to_address_from_affine, which always encodes the exact (x, y)
// pair recovered from to_affine(); every engine here does the same.
package address

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
	"github.com/nullshard/prospector/pkg/field"
	"golang.org/x/crypto/ripemd160"
)

// legacyVersion is the mainnet P2PKH address version byte.
const legacyVersion = 0x00

// CompressedFromXY encodes the exact compressed public key for affine
// point (x, y): a single 0x02 or 0x03 prefix byte selected by the parity
// of y, followed by the 32-byte big-endian x.
func CompressedFromXY(x, y field.Element) []byte {
	prefix := byte(0x02)
	if isOdd(y) {
		prefix = 0x03
	}
	out := make([]byte, 33)
	out[0] = prefix
	copy(out[1:], x.Bytes())
	return out
}

// Uncompressed encodes the exact uncompressed public key: 0x04 prefix
// followed by 32-byte x and 32-byte y.
func Uncompressed(x, y field.Element) []byte {
	out := make([]byte, 65)
	out[0] = 0x04
	copy(out[1:33], x.Bytes())
	copy(out[33:], y.Bytes())
	return out
}

func isOdd(e field.Element) bool {
	b := e.Bytes()
	return b[len(b)-1]&1 == 1
}

// Hash160 computes RIPEMD-160(SHA-256(data)), the standard Bitcoin public
// key hash.
func Hash160(data []byte) []byte {
	sh := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sh[:])
	return h.Sum(nil)
}

// FromPubkey derives the base58check legacy address for an already-encoded
// public key (compressed or uncompressed).
func FromPubkey(pubkey []byte) string {
	payload := Hash160(pubkey)
	return base58.CheckEncode(payload, legacyVersion)
}

// FromXY derives the legacy address from the exact affine public key.
func FromXY(x, y field.Element, compressed bool) string {
	var pk []byte
	if compressed {
		pk = CompressedFromXY(x, y)
	} else {
		pk = Uncompressed(x, y)
	}
	return FromPubkey(pk)
}
