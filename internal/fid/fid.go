// Package fid derives the network-wide identifier of a prepared file.
package fid

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"
)

// MaxNonce is the exclusive upper bound of NewNonce.
const MaxNonce = 1<<31 - 1

// Derive returns hex(sha256(root || owner || uint32le(nonce))).
//
// The result is always 64 lowercase hex characters. root is normally the
// 32-byte Merkle root of the (possibly encrypted) content and owner the
// bech32 address of the uploading account.
func Derive(root []byte, owner string, nonce uint32) string {
	h := sha256.New()
	h.Write(root)
	h.Write([]byte(owner))

	var n [4]byte
	binary.LittleEndian.PutUint32(n[:], nonce)
	h.Write(n[:])

	return hex.EncodeToString(h.Sum(nil))
}

// NewNonce returns a value in [0, MaxNonce). It only has to keep two uploads
// of identical content by the same owner apart, it is not a secret.
func NewNonce() uint32 {
	return rand.Uint32N(MaxNonce)
}
