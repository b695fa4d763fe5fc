// Package allowlist implements the Merkle membership check gating presale
// phases. Verification is pure: the engine stores only the 32-byte root a
// phase was committed to, never the address set itself.
//
// The hashing scheme is fixed once for the whole system and any off-system
// proof tooling must match it exactly:
//
//	leaf = SHA256(SHA256(lowercase(address)))
//	node = SHA256(min(a,b) || max(a,b))
//
// Interior nodes hash the sorted pair, so proofs are plain sibling lists
// with no left/right flags. Hashes travel as lowercase hex strings.
package allowlist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// LeafHash computes the double-hashed leaf for an address.
func LeafHash(addr string) string {
	canon := strings.ToLower(strings.TrimSpace(addr))
	first := sha256.Sum256([]byte(canon))
	second := sha256.Sum256(first[:])
	return hex.EncodeToString(second[:])
}

// Verify recomputes the Merkle path from claimant's leaf up through the
// supplied sibling hashes and compares the result to root. No side effects.
func Verify(proof []string, claimant, root string) bool {
	current, err := hex.DecodeString(LeafHash(claimant))
	if err != nil || root == "" {
		return false
	}

	for _, sibling := range proof {
		sib, err := hex.DecodeString(sibling)
		if err != nil || len(sib) != sha256.Size {
			return false
		}
		current = nodeHash(current, sib)
	}

	return hex.EncodeToString(current) == strings.ToLower(root)
}

func nodeHash(a, b []byte) []byte {
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	h := sha256.New()
	h.Write(a)
	h.Write(b)
	return h.Sum(nil)
}
