package allowlist

import (
	"encoding/hex"
	"errors"
	"sort"
	"strings"
)

var (
	// ErrEmptySet is returned when building a tree over no addresses.
	ErrEmptySet = errors.New("allowlist: address set must not be empty")
	// ErrNotMember is returned when a proof is requested for an address
	// outside the committed set.
	ErrNotMember = errors.New("allowlist: address not in set")
)

// Tree is the prover side of the allow list. It lives in off-system tooling
// and tests; the engine itself only ever sees roots and proofs.
type Tree struct {
	levels [][][]byte       // levels[0] = leaves, last level = [root]
	index  map[string]int   // leaf hex -> position in levels[0]
	addrs  map[string]string // canonical address -> leaf hex
}

// BuildTree commits an address set. Duplicate and blank addresses are
// dropped; leaves are sorted so the root is independent of input order.
func BuildTree(addrs []string) (*Tree, error) {
	leafSet := make(map[string]string, len(addrs))
	for _, a := range addrs {
		canon := strings.ToLower(strings.TrimSpace(a))
		if canon == "" {
			continue
		}
		leafSet[canon] = LeafHash(canon)
	}
	if len(leafSet) == 0 {
		return nil, ErrEmptySet
	}

	leafHexes := make([]string, 0, len(leafSet))
	for _, h := range leafSet {
		leafHexes = append(leafHexes, h)
	}
	sort.Strings(leafHexes)

	leaves := make([][]byte, len(leafHexes))
	index := make(map[string]int, len(leafHexes))
	for i, lh := range leafHexes {
		b, _ := hex.DecodeString(lh)
		leaves[i] = b
		index[lh] = i
	}

	t := &Tree{
		levels: [][][]byte{leaves},
		index:  index,
		addrs:  leafSet,
	}

	current := leaves
	for len(current) > 1 {
		if len(current)%2 != 0 {
			current = append(current, current[len(current)-1]) // duplicate last
		}
		next := make([][]byte, len(current)/2)
		for i := 0; i < len(current); i += 2 {
			next[i/2] = nodeHash(current[i], current[i+1])
		}
		t.levels = append(t.levels, next)
		current = next
	}

	return t, nil
}

// Root returns the committed root as lowercase hex.
func (t *Tree) Root() string {
	top := t.levels[len(t.levels)-1]
	return hex.EncodeToString(top[0])
}

// ProofFor returns the sibling path for an address in the set.
func (t *Tree) ProofFor(addr string) ([]string, error) {
	canon := strings.ToLower(strings.TrimSpace(addr))
	leaf, ok := t.addrs[canon]
	if !ok {
		return nil, ErrNotMember
	}

	pos := t.index[leaf]
	proof := make([]string, 0, len(t.levels)-1)

	for _, level := range t.levels[:len(t.levels)-1] {
		sib := pos ^ 1
		// Odd levels were padded by duplicating the last node.
		if sib >= len(level) {
			sib = len(level) - 1
		}
		proof = append(proof, hex.EncodeToString(level[sib]))
		pos /= 2
	}

	return proof, nil
}
