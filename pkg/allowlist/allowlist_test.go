package allowlist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyMember(t *testing.T) {
	addrs := []string{"0xAAA1", "0xBBB2", "0xCCC3", "0xDDD4", "0xEEE5"}
	tree, err := BuildTree(addrs)
	require.NoError(t, err)

	for _, a := range addrs {
		proof, err := tree.ProofFor(a)
		require.NoError(t, err, a)
		assert.True(t, Verify(proof, a, tree.Root()), "proof for %s should verify", a)
	}
}

func TestVerifyNonMember(t *testing.T) {
	tree, err := BuildTree([]string{"0xaaa1", "0xbbb2", "0xccc3"})
	require.NoError(t, err)

	proof, err := tree.ProofFor("0xaaa1")
	require.NoError(t, err)

	// A member's proof does not admit anyone else.
	assert.False(t, Verify(proof, "0xffff", tree.Root()))
}

func TestVerifyMismatchedRoot(t *testing.T) {
	tree, _ := BuildTree([]string{"0xaaa1", "0xbbb2"})
	other, _ := BuildTree([]string{"0x1111", "0x2222"})

	proof, err := tree.ProofFor("0xaaa1")
	require.NoError(t, err)

	assert.True(t, Verify(proof, "0xaaa1", tree.Root()))
	assert.False(t, Verify(proof, "0xaaa1", other.Root()))
	assert.False(t, Verify(proof, "0xaaa1", ""))
}

func TestVerifyRejectsMalformedProof(t *testing.T) {
	tree, _ := BuildTree([]string{"0xaaa1", "0xbbb2"})
	assert.False(t, Verify([]string{"not-hex"}, "0xaaa1", tree.Root()))
	assert.False(t, Verify([]string{"abcd"}, "0xaaa1", tree.Root())) // wrong length
}

func TestCaseInsensitiveAddresses(t *testing.T) {
	tree, err := BuildTree([]string{"0xAbCd01"})
	require.NoError(t, err)

	proof, err := tree.ProofFor("0xABCD01")
	require.NoError(t, err)
	assert.True(t, Verify(proof, "0xabcd01", tree.Root()))
}

func TestSingleLeafTree(t *testing.T) {
	tree, err := BuildTree([]string{"0xonly"})
	require.NoError(t, err)

	proof, err := tree.ProofFor("0xonly")
	require.NoError(t, err)
	assert.Empty(t, proof)
	assert.True(t, Verify(proof, "0xonly", tree.Root()))
	assert.Equal(t, LeafHash("0xonly"), tree.Root())
}

func TestRootIndependentOfInputOrder(t *testing.T) {
	a, err := BuildTree([]string{"0x1", "0x2", "0x3"})
	require.NoError(t, err)
	b, err := BuildTree([]string{"0x3", "0x1", "0x2", "0x2"})
	require.NoError(t, err)
	assert.Equal(t, a.Root(), b.Root())
}

func TestBuildTreeEmpty(t *testing.T) {
	_, err := BuildTree(nil)
	assert.ErrorIs(t, err, ErrEmptySet)
	_, err = BuildTree([]string{"  ", ""})
	assert.ErrorIs(t, err, ErrEmptySet)
}

func TestProofForNonMember(t *testing.T) {
	tree, _ := BuildTree([]string{"0xaaa1"})
	_, err := tree.ProofFor("0xzzz")
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestLargerTrees(t *testing.T) {
	for _, n := range []int{2, 7, 16, 33} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			addrs := make([]string, n)
			for i := range addrs {
				addrs[i] = fmt.Sprintf("0xaddr%04d", i)
			}
			tree, err := BuildTree(addrs)
			require.NoError(t, err)
			for _, a := range addrs {
				proof, err := tree.ProofFor(a)
				require.NoError(t, err)
				require.True(t, Verify(proof, a, tree.Root()), "n=%d addr=%s", n, a)
			}
		})
	}
}
