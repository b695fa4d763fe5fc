package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndOwnership(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Issue(ctx, "alice", 1))
	require.NoError(t, m.Issue(ctx, "alice", 2))
	require.NoError(t, m.Issue(ctx, "bob", 3))

	owner, err := m.OwnerOf(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	bal, err := m.BalanceOf(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), bal)
}

func TestIssueDuplicateFails(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Issue(ctx, "alice", 1))
	assert.ErrorIs(t, m.Issue(ctx, "bob", 1), ErrAlreadyIssued)
}

func TestIssueZeroAddress(t *testing.T) {
	m := NewMemory()
	assert.ErrorIs(t, m.Issue(context.Background(), "  ", 1), ErrZeroAddress)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Issue(ctx, "alice", 1))

	require.NoError(t, m.Transfer(ctx, "alice", "bob", 1))

	owner, _ := m.OwnerOf(ctx, 1)
	assert.Equal(t, "bob", owner)

	aliceBal, _ := m.BalanceOf(ctx, "alice")
	bobBal, _ := m.BalanceOf(ctx, "bob")
	assert.Equal(t, int64(0), aliceBal)
	assert.Equal(t, int64(1), bobBal)

	assert.ErrorIs(t, m.Transfer(ctx, "alice", "carol", 1), ErrNotOwner)
	assert.ErrorIs(t, m.Transfer(ctx, "bob", "carol", 99), ErrUnknownID)
}

func TestBurn(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Issue(ctx, "alice", 1))

	require.NoError(t, m.Burn(ctx, 1))
	_, err := m.OwnerOf(ctx, 1)
	assert.ErrorIs(t, err, ErrUnknownID)

	bal, _ := m.BalanceOf(ctx, "alice")
	assert.Equal(t, int64(0), bal)

	assert.ErrorIs(t, m.Burn(ctx, 1), ErrUnknownID)
}
