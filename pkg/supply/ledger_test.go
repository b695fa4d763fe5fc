package supply

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/dropforge/pkg/fault"
)

func TestNewLedgerRejectsNonPositiveCap(t *testing.T) {
	_, err := NewLedger(0)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryConfig, fault.CodeInvalidSupply))

	_, err = NewLedger(-5)
	assert.Error(t, err)
}

func TestReserveAdvancesCounters(t *testing.T) {
	l, err := NewLedger(100)
	require.NoError(t, err)

	r1, err := l.Reserve(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r1.FirstID())
	assert.Equal(t, int64(3), r1.Amount())

	r2, err := l.Reserve(2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), r2.FirstID())

	info := l.Info()
	assert.Equal(t, int64(5), info.TotalMinted)
	assert.Equal(t, int64(6), info.NextID)
}

func TestReserveSoldOut(t *testing.T) {
	l, err := NewLedger(2)
	require.NoError(t, err)

	_, err = l.Reserve(3)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategorySupply, fault.CodeSoldOut))

	// Counters untouched after rejection.
	assert.Equal(t, int64(0), l.Info().TotalMinted)
	assert.Equal(t, int64(1), l.Info().NextID)
}

func TestReserveRejectsNonPositive(t *testing.T) {
	l, _ := NewLedger(10)
	_, err := l.Reserve(0)
	assert.ErrorIs(t, err, ErrNonPositiveAmount)
}

func TestRollbackRestoresCounters(t *testing.T) {
	l, _ := NewLedger(10)

	r, err := l.Reserve(4)
	require.NoError(t, err)
	require.NoError(t, r.Rollback())

	info := l.Info()
	assert.Equal(t, int64(0), info.TotalMinted)
	assert.Equal(t, int64(1), info.NextID)

	// Ids are handed out again from the rolled-back position.
	r2, err := l.Reserve(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r2.FirstID())
}

func TestRollbackTwiceFails(t *testing.T) {
	l, _ := NewLedger(10)
	r, _ := l.Reserve(1)
	require.NoError(t, r.Rollback())
	assert.ErrorIs(t, r.Rollback(), ErrReservationSpent)
}

func TestRollbackStaleReservationFails(t *testing.T) {
	l, _ := NewLedger(10)
	r1, _ := l.Reserve(1)
	_, err := l.Reserve(1)
	require.NoError(t, err)

	assert.ErrorIs(t, r1.Rollback(), ErrReservationSpent)
}

func TestReduceCap(t *testing.T) {
	l, _ := NewLedger(100)
	_, err := l.Reserve(10)
	require.NoError(t, err)

	// Scenario D: shrink to 50 succeeds, then 5 < minted fails.
	require.NoError(t, l.ReduceCap(50))
	assert.Equal(t, int64(50), l.Info().MaxSupply)

	err = l.ReduceCap(5)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategorySupply, fault.CodeInvalidCap))

	// Raising back is rejected too, even below the deployment ceiling.
	err = l.ReduceCap(80)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategorySupply, fault.CodeInvalidCap))
}

func TestCanIssue(t *testing.T) {
	l, _ := NewLedger(3)
	assert.True(t, l.CanIssue(3))
	assert.False(t, l.CanIssue(4))
	assert.False(t, l.CanIssue(0))

	_, err := l.Reserve(3)
	require.NoError(t, err)
	assert.False(t, l.CanIssue(1))
}
