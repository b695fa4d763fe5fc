package phase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/dropforge/pkg/fault"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func testPublic() Phase {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return Phase{
		Name:          "public",
		Start:         base,
		End:           base.Add(30 * 24 * time.Hour),
		PricePerUnit:  100,
		MaxPerAddress: 10,
	}
}

func testConfig() Config {
	return Config{
		Name:          "og",
		StartOffset:   time.Hour,
		EndOffset:     2 * time.Hour,
		PricePerUnit:  80,
		MaxPerAddress: 2,
		AllowListRoot: "deadbeef",
	}
}

func TestAddAssignsSequentialIDs(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(testPublic(), fixedClock(now))

	id1, err := r.Add(testConfig())
	require.NoError(t, err)
	id2, err := r.Add(testConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, id1)
	assert.Equal(t, 2, id2)

	p, err := r.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), p.Start)
	assert.Equal(t, now.Add(2*time.Hour), p.End)
}

func TestAddCapacityExceeded(t *testing.T) {
	r := NewRegistry(testPublic(), fixedClock(time.Now()))
	for i := 0; i < MaxPresalePhases; i++ {
		_, err := r.Add(testConfig())
		require.NoError(t, err)
	}

	_, err := r.Add(testConfig())
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryPhase, fault.CodeCapacityExceeded))
}

func TestAddRejectsDegenerateWindows(t *testing.T) {
	r := NewRegistry(testPublic(), fixedClock(time.Now()))

	cfg := testConfig()
	cfg.EndOffset = cfg.StartOffset
	_, err := r.Add(cfg)
	assert.True(t, fault.Has(err, fault.CategoryConfig, fault.CodeInvalidWindow))

	cfg = testConfig()
	cfg.StartOffset = -time.Hour
	_, err = r.Add(cfg)
	assert.True(t, fault.Has(err, fault.CategoryConfig, fault.CodeInvalidWindow))

	cfg = testConfig()
	cfg.MaxPerAddress = 0
	_, err = r.Add(cfg)
	assert.True(t, fault.Has(err, fault.CategoryConfig, fault.CodeInvalidWindow))
}

func TestEditBeforeStart(t *testing.T) {
	now := time.Now()
	current := now
	r := NewRegistry(testPublic(), func() time.Time { return current })

	id, err := r.Add(testConfig())
	require.NoError(t, err)

	edited := testConfig()
	edited.PricePerUnit = 120
	require.NoError(t, r.Edit(id, edited))

	p, _ := r.Get(id)
	assert.Equal(t, int64(120), p.PricePerUnit)

	// Once live the phase is frozen.
	current = now.Add(90 * time.Minute)
	err = r.Edit(id, edited)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryPhase, fault.CodePhaseLive))
}

func TestRemoveTombstonesID(t *testing.T) {
	r := NewRegistry(testPublic(), fixedClock(time.Now()))

	id1, _ := r.Add(testConfig())
	id2, _ := r.Add(testConfig())
	require.NoError(t, r.Remove(id1))

	_, err := r.Get(id1)
	assert.True(t, fault.Has(err, fault.CategoryPhase, fault.CodeUnknown))

	// Later ids keep their slots, and new ids continue past the tombstone.
	p2, err := r.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, id2, p2.ID)

	id3, err := r.Add(testConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, id3)
}

func TestRemoveLivePhaseFails(t *testing.T) {
	now := time.Now()
	current := now
	r := NewRegistry(testPublic(), func() time.Time { return current })

	id, _ := r.Add(testConfig())
	current = now.Add(time.Hour) // exactly at start: live
	err := r.Remove(id)
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryPhase, fault.CodePhaseLive))
}

func TestActiveAtWindowAsymmetry(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := base.Add(time.Hour)

	public := Phase{ID: PublicID, Start: base, End: end}
	presale := Phase{ID: 1, Start: base, End: end}

	assert.True(t, public.ActiveAt(base))
	assert.True(t, presale.ActiveAt(base))

	// The public window closes inclusively, presale exclusively.
	assert.True(t, public.ActiveAt(end))
	assert.False(t, presale.ActiveAt(end))

	assert.False(t, public.ActiveAt(end.Add(time.Nanosecond)))
	assert.False(t, public.ActiveAt(base.Add(-time.Nanosecond)))
}

func TestLimitOK(t *testing.T) {
	p := Phase{MaxPerAddress: 2}
	assert.True(t, p.LimitOK(0, 2))
	assert.True(t, p.LimitOK(1, 1))
	assert.False(t, p.LimitOK(0, 3))
	assert.False(t, p.LimitOK(2, 1))
}

func TestListOrdered(t *testing.T) {
	r := NewRegistry(testPublic(), fixedClock(time.Now()))
	id1, _ := r.Add(testConfig())
	id2, _ := r.Add(testConfig())
	id3, _ := r.Add(testConfig())
	require.NoError(t, r.Remove(id2))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, id1, list[0].ID)
	assert.Equal(t, id3, list[1].ID)
}
