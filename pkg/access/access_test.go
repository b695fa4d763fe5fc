package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropforge/dropforge/pkg/fault"
)

func newTestAuthority(t *testing.T) *Authority {
	t.Helper()
	a, err := NewAuthority([]byte("test-signing-key"))
	require.NoError(t, err)
	return a
}

func TestMintAndCheck(t *testing.T) {
	a := newTestAuthority(t)

	cap, err := a.Mint("alice", RoleOwner, "inst-1", time.Hour)
	require.NoError(t, err)

	subject, err := a.Check(cap, RoleOwner, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestCheckWrongRole(t *testing.T) {
	a := newTestAuthority(t)

	cap, err := a.Mint("alice", RolePlatform, "", time.Hour)
	require.NoError(t, err)

	_, err = a.Check(cap, RoleOwner, "")
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryAuthorization, fault.CodeNotOwner))

	ownerCap, _ := a.Mint("bob", RoleOwner, "", time.Hour)
	_, err = a.Check(ownerCap, RolePlatform, "")
	assert.True(t, fault.Has(err, fault.CategoryAuthorization, fault.CodeNotPlatform))
}

func TestCheckWrongInstance(t *testing.T) {
	a := newTestAuthority(t)

	cap, _ := a.Mint("alice", RoleOwner, "inst-1", time.Hour)
	_, err := a.Check(cap, RoleOwner, "inst-2")
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryAuthorization, fault.CodeBadCapability))
}

func TestCheckExpired(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	current := base
	a, err := NewAuthorityWithClock([]byte("k"), func() time.Time { return current })
	require.NoError(t, err)

	cap, err := a.Mint("alice", RoleOwner, "inst-1", time.Minute)
	require.NoError(t, err)

	current = base.Add(2 * time.Minute)
	_, err = a.Check(cap, RoleOwner, "inst-1")
	require.Error(t, err)
	assert.True(t, fault.Has(err, fault.CategoryAuthorization, fault.CodeBadCapability))
}

func TestCheckForeignKey(t *testing.T) {
	a := newTestAuthority(t)
	other, err := NewAuthority([]byte("other-key"))
	require.NoError(t, err)

	cap, _ := other.Mint("alice", RoleOwner, "inst-1", time.Hour)
	_, err = a.Check(cap, RoleOwner, "inst-1")
	require.Error(t, err)
	assert.Equal(t, fault.CategoryAuthorization, fault.CategoryOf(err))
}

func TestCheckGarbage(t *testing.T) {
	a := newTestAuthority(t)
	_, err := a.Check("not-a-token", RoleOwner, "")
	assert.True(t, fault.Has(err, fault.CategoryAuthorization, fault.CodeBadCapability))
}

func TestNewAuthorityEmptyKey(t *testing.T) {
	_, err := NewAuthority(nil)
	assert.True(t, fault.Has(err, fault.CategoryConfig, fault.CodeZeroAddress))
}
