package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockedPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS purchases").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s, err := NewPostgresStore(db)
	require.NoError(t, err)
	return s, mock
}

func TestPostgresStoreRecord(t *testing.T) {
	s, mock := newMockedPostgres(t)

	p := samplePurchase("r-1", "alice")
	mock.ExpectExec("INSERT INTO purchases").
		WithArgs(p.ID, p.InstanceID, p.PhaseID, p.Recipient, p.FirstUnitID, p.Amount,
			p.RequiredMinor, p.PlatformMinor, p.CreatorMinor, p.Currency, p.Kind, p.At.UTC()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Record(context.Background(), p))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreList(t *testing.T) {
	s, mock := newMockedPostgres(t)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "instance_id", "phase_id", "recipient", "first_unit_id", "amount",
		"required_minor", "platform_minor", "creator_minor", "currency", "kind", "at",
	}).
		AddRow("r-2", "inst-1", 0, "bob", int64(3), int64(1), int64(110), int64(10), int64(100), "USD", "purchase", at).
		AddRow("r-1", "inst-1", 1, "alice", int64(1), int64(2), int64(180), int64(20), int64(160), "USD", "purchase", at)

	mock.ExpectQuery("SELECT (.+) FROM purchases WHERE instance_id = \\$1").
		WithArgs("inst-1", 100).
		WillReturnRows(rows)

	got, err := s.List(context.Background(), "inst-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r-2", got[0].ID)
	assert.Equal(t, 1, got[1].PhaseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreByRecipient(t *testing.T) {
	s, mock := newMockedPostgres(t)

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "instance_id", "phase_id", "recipient", "first_unit_id", "amount",
		"required_minor", "platform_minor", "creator_minor", "currency", "kind", "at",
	}).
		AddRow("r-1", "inst-1", 0, "alice", int64(1), int64(1), int64(110), int64(10), int64(100), "USD", "airdrop", at)

	mock.ExpectQuery("SELECT (.+) FROM purchases WHERE instance_id = \\$1 AND recipient = \\$2").
		WithArgs("inst-1", "alice").
		WillReturnRows(rows)

	got, err := s.ByRecipient(context.Background(), "inst-1", "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "airdrop", got[0].Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRecordEmptyID(t *testing.T) {
	s, _ := newMockedPostgres(t)
	assert.ErrorIs(t, s.Record(context.Background(), Purchase{}), ErrEmptyID)
}
