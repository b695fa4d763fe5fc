package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// PostgresStore persists purchases in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps db and runs the schema migration.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS purchases (
        id TEXT PRIMARY KEY,
        instance_id TEXT NOT NULL,
        phase_id INTEGER NOT NULL,
        recipient TEXT NOT NULL,
        first_unit_id BIGINT NOT NULL,
        amount BIGINT NOT NULL,
        required_minor BIGINT NOT NULL,
        platform_minor BIGINT NOT NULL,
        creator_minor BIGINT NOT NULL,
        currency TEXT NOT NULL,
        kind TEXT NOT NULL,
        at TIMESTAMPTZ NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_purchases_instance ON purchases(instance_id, at);
    CREATE INDEX IF NOT EXISTS idx_purchases_recipient ON purchases(instance_id, recipient);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *PostgresStore) Record(ctx context.Context, p Purchase) error {
	if p.ID == "" {
		return ErrEmptyID
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO purchases (id, instance_id, phase_id, recipient, first_unit_id, amount,
            required_minor, platform_minor, creator_minor, currency, kind, at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.InstanceID, p.PhaseID, p.Recipient, p.FirstUnitID, p.Amount,
		p.RequiredMinor, p.PlatformMinor, p.CreatorMinor, p.Currency, p.Kind, p.At.UTC())

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicateID
	}
	return err
}

func (s *PostgresStore) List(ctx context.Context, instanceID string, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, instance_id, phase_id, recipient, first_unit_id, amount,
            required_minor, platform_minor, creator_minor, currency, kind, at
        FROM purchases WHERE instance_id = $1 ORDER BY at DESC, id LIMIT $2`,
		instanceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func (s *PostgresStore) ByRecipient(ctx context.Context, instanceID, recipient string) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, instance_id, phase_id, recipient, first_unit_id, amount,
            required_minor, platform_minor, creator_minor, currency, kind, at
        FROM purchases WHERE instance_id = $1 AND recipient = $2 ORDER BY at, id`,
		instanceID, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}
