package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists purchases in a sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps db and runs the schema migration.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS purchases (
        id TEXT PRIMARY KEY,
        instance_id TEXT NOT NULL,
        phase_id INTEGER NOT NULL,
        recipient TEXT NOT NULL,
        first_unit_id INTEGER NOT NULL,
        amount INTEGER NOT NULL,
        required_minor INTEGER NOT NULL,
        platform_minor INTEGER NOT NULL,
        creator_minor INTEGER NOT NULL,
        currency TEXT NOT NULL,
        kind TEXT NOT NULL,
        at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_purchases_instance ON purchases(instance_id, at);
    CREATE INDEX IF NOT EXISTS idx_purchases_recipient ON purchases(instance_id, recipient);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) Record(ctx context.Context, p Purchase) error {
	if p.ID == "" {
		return ErrEmptyID
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO purchases (id, instance_id, phase_id, recipient, first_unit_id, amount,
            required_minor, platform_minor, creator_minor, currency, kind, at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.InstanceID, p.PhaseID, p.Recipient, p.FirstUnitID, p.Amount,
		p.RequiredMinor, p.PlatformMinor, p.CreatorMinor, p.Currency, p.Kind, p.At.UTC())
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return ErrDuplicateID
	}
	return err
}

func (s *SQLiteStore) List(ctx context.Context, instanceID string, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, instance_id, phase_id, recipient, first_unit_id, amount,
            required_minor, platform_minor, creator_minor, currency, kind, at
        FROM purchases WHERE instance_id = ? ORDER BY at DESC, id LIMIT ?`,
		instanceID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func (s *SQLiteStore) ByRecipient(ctx context.Context, instanceID, recipient string) ([]Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, instance_id, phase_id, recipient, first_unit_id, amount,
            required_minor, platform_minor, creator_minor, currency, kind, at
        FROM purchases WHERE instance_id = ? AND recipient = ? ORDER BY at, id`,
		instanceID, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPurchases(rows)
}

func scanPurchases(rows *sql.Rows) ([]Purchase, error) {
	var out []Purchase
	for rows.Next() {
		var p Purchase
		var at time.Time
		if err := rows.Scan(&p.ID, &p.InstanceID, &p.PhaseID, &p.Recipient, &p.FirstUnitID,
			&p.Amount, &p.RequiredMinor, &p.PlatformMinor, &p.CreatorMinor,
			&p.Currency, &p.Kind, &at); err != nil {
			return nil, err
		}
		p.At = at.UTC()
		out = append(out, p)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
