// Package store persists settled purchase receipts. Settlement itself is
// the engine's job; the store is downstream bookkeeping, so a Record failure
// never unwinds a settled mint, it is surfaced to the operator instead.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateID is returned when recording a receipt id twice.
	ErrDuplicateID = errors.New("store: duplicate receipt id")
	// ErrEmptyID is returned for receipts without an id.
	ErrEmptyID = errors.New("store: receipt id must not be empty")
)

// Purchase is one settled issuance, purchase or airdrop.
type Purchase struct {
	ID            string    `json:"id"`
	InstanceID    string    `json:"instance_id"`
	PhaseID       int       `json:"phase_id"`
	Recipient     string    `json:"recipient"`
	FirstUnitID   int64     `json:"first_unit_id"`
	Amount        int64     `json:"amount"`
	RequiredMinor int64     `json:"required_minor"`
	PlatformMinor int64     `json:"platform_minor"`
	CreatorMinor  int64     `json:"creator_minor"`
	Currency      string    `json:"currency"`
	Kind          string    `json:"kind"` // "purchase" or "airdrop"
	At            time.Time `json:"at"`
}

// PurchaseStore is the persistence contract for settled purchases.
type PurchaseStore interface {
	Record(ctx context.Context, p Purchase) error
	List(ctx context.Context, instanceID string, limit int) ([]Purchase, error)
	ByRecipient(ctx context.Context, instanceID, recipient string) ([]Purchase, error)
}
