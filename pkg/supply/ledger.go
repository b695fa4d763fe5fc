// Package supply tracks issuance counters for a single engine instance and
// enforces the supply cap. The ledger holds the two load-bearing counters of
// the whole system: totalMinted (monotonic; burns do not free capacity) and
// nextID (strictly increasing, ids are never reused).
//
// A Ledger is owned exclusively by its engine instance, which serializes all
// access; the ledger itself is not safe for concurrent use.
package supply

import (
	"errors"

	"github.com/dropforge/dropforge/pkg/fault"
)

var (
	// ErrReservationSpent is returned when a reservation is rolled back twice.
	ErrReservationSpent = errors.New("supply: reservation already rolled back or superseded")
	// ErrNonPositiveAmount is returned for zero or negative reservation sizes.
	ErrNonPositiveAmount = errors.New("supply: amount must be positive")
)

// Ledger is the per-instance supply state.
type Ledger struct {
	maxSupply   int64
	ceiling     int64 // value fixed at deployment; cap may never return above it
	totalMinted int64
	nextID      int64 // next id to hand out; first issued id is 1
	epoch       uint64
}

// NewLedger creates a ledger with the given deployment cap.
func NewLedger(maxSupply int64) (*Ledger, error) {
	if maxSupply <= 0 {
		return nil, fault.Config(fault.CodeInvalidSupply, "max supply must be positive, got %d", maxSupply)
	}
	return &Ledger{maxSupply: maxSupply, ceiling: maxSupply, nextID: 1}, nil
}

// Info is a read-only snapshot of the counters.
type Info struct {
	MaxSupply   int64 `json:"max_supply"`
	TotalMinted int64 `json:"total_minted"`
	NextID      int64 `json:"next_id"`
}

// Info returns the current counter snapshot.
func (l *Ledger) Info() Info {
	return Info{MaxSupply: l.maxSupply, TotalMinted: l.totalMinted, NextID: l.nextID}
}

// CanIssue reports whether amount more units fit under the cap.
func (l *Ledger) CanIssue(amount int64) bool {
	return amount > 0 && l.totalMinted+amount <= l.maxSupply
}

// Reservation is an undo token for a single Reserve call. It is valid only
// until the next Reserve on the same ledger; the engine performs its whole
// reserve-issue-settle transition under the instance lock, so a live
// reservation is always the most recent one.
type Reservation struct {
	ledger  *Ledger
	firstID int64
	amount  int64
	epoch   uint64
	spent   bool
}

// FirstID returns the first id of the reserved contiguous range.
func (r *Reservation) FirstID() int64 { return r.firstID }

// Amount returns the number of reserved ids.
func (r *Reservation) Amount() int64 { return r.amount }

// Reserve atomically advances nextID and totalMinted by amount and returns
// the contiguous range [FirstID, FirstID+amount). Callers that fail a later
// step of their transition must Rollback the reservation so the whole
// operation applies as a unit or not at all.
func (l *Ledger) Reserve(amount int64) (*Reservation, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}
	if l.totalMinted+amount > l.maxSupply {
		return nil, fault.Supply(fault.CodeSoldOut, "requested %d, remaining %d", amount, l.maxSupply-l.totalMinted)
	}

	first := l.nextID
	l.nextID += amount
	l.totalMinted += amount
	l.epoch++

	return &Reservation{ledger: l, firstID: first, amount: amount, epoch: l.epoch}, nil
}

// Rollback restores both counters to their pre-Reserve values. It fails if
// the reservation was already rolled back or a newer reservation exists.
func (r *Reservation) Rollback() error {
	if r.spent || r.ledger.epoch != r.epoch {
		return ErrReservationSpent
	}
	r.ledger.nextID -= r.amount
	r.ledger.totalMinted -= r.amount
	r.spent = true
	return nil
}

// ReduceCap lowers maxSupply to newCap. The cap may only shrink: newCap must
// be within [totalMinted, maxSupply].
func (l *Ledger) ReduceCap(newCap int64) error {
	if newCap < l.totalMinted {
		return fault.Supply(fault.CodeInvalidCap, "new cap %d below minted count %d", newCap, l.totalMinted)
	}
	if newCap > l.maxSupply {
		return fault.Supply(fault.CodeInvalidCap, "new cap %d above current cap %d", newCap, l.maxSupply)
	}
	l.maxSupply = newCap
	return nil
}
