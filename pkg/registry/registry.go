// Package registry defines the external asset-registry collaborator: the
// ownership/transfer ledger for issued units. The engine never mutates
// ownership state directly, only through this contract, and gates transfers
// behind the trading lock it owns.
package registry

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyIssued is returned when issuing an id that exists.
	ErrAlreadyIssued = errors.New("registry: id already issued")
	// ErrUnknownID is returned for operations on ids never issued or burned.
	ErrUnknownID = errors.New("registry: unknown id")
	// ErrNotOwner is returned when the from address does not own the id.
	ErrNotOwner = errors.New("registry: caller does not own id")
	// ErrZeroAddress is returned for blank recipient addresses.
	ErrZeroAddress = errors.New("registry: address must not be empty")
)

// Registry is the standard token-registry contract the engine issues into.
type Registry interface {
	// Issue creates unit id owned by to. Fails if id already exists.
	Issue(ctx context.Context, to string, id int64) error
	// OwnerOf returns the current owner of id.
	OwnerOf(ctx context.Context, id int64) (string, error)
	// BalanceOf returns how many units owner holds.
	BalanceOf(ctx context.Context, owner string) (int64, error)
	// Transfer moves id from from to to. Fails unless from owns id.
	Transfer(ctx context.Context, from, to string, id int64) error
	// Burn destroys id. Fails if id does not exist.
	Burn(ctx context.Context, id int64) error
}
