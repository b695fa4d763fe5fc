// Package events defines the engine's notification taxonomy. Notifications
// exist for observability: every state transition that matters to an
// operator or indexer emits exactly one event through the instance's Sink.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies the notification kind.
type Type string

const (
	TypePhaseAdded           Type = "PhaseAdded"
	TypePhaseEdited          Type = "PhaseEdited"
	TypePhaseRemoved         Type = "PhaseRemoved"
	TypePurchase             Type = "Purchase"
	TypeAirdrop              Type = "Airdrop"
	TypeBatchAirdrop         Type = "BatchAirdrop"
	TypeSupplyReduced        Type = "SupplyReduced"
	TypePaused               Type = "Paused"
	TypeResumed              Type = "Resumed"
	TypeFundsWithdrawn       Type = "FundsWithdrawn"
	TypeOwnershipTransferred Type = "OwnershipTransferred"
	TypeFeeConfigUpdated     Type = "FeeConfigUpdated"
	TypeTradingUnlocked      Type = "TradingUnlocked"
	TypeBurn                 Type = "Burn"
)

// Event is a structured notification record.
type Event struct {
	ID         string         `json:"id"`
	InstanceID string         `json:"instance_id"`
	Type       Type           `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// New builds an event with a fresh id.
func New(instanceID string, typ Type, at time.Time, fields map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		InstanceID: instanceID,
		Type:       typ,
		Timestamp:  at.UTC(),
		Fields:     fields,
	}
}

// Sink receives emitted events. Emit must not fail the emitting operation;
// implementations swallow their own errors.
type Sink interface {
	Emit(ev Event)
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) Emit(Event) {}
