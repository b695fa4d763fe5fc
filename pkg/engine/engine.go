// Package engine implements the per-instance mint/phase/settlement engine:
// the guard chain, the all-or-nothing reserve-issue-settle transition, the
// pause switch, and the trading lock.
//
// Each instance is fully independent and serializes its own transitions:
// concurrent callers queue on the state lock. The lock is released only
// around the external settlement transfer, during which a reentrancy flag
// rejects any entry into the instance, so recipient-controlled code running
// inside the transfer cannot re-enter a mutating entry point.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dropforge/dropforge/pkg/access"
	"github.com/dropforge/dropforge/pkg/events"
	"github.com/dropforge/dropforge/pkg/fault"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/phase"
	"github.com/dropforge/dropforge/pkg/registry"
	"github.com/dropforge/dropforge/pkg/supply"
)

// Config describes a new engine instance. FeeConfig is immutable for the
// instance's lifetime; the factory applies its own (mutable) defaults only
// to instances created after a change.
type Config struct {
	InstanceID string
	Name       string
	Symbol     string
	MaxSupply  int64
	// Public is the public sale phase (id 0). Start/End are absolute.
	Public phase.Phase
	Fees   finance.FeeConfig
	// Owner is the collection creator's address.
	Owner string
	// RoyaltyReceiver/RoyaltyBps are reported, never enforced.
	RoyaltyReceiver string
	RoyaltyBps      int64

	Registry  registry.Registry
	Bank      Bank
	Authority *access.Authority
	Sink      events.Sink
	Clock     func() time.Time
}

// Engine is one collection instance.
type Engine struct {
	// mu guards all instance state. Mutating entry points hold it for the
	// whole transition; readers take it briefly. It is never held across
	// an external Bank call: settle releases it with entered set, so a
	// call arriving mid-transfer gets a typed rejection instead of a
	// deadlock, and the transfer observes fully advanced counters.
	mu      sync.Mutex
	entered bool

	id     string
	name   string
	symbol string
	owner  string
	fees   finance.FeeConfig

	ledger *supply.Ledger
	phases *phase.Registry
	reg    registry.Registry
	bank   Bank
	auth   *access.Authority
	sink   events.Sink
	clock  func() time.Time

	paused        bool
	tradingLocked bool
	held          finance.Money

	royaltyReceiver string
	royaltyBps      int64
}

// New validates cfg and constructs an engine instance. Trading starts
// locked; the owner unlocks it once the primary sale should become
// transferable.
func New(cfg Config) (*Engine, error) {
	if cfg.InstanceID == "" {
		return nil, fault.Config(fault.CodeZeroAddress, "instance id must not be empty")
	}
	if cfg.Owner == "" {
		return nil, fault.Config(fault.CodeZeroAddress, "owner address must not be empty")
	}
	if cfg.Registry == nil || cfg.Bank == nil || cfg.Authority == nil {
		return nil, fault.Config(fault.CodeZeroAddress, "registry, bank and authority are required")
	}
	if err := cfg.Fees.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Public.Start.Before(cfg.Public.End) {
		return nil, fault.Config(fault.CodeInvalidWindow, "public phase window must satisfy start < end")
	}
	if cfg.Public.MaxPerAddress < 1 {
		return nil, fault.Config(fault.CodeInvalidWindow, "public per-address cap must be at least 1")
	}
	if cfg.Public.PricePerUnit < 0 {
		return nil, fault.Config(fault.CodeInvalidWindow, "public price must not be negative")
	}
	if cfg.RoyaltyBps < 0 || cfg.RoyaltyBps > finance.BpsDenominator {
		return nil, fault.Config(fault.CodeInvalidBps, "royalty bps %d out of range", cfg.RoyaltyBps)
	}

	ledger, err := supply.NewLedger(cfg.MaxSupply)
	if err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Discard{}
	}

	return &Engine{
		id:              cfg.InstanceID,
		name:            cfg.Name,
		symbol:          cfg.Symbol,
		owner:           cfg.Owner,
		fees:            cfg.Fees,
		ledger:          ledger,
		phases:          phase.NewRegistry(cfg.Public, clock),
		reg:             cfg.Registry,
		bank:            cfg.Bank,
		auth:            cfg.Authority,
		sink:            sink,
		clock:           clock,
		tradingLocked:   true,
		held:            finance.NewMoney(0, cfg.Fees.Currency),
		royaltyReceiver: cfg.RoyaltyReceiver,
		royaltyBps:      cfg.RoyaltyBps,
	}, nil
}

// ID returns the instance id.
func (e *Engine) ID() string { return e.id }

// Owner returns the current owner address.
func (e *Engine) Owner() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owner
}

// SupplyInfo returns the supply counters. Readable mid-transition by
// design: a reentrant observer sees fully advanced counters, never a
// half-applied state.
func (e *Engine) SupplyInfo() supply.Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Info()
}

// PhaseInfo returns the presale or public phase with the given id.
func (e *Engine) PhaseInfo(id int) (phase.Phase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phases.Get(id)
}

// PublicMintInfo returns the public phase definition.
func (e *Engine) PublicMintInfo() phase.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phases.Public()
}

// Phases lists the alive presale phases.
func (e *Engine) Phases() []phase.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phases.List()
}

// Fees returns the instance's immutable fee configuration.
func (e *Engine) Fees() finance.FeeConfig { return e.fees }

// Held returns the balance currently held by the instance (overpayment
// surplus not yet withdrawn).
func (e *Engine) Held() finance.Money {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.held
}

// Paused reports whether the issuance kill switch is engaged.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// RoyaltyInfo reports the configured royalty receiver and percentage.
func (e *Engine) RoyaltyInfo() (string, int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.royaltyReceiver, e.royaltyBps
}

// enter begins a mutating transition: it acquires the state lock, held
// until exit, and rejects entry while a settlement transfer is in flight.
// Concurrent legitimate callers block here and run one after another.
func (e *Engine) enter() error {
	e.mu.Lock()
	if e.entered {
		e.mu.Unlock()
		return fault.State(fault.CodeReentrant, "nested entry rejected")
	}
	return nil
}

// exit ends a transition. Deferred on every mutating entry point so the
// lock clears on success and failure paths alike.
func (e *Engine) exit() {
	e.mu.Unlock()
}

// settle runs the external transfer with the state lock released. The
// entered flag stays set for the duration, so any call into the instance
// while value is moving is rejected as reentrant.
func (e *Engine) settle(ctx context.Context, payments []Payment) error {
	e.entered = true
	e.mu.Unlock()
	err := e.bank.Settle(ctx, payments)
	e.mu.Lock()
	e.entered = false
	return err
}

func (e *Engine) emit(typ events.Type, fields map[string]any) {
	e.sink.Emit(events.New(e.id, typ, e.clock(), fields))
}
