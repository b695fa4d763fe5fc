package engine

import (
	"context"
	"time"

	"github.com/dropforge/dropforge/pkg/allowlist"
	"github.com/dropforge/dropforge/pkg/events"
	"github.com/dropforge/dropforge/pkg/fault"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/phase"
	"github.com/dropforge/dropforge/pkg/supply"
)

// Payment is one leg of a settlement.
type Payment struct {
	To     string
	Amount finance.Money
}

// Bank moves value out of the instance. Settle must apply every payment or
// none: a partial application would break the all-or-nothing settlement
// contract the engine builds on top of it. Implementations may run
// recipient-controlled code; the engine's reentrancy lock is the defense.
type Bank interface {
	Settle(ctx context.Context, payments []Payment) error
}

// Request is a mint request.
type Request struct {
	Caller    string
	PhaseID   int
	Amount    int64
	Recipient string
	Payment   finance.Money
}

// Kind distinguishes paid purchases from administrative issuance.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindAirdrop  Kind = "airdrop"
)

// Receipt describes a settled issuance.
type Receipt struct {
	InstanceID string        `json:"instance_id"`
	PhaseID    int           `json:"phase_id"`
	Recipient  string        `json:"recipient"`
	FirstID    int64         `json:"first_id"`
	Amount     int64         `json:"amount"`
	Quote      finance.Quote `json:"quote"`
	Kind       Kind          `json:"kind"`
	At         time.Time     `json:"at"`
}

// MintPublic mints req.Amount units in the public phase.
func (e *Engine) MintPublic(ctx context.Context, req Request) (*Receipt, error) {
	req.PhaseID = phase.PublicID
	return e.mint(ctx, req, nil)
}

// WhitelistMint mints in the presale phase req.PhaseID, admitting the
// caller through the phase's allow list. Units go to the caller.
func (e *Engine) WhitelistMint(ctx context.Context, req Request, proof []string) (*Receipt, error) {
	if req.PhaseID == phase.PublicID {
		return nil, fault.Phase(fault.CodeUnknown, "phase %d is not a presale phase", req.PhaseID)
	}
	req.Recipient = req.Caller
	return e.mint(ctx, req, proof)
}

// mint runs the full guard chain and the atomic commit sequence. The first
// failing guard aborts with zero state change; a failure after partial
// commit rolls the whole transition back.
func (e *Engine) mint(ctx context.Context, req Request, proof []string) (*Receipt, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if req.Amount <= 0 {
		return nil, fault.Config(fault.CodeInvalidAmount, "amount must be positive, got %d", req.Amount)
	}
	if req.Recipient == "" {
		return nil, fault.Config(fault.CodeZeroAddress, "recipient must not be empty")
	}

	// Guard 1: kill switch.
	if e.paused {
		return nil, fault.State(fault.CodePaused, "issuance paused")
	}

	// Guard 2: phase window. Unknown presale ids reject before the window
	// check, there is no window to consult.
	p, err := e.phases.Get(req.PhaseID)
	if err != nil {
		return nil, err
	}
	now := e.clock()
	if !p.ActiveAt(now) {
		return nil, fault.Phase(fault.CodeInactive, "phase %d not active at %s", p.ID, now.Format(time.RFC3339))
	}

	// Guard 3: per-address cap against the recipient's current holdings.
	held, err := e.reg.BalanceOf(ctx, req.Recipient)
	if err != nil {
		return nil, fault.Supply(fault.CodeIssuanceFailed, "balance lookup: %v", err)
	}
	if !p.LimitOK(held, req.Amount) {
		return nil, fault.Phase(fault.CodeLimitExceeded, "holding %d, requested %d, cap %d", held, req.Amount, p.MaxPerAddress)
	}

	// Guard 4: presale eligibility.
	if !p.IsPublic() {
		if !allowlist.Verify(proof, req.Caller, p.AllowListRoot) {
			return nil, fault.AllowList(fault.CodeNotEligible, "proof does not resolve to phase %d root", p.ID)
		}
	}

	// Guard 5: capacity.
	if !e.ledger.CanIssue(req.Amount) {
		info := e.ledger.Info()
		return nil, fault.Supply(fault.CodeSoldOut, "requested %d, remaining %d", req.Amount, info.MaxSupply-info.TotalMinted)
	}

	// Guard 6: attached payment covers the cost.
	quote := e.fees.QuoteFor(req.Amount, p.PricePerUnit)
	cmp, err := req.Payment.Cmp(quote.Required)
	if err != nil {
		return nil, fault.Payment(fault.CodeInsufficient, "payment currency: %v", err)
	}
	if cmp < 0 {
		return nil, fault.Payment(fault.CodeInsufficient, "need %s, got %s", quote.Required, req.Payment)
	}

	// Commit. Ledger mutations land before any external transfer so a
	// reentrant observer sees fully advanced counters.
	rcpt, err := e.commit(ctx, req, quote)
	if err != nil {
		return nil, err
	}

	e.emit(events.TypePurchase, map[string]any{
		"recipient": rcpt.Recipient,
		"first_id":  rcpt.FirstID,
		"amount":    rcpt.Amount,
		"phase_id":  rcpt.PhaseID,
		"required":  quote.Required.AmountMinor,
	})
	return rcpt, nil
}

// commit reserves supply, issues the reserved range, and settles payment,
// unwinding everything on any failure.
func (e *Engine) commit(ctx context.Context, req Request, quote finance.Quote) (*Receipt, error) {
	res, err := e.ledger.Reserve(req.Amount)
	if err != nil {
		return nil, err
	}

	issued := make([]int64, 0, req.Amount)
	for id := res.FirstID(); id < res.FirstID()+req.Amount; id++ {
		if err := e.reg.Issue(ctx, req.Recipient, id); err != nil {
			e.unwind(ctx, res, issued, finance.Money{})
			return nil, fault.Supply(fault.CodeIssuanceFailed, "issue %d: %v", id, err)
		}
		issued = append(issued, id)
	}

	// The attached payment is credited before settlement; the surplus over
	// the required cost stays held until the owner withdraws it.
	e.held, _ = e.held.Add(req.Payment)

	var payments []Payment
	if quote.PlatformShare.IsPositive() {
		payments = append(payments, Payment{To: e.fees.FeeRecipient, Amount: quote.PlatformShare})
	}
	if quote.CreatorShare.IsPositive() {
		payments = append(payments, Payment{To: e.fees.ProceedsRecipient, Amount: quote.CreatorShare})
	}
	if len(payments) > 0 {
		if err := e.settle(ctx, payments); err != nil {
			e.unwind(ctx, res, issued, req.Payment)
			return nil, fault.Payment(fault.CodeTransferFailed, "settlement: %v", err)
		}
	}
	e.held, _ = e.held.Sub(quote.Required)

	return &Receipt{
		InstanceID: e.id,
		PhaseID:    req.PhaseID,
		Recipient:  req.Recipient,
		FirstID:    res.FirstID(),
		Amount:     req.Amount,
		Quote:      quote,
		Kind:       KindPurchase,
		At:         e.clock(),
	}, nil
}

// unwind reverts a partially applied commit: burns whatever was issued,
// rolls the reservation back, and removes any credited payment.
func (e *Engine) unwind(ctx context.Context, res *supply.Reservation, issued []int64, credited finance.Money) {
	for _, id := range issued {
		_ = e.reg.Burn(ctx, id)
	}
	_ = res.Rollback()
	if !credited.IsZero() {
		e.held, _ = e.held.Sub(credited)
	}
}

// Burn destroys a unit the caller owns. Burning never frees supply
// capacity: totalMinted is monotonic for the instance's lifetime.
func (e *Engine) Burn(ctx context.Context, caller string, id int64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	owner, err := e.reg.OwnerOf(ctx, id)
	if err != nil {
		return fault.Phase(fault.CodeUnknown, "unit %d: %v", id, err)
	}
	if owner != caller {
		return fault.Authorization(fault.CodeNotOwner, "caller does not own unit %d", id)
	}
	if err := e.reg.Burn(ctx, id); err != nil {
		return fault.Supply(fault.CodeIssuanceFailed, "burn %d: %v", id, err)
	}

	e.emit(events.TypeBurn, map[string]any{"id": id, "owner": caller})
	return nil
}

// Transfer moves a unit between holders through the registry, gated by the
// trading lock. The pause switch does not apply here; it blocks issuance
// only.
func (e *Engine) Transfer(ctx context.Context, from, to string, id int64) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if e.tradingLocked {
		return fault.State(fault.CodeTradingLocked, "trading not yet unlocked")
	}
	if err := e.reg.Transfer(ctx, from, to, id); err != nil {
		return fault.Authorization(fault.CodeNotOwner, "transfer %d: %v", id, err)
	}
	return nil
}
