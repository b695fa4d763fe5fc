package engine

import (
	"context"
	"math"

	"github.com/dropforge/dropforge/pkg/access"
	"github.com/dropforge/dropforge/pkg/events"
	"github.com/dropforge/dropforge/pkg/fault"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/phase"
)

// MaxBatchAirdropRecipients bounds a single BatchAirdrop call.
const MaxBatchAirdropRecipients = 8

// requireOwner validates the capability and binds it to the current owner
// address. Capabilities of a previous owner die with the ownership
// transfer.
func (e *Engine) requireOwner(capability string) error {
	subject, err := e.auth.Check(capability, access.RoleOwner, e.id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	owner := e.owner
	e.mu.Unlock()
	if subject != owner {
		return fault.Authorization(fault.CodeNotOwner, "capability subject %q is not the owner", subject)
	}
	return nil
}

// AddPhase registers a presale phase.
func (e *Engine) AddPhase(capability string, cfg phase.Config) (int, error) {
	if err := e.requireOwner(capability); err != nil {
		return 0, err
	}
	if err := e.enter(); err != nil {
		return 0, err
	}
	defer e.exit()

	id, err := e.phases.Add(cfg)
	if err != nil {
		return 0, err
	}
	e.emit(events.TypePhaseAdded, map[string]any{"phase_id": id, "name": cfg.Name})
	return id, nil
}

// EditPhase replaces a not-yet-live presale phase's parameters.
func (e *Engine) EditPhase(capability string, id int, cfg phase.Config) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.phases.Edit(id, cfg); err != nil {
		return err
	}
	e.emit(events.TypePhaseEdited, map[string]any{"phase_id": id})
	return nil
}

// RemovePhase tombstones a not-yet-live presale phase.
func (e *Engine) RemovePhase(capability string, id int) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.phases.Remove(id); err != nil {
		return err
	}
	e.emit(events.TypePhaseRemoved, map[string]any{"phase_id": id})
	return nil
}

// ReduceSupply lowers the supply cap. The cap may only shrink and never
// below the already-minted count.
func (e *Engine) ReduceSupply(capability string, newCap int64) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := e.ledger.ReduceCap(newCap); err != nil {
		return err
	}
	e.emit(events.TypeSupplyReduced, map[string]any{"new_cap": newCap})
	return nil
}

// Pause engages the issuance kill switch. Transfers, burns and
// administrative operations remain available.
func (e *Engine) Pause(capability string) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	e.paused = true
	e.emit(events.TypePaused, nil)
	return nil
}

// Resume releases the kill switch.
func (e *Engine) Resume(capability string) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	e.paused = false
	e.emit(events.TypeResumed, nil)
	return nil
}

// Withdraw transfers amount minor units of the held balance to the owner.
func (e *Engine) Withdraw(ctx context.Context, capability string, amount int64) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if amount <= 0 {
		return fault.Config(fault.CodeInvalidAmount, "amount must be positive, got %d", amount)
	}
	want := finance.NewMoney(amount, e.held.Currency)
	if cmp, err := want.Cmp(e.held); err != nil || cmp > 0 {
		return fault.Payment(fault.CodeInsufficient, "held %s, requested %s", e.held, want)
	}

	// Debit before the external transfer; restore on failure.
	e.held, _ = e.held.Sub(want)
	if err := e.settle(ctx, []Payment{{To: e.owner, Amount: want}}); err != nil {
		e.held, _ = e.held.Add(want)
		return fault.Payment(fault.CodeTransferFailed, "withdraw: %v", err)
	}

	e.emit(events.TypeFundsWithdrawn, map[string]any{"amount": amount, "to": e.owner})
	return nil
}

// SetRoyaltyInfo records the royalty receiver and percentage reported to
// marketplaces. Reporting only; the engine never enforces royalties.
func (e *Engine) SetRoyaltyInfo(capability, receiver string, bps int64) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if receiver == "" {
		return fault.Config(fault.CodeZeroAddress, "royalty receiver must not be empty")
	}
	if bps < 0 || bps > finance.BpsDenominator {
		return fault.Config(fault.CodeInvalidBps, "royalty bps %d out of range", bps)
	}
	e.royaltyReceiver = receiver
	e.royaltyBps = bps
	e.emit(events.TypeFeeConfigUpdated, map[string]any{"royalty_receiver": receiver, "royalty_bps": bps})
	return nil
}

// UnlockTrading permanently releases the trading lock.
func (e *Engine) UnlockTrading(capability string) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	e.tradingLocked = false
	e.emit(events.TypeTradingUnlocked, nil)
	return nil
}

// TransferOwnership hands the instance to a new owner address.
func (e *Engine) TransferOwnership(capability, newOwner string) error {
	if err := e.requireOwner(capability); err != nil {
		return err
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if newOwner == "" {
		return fault.Config(fault.CodeZeroAddress, "new owner must not be empty")
	}
	prev := e.owner
	e.owner = newOwner
	e.emit(events.TypeOwnershipTransferred, map[string]any{"from": prev, "to": newOwner})
	return nil
}

// Airdrop issues amount units to a single recipient without payment.
// The kill switch and supply cap still apply; per-address caps and
// settlement do not.
func (e *Engine) Airdrop(ctx context.Context, capability, to string, amount int64) (*Receipt, error) {
	if err := e.requireOwner(capability); err != nil {
		return nil, err
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	rcpt, err := e.airdropOne(ctx, to, amount)
	if err != nil {
		return nil, err
	}
	e.emit(events.TypeAirdrop, map[string]any{
		"recipient": rcpt.Recipient,
		"first_id":  rcpt.FirstID,
		"amount":    rcpt.Amount,
	})
	return rcpt, nil
}

// BatchAirdrop issues amountEach units to each recipient. The recipient
// list is bounded so one call cannot issue an unbounded range; the whole
// batch applies or none of it does.
func (e *Engine) BatchAirdrop(ctx context.Context, capability string, recipients []string, amountEach int64) ([]*Receipt, error) {
	if err := e.requireOwner(capability); err != nil {
		return nil, err
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if len(recipients) == 0 || len(recipients) > MaxBatchAirdropRecipients {
		return nil, fault.Payment(fault.CodeAmountTooHigh, "recipient count %d out of range [1, %d]", len(recipients), MaxBatchAirdropRecipients)
	}

	if amountEach <= 0 {
		return nil, fault.Config(fault.CodeInvalidAmount, "amount must be positive, got %d", amountEach)
	}
	if amountEach > math.MaxInt64/int64(len(recipients)) {
		return nil, fault.Config(fault.CodeInvalidAmount, "amount %d per recipient overflows the batch total", amountEach)
	}
	total := amountEach * int64(len(recipients))
	if e.paused {
		return nil, fault.State(fault.CodePaused, "issuance paused")
	}
	if !e.ledger.CanIssue(total) {
		info := e.ledger.Info()
		return nil, fault.Supply(fault.CodeSoldOut, "requested %d, remaining %d", total, info.MaxSupply-info.TotalMinted)
	}

	receipts := make([]*Receipt, 0, len(recipients))
	var issued []int64
	res, err := e.ledger.Reserve(total)
	if err != nil {
		return nil, err
	}

	next := res.FirstID()
	for _, to := range recipients {
		if to == "" {
			e.unwind(ctx, res, issued, finance.Money{})
			return nil, fault.Config(fault.CodeZeroAddress, "recipient must not be empty")
		}
		first := next
		for i := int64(0); i < amountEach; i++ {
			if err := e.reg.Issue(ctx, to, next); err != nil {
				e.unwind(ctx, res, issued, finance.Money{})
				return nil, fault.Supply(fault.CodeIssuanceFailed, "issue %d: %v", next, err)
			}
			issued = append(issued, next)
			next++
		}
		receipts = append(receipts, &Receipt{
			InstanceID: e.id,
			PhaseID:    phase.PublicID,
			Recipient:  to,
			FirstID:    first,
			Amount:     amountEach,
			Kind:       KindAirdrop,
			At:         e.clock(),
		})
	}

	e.emit(events.TypeBatchAirdrop, map[string]any{
		"recipients": len(recipients),
		"first_id":   res.FirstID(),
		"amount":     total,
	})
	return receipts, nil
}

// airdropOne is the single-recipient issuance shared by Airdrop.
func (e *Engine) airdropOne(ctx context.Context, to string, amount int64) (*Receipt, error) {
	if to == "" {
		return nil, fault.Config(fault.CodeZeroAddress, "recipient must not be empty")
	}
	if amount <= 0 {
		return nil, fault.Config(fault.CodeInvalidAmount, "amount must be positive, got %d", amount)
	}
	if e.paused {
		return nil, fault.State(fault.CodePaused, "issuance paused")
	}
	if !e.ledger.CanIssue(amount) {
		info := e.ledger.Info()
		return nil, fault.Supply(fault.CodeSoldOut, "requested %d, remaining %d", amount, info.MaxSupply-info.TotalMinted)
	}

	res, err := e.ledger.Reserve(amount)
	if err != nil {
		return nil, err
	}
	var issued []int64
	for id := res.FirstID(); id < res.FirstID()+amount; id++ {
		if err := e.reg.Issue(ctx, to, id); err != nil {
			e.unwind(ctx, res, issued, finance.Money{})
			return nil, fault.Supply(fault.CodeIssuanceFailed, "issue %d: %v", id, err)
		}
		issued = append(issued, id)
	}

	return &Receipt{
		InstanceID: e.id,
		PhaseID:    phase.PublicID,
		Recipient:  to,
		FirstID:    res.FirstID(),
		Amount:     amount,
		Kind:       KindAirdrop,
		At:         e.clock(),
	}, nil
}
