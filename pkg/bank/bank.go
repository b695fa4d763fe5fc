// Package bank provides the in-process settlement transport. Settlement is
// all-or-nothing: a batch either credits every recipient or none of them,
// which is the contract the engine's rollback logic builds on.
package bank

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dropforge/dropforge/pkg/engine"
	"github.com/dropforge/dropforge/pkg/fault"
)

// Memory is an account-balance bank held in process memory.
type Memory struct {
	mu       sync.RWMutex
	balances map[string]map[string]int64 // address -> currency -> minor units
	logger   *slog.Logger
}

// NewMemory creates an empty bank.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		balances: make(map[string]map[string]int64),
		logger:   logger.With("component", "bank"),
	}
}

// Settle credits every payment in the batch, or none: the batch is
// validated in full before the first credit lands.
func (m *Memory) Settle(ctx context.Context, payments []engine.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, p := range payments {
		if p.To == "" {
			return fault.Payment(fault.CodeTransferFailed, "payment recipient must not be empty")
		}
		if p.Amount.AmountMinor <= 0 {
			return fault.Payment(fault.CodeTransferFailed, "payment amount must be positive, got %d", p.Amount.AmountMinor)
		}
		if p.Amount.Currency == "" {
			return fault.Payment(fault.CodeTransferFailed, "payment currency must not be empty")
		}
	}

	m.mu.Lock()
	for _, p := range payments {
		if m.balances[p.To] == nil {
			m.balances[p.To] = make(map[string]int64)
		}
		m.balances[p.To][p.Amount.Currency] += p.Amount.AmountMinor
	}
	m.mu.Unlock()

	for _, p := range payments {
		m.logger.Debug("settled", "to", p.To, "amount", p.Amount.AmountMinor, "currency", p.Amount.Currency)
	}
	return nil
}

// BalanceOf returns the credited balance for an address in a currency.
func (m *Memory) BalanceOf(addr, currency string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balances[addr][currency]
}
