//go:build property
// +build property

// Property-based tests for the supply and settlement invariants.
package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dropforge/dropforge/pkg/access"
	"github.com/dropforge/dropforge/pkg/engine"
	"github.com/dropforge/dropforge/pkg/finance"
	"github.com/dropforge/dropforge/pkg/phase"
	"github.com/dropforge/dropforge/pkg/registry"
	"github.com/dropforge/dropforge/pkg/supply"
)

type ledgerBank struct{ accounts map[string]int64 }

func (b *ledgerBank) Settle(ctx context.Context, payments []engine.Payment) error {
	for _, p := range payments {
		b.accounts[p.To] += p.Amount.AmountMinor
	}
	return nil
}

func newPropEngine(maxSupply int64) (*engine.Engine, *ledgerBank) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auth, _ := access.NewAuthority([]byte("prop-key"))
	bank := &ledgerBank{accounts: make(map[string]int64)}

	eng, err := engine.New(engine.Config{
		InstanceID: "prop",
		MaxSupply:  maxSupply,
		Public: phase.Phase{
			Start:         now.Add(-time.Hour),
			End:           now.Add(1000 * time.Hour),
			PricePerUnit:  100,
			MaxPerAddress: 1 << 40,
		},
		Fees: finance.FeeConfig{
			MintFeePerUnit:    10,
			SalesFeeBps:       250,
			FeeRecipient:      "platform",
			ProceedsRecipient: "creator-wallet",
			Currency:          "USD",
		},
		Owner:     "creator",
		Registry:  registry.NewMemory(),
		Bank:      bank,
		Authority: auth,
		Clock:     func() time.Time { return now },
	})
	if err != nil {
		panic(err)
	}
	return eng, bank
}

// TestSupplyNeverExceedsCap runs random mint sequences and checks that
// totalMinted tracks successful mints exactly and never passes maxSupply.
func TestSupplyNeverExceedsCap(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("totalMinted <= maxSupply after any mint sequence", prop.ForAll(
		func(amounts []int64) bool {
			const supplyCap = 50
			eng, _ := newPropEngine(supplyCap)
			ctx := context.Background()

			var minted int64
			for i, n := range amounts {
				before := eng.SupplyInfo()
				rcpt, err := eng.MintPublic(ctx, engine.Request{
					Caller:    fmt.Sprintf("caller-%d", i),
					Amount:    n,
					Recipient: fmt.Sprintf("caller-%d", i),
					Payment:   finance.NewMoney(1<<40, "USD"),
				})
				after := eng.SupplyInfo()

				if err != nil {
					// Rejection must leave zero state change.
					if after != before {
						return false
					}
					continue
				}
				minted += rcpt.Amount
				if after.TotalMinted != before.TotalMinted+rcpt.Amount {
					return false
				}
			}

			final := eng.SupplyInfo()
			return final.TotalMinted == minted && final.TotalMinted <= supplyCap
		},
		gen.SliceOf(gen.Int64Range(-3, 20)),
	))

	properties.TestingRun(t)
}

// TestSettlementConservesValue checks platform+creator == required across
// random amount/price/fee combinations.
func TestSettlementConservesValue(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("platformShare + creatorShare == requiredCost", prop.ForAll(
		func(amount, price, mintFee, bps int64) bool {
			cfg := finance.FeeConfig{
				MintFeePerUnit:    mintFee,
				SalesFeeBps:       bps,
				FeeRecipient:      "p",
				ProceedsRecipient: "c",
				Currency:          "USD",
			}
			q := cfg.QuoteFor(amount, price)
			return q.PlatformShare.AmountMinor+q.CreatorShare.AmountMinor == q.Required.AmountMinor &&
				q.PlatformShare.AmountMinor >= 0 &&
				q.CreatorShare.AmountMinor >= 0
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(0, 10_000),
		gen.Int64Range(0, finance.BpsDenominator),
	))

	properties.TestingRun(t)
}

// TestReserveRollbackIsLossless drives the ledger directly with random
// reserve/rollback interleavings.
func TestReserveRollbackIsLossless(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("rolled-back reservations leave no trace", prop.ForAll(
		func(ops []int64) bool {
			ledger, err := supply.NewLedger(1 << 30)
			if err != nil {
				return false
			}

			var committed int64
			for i, n := range ops {
				if n <= 0 {
					continue
				}
				res, err := ledger.Reserve(n)
				if err != nil {
					return false
				}
				if i%2 == 0 {
					if err := res.Rollback(); err != nil {
						return false
					}
				} else {
					committed += n
				}
			}

			info := ledger.Info()
			return info.TotalMinted == committed
		},
		gen.SliceOf(gen.Int64Range(-5, 100)),
	))

	properties.TestingRun(t)
}
