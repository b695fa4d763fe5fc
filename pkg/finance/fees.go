// Package finance provides minor-unit money arithmetic and the fee/split
// model for mint settlement. All splits are conservative: the platform and
// creator shares of a quote always sum exactly to the required cost.
package finance

import (
	"github.com/dropforge/dropforge/pkg/fault"
)

// BpsDenominator is the basis-point scale for the sales fee.
const BpsDenominator = 10_000

// FeeConfig fixes the platform economics of an engine instance. In
// direct-deploy mode it is immutable after construction; the factory keeps
// its own mutable defaults that only apply to future instances.
type FeeConfig struct {
	// MintFeePerUnit is the flat platform fee charged per issued unit,
	// in minor units.
	MintFeePerUnit int64 `json:"mint_fee_per_unit"`
	// SalesFeeBps is an optional platform cut of the sale subtotal,
	// in basis points. Zero disables it.
	SalesFeeBps int64 `json:"sales_fee_bps"`
	// FeeRecipient receives the platform share at settlement.
	FeeRecipient string `json:"fee_recipient"`
	// ProceedsRecipient receives the creator share at settlement.
	ProceedsRecipient string `json:"proceeds_recipient"`
	// Currency all amounts are denominated in.
	Currency string `json:"currency"`
}

// Validate rejects degenerate configurations at construction time.
func (c FeeConfig) Validate() error {
	if c.FeeRecipient == "" {
		return fault.Config(fault.CodeZeroAddress, "fee recipient must not be empty")
	}
	if c.ProceedsRecipient == "" {
		return fault.Config(fault.CodeZeroAddress, "proceeds recipient must not be empty")
	}
	if c.MintFeePerUnit < 0 {
		return fault.Config(fault.CodeInvalidBps, "mint fee must not be negative")
	}
	if c.SalesFeeBps < 0 || c.SalesFeeBps > BpsDenominator {
		return fault.Config(fault.CodeInvalidBps, "sales fee bps %d out of range [0, %d]", c.SalesFeeBps, BpsDenominator)
	}
	if c.Currency == "" {
		return fault.Config(fault.CodeZeroAddress, "currency must not be empty")
	}
	return nil
}

// Quote is the settlement breakdown for a purchase of `Amount` units.
// Invariant: PlatformShare + CreatorShare == Required.
type Quote struct {
	Amount        int64 `json:"amount"`
	Required      Money `json:"required"`
	PlatformShare Money `json:"platform_share"`
	CreatorShare  Money `json:"creator_share"`
}

// QuoteFor computes the required payment and its split for `amount` units
// at `pricePerUnit` minor units each.
//
// required = amount*(price + mintFee) + salesFee(subtotal)
// platform = amount*mintFee + salesFee(subtotal)
// creator  = required - platform
//
// The sales fee is floor division on the subtotal; the remainder stays
// with the creator, so no value is created or lost.
func (c FeeConfig) QuoteFor(amount, pricePerUnit int64) Quote {
	subtotal := amount * pricePerUnit
	mintFees := amount * c.MintFeePerUnit
	salesFee := subtotal * c.SalesFeeBps / BpsDenominator

	required := subtotal + mintFees + salesFee
	platform := mintFees + salesFee

	return Quote{
		Amount:        amount,
		Required:      NewMoney(required, c.Currency),
		PlatformShare: NewMoney(platform, c.Currency),
		CreatorShare:  NewMoney(required-platform, c.Currency),
	}
}
