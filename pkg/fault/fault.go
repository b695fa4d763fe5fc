// Package fault defines the typed error taxonomy surfaced by the mint
// engine. Every rejected operation returns a *Error carrying a category
// and a reason code; callers branch on those rather than on message text.
package fault

import (
	"errors"
	"fmt"
)

// Category groups faults by the subsystem that produced them.
type Category string

const (
	CategoryConfig        Category = "config"
	CategoryAuthorization Category = "authorization"
	CategoryPhase         Category = "phase"
	CategorySupply        Category = "supply"
	CategoryPayment       Category = "payment"
	CategoryAllowList     Category = "allowlist"
	CategoryState         Category = "state"
)

// Code identifies the specific rejection reason within a category.
type Code string

const (
	// Config
	CodeZeroAddress   Code = "zero_address"
	CodeInvalidBps    Code = "invalid_bps"
	CodeInvalidSupply Code = "invalid_supply"
	CodeInvalidWindow Code = "invalid_window"
	CodeInvalidAmount Code = "invalid_amount"

	// Authorization
	CodeNotOwner      Code = "not_owner"
	CodeNotPlatform   Code = "not_platform"
	CodeBadCapability Code = "bad_capability"

	// Phase
	CodeInactive         Code = "inactive"
	CodeUnknown          Code = "unknown"
	CodeLimitExceeded    Code = "limit_exceeded"
	CodeCapacityExceeded Code = "capacity_exceeded"
	CodePhaseLive        Code = "phase_live"

	// Supply
	CodeSoldOut        Code = "sold_out"
	CodeInvalidCap     Code = "invalid_cap"
	CodeIssuanceFailed Code = "issuance_failed"

	// Payment
	CodeInsufficient   Code = "insufficient"
	CodeTransferFailed Code = "transfer_failed"
	CodeAmountTooHigh  Code = "amount_too_high"

	// AllowList
	CodeNotEligible Code = "not_eligible"

	// State
	CodePaused        Code = "paused"
	CodeReentrant     Code = "reentrant"
	CodeTradingLocked Code = "trading_locked"
)

// Error is the caller-visible fault type.
type Error struct {
	Category Category `json:"category"`
	Code     Code     `json:"code"`
	Detail   string   `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s/%s", e.Category, e.Code)
	}
	return fmt.Sprintf("%s/%s: %s", e.Category, e.Code, e.Detail)
}

// New creates a fault with a formatted detail message.
func New(cat Category, code Code, format string, args ...any) *Error {
	return &Error{Category: cat, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Shorthand constructors for the categories the engine raises routinely.

func Config(code Code, format string, args ...any) *Error {
	return New(CategoryConfig, code, format, args...)
}

func Authorization(code Code, format string, args ...any) *Error {
	return New(CategoryAuthorization, code, format, args...)
}

func Phase(code Code, format string, args ...any) *Error {
	return New(CategoryPhase, code, format, args...)
}

func Supply(code Code, format string, args ...any) *Error {
	return New(CategorySupply, code, format, args...)
}

func Payment(code Code, format string, args ...any) *Error {
	return New(CategoryPayment, code, format, args...)
}

func AllowList(code Code, format string, args ...any) *Error {
	return New(CategoryAllowList, code, format, args...)
}

func State(code Code, format string, args ...any) *Error {
	return New(CategoryState, code, format, args...)
}

// Has reports whether err (or anything it wraps) is a fault with the given
// category and code.
func Has(err error, cat Category, code Code) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Category == cat && fe.Code == code
}

// CategoryOf returns the category of err, or "" if err is not a fault.
func CategoryOf(err error) Category {
	var fe *Error
	if !errors.As(err, &fe) {
		return ""
	}
	return fe.Category
}
