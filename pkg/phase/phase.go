// Package phase stores sale-phase definitions for an engine instance: the
// public phase plus up to five presale phases, each a time-boxed window with
// its own price, per-address cap, and optional allow-list root.
package phase

import (
	"time"

	"github.com/dropforge/dropforge/pkg/fault"
)

// PublicID is the reserved id of the public phase. Presale ids start at 1.
const PublicID = 0

// MaxPresalePhases bounds how many presale phases may be alive at once.
const MaxPresalePhases = 5

// Phase is one sale window.
type Phase struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	PricePerUnit  int64     `json:"price_per_unit"`
	MaxPerAddress int64     `json:"max_per_address"`
	// AllowListRoot is the hex Merkle root committing the phase's address
	// set. Empty for the public phase.
	AllowListRoot string `json:"allow_list_root,omitempty"`
}

// IsPublic reports whether p is the public phase.
func (p Phase) IsPublic() bool { return p.ID == PublicID }

// ActiveAt reports whether the phase window contains now. The public phase
// closes inclusively (start <= now <= end), presale phases exclusively
// (start <= now < end). The asymmetry is deliberate and load-bearing for
// back-to-back presale windows.
func (p Phase) ActiveAt(now time.Time) bool {
	if now.Before(p.Start) {
		return false
	}
	if p.IsPublic() {
		return !now.After(p.End)
	}
	return now.Before(p.End)
}

// LimitOK reports whether minting amount more units keeps the holder within
// the phase's per-address cap.
func (p Phase) LimitOK(currentBalance, amount int64) bool {
	return currentBalance+amount <= p.MaxPerAddress
}

// Config describes a presale phase to register. Start and End are offsets
// from the registration time; absolute times are fixed when Add is called.
type Config struct {
	Name          string        `json:"name"`
	StartOffset   time.Duration `json:"start_offset"`
	EndOffset     time.Duration `json:"end_offset"`
	PricePerUnit  int64         `json:"price_per_unit"`
	MaxPerAddress int64         `json:"max_per_address"`
	AllowListRoot string        `json:"allow_list_root"`
}

func (c Config) validate() error {
	if c.StartOffset < 0 || c.EndOffset <= c.StartOffset {
		return fault.Config(fault.CodeInvalidWindow, "phase window must satisfy 0 <= start < end")
	}
	if c.PricePerUnit < 0 {
		return fault.Config(fault.CodeInvalidWindow, "price must not be negative")
	}
	if c.MaxPerAddress < 1 {
		return fault.Config(fault.CodeInvalidWindow, "per-address cap must be at least 1")
	}
	return nil
}
