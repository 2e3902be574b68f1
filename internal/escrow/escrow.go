// Package escrow is the sole writer of balances. Funds move between
// investor, business, platform, and the contract-held vault only through the
// engine, inside the caller's ledger transaction.
package escrow

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
)

var (
	ErrNotFound          = errors.New("escrow record not found")
	ErrNoContribution    = errors.New("no held contribution for investor")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadySettled    = errors.New("escrow already settled")
)

// VaultAccount holds escrowed funds; owned by no single party until release.
const VaultAccount auth.Identity = "escrow_vault"

// PlatformAccount collects protocol fees.
const PlatformAccount auth.Identity = "platform"

// Status tracks the escrow record through funding and settlement.
type Status string

const (
	// StatusOpen: bid holds may be active; held amount is their sum.
	StatusOpen Status = "open"
	// StatusFunded: winner disbursed, holds zeroed, principal outstanding.
	StatusFunded Status = "funded"
	StatusSettled   Status = "settled"
	StatusDefaulted Status = "defaulted"
)

// Record is the per-invoice escrow ledger entry. Held equals the sum of
// unsettled contributions and is zeroed exactly once, at funding (winner
// disbursed, losers refunded) or full refund.
type Record struct {
	InvoiceID     uuid.UUID               `json:"invoice_id"`
	Held          int64                   `json:"held"`
	Contributions map[auth.Identity]int64 `json:"contributions"`
	Principal     int64                   `json:"principal"`
	RateBps       int64                   `json:"rate_bps"`
	Investor      *auth.Identity          `json:"investor,omitempty"`
	Status        Status                  `json:"status"`
	CreatedAt     time.Time               `json:"created_at"`
	ReleasedAt    *time.Time              `json:"released_at,omitempty"`
	ClosedAt      *time.Time              `json:"closed_at,omitempty"`
}
