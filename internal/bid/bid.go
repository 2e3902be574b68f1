// Package bid maintains the per-invoice bid book: uniqueness, deterministic
// ordering, and the pessimistic escrow hold placed at bid time.
package bid

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
)

var (
	ErrNotFound             = errors.New("bid not found")
	ErrNotActive            = errors.New("bid is not active")
	ErrDuplicateBid         = errors.New("investor already has an active bid on this invoice")
	ErrInvalidAmount        = errors.New("bid amount must be positive")
	ErrInsufficientCapacity = errors.New("bid exceeds remaining unfunded face value")
	ErrNotBestBid           = errors.New("a better active bid exists")
)

// Status of a bid in the book.
type Status string

const (
	StatusActive    Status = "active"
	StatusWithdrawn Status = "withdrawn"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

// Bid is an investor's committed offer to fund an invoice.
type Bid struct {
	ID          uuid.UUID     `json:"id"`
	InvoiceID   uuid.UUID     `json:"invoice_id"`
	Investor    auth.Identity `json:"investor"`
	Amount      int64         `json:"amount"`
	RateBps     int64         `json:"rate_bps"`
	SubmittedAt time.Time     `json:"submitted_at"`
	Status      Status        `json:"status"`
}

// Better reports whether a outranks b: highest amount first, earliest
// submission on tie, then lowest id for total determinism.
func Better(a, b *Bid) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}

	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		return a.SubmittedAt.Before(b.SubmittedAt)
	}

	return a.ID.String() < b.ID.String()
}
