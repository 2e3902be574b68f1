// Package invoice owns the invoice lifecycle. Status moves only through the
// registry service; skipping a stage is rejected as an invalid transition.
package invoice

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
)

var (
	ErrNotFound       = errors.New("invoice not found")
	ErrInvalidState   = errors.New("invalid invoice state transition")
	ErrInvalidAmount  = errors.New("invalid invoice amount")
	ErrInvalidDueDate = errors.New("invoice due date must be in the future")
	ErrInvalidDesc    = errors.New("invoice description required")
	ErrNotOwner       = errors.New("caller does not own this invoice")
)

// Status is the lifecycle state of an invoice.
type Status string

const (
	StatusCreated   Status = "created"
	StatusVerified  Status = "verified"
	StatusOpen      Status = "open"
	StatusFunded    Status = "funded"
	StatusRepaid    Status = "repaid"
	StatusDefaulted Status = "defaulted"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every lifecycle state, used for enumeration and backups.
var Statuses = []Status{
	StatusCreated, StatusVerified, StatusOpen,
	StatusFunded, StatusRepaid, StatusDefaulted, StatusCancelled,
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusRepaid, StatusDefaulted, StatusCancelled:
		return true
	}

	return false
}

// transitions enumerates the adjacent states reachable from each state.
var transitions = map[Status][]Status{
	StatusCreated:  {StatusVerified, StatusCancelled},
	StatusVerified: {StatusOpen, StatusCancelled},
	StatusOpen:     {StatusFunded, StatusDefaulted, StatusCancelled},
	StatusFunded:   {StatusRepaid, StatusDefaulted},
}

// CanTransition reports whether from→to is an adjacent lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Invoice is a tokenized claim on a future receivable.
type Invoice struct {
	ID           uuid.UUID      `json:"id"`
	Business     auth.Identity  `json:"business"`
	FaceValue    int64          `json:"face_value"` // smallest currency unit
	DueDate      time.Time      `json:"due_date"`
	Status       Status         `json:"status"`
	Description  string         `json:"description"`
	FundedAmount int64          `json:"funded_amount"`
	Investor     *auth.Identity `json:"investor,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	FundedAt     *time.Time     `json:"funded_at,omitempty"`
	SettledAt    *time.Time     `json:"settled_at,omitempty"`
}

// transition moves the invoice to the target status or fails with
// ErrInvalidState when the move is not adjacent.
func (i *Invoice) transition(to Status) error {
	if !CanTransition(i.Status, to) {
		return ErrInvalidState
	}

	i.Status = to

	return nil
}

// markFunded records the winning investor and funded amount.
func (i *Invoice) markFunded(investor auth.Identity, amount int64, at time.Time) error {
	if err := i.transition(StatusFunded); err != nil {
		return err
	}

	i.FundedAmount = amount
	i.Investor = &investor
	i.FundedAt = &at

	return nil
}

// markSettled closes the invoice as repaid or defaulted.
func (i *Invoice) markSettled(to Status, at time.Time) error {
	if err := i.transition(to); err != nil {
		return err
	}

	i.SettledAt = &at

	return nil
}

// Overdue reports whether the due date has elapsed.
func (i *Invoice) Overdue(now time.Time) bool {
	return now.After(i.DueDate)
}
