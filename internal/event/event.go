// Package event appends the audit trail consumed by off-chain indexers.
// Emission is purely observational: a failed emit is logged and never fails
// the enclosing ledger transaction.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Kind identifies a committed state transition.
type Kind string

const (
	KindInvoiceCreated   Kind = "invoice_created"
	KindInvoiceVerified  Kind = "invoice_verified"
	KindBiddingOpened    Kind = "bidding_opened"
	KindBidPlaced        Kind = "bid_placed"
	KindBidWithdrawn     Kind = "bid_withdrawn"
	KindBidRejected      Kind = "bid_rejected"
	KindBidAccepted      Kind = "bid_accepted"
	KindInvoiceFunded    Kind = "invoice_funded"
	KindInvoiceRepaid    Kind = "invoice_repaid"
	KindInvoiceDefaulted Kind = "invoice_defaulted"
	KindInvoiceCancelled Kind = "invoice_cancelled"
	KindInvoiceRated     Kind = "invoice_rated"
	KindEscrowHeld       Kind = "escrow_held"
	KindEscrowReleased   Kind = "escrow_released"
	KindEscrowRefunded   Kind = "escrow_refunded"
	KindDepositMade      Kind = "deposit_made"
	KindKycSubmitted     Kind = "kyc_submitted"
	KindBusinessVerified Kind = "business_verified"
	KindBusinessRejected Kind = "business_rejected"
	KindBackupCreated    Kind = "backup_created"
	KindBackupRestored   Kind = "backup_restored"
	KindBackupArchived   Kind = "backup_archived"
)

// Event is a single audit-trail record.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Kind      Kind          `json:"kind"`
	InvoiceID uuid.UUID     `json:"invoice_id,omitempty"`
	Actor     auth.Identity `json:"actor"`
	Amount    int64         `json:"amount,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func invoiceEventsKey(invoiceID uuid.UUID) string {
	return "events/" + invoiceID.String()
}

func actorEventsKey(actor auth.Identity) string {
	return "events_actor/" + string(actor)
}

const statsKey = "events_stats"

// TrailStats summarizes the whole audit trail.
type TrailStats struct {
	Total  int64          `json:"total"`
	ByKind map[Kind]int64 `json:"by_kind"`
}

// Emitter appends events inside the caller's ledger transaction.
type Emitter struct {
	log *slog.Logger
	now func() time.Time
}

func NewEmitter(log *slog.Logger) *Emitter {
	return &Emitter{log: log, now: time.Now}
}

// Emit appends an event to the invoice's audit trail, the actor's trail, and
// the trail stats. Never returns an error; failures are logged so they
// cannot abort the enclosing transition.
func (e *Emitter) Emit(tx ledger.Tx, kind Kind, invoiceID uuid.UUID, actor auth.Identity, amount int64) {
	evt := Event{
		ID:        uuid.New(),
		Kind:      kind,
		InvoiceID: invoiceID,
		Actor:     actor,
		Amount:    amount,
		Timestamp: e.now().UTC(),
	}

	if err := e.appendTo(tx, invoiceEventsKey(invoiceID), evt); err != nil {
		e.log.Error("appending audit event", "kind", kind, "invoice_id", invoiceID, "error", err)
		return
	}

	if err := e.appendTo(tx, actorEventsKey(actor), evt); err != nil {
		e.log.Error("indexing audit event by actor", "kind", kind, "actor", actor, "error", err)
		return
	}

	if err := e.bumpStats(tx, kind); err != nil {
		e.log.Error("updating audit stats", "kind", kind, "error", err)
		return
	}

	e.log.Info("event emitted", "kind", kind, "invoice_id", invoiceID, "actor", actor, "amount", amount)
}

func (e *Emitter) appendTo(tx ledger.Tx, key string, evt Event) error {
	var events []Event
	if err := ledger.GetJSON(tx, key, &events); err != nil && err != ledger.ErrKeyNotFound {
		return err
	}

	return ledger.SetJSON(tx, key, append(events, evt))
}

func (e *Emitter) bumpStats(tx ledger.Tx, kind Kind) error {
	var stats TrailStats
	if err := ledger.GetJSON(tx, statsKey, &stats); err != nil && err != ledger.ErrKeyNotFound {
		return err
	}

	if stats.ByKind == nil {
		stats.ByKind = make(map[Kind]int64)
	}

	stats.Total++
	stats.ByKind[kind]++

	return ledger.SetJSON(tx, statsKey, stats)
}

// Service answers audit-trail queries outside a transaction.
type Service struct {
	ledger ledger.Ledger
}

func NewService(l ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// ByInvoice returns the committed audit trail for an invoice, oldest first.
func (s *Service) ByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Event, error) {
	var events []Event

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		events, err = ByInvoice(tx, invoiceID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// ByActor returns every event an identity appears in, oldest first.
func (s *Service) ByActor(ctx context.Context, actor auth.Identity) ([]Event, error) {
	var events []Event

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		err := ledger.GetJSON(tx, actorEventsKey(actor), &events)
		if err == ledger.ErrKeyNotFound {
			return nil
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// Stats returns the trail-wide event counts.
func (s *Service) Stats(ctx context.Context) (*TrailStats, error) {
	stats := TrailStats{ByKind: make(map[Kind]int64)}

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		err := ledger.GetJSON(tx, statsKey, &stats)
		if err == ledger.ErrKeyNotFound {
			return nil
		}

		return err
	})
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// ByInvoice returns the audit trail for one invoice, oldest first.
func ByInvoice(tx ledger.Tx, invoiceID uuid.UUID) ([]Event, error) {
	var events []Event

	err := ledger.GetJSON(tx, invoiceEventsKey(invoiceID), &events)
	if err == ledger.ErrKeyNotFound {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return events, nil
}
