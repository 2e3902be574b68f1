package bid

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

//go:generate mockgen -source=service.go -destination=escrow_mock.go -package=bid

// Escrow is the fund-movement dependency of the bid book. Satisfied by the
// escrow engine.
type Escrow interface {
	Hold(tx ledger.Tx, invoiceID uuid.UUID, investor auth.Identity, amount int64) error
	Refund(tx ledger.Tx, invoiceID uuid.UUID, investor auth.Identity) (int64, error)
	Disburse(tx ledger.Tx, invoiceID uuid.UUID, investor, business auth.Identity, rateBps int64) (net, fee int64, err error)
}

// Service is the bid book. Every operation runs in a single ledger
// transaction together with its escrow movements, so a failed disbursement
// leaves the book untouched.
type Service struct {
	ledger   ledger.Ledger
	store    Store
	invoices invoice.Store
	escrow   Escrow
	events   *event.Emitter
	now      func() time.Time
}

func NewService(l ledger.Ledger, escrow Escrow, events *event.Emitter) *Service {
	return &Service{
		ledger:   l,
		store:    NewStore(),
		invoices: invoice.NewStore(),
		escrow:   escrow,
		events:   events,
		now:      time.Now,
	}
}

type PlaceParams struct {
	InvoiceID uuid.UUID
	Amount    int64
	RateBps   int64
}

// Place records an investor's bid and escrows the bid amount immediately.
func (s *Service) Place(ctx context.Context, actor auth.Actor, params PlaceParams) (*Bid, error) {
	if params.Amount <= 0 || params.RateBps < 0 {
		return nil, ErrInvalidAmount
	}

	placed := &Bid{
		ID:          uuid.New(),
		InvoiceID:   params.InvoiceID,
		Investor:    actor.Identity,
		Amount:      params.Amount,
		RateBps:     params.RateBps,
		SubmittedAt: s.now().UTC(),
		Status:      StatusActive,
	}

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.invoices.Get(tx, params.InvoiceID)
		if err != nil {
			return err
		}

		if inv.Status != invoice.StatusOpen {
			return invoice.ErrInvalidState
		}

		if params.Amount > inv.FaceValue-inv.FundedAmount {
			return ErrInsufficientCapacity
		}

		existing, err := s.store.ByInvoice(tx, params.InvoiceID)
		if err != nil {
			return err
		}

		for _, b := range existing {
			if b.Investor == actor.Identity && b.Status == StatusActive {
				return ErrDuplicateBid
			}
		}

		if err := s.escrow.Hold(tx, params.InvoiceID, actor.Identity, params.Amount); err != nil {
			return err
		}

		if err := s.store.Create(tx, placed); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindBidPlaced, params.InvoiceID, actor.Identity, params.Amount)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return placed, nil
}

// Withdraw retracts the investor's active bid while the invoice is still
// open for bidding and refunds the escrowed amount.
func (s *Service) Withdraw(ctx context.Context, actor auth.Actor, invoiceID uuid.UUID) (*Bid, error) {
	var withdrawn *Bid

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.invoices.Get(tx, invoiceID)
		if err != nil {
			return err
		}

		if inv.Status != invoice.StatusOpen {
			return invoice.ErrInvalidState
		}

		bids, err := s.store.ByInvoice(tx, invoiceID)
		if err != nil {
			return err
		}

		var active *Bid

		for _, b := range bids {
			if b.Investor == actor.Identity && b.Status == StatusActive {
				active = b
				break
			}
		}

		if active == nil {
			return ErrNotFound
		}

		if _, err := s.escrow.Refund(tx, invoiceID, actor.Identity); err != nil {
			return err
		}

		active.Status = StatusWithdrawn
		if err := s.store.Put(tx, active); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindBidWithdrawn, invoiceID, actor.Identity, active.Amount)
		withdrawn = active

		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawn, nil
}

// AcceptResult reports the outcome of a bid acceptance.
type AcceptResult struct {
	Bid        *Bid
	Invoice    *invoice.Invoice
	Disbursed  int64
	FundingFee int64
}

// Accept funds the invoice with the chosen bid. The choice is deterministic:
// only the current best active bid (highest amount, earliest submission) can
// be accepted. Every other active bid is refunded and rejected; the winning
// hold is disbursed to the business minus the funding fee.
func (s *Service) Accept(ctx context.Context, actor auth.Actor, invoiceID, bidID uuid.UUID) (*AcceptResult, error) {
	var result *AcceptResult

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.invoices.Get(tx, invoiceID)
		if err != nil {
			return err
		}

		if inv.Business != actor.Identity {
			return invoice.ErrNotOwner
		}

		if inv.Status != invoice.StatusOpen {
			return invoice.ErrInvalidState
		}

		bids, err := s.store.ByInvoice(tx, invoiceID)
		if err != nil {
			return err
		}

		var chosen, best *Bid

		for _, b := range bids {
			if b.Status != StatusActive {
				continue
			}

			if b.ID == bidID {
				chosen = b
			}

			if best == nil || Better(b, best) {
				best = b
			}
		}

		if chosen == nil {
			return ErrNotFound
		}

		if chosen.ID != best.ID {
			return ErrNotBestBid
		}

		// Refund the losers first so the hold drains to exactly the
		// winning contribution before disbursement.
		for _, b := range bids {
			if b.Status != StatusActive || b.ID == chosen.ID {
				continue
			}

			if _, err := s.escrow.Refund(tx, invoiceID, b.Investor); err != nil {
				return err
			}

			b.Status = StatusRejected
			if err := s.store.Put(tx, b); err != nil {
				return err
			}

			s.events.Emit(tx, event.KindBidRejected, invoiceID, b.Investor, b.Amount)
		}

		net, fee, err := s.escrow.Disburse(tx, invoiceID, chosen.Investor, inv.Business, chosen.RateBps)
		if err != nil {
			return err
		}

		chosen.Status = StatusAccepted
		if err := s.store.Put(tx, chosen); err != nil {
			return err
		}

		now := s.now().UTC()

		funded, err := invoice.MarkFunded(tx, s.invoices, invoiceID, chosen.Investor, chosen.Amount, now)
		if err != nil {
			return err
		}

		s.events.Emit(tx, event.KindBidAccepted, invoiceID, chosen.Investor, chosen.Amount)
		s.events.Emit(tx, event.KindInvoiceFunded, invoiceID, actor.Identity, net)

		result = &AcceptResult{Bid: chosen, Invoice: funded, Disbursed: net, FundingFee: fee}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListByInvoice returns every bid on an invoice, best first.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Bid, error) {
	var bids []*Bid

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		bids, err = s.store.ByInvoice(tx, invoiceID)

		return err
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(bids, func(i, j int) bool {
		return Better(bids[i], bids[j])
	})

	return bids, nil
}
