package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// KycChecker reports whether a business passed verification. Satisfied by
// the verification service.
type KycChecker interface {
	IsVerified(tx ledger.Tx, business auth.Identity) (bool, error)
}

// EscrowChecker reports the amount currently held for an invoice. Satisfied
// by the escrow engine; cancellation requires a zero hold.
type EscrowChecker interface {
	HeldAmount(tx ledger.Tx, invoiceID uuid.UUID) (int64, error)
}

// Service is the invoice registry: the only component allowed to move an
// invoice through its lifecycle.
type Service struct {
	ledger ledger.Ledger
	store  Store
	events *event.Emitter
	kyc    KycChecker
	escrow EscrowChecker
	now    func() time.Time
}

func NewService(l ledger.Ledger, events *event.Emitter, kyc KycChecker, escrow EscrowChecker) *Service {
	return &Service{
		ledger: l,
		store:  NewStore(),
		events: events,
		kyc:    kyc,
		escrow: escrow,
		now:    time.Now,
	}
}

type CreateParams struct {
	FaceValue   int64
	DueDate     time.Time
	Description string
}

// Create registers a new invoice in Created state. The business must hold
// verified KYC status.
func (s *Service) Create(ctx context.Context, actor auth.Actor, params CreateParams) (*Invoice, error) {
	if params.FaceValue <= 0 {
		return nil, ErrInvalidAmount
	}

	now := s.now().UTC()
	if !params.DueDate.After(now) {
		return nil, ErrInvalidDueDate
	}

	if params.Description == "" {
		return nil, ErrInvalidDesc
	}

	inv := &Invoice{
		ID:          uuid.New(),
		Business:    actor.Identity,
		FaceValue:   params.FaceValue,
		DueDate:     params.DueDate.UTC(),
		Status:      StatusCreated,
		Description: params.Description,
		CreatedAt:   now,
	}

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		verified, err := s.kyc.IsVerified(tx, actor.Identity)
		if err != nil {
			return err
		}

		if !verified {
			return fmt.Errorf("%w: business not verified", auth.ErrUnauthorized)
		}

		if err := s.store.Create(tx, inv); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindInvoiceCreated, inv.ID, actor.Identity, inv.FaceValue)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

// Verify moves Created → Verified. Admin only; role is enforced at the
// entry point.
func (s *Service) Verify(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	return s.transition(ctx, id, StatusVerified, event.KindInvoiceVerified, actor, nil)
}

// OpenForBidding moves Verified → Open. Owning business only.
func (s *Service) OpenForBidding(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	return s.transition(ctx, id, StatusOpen, event.KindBiddingOpened, actor, requireOwner)
}

// Cancel moves Created/Verified/Open → Cancelled, only while no escrow is
// held for the invoice. Owning business only.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Invoice, error) {
	check := func(tx ledger.Tx, inv *Invoice, actor auth.Actor) error {
		if err := requireOwner(tx, inv, actor); err != nil {
			return err
		}

		held, err := s.escrow.HeldAmount(tx, inv.ID)
		if err != nil {
			return err
		}

		if held != 0 {
			return fmt.Errorf("%w: escrow held for invoice", ErrInvalidState)
		}

		return nil
	}

	return s.transition(ctx, id, StatusCancelled, event.KindInvoiceCancelled, actor, check)
}

type transitionCheck func(tx ledger.Tx, inv *Invoice, actor auth.Actor) error

func requireOwner(_ ledger.Tx, inv *Invoice, actor auth.Actor) error {
	if inv.Business != actor.Identity {
		return ErrNotOwner
	}

	return nil
}

func (s *Service) transition(
	ctx context.Context,
	id uuid.UUID,
	to Status,
	kind event.Kind,
	actor auth.Actor,
	check transitionCheck,
) (*Invoice, error) {
	var updated *Invoice

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.store.Get(tx, id)
		if err != nil {
			return err
		}

		if check != nil {
			if err := check(tx, inv, actor); err != nil {
				return err
			}
		}

		old := inv.Status
		if err := inv.transition(to); err != nil {
			return err
		}

		if err := s.store.Update(tx, inv, old); err != nil {
			return err
		}

		s.events.Emit(tx, kind, inv.ID, actor.Identity, 0)
		updated = inv

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Get returns a single invoice.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	var inv *Invoice

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		inv, err = s.store.Get(tx, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return inv, nil
}

type ListFilter struct {
	Status   *Status
	Business *auth.Identity
}

// List returns invoices matching the filter. With no filter it enumerates
// every status index.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	var invoices []*Invoice

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		ids, err := s.listIDs(tx, filter)
		if err != nil {
			return err
		}

		for _, id := range ids {
			inv, err := s.store.Get(tx, id)
			if err != nil {
				return err
			}

			if filter.Status != nil && inv.Status != *filter.Status {
				continue
			}

			if filter.Business != nil && inv.Business != *filter.Business {
				continue
			}

			invoices = append(invoices, inv)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return invoices, nil
}

func (s *Service) listIDs(tx ledger.Tx, filter ListFilter) ([]uuid.UUID, error) {
	if filter.Business != nil {
		return s.store.ByBusiness(tx, *filter.Business)
	}

	if filter.Status != nil {
		return s.store.ByStatus(tx, *filter.Status)
	}

	var ids []uuid.UUID

	for _, status := range Statuses {
		statusIDs, err := s.store.ByStatus(tx, status)
		if err != nil {
			return nil, err
		}

		ids = append(ids, statusIDs...)
	}

	return ids, nil
}

// MarkFunded transitions Open → Funded within the caller's transaction.
// Invoked by the bid book once the winning hold has been disbursed.
func MarkFunded(tx ledger.Tx, store Store, id uuid.UUID, investor auth.Identity, amount int64, at time.Time) (*Invoice, error) {
	inv, err := store.Get(tx, id)
	if err != nil {
		return nil, err
	}

	old := inv.Status
	if err := inv.markFunded(investor, amount, at.UTC()); err != nil {
		return nil, err
	}

	if err := store.Update(tx, inv, old); err != nil {
		return nil, err
	}

	return inv, nil
}

// MarkRepaid transitions Funded → Repaid within the caller's transaction.
// Invoked by the settlement engine after funds have moved.
func MarkRepaid(tx ledger.Tx, store Store, id uuid.UUID, at time.Time) (*Invoice, error) {
	return markSettled(tx, store, id, StatusRepaid, at)
}

// MarkDefaulted transitions Open/Funded → Defaulted within the caller's
// transaction. Invoked by the settlement engine.
func MarkDefaulted(tx ledger.Tx, store Store, id uuid.UUID, at time.Time) (*Invoice, error) {
	return markSettled(tx, store, id, StatusDefaulted, at)
}

func markSettled(tx ledger.Tx, store Store, id uuid.UUID, to Status, at time.Time) (*Invoice, error) {
	inv, err := store.Get(tx, id)
	if err != nil {
		return nil, err
	}

	old := inv.Status
	if err := inv.markSettled(to, at.UTC()); err != nil {
		return nil, err
	}

	if err := store.Update(tx, inv, old); err != nil {
		return nil, err
	}

	return inv, nil
}
