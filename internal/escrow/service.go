package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
	"github.com/quicklendx/quicklendx/internal/money"
)

// Service exposes the settlement entry points. Each call is one ledger
// transaction: either every fund movement and the invoice transition commit
// together, or nothing does.
type Service struct {
	ledger         ledger.Ledger
	engine         *Engine
	invoices       invoice.Store
	events         *event.Emitter
	platformFeeBps int64
	now            func() time.Time
}

func NewService(l ledger.Ledger, engine *Engine, events *event.Emitter, platformFeeBps int64) *Service {
	return &Service{
		ledger:         l,
		engine:         engine,
		invoices:       invoice.NewStore(),
		events:         events,
		platformFeeBps: platformFeeBps,
		now:            time.Now,
	}
}

// Engine exposes the tx-scoped engine for components composing their own
// transactions (the bid book).
func (s *Service) Engine() *Engine {
	return s.engine
}

// SettlementResult reports the exact fund movements of a repayment.
// InvestorReturn is the amount the investor receives net of the platform fee.
type SettlementResult struct {
	InvestorReturn int64
	PlatformFee    int64
	BusinessMargin int64
}

// SettleRepayment settles a funded invoice. Yield is rate applied to the
// principal, truncated toward zero; the business owes principal plus yield
// and the platform fee is carved out of that return, never added on top. The
// remainder of the repayment is the business margin and never moves.
func (s *Service) SettleRepayment(ctx context.Context, actor auth.Actor, invoiceID uuid.UUID, repayment int64) (*SettlementResult, error) {
	if repayment <= 0 {
		return nil, invoice.ErrInvalidAmount
	}

	var result *SettlementResult

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.invoices.Get(tx, invoiceID)
		if err != nil {
			return err
		}

		if inv.Business != actor.Identity {
			return invoice.ErrNotOwner
		}

		if inv.Status != invoice.StatusFunded {
			return invoice.ErrInvalidState
		}

		rec, err := s.engine.Record(tx, invoiceID)
		if err != nil {
			return err
		}

		if rec.Status != StatusFunded || rec.Investor == nil {
			return ErrAlreadySettled
		}

		yield, err := money.ApplyBps(rec.Principal, rec.RateBps)
		if err != nil {
			return err
		}

		owed, err := money.Add(rec.Principal, yield)
		if err != nil {
			return err
		}

		if repayment < owed {
			return fmt.Errorf("%w: repayment %d below owed %d", ErrInsufficientFunds, repayment, owed)
		}

		platformFee, err := money.ApplyBps(yield, s.platformFeeBps)
		if err != nil {
			return err
		}

		investorNet, err := money.Sub(owed, platformFee)
		if err != nil {
			return err
		}

		if err := s.engine.transfer(tx, inv.Business, *rec.Investor, investorNet); err != nil {
			return err
		}

		if err := s.engine.transfer(tx, inv.Business, PlatformAccount, platformFee); err != nil {
			return err
		}

		now := s.now().UTC()

		rec.Status = StatusSettled
		rec.ClosedAt = &now

		if err := s.engine.store.PutRecord(tx, rec); err != nil {
			return err
		}

		if _, err := invoice.MarkRepaid(tx, s.invoices, invoiceID, now); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindInvoiceRepaid, invoiceID, actor.Identity, owed)

		result = &SettlementResult{
			InvestorReturn: investorNet,
			PlatformFee:    platformFee,
			BusinessMargin: repayment - owed,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SettleDefault marks an overdue funded invoice as defaulted. Callable by
// the admin or by the funding investor once the due date has elapsed.
func (s *Service) SettleDefault(ctx context.Context, actor auth.Actor, invoiceID uuid.UUID) error {
	return s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.invoices.Get(tx, invoiceID)
		if err != nil {
			return err
		}

		if inv.Status != invoice.StatusFunded {
			return invoice.ErrInvalidState
		}

		now := s.now().UTC()
		if !inv.Overdue(now) {
			return fmt.Errorf("%w: invoice not yet overdue", invoice.ErrInvalidState)
		}

		rec, err := s.engine.Record(tx, invoiceID)
		if err != nil {
			return err
		}

		if rec.Status != StatusFunded || rec.Investor == nil {
			return ErrAlreadySettled
		}

		if actor.Role != auth.RoleAdmin && actor.Identity != *rec.Investor {
			return fmt.Errorf("%w: only admin or the funding investor", auth.ErrUnauthorized)
		}

		rec.Status = StatusDefaulted
		rec.ClosedAt = &now

		if err := s.engine.store.PutRecord(tx, rec); err != nil {
			return err
		}

		if _, err := invoice.MarkDefaulted(tx, s.invoices, invoiceID, now); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindInvoiceDefaulted, invoiceID, actor.Identity, rec.Principal)

		return nil
	})
}

// Deposit credits an account from the external bridge. Admin only; role is
// enforced at the entry point.
func (s *Service) Deposit(ctx context.Context, actor auth.Actor, account auth.Identity, amount int64) error {
	return s.ledger.Update(ctx, func(tx ledger.Tx) error {
		if err := s.engine.Credit(tx, account, amount); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindDepositMade, uuid.Nil, account, amount)

		return nil
	})
}

// Balance returns the current balance of an account.
func (s *Service) Balance(ctx context.Context, account auth.Identity) (int64, error) {
	var balance int64

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		balance, err = s.engine.Balance(tx, account)

		return err
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// RecordFor returns the escrow record for an invoice.
func (s *Service) RecordFor(ctx context.Context, invoiceID uuid.UUID) (*Record, error) {
	var rec *Record

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		rec, err = s.engine.Record(tx, invoiceID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}
