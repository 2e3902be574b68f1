package escrow

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/ledger"
	"github.com/quicklendx/quicklendx/internal/money"
)

// Engine moves funds inside the caller's ledger transaction. The bid book
// and the settlement service compose its operations with their own state
// transitions so that a failed disbursement rolls everything back.
type Engine struct {
	store         Store
	events        *event.Emitter
	fundingFeeBps int64
	now           func() time.Time
}

func NewEngine(events *event.Emitter, fundingFeeBps int64) *Engine {
	return &Engine{
		store:         NewStore(),
		events:        events,
		fundingFeeBps: fundingFeeBps,
		now:           time.Now,
	}
}

// transfer moves amount between accounts, failing with ErrInsufficientFunds
// when the source cannot cover it.
func (e *Engine) transfer(tx ledger.Tx, from, to auth.Identity, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative transfer", money.ErrOverflow)
	}

	if amount == 0 {
		return nil
	}

	fromBalance, err := e.store.Balance(tx, from)
	if err != nil {
		return err
	}

	if fromBalance < amount {
		return fmt.Errorf("%w: account %s", ErrInsufficientFunds, from)
	}

	toBalance, err := e.store.Balance(tx, to)
	if err != nil {
		return err
	}

	newTo, err := money.Add(toBalance, amount)
	if err != nil {
		return err
	}

	if err := e.store.SetBalance(tx, from, fromBalance-amount); err != nil {
		return err
	}

	return e.store.SetBalance(tx, to, newTo)
}

// Credit adds freshly deposited funds to an account. Stands in for the
// host-chain token bridge, which is outside this service.
func (e *Engine) Credit(tx ledger.Tx, account auth.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: deposit must be positive", money.ErrOverflow)
	}

	balance, err := e.store.Balance(tx, account)
	if err != nil {
		return err
	}

	newBalance, err := money.Add(balance, amount)
	if err != nil {
		return err
	}

	return e.store.SetBalance(tx, account, newBalance)
}

// Balance returns the current balance of an account.
func (e *Engine) Balance(tx ledger.Tx, account auth.Identity) (int64, error) {
	return e.store.Balance(tx, account)
}

// HeldAmount returns the total unsettled contributions held for an invoice;
// zero when no escrow record exists.
func (e *Engine) HeldAmount(tx ledger.Tx, invoiceID uuid.UUID) (int64, error) {
	rec, err := e.store.GetRecord(tx, invoiceID)
	if err == ErrNotFound {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return rec.Held, nil
}

// Record returns the escrow record for an invoice.
func (e *Engine) Record(tx ledger.Tx, invoiceID uuid.UUID) (*Record, error) {
	return e.store.GetRecord(tx, invoiceID)
}

// Hold escrows an investor's bid amount at bid time: the funds leave the
// investor balance and sit in the vault until refund or disbursement.
func (e *Engine) Hold(tx ledger.Tx, invoiceID uuid.UUID, investor auth.Identity, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: hold must be positive", money.ErrOverflow)
	}

	rec, err := e.store.GetRecord(tx, invoiceID)
	if err == ErrNotFound {
		rec = &Record{
			InvoiceID:     invoiceID,
			Contributions: make(map[auth.Identity]int64),
			Status:        StatusOpen,
			CreatedAt:     e.now().UTC(),
		}
	} else if err != nil {
		return err
	}

	if rec.Status != StatusOpen {
		return ErrAlreadySettled
	}

	if _, exists := rec.Contributions[investor]; exists {
		return fmt.Errorf("investor %s already holds a contribution", investor)
	}

	if err := e.transfer(tx, investor, VaultAccount, amount); err != nil {
		return err
	}

	newHeld, err := money.Add(rec.Held, amount)
	if err != nil {
		return err
	}

	rec.Held = newHeld
	rec.Contributions[investor] = amount

	if err := e.store.PutRecord(tx, rec); err != nil {
		return err
	}

	e.events.Emit(tx, event.KindEscrowHeld, invoiceID, investor, amount)

	return nil
}

// Refund returns an investor's held contribution. Used for withdrawn and
// rejected bids.
func (e *Engine) Refund(tx ledger.Tx, invoiceID uuid.UUID, investor auth.Identity) (int64, error) {
	rec, err := e.store.GetRecord(tx, invoiceID)
	if err != nil {
		return 0, err
	}

	amount, exists := rec.Contributions[investor]
	if !exists {
		return 0, ErrNoContribution
	}

	if err := e.transfer(tx, VaultAccount, investor, amount); err != nil {
		return 0, err
	}

	rec.Held -= amount
	delete(rec.Contributions, investor)

	if err := e.store.PutRecord(tx, rec); err != nil {
		return 0, err
	}

	e.events.Emit(tx, event.KindEscrowRefunded, invoiceID, investor, amount)

	return amount, nil
}

// Disburse releases the winning investor's contribution to the business,
// minus the funding fee which goes to the platform account. The record then
// carries the principal and rate until settlement closes it.
func (e *Engine) Disburse(tx ledger.Tx, invoiceID uuid.UUID, investor, business auth.Identity, rateBps int64) (net, fee int64, err error) {
	rec, err := e.store.GetRecord(tx, invoiceID)
	if err != nil {
		return 0, 0, err
	}

	if rec.Status != StatusOpen {
		return 0, 0, ErrAlreadySettled
	}

	amount, exists := rec.Contributions[investor]
	if !exists {
		return 0, 0, ErrNoContribution
	}

	fee, err = money.ApplyBps(amount, e.fundingFeeBps)
	if err != nil {
		return 0, 0, err
	}

	net = amount - fee

	if err := e.transfer(tx, VaultAccount, business, net); err != nil {
		return 0, 0, err
	}

	if err := e.transfer(tx, VaultAccount, PlatformAccount, fee); err != nil {
		return 0, 0, err
	}

	now := e.now().UTC()

	rec.Held -= amount
	delete(rec.Contributions, investor)
	rec.Principal = amount
	rec.RateBps = rateBps
	rec.Investor = &investor
	rec.Status = StatusFunded
	rec.ReleasedAt = &now

	if err := e.store.PutRecord(tx, rec); err != nil {
		return 0, 0, err
	}

	e.events.Emit(tx, event.KindEscrowReleased, invoiceID, business, net)

	return net, fee, nil
}
