package bid

import (
	"errors"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Store persists bids keyed by id with indexes per invoice and per investor.
// Bids are never deleted; withdrawn and rejected bids stay for audit.
type Store struct{}

func NewStore() Store {
	return Store{}
}

func bidKey(id uuid.UUID) string {
	return "bid/" + id.String()
}

func invoiceBidsKey(invoiceID uuid.UUID) string {
	return "invoice_bids/" + invoiceID.String()
}

func investorBidsKey(investor auth.Identity) string {
	return "investor_bids/" + string(investor)
}

// Get returns a bid or ErrNotFound.
func (Store) Get(tx ledger.Tx, id uuid.UUID) (*Bid, error) {
	var b Bid

	err := ledger.GetJSON(tx, bidKey(id), &b)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &b, nil
}

// Put persists a bid.
func (Store) Put(tx ledger.Tx, b *Bid) error {
	return ledger.SetJSON(tx, bidKey(b.ID), b)
}

// Create persists a new bid and registers it in both indexes.
func (s Store) Create(tx ledger.Tx, b *Bid) error {
	if err := s.Put(tx, b); err != nil {
		return err
	}

	if err := appendID(tx, invoiceBidsKey(b.InvoiceID), b.ID); err != nil {
		return err
	}

	return appendID(tx, investorBidsKey(b.Investor), b.ID)
}

// ByInvoice returns every bid ever placed on an invoice, in placement order.
func (s Store) ByInvoice(tx ledger.Tx, invoiceID uuid.UUID) ([]*Bid, error) {
	return s.readAll(tx, invoiceBidsKey(invoiceID))
}

// ByInvestor returns every bid an investor has placed.
func (s Store) ByInvestor(tx ledger.Tx, investor auth.Identity) ([]*Bid, error) {
	return s.readAll(tx, investorBidsKey(investor))
}

func (s Store) readAll(tx ledger.Tx, key string) ([]*Bid, error) {
	var ids []uuid.UUID

	err := ledger.GetJSON(tx, key, &ids)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	bids := make([]*Bid, 0, len(ids))

	for _, id := range ids {
		b, err := s.Get(tx, id)
		if err != nil {
			return nil, err
		}

		bids = append(bids, b)
	}

	return bids, nil
}

func appendID(tx ledger.Tx, key string, id uuid.UUID) error {
	var ids []uuid.UUID

	err := ledger.GetJSON(tx, key, &ids)
	if err != nil && !errors.Is(err, ledger.ErrKeyNotFound) {
		return err
	}

	return ledger.SetJSON(tx, key, append(ids, id))
}
