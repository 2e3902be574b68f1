package rating

import (
	"errors"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Store persists ratings and the index of rated invoices inside a ledger
// transaction.
type Store struct{}

func NewStore() Store {
	return Store{}
}

func ratingsKey(invoiceID uuid.UUID) string {
	return "ratings/" + invoiceID.String()
}

const ratedIndexKey = "rated_invoices"

// ByInvoice returns the ratings recorded for an invoice, oldest first.
func (Store) ByInvoice(tx ledger.Tx, invoiceID uuid.UUID) ([]Rating, error) {
	var ratings []Rating

	err := ledger.GetJSON(tx, ratingsKey(invoiceID), &ratings)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ratings, nil
}

// Add appends a rating and registers the invoice in the rated index on its
// first rating.
func (s Store) Add(tx ledger.Tx, r *Rating) error {
	existing, err := s.ByInvoice(tx, r.InvoiceID)
	if err != nil {
		return err
	}

	if err := ledger.SetJSON(tx, ratingsKey(r.InvoiceID), append(existing, *r)); err != nil {
		return err
	}

	if len(existing) > 0 {
		return nil
	}

	rated, err := s.RatedInvoices(tx)
	if err != nil {
		return err
	}

	return ledger.SetJSON(tx, ratedIndexKey, append(rated, r.InvoiceID))
}

// RatedInvoices returns the ids of every invoice with at least one rating.
func (Store) RatedInvoices(tx ledger.Tx) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	err := ledger.GetJSON(tx, ratedIndexKey, &ids)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ids, nil
}
