package escrow

import (
	"errors"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Store persists escrow records and account balances.
type Store struct{}

func NewStore() Store {
	return Store{}
}

func recordKey(invoiceID uuid.UUID) string {
	return "escrow/" + invoiceID.String()
}

func balanceKey(account auth.Identity) string {
	return "balance/" + string(account)
}

// GetRecord returns the escrow record for an invoice or ErrNotFound.
func (Store) GetRecord(tx ledger.Tx, invoiceID uuid.UUID) (*Record, error) {
	var rec Record

	err := ledger.GetJSON(tx, recordKey(invoiceID), &rec)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// PutRecord persists the escrow record.
func (Store) PutRecord(tx ledger.Tx, rec *Record) error {
	return ledger.SetJSON(tx, recordKey(rec.InvoiceID), rec)
}

// Balance returns the account balance, zero when the account is unknown.
func (Store) Balance(tx ledger.Tx, account auth.Identity) (int64, error) {
	var balance int64

	err := ledger.GetJSON(tx, balanceKey(account), &balance)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return 0, nil
	}

	if err != nil {
		return 0, err
	}

	return balance, nil
}

// SetBalance overwrites the account balance.
func (Store) SetBalance(tx ledger.Tx, account auth.Identity, balance int64) error {
	return ledger.SetJSON(tx, balanceKey(account), balance)
}
