// Package backup snapshots invoice records so an operator can roll the
// registry back after data corruption. Admin only.
package backup

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

var (
	ErrNotFound  = errors.New("backup not found")
	ErrCorrupted = errors.New("backup failed validation")
)

// keepLast bounds how many active backups are retained; older ones are
// archived when a new backup is created.
const keepLast = 5

// Status of a backup.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Backup describes one snapshot; invoice data lives under a separate key.
type Backup struct {
	ID           uuid.UUID `json:"id"`
	Description  string    `json:"description"`
	InvoiceCount int       `json:"invoice_count"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func backupKey(id uuid.UUID) string {
	return "backup/" + id.String()
}

func dataKey(id uuid.UUID) string {
	return "backup_data/" + id.String()
}

const listKey = "backups"

// Store persists backups and their snapshot data.
type Store struct{}

func NewStore() Store {
	return Store{}
}

func (Store) Get(tx ledger.Tx, id uuid.UUID) (*Backup, error) {
	var b Backup

	err := ledger.GetJSON(tx, backupKey(id), &b)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &b, nil
}

func (Store) Put(tx ledger.Tx, b *Backup) error {
	return ledger.SetJSON(tx, backupKey(b.ID), b)
}

func (Store) PutData(tx ledger.Tx, id uuid.UUID, invoices []*invoice.Invoice) error {
	return ledger.SetJSON(tx, dataKey(id), invoices)
}

func (Store) GetData(tx ledger.Tx, id uuid.UUID) ([]*invoice.Invoice, error) {
	var invoices []*invoice.Invoice

	err := ledger.GetJSON(tx, dataKey(id), &invoices)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return invoices, nil
}

// List returns all backup ids, oldest first.
func (Store) List(tx ledger.Tx) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	err := ledger.GetJSON(tx, listKey, &ids)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func (Store) SetList(tx ledger.Tx, ids []uuid.UUID) error {
	return ledger.SetJSON(tx, listKey, ids)
}
