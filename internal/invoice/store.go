package invoice

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Store persists invoices and their secondary indexes (by status, by
// business) inside a ledger transaction. Records are never physically
// deleted; terminal invoices stay readable for auditability.
type Store struct{}

func NewStore() Store {
	return Store{}
}

func invoiceKey(id uuid.UUID) string {
	return "invoice/" + id.String()
}

func statusKey(status Status) string {
	return "invoice_status/" + string(status)
}

func businessKey(business auth.Identity) string {
	return "business_invoices/" + string(business)
}

// Get returns the invoice or ErrNotFound.
func (Store) Get(tx ledger.Tx, id uuid.UUID) (*Invoice, error) {
	var inv Invoice

	err := ledger.GetJSON(tx, invoiceKey(id), &inv)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &inv, nil
}

// Create stores a new invoice and registers it in both indexes.
func (s Store) Create(tx ledger.Tx, inv *Invoice) error {
	if err := ledger.SetJSON(tx, invoiceKey(inv.ID), inv); err != nil {
		return err
	}

	if err := appendID(tx, statusKey(inv.Status), inv.ID); err != nil {
		return err
	}

	return appendID(tx, businessKey(inv.Business), inv.ID)
}

// Update persists an invoice whose status moved from oldStatus, keeping the
// status index consistent.
func (s Store) Update(tx ledger.Tx, inv *Invoice, oldStatus Status) error {
	if err := ledger.SetJSON(tx, invoiceKey(inv.ID), inv); err != nil {
		return err
	}

	if inv.Status == oldStatus {
		return nil
	}

	if err := removeID(tx, statusKey(oldStatus), inv.ID); err != nil {
		return err
	}

	return appendID(tx, statusKey(inv.Status), inv.ID)
}

// ByStatus returns the ids of all invoices currently in the given status.
func (Store) ByStatus(tx ledger.Tx, status Status) ([]uuid.UUID, error) {
	return readIDs(tx, statusKey(status))
}

// ByBusiness returns the ids of all invoices ever created by the business.
func (Store) ByBusiness(tx ledger.Tx, business auth.Identity) ([]uuid.UUID, error) {
	return readIDs(tx, businessKey(business))
}

// Overwrite stores the invoice record without touching indexes. Used by
// restore, which rebuilds the indexes wholesale afterwards.
func (Store) Overwrite(tx ledger.Tx, inv *Invoice) error {
	return ledger.SetJSON(tx, invoiceKey(inv.ID), inv)
}

// RebuildIndexes rewrites the status and business indexes from the given
// snapshot, replacing whatever the indexes currently hold. Used by restore.
func (s Store) RebuildIndexes(tx ledger.Tx, invoices []*Invoice) error {
	byStatus := make(map[Status][]uuid.UUID)
	byBusiness := make(map[auth.Identity][]uuid.UUID)

	for _, inv := range invoices {
		byStatus[inv.Status] = append(byStatus[inv.Status], inv.ID)
		byBusiness[inv.Business] = append(byBusiness[inv.Business], inv.ID)
	}

	for _, status := range Statuses {
		if err := ledger.SetJSON(tx, statusKey(status), byStatus[status]); err != nil {
			return err
		}
	}

	for business, ids := range byBusiness {
		if err := ledger.SetJSON(tx, businessKey(business), ids); err != nil {
			return err
		}
	}

	return nil
}

func readIDs(tx ledger.Tx, key string) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	err := ledger.GetJSON(tx, key, &ids)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func appendID(tx ledger.Tx, key string, id uuid.UUID) error {
	ids, err := readIDs(tx, key)
	if err != nil {
		return err
	}

	return ledger.SetJSON(tx, key, append(ids, id))
}

func removeID(tx ledger.Tx, key string, id uuid.UUID) error {
	ids, err := readIDs(tx, key)
	if err != nil {
		return err
	}

	kept := ids[:0]

	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}

	if len(kept) == len(ids) {
		return fmt.Errorf("invoice %s missing from index %s", id, key)
	}

	return ledger.SetJSON(tx, key, kept)
}
