// Package verification tracks business KYC status. Only verified businesses
// may create invoices.
package verification

import (
	"errors"
	"time"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

var (
	ErrNotFound      = errors.New("no verification record for business")
	ErrNotVerified   = errors.New("business is not verified")
	ErrAlreadyExists = errors.New("verification already submitted")
)

// Status of a business's KYC application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Verification is a business's KYC record.
type Verification struct {
	Business        auth.Identity  `json:"business"`
	Status          Status         `json:"status"`
	KycData         string         `json:"kyc_data"` // opaque, encrypted off-chain
	SubmittedAt     time.Time      `json:"submitted_at"`
	VerifiedAt      *time.Time     `json:"verified_at,omitempty"`
	VerifiedBy      *auth.Identity `json:"verified_by,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}

func verificationKey(business auth.Identity) string {
	return "kyc/" + string(business)
}

func statusKey(status Status) string {
	return "kyc_status/" + string(status)
}

// Store persists verification records with a per-status identity index.
type Store struct{}

func NewStore() Store {
	return Store{}
}

// Get returns a business's verification record or ErrNotFound.
func (Store) Get(tx ledger.Tx, business auth.Identity) (*Verification, error) {
	var v Verification

	err := ledger.GetJSON(tx, verificationKey(business), &v)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, err
	}

	return &v, nil
}

// Put persists a record, moving it between status indexes when needed.
func (s Store) Put(tx ledger.Tx, v *Verification, oldStatus *Status) error {
	if err := ledger.SetJSON(tx, verificationKey(v.Business), v); err != nil {
		return err
	}

	if oldStatus != nil {
		if *oldStatus == v.Status {
			return nil
		}

		if err := removeIdentity(tx, statusKey(*oldStatus), v.Business); err != nil {
			return err
		}
	}

	return appendIdentity(tx, statusKey(v.Status), v.Business)
}

// ByStatus lists businesses currently in the given status.
func (Store) ByStatus(tx ledger.Tx, status Status) ([]auth.Identity, error) {
	var ids []auth.Identity

	err := ledger.GetJSON(tx, statusKey(status), &ids)
	if errors.Is(err, ledger.ErrKeyNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return ids, nil
}

func appendIdentity(tx ledger.Tx, key string, id auth.Identity) error {
	var ids []auth.Identity

	err := ledger.GetJSON(tx, key, &ids)
	if err != nil && !errors.Is(err, ledger.ErrKeyNotFound) {
		return err
	}

	return ledger.SetJSON(tx, key, append(ids, id))
}

func removeIdentity(tx ledger.Tx, key string, id auth.Identity) error {
	var ids []auth.Identity

	err := ledger.GetJSON(tx, key, &ids)
	if err != nil && !errors.Is(err, ledger.ErrKeyNotFound) {
		return err
	}

	kept := ids[:0]

	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}

	return ledger.SetJSON(tx, key, kept)
}
