package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Service handles KYC applications and admin decisions.
type Service struct {
	ledger ledger.Ledger
	store  Store
	events *event.Emitter
	now    func() time.Time
}

func NewService(l ledger.Ledger, events *event.Emitter) *Service {
	return &Service{
		ledger: l,
		store:  NewStore(),
		events: events,
		now:    time.Now,
	}
}

// IsVerified satisfies invoice.KycChecker.
func (s *Service) IsVerified(tx ledger.Tx, business auth.Identity) (bool, error) {
	v, err := s.store.Get(tx, business)
	if err == ErrNotFound {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return v.Status == StatusVerified, nil
}

// Submit files a KYC application. A rejected business may resubmit; pending
// and verified applications cannot be replaced.
func (s *Service) Submit(ctx context.Context, actor auth.Actor, kycData string) (*Verification, error) {
	if kycData == "" {
		return nil, fmt.Errorf("kyc data required")
	}

	v := &Verification{
		Business:    actor.Identity,
		Status:      StatusPending,
		KycData:     kycData,
		SubmittedAt: s.now().UTC(),
	}

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		existing, err := s.store.Get(tx, actor.Identity)
		if err != nil && err != ErrNotFound {
			return err
		}

		var oldStatus *Status

		if existing != nil {
			if existing.Status != StatusRejected {
				return ErrAlreadyExists
			}

			oldStatus = &existing.Status
		}

		if err := s.store.Put(tx, v, oldStatus); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindKycSubmitted, uuid.Nil, actor.Identity, 0)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Verify approves a pending application. Admin only; role enforced at the
// entry point.
func (s *Service) Verify(ctx context.Context, admin auth.Actor, business auth.Identity) error {
	return s.decide(ctx, admin, business, StatusVerified, "")
}

// Reject declines a pending application with a reason.
func (s *Service) Reject(ctx context.Context, admin auth.Actor, business auth.Identity, reason string) error {
	return s.decide(ctx, admin, business, StatusRejected, reason)
}

func (s *Service) decide(ctx context.Context, admin auth.Actor, business auth.Identity, to Status, reason string) error {
	return s.ledger.Update(ctx, func(tx ledger.Tx) error {
		v, err := s.store.Get(tx, business)
		if err != nil {
			return err
		}

		if v.Status != StatusPending {
			return fmt.Errorf("%w: application is %s", ErrAlreadyExists, v.Status)
		}

		old := v.Status
		now := s.now().UTC()

		v.Status = to
		v.VerifiedAt = &now
		v.VerifiedBy = &admin.Identity
		v.RejectionReason = reason

		if err := s.store.Put(tx, v, &old); err != nil {
			return err
		}

		kind := event.KindBusinessVerified
		if to == StatusRejected {
			kind = event.KindBusinessRejected
		}

		s.events.Emit(tx, kind, uuid.Nil, business, 0)

		return nil
	})
}

// Get returns a business's verification record.
func (s *Service) Get(ctx context.Context, business auth.Identity) (*Verification, error) {
	var v *Verification

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		v, err = s.store.Get(tx, business)

		return err
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}

// ListByStatus returns businesses in the given status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]auth.Identity, error) {
	var ids []auth.Identity

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		var err error
		ids, err = s.store.ByStatus(tx, status)

		return err
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}
