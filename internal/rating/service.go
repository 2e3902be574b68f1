package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Service owns rating writes and answers rating queries.
type Service struct {
	ledger   ledger.Ledger
	store    Store
	invoices invoice.Store
	events   *event.Emitter
	now      func() time.Time
}

func NewService(l ledger.Ledger, events *event.Emitter) *Service {
	return &Service{
		ledger:   l,
		store:    NewStore(),
		invoices: invoice.NewStore(),
		events:   events,
		now:      time.Now,
	}
}

// Rate records the funding investor's score for an invoice. The invoice must
// have been funded and can be rated exactly once.
func (s *Service) Rate(ctx context.Context, actor auth.Actor, invoiceID uuid.UUID, score int64, feedback string) (*Rating, error) {
	if score < MinScore || score > MaxScore {
		return nil, ErrInvalidScore
	}

	var rated *Rating

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		inv, err := s.invoices.Get(tx, invoiceID)
		if err != nil {
			return err
		}

		if inv.Investor == nil {
			return fmt.Errorf("%w: invoice has not been funded", invoice.ErrInvalidState)
		}

		if actor.Identity != *inv.Investor {
			return fmt.Errorf("%w: only the funding investor may rate", auth.ErrUnauthorized)
		}

		existing, err := s.store.ByInvoice(tx, invoiceID)
		if err != nil {
			return err
		}

		if len(existing) > 0 {
			return ErrAlreadyRated
		}

		r := &Rating{
			InvoiceID: invoiceID,
			Investor:  actor.Identity,
			Score:     score,
			Feedback:  feedback,
			RatedAt:   s.now().UTC(),
		}

		if err := s.store.Add(tx, r); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindInvoiceRated, invoiceID, actor.Identity, score)

		rated = r

		return nil
	})
	if err != nil {
		return nil, err
	}

	return rated, nil
}

// For returns the ratings of an invoice, oldest first.
func (s *Service) For(ctx context.Context, invoiceID uuid.UUID) ([]Rating, error) {
	var ratings []Rating

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		if _, err := s.invoices.Get(tx, invoiceID); err != nil {
			return err
		}

		var err error
		ratings, err = s.store.ByInvoice(tx, invoiceID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return ratings, nil
}

// StatsFor aggregates an invoice's ratings.
func (s *Service) StatsFor(ctx context.Context, invoiceID uuid.UUID) (*Stats, error) {
	ratings, err := s.For(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	stats := statsOf(ratings)

	return &stats, nil
}

// AboveThreshold returns the ids of invoices whose average rating is at
// least threshold.
func (s *Service) AboveThreshold(ctx context.Context, threshold int64) ([]uuid.UUID, error) {
	var matched []uuid.UUID

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		rated, err := s.store.RatedInvoices(tx)
		if err != nil {
			return err
		}

		for _, id := range rated {
			ratings, err := s.store.ByInvoice(tx, id)
			if err != nil {
				return err
			}

			stats := statsOf(ratings)
			if stats.Average != nil && *stats.Average >= threshold {
				matched = append(matched, id)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return matched, nil
}

// ByBusinessAboveThreshold returns the ids of a business's invoices whose
// average rating is at least threshold.
func (s *Service) ByBusinessAboveThreshold(ctx context.Context, business auth.Identity, threshold int64) ([]uuid.UUID, error) {
	var matched []uuid.UUID

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		ids, err := s.invoices.ByBusiness(tx, business)
		if err != nil {
			return err
		}

		for _, id := range ids {
			ratings, err := s.store.ByInvoice(tx, id)
			if err != nil {
				return err
			}

			stats := statsOf(ratings)
			if stats.Average != nil && *stats.Average >= threshold {
				matched = append(matched, id)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return matched, nil
}

// RatedCount returns how many invoices carry at least one rating.
func (s *Service) RatedCount(ctx context.Context) (int64, error) {
	var count int64

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		rated, err := s.store.RatedInvoices(tx)
		if err != nil {
			return err
		}

		count = int64(len(rated))

		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}
