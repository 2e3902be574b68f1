package backup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

// Service creates, validates, restores, and archives invoice snapshots.
// All operations are admin only; the role is enforced at the entry point.
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

func (s *Service) snapshot(tx ledger.Tx) ([]*invoice.Invoice, error) {
	var all []*invoice.Invoice

	for _, status := range invoice.Statuses {
		ids, err := s.invoices.ByStatus(tx, status)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			inv, err := s.invoices.Get(tx, id)
			if err != nil {
				return nil, err
			}

			all = append(all, inv)
		}
	}

	return all, nil
}

// Create snapshots every invoice. Backups beyond the retention window are
// archived in the same transaction.
func (s *Service) Create(ctx context.Context, actor auth.Actor, description string) (*Backup, error) {
	b := &Backup{
		ID:          uuid.New(),
		Description: description,
		Status:      StatusActive,
		CreatedAt:   s.now().UTC(),
	}

	err := s.ledger.Update(ctx, func(tx ledger.Tx) error {
		invoices, err := s.snapshot(tx)
		if err != nil {
			return err
		}

		b.InvoiceCount = len(invoices)

		if err := s.store.Put(tx, b); err != nil {
			return err
		}

		if err := s.store.PutData(tx, b.ID, invoices); err != nil {
			return err
		}

		ids, err := s.store.List(tx)
		if err != nil {
			return err
		}

		ids = append(ids, b.ID)

		for len(ids) > keepLast {
			oldest := ids[0]
			ids = ids[1:]

			old, err := s.store.Get(tx, oldest)
			if err != nil {
				return err
			}

			old.Status = StatusArchived
			if err := s.store.Put(tx, old); err != nil {
				return err
			}
		}

		if err := s.store.SetList(tx, ids); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindBackupCreated, uuid.Nil, actor.Identity, int64(b.InvoiceCount))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Validate checks a backup's integrity: the record must exist, be active,
// and its snapshot must match the recorded count.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) error {
	return s.ledger.View(ctx, func(tx ledger.Tx) error {
		return s.validate(tx, id)
	})
}

func (s *Service) validate(tx ledger.Tx, id uuid.UUID) error {
	b, err := s.store.Get(tx, id)
	if err != nil {
		return err
	}

	if b.Status != StatusActive {
		return ErrCorrupted
	}

	invoices, err := s.store.GetData(tx, id)
	if err != nil {
		return err
	}

	if len(invoices) != b.InvoiceCount {
		return ErrCorrupted
	}

	return nil
}

// Restore replaces every invoice record and index with the snapshot.
func (s *Service) Restore(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return s.ledger.Update(ctx, func(tx ledger.Tx) error {
		if err := s.validate(tx, id); err != nil {
			return err
		}

		invoices, err := s.store.GetData(tx, id)
		if err != nil {
			return err
		}

		for _, inv := range invoices {
			if err := s.invoices.Overwrite(tx, inv); err != nil {
				return err
			}
		}

		if err := s.invoices.RebuildIndexes(tx, invoices); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindBackupRestored, uuid.Nil, actor.Identity, int64(len(invoices)))

		return nil
	})
}

// Archive marks a backup inactive and drops it from the active list.
func (s *Service) Archive(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return s.ledger.Update(ctx, func(tx ledger.Tx) error {
		b, err := s.store.Get(tx, id)
		if err != nil {
			return err
		}

		b.Status = StatusArchived
		if err := s.store.Put(tx, b); err != nil {
			return err
		}

		ids, err := s.store.List(tx)
		if err != nil {
			return err
		}

		kept := ids[:0]

		for _, existing := range ids {
			if existing != id {
				kept = append(kept, existing)
			}
		}

		if err := s.store.SetList(tx, kept); err != nil {
			return err
		}

		s.events.Emit(tx, event.KindBackupArchived, uuid.Nil, actor.Identity, 0)

		return nil
	})
}

// List returns every retained backup, oldest first.
func (s *Service) List(ctx context.Context) ([]*Backup, error) {
	var backups []*Backup

	err := s.ledger.View(ctx, func(tx ledger.Tx) error {
		ids, err := s.store.List(tx)
		if err != nil {
			return err
		}

		for _, id := range ids {
			b, err := s.store.Get(tx, id)
			if err != nil {
				return err
			}

			backups = append(backups, b)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return backups, nil
}
