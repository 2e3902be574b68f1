package escrow_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/escrow"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

const (
	investorA auth.Identity = "GINVESTOR_A"
	investorB auth.Identity = "GINVESTOR_B"
	bizAcct   auth.Identity = "GBUSINESS"
)

func newEmitter() *event.Emitter {
	return event.NewEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newEngine(fundingFeeBps int64) (*escrow.Engine, *ledger.Memory) {
	return escrow.NewEngine(newEmitter(), fundingFeeBps), ledger.NewMemory()
}

func credit(t *testing.T, store *ledger.Memory, engine *escrow.Engine, account auth.Identity, amount int64) {
	t.Helper()

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Credit(tx, account, amount)
	})
	require.NoError(t, err)
}

func balance(t *testing.T, store *ledger.Memory, engine *escrow.Engine, account auth.Identity) int64 {
	t.Helper()

	var got int64

	err := store.View(context.Background(), func(tx ledger.Tx) error {
		var err error
		got, err = engine.Balance(tx, account)

		return err
	})
	require.NoError(t, err)

	return got
}

func TestEngine_CreditAndBalance(t *testing.T) {
	engine, store := newEngine(0)

	assert.Equal(t, int64(0), balance(t, store, engine, investorA))

	credit(t, store, engine, investorA, 5_000)
	credit(t, store, engine, investorA, 2_500)

	assert.Equal(t, int64(7_500), balance(t, store, engine, investorA))

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Credit(tx, investorA, 0)
	})
	assert.Error(t, err)
}

func TestEngine_Hold(t *testing.T) {
	engine, store := newEngine(0)
	invoiceID := uuid.New()

	credit(t, store, engine, investorA, 10_000)

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Hold(tx, invoiceID, investorA, 6_000)
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4_000), balance(t, store, engine, investorA))
	assert.Equal(t, int64(6_000), balance(t, store, engine, escrow.VaultAccount))

	err = store.View(context.Background(), func(tx ledger.Tx) error {
		held, err := engine.HeldAmount(tx, invoiceID)
		require.NoError(t, err)
		assert.Equal(t, int64(6_000), held)

		// Unknown invoices hold nothing.
		held, err = engine.HeldAmount(tx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, int64(0), held)

		return nil
	})
	require.NoError(t, err)

	// A second hold by the same investor on the same invoice is rejected.
	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Hold(tx, invoiceID, investorA, 1_000)
	})
	assert.Error(t, err)
}

func TestEngine_Hold_InsufficientFunds(t *testing.T) {
	engine, store := newEngine(0)
	invoiceID := uuid.New()

	credit(t, store, engine, investorA, 1_000)

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Hold(tx, invoiceID, investorA, 1_001)
	})
	assert.ErrorIs(t, err, escrow.ErrInsufficientFunds)

	// The failed hold left nothing behind.
	assert.Equal(t, int64(1_000), balance(t, store, engine, investorA))
	assert.Equal(t, int64(0), balance(t, store, engine, escrow.VaultAccount))
}

func TestEngine_Refund(t *testing.T) {
	engine, store := newEngine(0)
	invoiceID := uuid.New()

	credit(t, store, engine, investorA, 10_000)

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Hold(tx, invoiceID, investorA, 6_000)
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		amount, err := engine.Refund(tx, invoiceID, investorA)
		require.NoError(t, err)
		assert.Equal(t, int64(6_000), amount)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10_000), balance(t, store, engine, investorA))
	assert.Equal(t, int64(0), balance(t, store, engine, escrow.VaultAccount))

	// Nothing left to refund.
	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		_, err := engine.Refund(tx, invoiceID, investorA)
		return err
	})
	assert.ErrorIs(t, err, escrow.ErrNoContribution)
}

func TestEngine_Disburse(t *testing.T) {
	engine, store := newEngine(100) // 1%
	invoiceID := uuid.New()

	credit(t, store, engine, investorA, 50_000)
	credit(t, store, engine, investorB, 30_000)

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		if err := engine.Hold(tx, invoiceID, investorA, 50_000); err != nil {
			return err
		}

		return engine.Hold(tx, invoiceID, investorB, 30_000)
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		if _, err := engine.Refund(tx, invoiceID, investorB); err != nil {
			return err
		}

		net, fee, err := engine.Disburse(tx, invoiceID, investorA, bizAcct, 500)
		require.NoError(t, err)
		assert.Equal(t, int64(49_500), net)
		assert.Equal(t, int64(500), fee)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(49_500), balance(t, store, engine, bizAcct))
	assert.Equal(t, int64(500), balance(t, store, engine, escrow.PlatformAccount))
	assert.Equal(t, int64(30_000), balance(t, store, engine, investorB))
	assert.Equal(t, int64(0), balance(t, store, engine, escrow.VaultAccount))

	err = store.View(context.Background(), func(tx ledger.Tx) error {
		rec, err := engine.Record(tx, invoiceID)
		require.NoError(t, err)

		assert.Equal(t, escrow.StatusFunded, rec.Status)
		assert.Equal(t, int64(0), rec.Held)
		assert.Empty(t, rec.Contributions)
		assert.Equal(t, int64(50_000), rec.Principal)
		assert.Equal(t, int64(500), rec.RateBps)
		require.NotNil(t, rec.Investor)
		assert.Equal(t, investorA, *rec.Investor)
		assert.NotNil(t, rec.ReleasedAt)

		return nil
	})
	require.NoError(t, err)

	// The record is funded; no further holds or disbursements.
	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		_, _, err := engine.Disburse(tx, invoiceID, investorA, bizAcct, 500)
		return err
	})
	assert.ErrorIs(t, err, escrow.ErrAlreadySettled)

	credit(t, store, engine, investorB, 1_000)

	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Hold(tx, invoiceID, investorB, 1_000)
	})
	assert.ErrorIs(t, err, escrow.ErrAlreadySettled)
}

func TestEngine_Disburse_NoContribution(t *testing.T) {
	engine, store := newEngine(0)
	invoiceID := uuid.New()

	credit(t, store, engine, investorA, 10_000)

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return engine.Hold(tx, invoiceID, investorA, 10_000)
	})
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx ledger.Tx) error {
		_, _, err := engine.Disburse(tx, invoiceID, investorB, bizAcct, 0)
		return err
	})
	assert.ErrorIs(t, err, escrow.ErrNoContribution)
}
