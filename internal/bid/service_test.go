package bid_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/bid"
	"github.com/quicklendx/quicklendx/internal/escrow"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

var (
	business  = auth.Actor{Identity: "GBUSINESS", Role: auth.RoleBusiness}
	investor1 = auth.Actor{Identity: "GINVESTOR1", Role: auth.RoleInvestor}
	investor2 = auth.Actor{Identity: "GINVESTOR2", Role: auth.RoleInvestor}
)

func newEmitter() *event.Emitter {
	return event.NewEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func seedInvoice(t *testing.T, store *ledger.Memory, status invoice.Status, faceValue int64) uuid.UUID {
	t.Helper()

	inv := &invoice.Invoice{
		ID:          uuid.New(),
		Business:    business.Identity,
		FaceValue:   faceValue,
		DueDate:     time.Now().Add(30 * 24 * time.Hour).UTC(),
		Status:      status,
		Description: "seeded",
		CreatedAt:   time.Now().UTC(),
	}

	err := store.Update(context.Background(), func(tx ledger.Tx) error {
		return invoice.NewStore().Create(tx, inv)
	})
	require.NoError(t, err)

	return inv.ID
}

func TestService_Place(t *testing.T) {
	type testCase struct {
		name          string
		invoiceStatus invoice.Status
		amount        int64
		rateBps       int64
		setupMock     func(m *bid.MockEscrow, invoiceID uuid.UUID)
		wantErr       error
	}

	tests := []testCase{
		{
			name:          "Success",
			invoiceStatus: invoice.StatusOpen,
			amount:        60_000,
			rateBps:       500,
			setupMock: func(m *bid.MockEscrow, invoiceID uuid.UUID) {
				m.EXPECT().
					Hold(gomock.Any(), invoiceID, investor1.Identity, int64(60_000)).
					Return(nil)
			},
		},
		{
			name:          "NotOpen",
			invoiceStatus: invoice.StatusVerified,
			amount:        60_000,
			wantErr:       invoice.ErrInvalidState,
		},
		{
			name:          "ZeroAmount",
			invoiceStatus: invoice.StatusOpen,
			amount:        0,
			wantErr:       bid.ErrInvalidAmount,
		},
		{
			name:          "NegativeRate",
			invoiceStatus: invoice.StatusOpen,
			amount:        60_000,
			rateBps:       -1,
			wantErr:       bid.ErrInvalidAmount,
		},
		{
			name:          "ExceedsCapacity",
			invoiceStatus: invoice.StatusOpen,
			amount:        100_001,
			wantErr:       bid.ErrInsufficientCapacity,
		},
		{
			name:          "HoldFails",
			invoiceStatus: invoice.StatusOpen,
			amount:        60_000,
			setupMock: func(m *bid.MockEscrow, invoiceID uuid.UUID) {
				m.EXPECT().
					Hold(gomock.Any(), invoiceID, investor1.Identity, int64(60_000)).
					Return(escrow.ErrInsufficientFunds)
			},
			wantErr: escrow.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := ledger.NewMemory()
			mockEscrow := bid.NewMockEscrow(ctrl)
			svc := bid.NewService(store, mockEscrow, newEmitter())

			invoiceID := seedInvoice(t, store, tt.invoiceStatus, 100_000)
			if tt.setupMock != nil {
				tt.setupMock(mockEscrow, invoiceID)
			}

			got, err := svc.Place(context.Background(), investor1, bid.PlaceParams{
				InvoiceID: invoiceID,
				Amount:    tt.amount,
				RateBps:   tt.rateBps,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, bid.StatusActive, got.Status)
			assert.Equal(t, investor1.Identity, got.Investor)

			bids, err := svc.ListByInvoice(context.Background(), invoiceID)
			require.NoError(t, err)
			assert.Len(t, bids, 1)
		})
	}
}

func TestService_Place_Duplicate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := ledger.NewMemory()
	mockEscrow := bid.NewMockEscrow(ctrl)
	svc := bid.NewService(store, mockEscrow, newEmitter())

	invoiceID := seedInvoice(t, store, invoice.StatusOpen, 100_000)

	mockEscrow.EXPECT().
		Hold(gomock.Any(), invoiceID, investor1.Identity, int64(40_000)).
		Return(nil)

	_, err := svc.Place(context.Background(), investor1, bid.PlaceParams{
		InvoiceID: invoiceID,
		Amount:    40_000,
	})
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), investor1, bid.PlaceParams{
		InvoiceID: invoiceID,
		Amount:    50_000,
	})
	assert.ErrorIs(t, err, bid.ErrDuplicateBid)
}

func TestService_Withdraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := ledger.NewMemory()
	mockEscrow := bid.NewMockEscrow(ctrl)
	svc := bid.NewService(store, mockEscrow, newEmitter())

	invoiceID := seedInvoice(t, store, invoice.StatusOpen, 100_000)

	mockEscrow.EXPECT().
		Hold(gomock.Any(), invoiceID, investor1.Identity, int64(40_000)).
		Return(nil)
	mockEscrow.EXPECT().
		Refund(gomock.Any(), invoiceID, investor1.Identity).
		Return(int64(40_000), nil)

	_, err := svc.Place(context.Background(), investor1, bid.PlaceParams{
		InvoiceID: invoiceID,
		Amount:    40_000,
	})
	require.NoError(t, err)

	withdrawn, err := svc.Withdraw(context.Background(), investor1, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, bid.StatusWithdrawn, withdrawn.Status)

	// A withdrawn bid cannot be withdrawn again.
	_, err = svc.Withdraw(context.Background(), investor1, invoiceID)
	assert.ErrorIs(t, err, bid.ErrNotFound)

	// And the investor may bid again.
	mockEscrow.EXPECT().
		Hold(gomock.Any(), invoiceID, investor1.Identity, int64(45_000)).
		Return(nil)

	_, err = svc.Place(context.Background(), investor1, bid.PlaceParams{
		InvoiceID: invoiceID,
		Amount:    45_000,
	})
	assert.NoError(t, err)
}

func TestService_Accept_NotBestBid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := ledger.NewMemory()
	mockEscrow := bid.NewMockEscrow(ctrl)
	svc := bid.NewService(store, mockEscrow, newEmitter())

	invoiceID := seedInvoice(t, store, invoice.StatusOpen, 100_000)

	mockEscrow.EXPECT().Hold(gomock.Any(), invoiceID, investor1.Identity, int64(70_000)).Return(nil)
	mockEscrow.EXPECT().Hold(gomock.Any(), invoiceID, investor2.Identity, int64(90_000)).Return(nil)

	lower, err := svc.Place(context.Background(), investor1, bid.PlaceParams{InvoiceID: invoiceID, Amount: 70_000})
	require.NoError(t, err)

	_, err = svc.Place(context.Background(), investor2, bid.PlaceParams{InvoiceID: invoiceID, Amount: 90_000})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), business, invoiceID, lower.ID)
	assert.ErrorIs(t, err, bid.ErrNotBestBid)
}

func TestService_Accept_NotOwner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := ledger.NewMemory()
	mockEscrow := bid.NewMockEscrow(ctrl)
	svc := bid.NewService(store, mockEscrow, newEmitter())

	invoiceID := seedInvoice(t, store, invoice.StatusOpen, 100_000)

	mockEscrow.EXPECT().Hold(gomock.Any(), invoiceID, investor1.Identity, int64(70_000)).Return(nil)

	placed, err := svc.Place(context.Background(), investor1, bid.PlaceParams{InvoiceID: invoiceID, Amount: 70_000})
	require.NoError(t, err)

	other := auth.Actor{Identity: "GOTHER", Role: auth.RoleBusiness}
	_, err = svc.Accept(context.Background(), other, invoiceID, placed.ID)
	assert.ErrorIs(t, err, invoice.ErrNotOwner)
}

func TestService_Accept_RollsBackOnDisburseFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := ledger.NewMemory()
	mockEscrow := bid.NewMockEscrow(ctrl)
	svc := bid.NewService(store, mockEscrow, newEmitter())

	invoiceID := seedInvoice(t, store, invoice.StatusOpen, 100_000)

	mockEscrow.EXPECT().Hold(gomock.Any(), invoiceID, investor1.Identity, int64(70_000)).Return(nil)
	mockEscrow.EXPECT().
		Disburse(gomock.Any(), invoiceID, investor1.Identity, business.Identity, int64(0)).
		Return(int64(0), int64(0), errors.New("vault unavailable"))

	placed, err := svc.Place(context.Background(), investor1, bid.PlaceParams{InvoiceID: invoiceID, Amount: 70_000})
	require.NoError(t, err)

	_, err = svc.Accept(context.Background(), business, invoiceID, placed.ID)
	require.Error(t, err)

	// Nothing committed: the bid is still active and the invoice still open.
	bids, err := svc.ListByInvoice(context.Background(), invoiceID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, bid.StatusActive, bids[0].Status)

	var inv *invoice.Invoice
	err = store.View(context.Background(), func(tx ledger.Tx) error {
		var err error
		inv, err = invoice.NewStore().Get(tx, invoiceID)

		return err
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusOpen, inv.Status)
}

// TestService_Accept_FundsInvoice runs the full funding path against the real
// escrow engine: the winner's hold is disbursed minus the funding fee, every
// loser is refunded, and no unit goes missing.
func TestService_Accept_FundsInvoice(t *testing.T) {
	store := ledger.NewMemory()
	emitter := newEmitter()
	engine := escrow.NewEngine(emitter, 100) // 1% funding fee
	svc := bid.NewService(store, engine, emitter)

	ctx := context.Background()
	invoiceID := seedInvoice(t, store, invoice.StatusOpen, 100_000)

	err := store.Update(ctx, func(tx ledger.Tx) error {
		if err := engine.Credit(tx, investor1.Identity, 100_000); err != nil {
			return err
		}

		return engine.Credit(tx, investor2.Identity, 90_000)
	})
	require.NoError(t, err)

	winner, err := svc.Place(ctx, investor1, bid.PlaceParams{InvoiceID: invoiceID, Amount: 100_000, RateBps: 500})
	require.NoError(t, err)

	_, err = svc.Place(ctx, investor2, bid.PlaceParams{InvoiceID: invoiceID, Amount: 90_000, RateBps: 400})
	require.NoError(t, err)

	result, err := svc.Accept(ctx, business, invoiceID, winner.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(99_000), result.Disbursed)
	assert.Equal(t, int64(1_000), result.FundingFee)
	assert.Equal(t, invoice.StatusFunded, result.Invoice.Status)
	assert.Equal(t, int64(100_000), result.Invoice.FundedAmount)
	require.NotNil(t, result.Invoice.Investor)
	assert.Equal(t, investor1.Identity, *result.Invoice.Investor)

	balances := map[auth.Identity]int64{}
	err = store.View(ctx, func(tx ledger.Tx) error {
		for _, account := range []auth.Identity{
			investor1.Identity, investor2.Identity,
			business.Identity, escrow.VaultAccount, escrow.PlatformAccount,
		} {
			balance, err := engine.Balance(tx, account)
			if err != nil {
				return err
			}

			balances[account] = balance
		}

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), balances[investor1.Identity])
	assert.Equal(t, int64(90_000), balances[investor2.Identity])
	assert.Equal(t, int64(99_000), balances[business.Identity])
	assert.Equal(t, int64(0), balances[escrow.VaultAccount])
	assert.Equal(t, int64(1_000), balances[escrow.PlatformAccount])

	bids, err := svc.ListByInvoice(ctx, invoiceID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, bid.StatusAccepted, bids[0].Status)
	assert.Equal(t, bid.StatusRejected, bids[1].Status)

	// No further bids once funded, and no second acceptance.
	_, err = svc.Place(ctx, investor2, bid.PlaceParams{InvoiceID: invoiceID, Amount: 10_000})
	assert.ErrorIs(t, err, invoice.ErrInvalidState)

	_, err = svc.Accept(ctx, business, invoiceID, winner.ID)
	assert.ErrorIs(t, err, invoice.ErrInvalidState)
}

func TestBetter_Ordering(t *testing.T) {
	earlier := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Minute)

	type testCase struct {
		name string
		a, b *bid.Bid
		want bool
	}

	tests := []testCase{
		{
			name: "HigherAmountWins",
			a:    &bid.Bid{Amount: 900, SubmittedAt: later},
			b:    &bid.Bid{Amount: 800, SubmittedAt: earlier},
			want: true,
		},
		{
			name: "EarlierSubmissionBreaksTie",
			a:    &bid.Bid{Amount: 900, SubmittedAt: earlier},
			b:    &bid.Bid{Amount: 900, SubmittedAt: later},
			want: true,
		},
		{
			name: "LowerIDBreaksFullTie",
			a:    &bid.Bid{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), Amount: 900, SubmittedAt: earlier},
			b:    &bid.Bid{ID: uuid.MustParse("00000000-0000-0000-0000-000000000002"), Amount: 900, SubmittedAt: earlier},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bid.Better(tt.a, tt.b))
			assert.False(t, bid.Better(tt.b, tt.a))
		})
	}
}
