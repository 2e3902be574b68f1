package invoice_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklendx/quicklendx/internal/auth"
	"github.com/quicklendx/quicklendx/internal/event"
	"github.com/quicklendx/quicklendx/internal/invoice"
	"github.com/quicklendx/quicklendx/internal/ledger"
)

type stubKyc struct {
	verified bool
}

func (s stubKyc) IsVerified(ledger.Tx, auth.Identity) (bool, error) {
	return s.verified, nil
}

type stubEscrow struct {
	held int64
}

func (s stubEscrow) HeldAmount(ledger.Tx, uuid.UUID) (int64, error) {
	return s.held, nil
}

var (
	business = auth.Actor{Identity: "GBUSINESS", Role: auth.RoleBusiness}
	admin    = auth.Actor{Identity: "GADMIN", Role: auth.RoleAdmin}
)

func newService(kyc stubKyc, escrow stubEscrow) (*invoice.Service, *ledger.Memory) {
	store := ledger.NewMemory()
	emitter := event.NewEmitter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return invoice.NewService(store, emitter, kyc, escrow), store
}

func futureDate() time.Time {
	return time.Now().Add(30 * 24 * time.Hour).UTC()
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name     string
		params   invoice.CreateParams
		verified bool
		wantErr  error
	}

	tests := []testCase{
		{
			name: "Success",
			params: invoice.CreateParams{
				FaceValue:   100_000,
				DueDate:     futureDate(),
				Description: "Q3 receivable",
			},
			verified: true,
		},
		{
			name: "UnverifiedBusiness",
			params: invoice.CreateParams{
				FaceValue:   100_000,
				DueDate:     futureDate(),
				Description: "Q3 receivable",
			},
			verified: false,
			wantErr:  auth.ErrUnauthorized,
		},
		{
			name: "ZeroFaceValue",
			params: invoice.CreateParams{
				DueDate:     futureDate(),
				Description: "Q3 receivable",
			},
			verified: true,
			wantErr:  invoice.ErrInvalidAmount,
		},
		{
			name: "NegativeFaceValue",
			params: invoice.CreateParams{
				FaceValue:   -1,
				DueDate:     futureDate(),
				Description: "Q3 receivable",
			},
			verified: true,
			wantErr:  invoice.ErrInvalidAmount,
		},
		{
			name: "PastDueDate",
			params: invoice.CreateParams{
				FaceValue:   100_000,
				DueDate:     time.Now().Add(-time.Hour),
				Description: "Q3 receivable",
			},
			verified: true,
			wantErr:  invoice.ErrInvalidDueDate,
		},
		{
			name: "EmptyDescription",
			params: invoice.CreateParams{
				FaceValue: 100_000,
				DueDate:   futureDate(),
			},
			verified: true,
			wantErr:  invoice.ErrInvalidDesc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(stubKyc{verified: tt.verified}, stubEscrow{})

			got, err := svc.Create(context.Background(), business, tt.params)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, got.ID)
			assert.Equal(t, business.Identity, got.Business)
			assert.Equal(t, invoice.StatusCreated, got.Status)

			fetched, err := svc.Get(context.Background(), got.ID)
			require.NoError(t, err)
			assert.Equal(t, got.ID, fetched.ID)
		})
	}
}

func TestService_Lifecycle(t *testing.T) {
	svc, _ := newService(stubKyc{verified: true}, stubEscrow{})
	ctx := context.Background()

	inv, err := svc.Create(ctx, business, invoice.CreateParams{
		FaceValue:   50_000,
		DueDate:     futureDate(),
		Description: "shipping invoice",
	})
	require.NoError(t, err)

	// Bidding cannot open before verification.
	_, err = svc.OpenForBidding(ctx, business, inv.ID)
	assert.ErrorIs(t, err, invoice.ErrInvalidState)

	verified, err := svc.Verify(ctx, admin, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusVerified, verified.Status)

	// Verifying twice is not an adjacent move.
	_, err = svc.Verify(ctx, admin, inv.ID)
	assert.ErrorIs(t, err, invoice.ErrInvalidState)

	opened, err := svc.OpenForBidding(ctx, business, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusOpen, opened.Status)
}

func TestService_OpenForBidding_NotOwner(t *testing.T) {
	svc, _ := newService(stubKyc{verified: true}, stubEscrow{})
	ctx := context.Background()

	inv, err := svc.Create(ctx, business, invoice.CreateParams{
		FaceValue:   50_000,
		DueDate:     futureDate(),
		Description: "shipping invoice",
	})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, admin, inv.ID)
	require.NoError(t, err)

	other := auth.Actor{Identity: "GOTHER", Role: auth.RoleBusiness}
	_, err = svc.OpenForBidding(ctx, other, inv.ID)
	assert.ErrorIs(t, err, invoice.ErrNotOwner)
}

func TestService_Cancel(t *testing.T) {
	type testCase struct {
		name    string
		held    int64
		actor   auth.Actor
		wantErr error
	}

	tests := []testCase{
		{name: "Success", actor: business},
		{name: "EscrowHeld", held: 1_000, actor: business, wantErr: invoice.ErrInvalidState},
		{name: "NotOwner", actor: auth.Actor{Identity: "GOTHER", Role: auth.RoleBusiness}, wantErr: invoice.ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(stubKyc{verified: true}, stubEscrow{held: tt.held})
			ctx := context.Background()

			inv, err := svc.Create(ctx, business, invoice.CreateParams{
				FaceValue:   50_000,
				DueDate:     futureDate(),
				Description: "shipping invoice",
			})
			require.NoError(t, err)

			got, err := svc.Cancel(ctx, tt.actor, inv.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, invoice.StatusCancelled, got.Status)
		})
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc, _ := newService(stubKyc{verified: true}, stubEscrow{})

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestService_List(t *testing.T) {
	svc, _ := newService(stubKyc{verified: true}, stubEscrow{})
	ctx := context.Background()

	other := auth.Actor{Identity: "GOTHER", Role: auth.RoleBusiness}

	first, err := svc.Create(ctx, business, invoice.CreateParams{
		FaceValue:   10_000,
		DueDate:     futureDate(),
		Description: "first",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, other, invoice.CreateParams{
		FaceValue:   20_000,
		DueDate:     futureDate(),
		Description: "second",
	})
	require.NoError(t, err)

	_, err = svc.Verify(ctx, admin, first.ID)
	require.NoError(t, err)

	all, err := svc.List(ctx, invoice.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	verified := invoice.StatusVerified
	byStatus, err := svc.List(ctx, invoice.ListFilter{Status: &verified})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, first.ID, byStatus[0].ID)

	byBusiness, err := svc.List(ctx, invoice.ListFilter{Business: &other.Identity})
	require.NoError(t, err)
	require.Len(t, byBusiness, 1)
	assert.Equal(t, other.Identity, byBusiness[0].Business)

	// Status index follows the invoice out of its old bucket.
	created := invoice.StatusCreated
	byCreated, err := svc.List(ctx, invoice.ListFilter{Status: &created})
	require.NoError(t, err)
	require.Len(t, byCreated, 1)
	assert.NotEqual(t, first.ID, byCreated[0].ID)
}
