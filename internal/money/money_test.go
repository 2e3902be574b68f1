package money_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quicklendx/quicklendx/internal/money"
)

func TestAdd(t *testing.T) {
	type testCase struct {
		name    string
		a, b    int64
		want    int64
		wantErr bool
	}

	tests := []testCase{
		{name: "Simple", a: 1000, b: 50, want: 1050},
		{name: "Negative", a: 1000, b: -200, want: 800},
		{name: "OverflowPositive", a: math.MaxInt64, b: 1, wantErr: true},
		{name: "OverflowNegative", a: math.MinInt64, b: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.Add(tt.a, tt.b)

			if tt.wantErr {
				assert.ErrorIs(t, err, money.ErrOverflow)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSub(t *testing.T) {
	got, err := money.Sub(1050, 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got)

	_, err = money.Sub(0, math.MinInt64)
	assert.ErrorIs(t, err, money.ErrOverflow)
}

func TestMul(t *testing.T) {
	got, err := money.Mul(1000, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), got)

	_, err = money.Mul(math.MaxInt64, 2)
	assert.ErrorIs(t, err, money.ErrOverflow)

	_, err = money.Mul(math.MinInt64, -1)
	assert.ErrorIs(t, err, money.ErrOverflow)

	_, err = money.Mul(-1, math.MinInt64)
	assert.ErrorIs(t, err, money.ErrOverflow)
}

func TestApplyBps(t *testing.T) {
	type testCase struct {
		name        string
		amount, bps int64
		want        int64
		wantErr     bool
	}

	tests := []testCase{
		{name: "FivePercent", amount: 1000, bps: 500, want: 50},
		{name: "TruncatesTowardZero", amount: 999, bps: 500, want: 49},
		{name: "ZeroBps", amount: 1000, bps: 0, want: 0},
		{name: "WholeAmount", amount: 1000, bps: 10_000, want: 1000},
		{name: "NegativeAmount", amount: -1, bps: 500, wantErr: true},
		{name: "Overflow", amount: math.MaxInt64, bps: 2, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money.ApplyBps(tt.amount, tt.bps)

			if tt.wantErr {
				assert.ErrorIs(t, err, money.ErrOverflow)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
