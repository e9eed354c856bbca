package trader

import (
	"context"
	"math"
	"testing"

	"github.com/rxtech-lab/listing-trader/internal/logger"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeQuantity(t *testing.T) {
	tests := []struct {
		name     string
		notional float64
		leverage int
		price    float64
		rule     types.LotSizeRule
		expected float64
	}{
		{
			name:     "whole step size truncates to whole units",
			notional: 1000,
			leverage: 3,
			price:    10,
			rule:     types.LotSizeRule{StepSize: 1, MinQty: 1},
			expected: 300,
		},
		{
			name:     "fractional step rounds to implied precision",
			notional: 100,
			leverage: 3,
			price:    7,
			rule:     types.LotSizeRule{StepSize: 0.001, MinQty: 0.001},
			expected: 42.857,
		},
		{
			name:     "large notional truncates despite fractional step",
			notional: 6000,
			leverage: 3,
			price:    7,
			rule:     types.LotSizeRule{StepSize: 0.001, MinQty: 0.001},
			expected: 2571,
		},
		{
			name:     "tiny raw quantity clamps up to minimum",
			notional: 1,
			leverage: 1,
			price:    1000,
			rule:     types.LotSizeRule{StepSize: 0.01, MinQty: 0.01},
			expected: 0.01,
		},
		{
			name:     "coarse step at low price truncates aggressively",
			notional: 999,
			leverage: 1,
			price:    500,
			rule:     types.LotSizeRule{StepSize: 1, MinQty: 1},
			expected: 1,
		},
		{
			name:     "zero notional yields zero",
			notional: 0,
			leverage: 3,
			price:    10,
			rule:     types.LotSizeRule{StepSize: 1, MinQty: 1},
			expected: 0,
		},
		{
			name:     "zero price yields zero",
			notional: 1000,
			leverage: 3,
			price:    0,
			rule:     types.LotSizeRule{StepSize: 1, MinQty: 1},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SizeQuantity(tt.notional, tt.leverage, tt.price, tt.rule)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestSizeQuantityLargeNotionalAlwaysWhole(t *testing.T) {
	prices := []float64{0.37, 3.3, 7, 123.45, 999.99}
	steps := []types.LotSizeRule{
		{StepSize: 0.001, MinQty: 0.001},
		{StepSize: 0.1, MinQty: 0.1},
		{StepSize: 1, MinQty: 1},
	}

	for _, price := range prices {
		for _, rule := range steps {
			got := SizeQuantity(5000, 5, price, rule)
			assert.Equal(t, math.Trunc(got), got,
				"quantity %v at price %v step %v should be whole", got, price, rule.StepSize)
		}
	}
}

func TestSizeQuantityRespectsLotFilter(t *testing.T) {
	cases := []struct {
		notional float64
		leverage int
		price    float64
		rule     types.LotSizeRule
	}{
		{1000, 3, 10, types.LotSizeRule{StepSize: 1, MinQty: 1}},
		{1000, 3, 0.42, types.LotSizeRule{StepSize: 0.1, MinQty: 0.1}},
		{250, 2, 3.7, types.LotSizeRule{StepSize: 0.01, MinQty: 0.01}},
		{50, 5, 120, types.LotSizeRule{StepSize: 0.001, MinQty: 0.001}},
	}

	for _, c := range cases {
		got := SizeQuantity(c.notional, c.leverage, c.price, c.rule)

		require.GreaterOrEqual(t, got, c.rule.MinQty)

		steps := got / c.rule.StepSize
		assert.InDelta(t, math.Round(steps), steps, 1e-6,
			"quantity %v is not a multiple of step %v", got, c.rule.StepSize)
	}
}

// A raw quantity below the filter minimum clamps up to it, which can commit
// far more notional than requested. Callers rely on the exchange margin
// check to reject entries the account cannot carry.
func TestSizeQuantityMinQtyClampCanExceedNotional(t *testing.T) {
	got := SizeQuantity(5, 1, 100, types.LotSizeRule{StepSize: 0.1, MinQty: 10})

	assert.InDelta(t, 10, got, 1e-9)
	assert.Greater(t, got*100, 5.0)
}

func TestSizerQuantityCapsAtBalanceShare(t *testing.T) {
	b := newMockBroker()
	b.balanceFn = func(string) (float64, error) { return 2000, nil }

	s := NewSizer(b, logger.NewNopLogger())
	cfg := DefaultConfig()

	// min(1000, 0.95*2000) = 1000 -> 1000*3/10 = 300
	got, err := s.Quantity(context.Background(), "AAAUSDT", 10, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 300, got, 1e-9)

	// min(1000, 0.95*500) = 475 -> 475*3/10 = 142.5 -> trunc 142
	b.balanceFn = func(string) (float64, error) { return 500, nil }
	got, err = s.Quantity(context.Background(), "AAAUSDT", 10, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 142, got, 1e-9)
}

func TestSizerQuantityBalanceLookupFailure(t *testing.T) {
	b := newMockBroker()
	b.balanceFn = func(string) (float64, error) {
		return 0, errors.New(errors.ErrCodeBalanceUnavailable, "no balance")
	}

	s := NewSizer(b, logger.NewNopLogger())

	_, err := s.Quantity(context.Background(), "AAAUSDT", 10, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSizingFailed))
}

func TestSizerQuantityLotSizeLookupFailure(t *testing.T) {
	b := newMockBroker()
	b.lotSizeFn = func(string) (types.LotSizeRule, error) {
		return types.LotSizeRule{}, errors.New(errors.ErrCodeLotSizeUnavailable, "unknown symbol")
	}

	s := NewSizer(b, logger.NewNopLogger())

	_, err := s.Quantity(context.Background(), "AAAUSDT", 10, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSizingFailed))
}
