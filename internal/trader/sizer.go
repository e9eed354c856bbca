package trader

import (
	"context"
	"math"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/logger"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// largeNotionalThreshold is the committed amount above which quantities are
// truncated to whole units. Fractional quantities at large size are a known
// source of exchange rejections.
const largeNotionalThreshold = 5000.0

// balanceSafetyFactor caps the committed amount at 95% of the available
// balance so fees and funding never push the account into rejection.
const balanceSafetyFactor = 0.95

// Sizer turns a target trade amount into an exchange-legal order quantity
// using the symbol's lot-size filter.
type Sizer struct {
	broker broker.Broker
	log    *logger.Logger
}

// NewSizer creates a Sizer backed by the given broker.
func NewSizer(b broker.Broker, log *logger.Logger) *Sizer {
	return &Sizer{
		broker: b,
		log:    log,
	}
}

// Quantity computes the order quantity for a symbol at the given price. It
// fetches the available balance and the symbol's lot-size rule; either
// lookup failing aborts this attempt with a sizing error.
func (s *Sizer) Quantity(ctx context.Context, symbol string, price float64, cfg Config) (float64, error) {
	balance, err := s.broker.GetAvailableBalance(ctx, cfg.QuoteAsset)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSizingFailed, err, "balance lookup failed for %s", symbol)
	}

	rule, err := s.broker.GetLotSizeRule(ctx, symbol)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSizingFailed, err, "lot size lookup failed for %s", symbol)
	}

	notional := math.Min(cfg.TradeAmount, balance*balanceSafetyFactor)

	quantity := SizeQuantity(notional, cfg.Leverage, price, rule)
	if quantity <= 0 {
		return 0, errors.Newf(errors.ErrCodeSizingFailed, "could not size a valid quantity for %s at price %.8f", symbol, price)
	}

	s.log.Info("sized order quantity",
		zap.String("symbol", symbol),
		zap.Float64("balance", balance),
		zap.Float64("notional", notional),
		zap.Float64("price", price),
		zap.Float64("quantity", quantity),
	)

	return quantity, nil
}

// SizeQuantity computes the tradeable quantity for a committed notional,
// leverage and price under the given lot-size rule.
//
// Rounding policy:
//   - Notionals at or above the large threshold truncate to whole units.
//   - Otherwise a step size of 1 or more truncates to whole units, and a
//     fractional step rounds to the precision the step implies.
//   - Quantities below the filter minimum clamp up to the minimum.
//   - The result snaps to the nearest step multiple, re-truncated to whole
//     units on the large-notional path.
func SizeQuantity(notional float64, leverage int, price float64, rule types.LotSizeRule) float64 {
	if notional <= 0 || leverage <= 0 || price <= 0 {
		return 0
	}

	raw := notional * float64(leverage) / price
	largeNotional := notional >= largeNotionalThreshold

	var quantity float64

	switch {
	case largeNotional:
		quantity = math.Trunc(raw)
	case rule.StepSize >= 1:
		quantity = math.Trunc(raw)
	default:
		quantity = roundToPrecision(raw, stepPrecision(rule.StepSize))
	}

	if quantity < rule.MinQty {
		quantity = rule.MinQty
	}

	if rule.StepSize > 0 {
		quantity = snapToStep(quantity, rule.StepSize)
		if largeNotional {
			quantity = math.Trunc(quantity)
		}
	}

	return quantity
}

// stepPrecision returns the number of decimal places implied by a
// fractional step size, e.g. 0.001 implies 3.
func stepPrecision(stepSize float64) int32 {
	d := decimal.NewFromFloat(stepSize)
	if d.Exponent() < 0 {
		return -d.Exponent()
	}

	return 0
}

// roundToPrecision rounds half away from zero at the given decimal place.
func roundToPrecision(value float64, precision int32) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(precision).Float64()

	return rounded
}

// snapToStep snaps a quantity to the nearest multiple of the step size.
func snapToStep(quantity, stepSize float64) float64 {
	q := decimal.NewFromFloat(quantity)
	step := decimal.NewFromFloat(stepSize)

	snapped, _ := q.Div(step).Round(0).Mul(step).Float64()

	return snapped
}
