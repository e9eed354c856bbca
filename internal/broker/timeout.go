package broker

import (
	"context"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/types"
)

// timeoutBroker bounds every call to the wrapped broker with a per-request
// timeout so one stalled call cannot starve a periodic loop.
type timeoutBroker struct {
	inner   Broker
	timeout time.Duration
}

// WithTimeout wraps a broker so that every call carries a request timeout.
// A non-positive timeout returns the broker unchanged.
func WithTimeout(b Broker, timeout time.Duration) Broker {
	if timeout <= 0 {
		return b
	}

	return &timeoutBroker{
		inner:   b,
		timeout: timeout,
	}
}

func (t *timeoutBroker) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, t.timeout)
}

func (t *timeoutBroker) GetPrice(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.GetPrice(ctx, symbol)
}

func (t *timeoutBroker) GetAvailableBalance(ctx context.Context, asset string) (float64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.GetAvailableBalance(ctx, asset)
}

func (t *timeoutBroker) GetLotSizeRule(ctx context.Context, symbol string) (types.LotSizeRule, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.GetLotSizeRule(ctx, symbol)
}

func (t *timeoutBroker) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.SetLeverage(ctx, symbol, leverage)
}

func (t *timeoutBroker) PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64) (OrderAck, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.PlaceMarketOrder(ctx, symbol, side, quantity)
}

func (t *timeoutBroker) PlaceStopMarketOrder(ctx context.Context, symbol string, side OrderSide, stopPrice float64) (OrderAck, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.PlaceStopMarketOrder(ctx, symbol, side, stopPrice)
}

func (t *timeoutBroker) PlaceLimitOrder(ctx context.Context, symbol string, side OrderSide, price, quantity float64) (OrderAck, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.PlaceLimitOrder(ctx, symbol, side, price, quantity)
}

func (t *timeoutBroker) GetOpenPositionSize(ctx context.Context, symbol string) (float64, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.GetOpenPositionSize(ctx, symbol)
}

func (t *timeoutBroker) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.CancelAllOpenOrders(ctx, symbol)
}

func (t *timeoutBroker) CheckConnection(ctx context.Context) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()

	return t.inner.CheckConnection(ctx)
}

var _ Broker = (*timeoutBroker)(nil)
