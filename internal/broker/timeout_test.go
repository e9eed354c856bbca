package broker

import (
	"context"
	"testing"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deadlineCapturingBroker records whether the context it receives carries a
// deadline.
type deadlineCapturingBroker struct {
	hadDeadline bool
	deadline    time.Time
}

func (d *deadlineCapturingBroker) capture(ctx context.Context) {
	d.deadline, d.hadDeadline = ctx.Deadline()
}

func (d *deadlineCapturingBroker) GetPrice(ctx context.Context, _ string) (float64, error) {
	d.capture(ctx)

	return 0, nil
}

func (d *deadlineCapturingBroker) GetAvailableBalance(ctx context.Context, _ string) (float64, error) {
	d.capture(ctx)

	return 0, nil
}

func (d *deadlineCapturingBroker) GetLotSizeRule(ctx context.Context, _ string) (types.LotSizeRule, error) {
	d.capture(ctx)

	return types.LotSizeRule{}, nil
}

func (d *deadlineCapturingBroker) SetLeverage(ctx context.Context, _ string, _ int) error {
	d.capture(ctx)

	return nil
}

func (d *deadlineCapturingBroker) PlaceMarketOrder(ctx context.Context, _ string, _ OrderSide, _ float64) (OrderAck, error) {
	d.capture(ctx)

	return OrderAck{}, nil
}

func (d *deadlineCapturingBroker) PlaceStopMarketOrder(ctx context.Context, _ string, _ OrderSide, _ float64) (OrderAck, error) {
	d.capture(ctx)

	return OrderAck{}, nil
}

func (d *deadlineCapturingBroker) PlaceLimitOrder(ctx context.Context, _ string, _ OrderSide, _, _ float64) (OrderAck, error) {
	d.capture(ctx)

	return OrderAck{}, nil
}

func (d *deadlineCapturingBroker) GetOpenPositionSize(ctx context.Context, _ string) (float64, error) {
	d.capture(ctx)

	return 0, nil
}

func (d *deadlineCapturingBroker) CancelAllOpenOrders(ctx context.Context, _ string) error {
	d.capture(ctx)

	return nil
}

func (d *deadlineCapturingBroker) CheckConnection(ctx context.Context) error {
	d.capture(ctx)

	return nil
}

var _ Broker = (*deadlineCapturingBroker)(nil)

func TestWithTimeoutBoundsEveryCall(t *testing.T) {
	inner := &deadlineCapturingBroker{}
	bounded := WithTimeout(inner, 15*time.Second)

	_, err := bounded.GetPrice(context.Background(), "NEWUSDT")
	require.NoError(t, err)
	assert.True(t, inner.hadDeadline)

	inner.hadDeadline = false
	require.NoError(t, bounded.CancelAllOpenOrders(context.Background(), "NEWUSDT"))
	assert.True(t, inner.hadDeadline)
}

func TestWithTimeoutKeepsTighterCallerDeadline(t *testing.T) {
	inner := &deadlineCapturingBroker{}
	bounded := WithTimeout(inner, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := bounded.GetPrice(ctx, "NEWUSDT")
	require.NoError(t, err)
	require.True(t, inner.hadDeadline)
	assert.True(t, inner.deadline.Before(time.Now().Add(2*time.Second)))
}

func TestWithTimeoutZeroIsPassthrough(t *testing.T) {
	inner := &deadlineCapturingBroker{}

	assert.Same(t, Broker(inner), WithTimeout(inner, 0))
}

func TestOrderSideOpposite(t *testing.T) {
	assert.Equal(t, OrderSideSell, OrderSideBuy.Opposite())
	assert.Equal(t, OrderSideBuy, OrderSideSell.Opposite())
}
