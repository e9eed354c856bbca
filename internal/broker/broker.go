package broker

import (
	"context"

	"github.com/rxtech-lab/listing-trader/internal/types"
)

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// Opposite returns the closing side for a position opened on this side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSideBuy {
		return OrderSideSell
	}

	return OrderSideBuy
}

// OrderAck identifies an accepted order on the exchange.
type OrderAck struct {
	OrderID       int64
	ClientOrderID string
}

// Broker is the exchange capability surface required by the trade lifecycle
// orchestrator. All calls are synchronous and carry a context for timeouts;
// implementations convert transport failures into pkg/errors codes.
type Broker interface {
	// GetPrice returns the last trade price for a symbol.
	GetPrice(ctx context.Context, symbol string) (float64, error)
	// GetAvailableBalance returns the available balance for an asset.
	GetAvailableBalance(ctx context.Context, asset string) (float64, error)
	// GetLotSizeRule returns the quantity step and minimum for a symbol.
	GetLotSizeRule(ctx context.Context, symbol string) (types.LotSizeRule, error)
	// SetLeverage sets the leverage multiplier for a symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	// PlaceMarketOrder submits a market order for the given quantity.
	PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64) (OrderAck, error)
	// PlaceStopMarketOrder submits a stop-market order that closes the entire
	// position once the stop price is touched.
	PlaceStopMarketOrder(ctx context.Context, symbol string, side OrderSide, stopPrice float64) (OrderAck, error)
	// PlaceLimitOrder submits a GTC limit order for the given quantity.
	PlaceLimitOrder(ctx context.Context, symbol string, side OrderSide, price, quantity float64) (OrderAck, error)
	// GetOpenPositionSize returns the signed open position quantity for a
	// symbol. Zero means flat.
	GetOpenPositionSize(ctx context.Context, symbol string) (float64, error)
	// CancelAllOpenOrders cancels every open order for a symbol.
	CancelAllOpenOrders(ctx context.Context, symbol string) error
	// CheckConnection verifies connectivity and authentication.
	CheckConnection(ctx context.Context) error
}
