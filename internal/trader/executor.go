package trader

import (
	"context"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/logger"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
	"go.uber.org/zap"
)

// Executor opens a protected long position: market entry, stop-market
// stop-loss covering the whole position, and a GTC limit take-profit.
type Executor struct {
	broker broker.Broker
	sizer  *Sizer
	cfg    Config
	log    *logger.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(b broker.Broker, sizer *Sizer, cfg Config, log *logger.Logger) *Executor {
	return &Executor{
		broker: b,
		sizer:  sizer,
		cfg:    cfg,
		log:    log,
	}
}

// PlaceEntry opens a long position for the symbol. Failures before the
// market order leave nothing on the exchange and are eligible for retry.
// Failures after the market order filled leave an open position without
// full protection and surface with ErrCodePartialExecution - callers must
// treat those loudly, never as a plain retry.
func (e *Executor) PlaceEntry(ctx context.Context, symbol, signalText string) (types.FilledTrade, error) {
	price, err := e.broker.GetPrice(ctx, symbol)
	if err != nil {
		return types.FilledTrade{}, err
	}

	e.log.Info("quoted entry price", zap.String("symbol", symbol), zap.Float64("price", price))

	quantity, err := e.sizer.Quantity(ctx, symbol, price, e.cfg)
	if err != nil {
		return types.FilledTrade{}, err
	}

	// Best-effort: a leverage failure downgrades the position multiplier but
	// does not block the entry.
	if err := e.broker.SetLeverage(ctx, symbol, e.cfg.Leverage); err != nil {
		e.log.Warn("could not set leverage", zap.String("symbol", symbol), zap.Int("leverage", e.cfg.Leverage), zap.Error(err))
	}

	if _, err := e.broker.PlaceMarketOrder(ctx, symbol, broker.OrderSideBuy, quantity); err != nil {
		return types.FilledTrade{}, err
	}

	// The position is open past this point. Any failure below leaves it
	// unprotected and must surface as a partial execution.

	// The last trade price immediately after the fill stands in for the
	// order's average fill price. Known slippage approximation - keep it.
	fillPrice, err := e.broker.GetPrice(ctx, symbol)
	if err != nil {
		return types.FilledTrade{}, errors.Wrapf(errors.ErrCodePartialExecution, err,
			"position open for %s but fill price unavailable, protective orders not placed", symbol)
	}

	stopLossPrice := types.RoundPrice(fillPrice*(1-e.cfg.StopLossPct/100), fillPrice)
	takeProfitPrice := types.RoundPrice(fillPrice*(1+e.cfg.ProfitTargetPct/100), fillPrice)

	stopAck, err := e.broker.PlaceStopMarketOrder(ctx, symbol, broker.OrderSideSell, stopLossPrice)
	if err != nil {
		return types.FilledTrade{}, errors.Wrapf(errors.ErrCodePartialExecution, err,
			"position open for %s but stop-loss order failed", symbol)
	}

	takeProfitAck, err := e.broker.PlaceLimitOrder(ctx, symbol, broker.OrderSideSell, takeProfitPrice, quantity)
	if err != nil {
		return types.FilledTrade{}, errors.Wrapf(errors.ErrCodePartialExecution, err,
			"position open for %s but take-profit order failed", symbol)
	}

	e.log.Info("trade executed",
		zap.String("symbol", symbol),
		zap.Float64("entry_price", fillPrice),
		zap.Float64("quantity", quantity),
		zap.Float64("stop_loss_price", stopLossPrice),
		zap.Float64("take_profit_price", takeProfitPrice),
		zap.Int("leverage", e.cfg.Leverage),
		zap.String("signal", signalText),
	)

	return types.FilledTrade{
		Symbol:            symbol,
		EntryPrice:        fillPrice,
		Quantity:          quantity,
		StopLossPrice:     stopLossPrice,
		TakeProfitPrice:   takeProfitPrice,
		StopLossOrderID:   stopAck.OrderID,
		TakeProfitOrderID: takeProfitAck.OrderID,
	}, nil
}
