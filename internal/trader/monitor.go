package trader

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/notify"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"go.uber.org/zap"
)

// monitorLoop enforces the maximum hold duration on in-memory active trades.
func (o *Orchestrator) monitorLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(o.cfg.MonitorInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.checkMaxHold(ctx)
		}
	}
}

// checkMaxHold force-closes every active trade whose hold time reached the
// configured ceiling. A failure for one symbol never blocks the others.
func (o *Orchestrator) checkMaxHold(ctx context.Context) {
	now := o.now()

	o.mu.Lock()

	due := make([]types.ActiveTrade, 0)

	for _, trade := range o.activeTrades {
		if now.Sub(trade.EntryTime) >= o.cfg.MaxHold() {
			due = append(due, *trade)
		}
	}

	o.mu.Unlock()

	for i := range due {
		o.log.Info("max hold time reached, closing position", zap.String("symbol", due[i].Symbol))
		o.forceClose(ctx, due[i], now)
	}
}

// forceClose flattens the position at market and records the close. The
// symbol leaves the active map even when the close bookkeeping fails: the
// reconciler picks up whatever the ledger still shows as ACTIVE.
func (o *Orchestrator) forceClose(ctx context.Context, trade types.ActiveTrade, now time.Time) {
	symbol := trade.Symbol

	size, err := o.broker.GetOpenPositionSize(ctx, symbol)
	if err != nil {
		// Leave the trade in place and try again next cycle.
		o.log.Error("position query failed during force close", zap.String("symbol", symbol), zap.Error(err))

		return
	}

	if size == 0 {
		// Already flat: closed by the exchange or another loop. The ledger
		// transition is the reconciler's job.
		o.log.Info("no open position found, skipping force close", zap.String("symbol", symbol))
		o.removeActive(symbol)

		return
	}

	// Stale protective orders on a flat position are harmless, so a cancel
	// failure is only logged.
	if err := o.broker.CancelAllOpenOrders(ctx, symbol); err != nil {
		o.log.Warn("could not cancel open orders", zap.String("symbol", symbol), zap.Error(err))
	}

	quantity := math.Abs(size)

	side := broker.OrderSideSell
	if size < 0 {
		side = broker.OrderSideBuy
	}

	if _, err := o.broker.PlaceMarketOrder(ctx, symbol, side, quantity); err != nil {
		o.log.Error("close order failed", zap.String("symbol", symbol), zap.Error(err))
		o.notifyEvent(ctx, notify.Event{
			Kind:  notify.KindError,
			Title: "FORCE CLOSE FAILED",
			Fields: []notify.Field{
				{Key: "Symbol", Value: symbol},
				{Key: "Error", Value: err.Error()},
			},
		})

		return
	}

	exitPrice, err := o.broker.GetPrice(ctx, symbol)
	if err != nil {
		// Position is flat but the exit price is unknown; the ledger record
		// stays ACTIVE and the reconciler will transition it.
		o.log.Error("exit price unavailable after close", zap.String("symbol", symbol), zap.Error(err))
		o.notifyEvent(ctx, notify.Event{
			Kind:  notify.KindError,
			Title: "CLOSE RECORDED WITHOUT EXIT PRICE",
			Fields: []notify.Field{
				{Key: "Symbol", Value: symbol},
				{Key: "Error", Value: err.Error()},
			},
		})
		o.removeActive(symbol)

		return
	}

	holdDuration := now.Sub(trade.EntryTime)
	pnlPct := (exitPrice - trade.EntryPrice) / trade.EntryPrice * 100
	pnlAmount := (exitPrice - trade.EntryPrice) * quantity

	exitTime := now
	closeRecord := types.TradeRecord{
		TradeID:             types.NewTradeID(symbol, trade.EntryTime),
		Symbol:              symbol,
		Action:              types.TradeActionSell,
		Status:              types.TradeStatusClosed,
		EntryTime:           trade.EntryTime,
		ExitTime:            &exitTime,
		EntryPrice:          trade.EntryPrice,
		ExitPrice:           exitPrice,
		Quantity:            quantity,
		Leverage:            o.cfg.Leverage,
		PnLPercentage:       roundToPrecision(pnlPct, 2),
		PnLAmount:           roundToPrecision(pnlAmount, 2),
		HoldDurationMinutes: int(holdDuration.Minutes()),
		ExitReason:          types.ExitReasonMaxHoldTime,
		OriginalMessage:     trade.OriginalMessage,
	}

	if err := o.ledger.Append(closeRecord); err != nil {
		o.reportLedgerFailure(ctx, symbol, err)
	}

	// Flip the original entry record. A second close attempt finds no
	// ACTIVE record and becomes a no-op.
	updated, err := o.ledger.MarkClosed(symbol, types.ExitReasonMaxHoldTime, now)
	if err != nil {
		o.reportLedgerFailure(ctx, symbol, err)
	} else if !updated {
		o.log.Info("no active ledger record to close", zap.String("symbol", symbol))
	}

	o.removeActive(symbol)

	o.log.Info("position closed at max hold time",
		zap.String("symbol", symbol),
		zap.Float64("exit_price", exitPrice),
		zap.Float64("pnl_pct", pnlPct),
		zap.Float64("pnl_amount", pnlAmount),
	)

	o.notifyEvent(ctx, notify.Event{
		Kind:  notify.KindTradeClosed,
		Title: "MAX HOLD TIME - POSITION CLOSED",
		Fields: []notify.Field{
			{Key: "Symbol", Value: symbol},
			{Key: "Entry Price", Value: fmt.Sprintf("$%v", trade.EntryPrice)},
			{Key: "Exit Price", Value: fmt.Sprintf("$%v", exitPrice)},
			{Key: "Quantity", Value: fmt.Sprintf("%v", quantity)},
			{Key: "Hold Duration", Value: formatHoldDuration(holdDuration)},
			{Key: "P&L %", Value: fmt.Sprintf("%+.2f%%", pnlPct)},
			{Key: "P&L Amount", Value: fmt.Sprintf("$%+.2f", pnlAmount)},
			{Key: "Reason", Value: "maximum hold time reached"},
		},
	})
}

// formatHoldDuration renders a hold duration as "1h 23m".
func formatHoldDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	return fmt.Sprintf("%dh %dm", hours, minutes)
}
