package trader

import (
	"context"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/notify"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"go.uber.org/zap"
)

// reconcileLoop detects trades closed by the exchange itself (target or
// stop filled) that no loop in this process closed. This polling scan is
// the sole mechanism for spotting broker-side closes; staleness of up to
// one period is accepted.
func (o *Orchestrator) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(o.cfg.ReconcileInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce scans the ledger for ACTIVE records and closes any whose
// broker position is flat. A position query failure skips that symbol for
// this cycle only.
func (o *Orchestrator) reconcileOnce(ctx context.Context) {
	active, err := o.ledger.ActiveRecords()
	if err != nil {
		o.log.Error("failed to load active ledger records", zap.Error(err))

		return
	}

	for _, record := range active {
		symbol := record.Symbol
		if symbol == "" {
			continue
		}

		size, err := o.broker.GetOpenPositionSize(ctx, symbol)
		if err != nil {
			o.log.Warn("position check failed, will retry next cycle", zap.String("symbol", symbol), zap.Error(err))

			continue
		}

		if size != 0 {
			continue
		}

		now := o.now()

		updated, err := o.ledger.MarkClosed(symbol, types.ExitReasonTargetOrStopLoss, now)
		if err != nil {
			o.reportLedgerFailure(ctx, symbol, err)

			continue
		}

		o.removeActive(symbol)

		if !updated {
			continue
		}

		o.log.Info("exchange-side close detected", zap.String("symbol", symbol))
		o.notifyEvent(ctx, notify.Event{
			Kind:  notify.KindStatusChange,
			Title: "TRADE STATUS UPDATE",
			Fields: []notify.Field{
				{Key: "Symbol", Value: symbol},
				{Key: "Previous Status", Value: string(types.TradeStatusActive)},
				{Key: "New Status", Value: string(types.TradeStatusClosed)},
				{Key: "Reason", Value: string(types.ExitReasonTargetOrStopLoss)},
			},
		})
	}
}
