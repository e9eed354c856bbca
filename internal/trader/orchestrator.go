// Package trader implements the trade lifecycle orchestrator: sizing,
// entry execution, max-hold monitoring, exchange-side close reconciliation
// and entry retries, backed by a durable trade ledger.
package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/ledger"
	"github.com/rxtech-lab/listing-trader/internal/logger"
	"github.com/rxtech-lab/listing-trader/internal/notify"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"go.uber.org/zap"
)

// Orchestrator owns the in-memory trade state and drives the position
// monitor, the completion reconciler and the retry scheduler. All map
// access goes through a single mutex; the two maps are never shared
// outside this package.
type Orchestrator struct {
	cfg      Config
	broker   broker.Broker
	executor *Executor
	ledger   *ledger.Ledger
	notifier notify.Notifier
	log      *logger.Logger

	mu             sync.Mutex
	activeTrades   map[string]*types.ActiveTrade
	pendingRetries map[string]*types.RetryState

	// now is swapped in tests to drive time-based behavior.
	now func() time.Time
}

// New creates an Orchestrator. The broker is wrapped with the configured
// per-request timeout.
func New(cfg Config, b broker.Broker, l *ledger.Ledger, notifier notify.Notifier, log *logger.Logger) *Orchestrator {
	bounded := broker.WithTimeout(b, time.Duration(cfg.RequestTimeout))
	sizer := NewSizer(bounded, log)

	return &Orchestrator{
		cfg:            cfg,
		broker:         bounded,
		executor:       NewExecutor(bounded, sizer, cfg, log),
		ledger:         l,
		notifier:       notifier,
		log:            log,
		activeTrades:   make(map[string]*types.ActiveTrade),
		pendingRetries: make(map[string]*types.RetryState),
		now:            time.Now,
	}
}

// Run drives the three periodic loops until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(3)

	go func() {
		defer wg.Done()
		o.monitorLoop(ctx)
	}()

	go func() {
		defer wg.Done()
		o.reconcileLoop(ctx)
	}()

	go func() {
		defer wg.Done()
		o.retryLoop(ctx)
	}()

	wg.Wait()
}

// HandleSignal is the entry point for the external signal source. At most
// one position may be ACTIVE across the whole ledger: a signal arriving
// while any trade is ACTIVE is dropped without queueing a retry.
func (o *Orchestrator) HandleSignal(ctx context.Context, symbol, rawMessage string) {
	hasActive, err := o.ledger.HasActiveTrade()
	if err != nil {
		// In-memory state stays authoritative until the next successful
		// ledger read; proceed as if no trade were active.
		o.log.Error("failed to check ledger for active trades", zap.Error(err))
	}

	if hasActive {
		o.log.Info("signal dropped, a trade is already active", zap.String("symbol", symbol))
		o.notifyEvent(ctx, notify.Event{
			Kind:  notify.KindStatusChange,
			Title: "SIGNAL SKIPPED",
			Fields: []notify.Field{
				{Key: "Symbol", Value: symbol},
				{Key: "Reason", Value: "a trade is already active"},
			},
		})

		return
	}

	filled, err := o.executor.PlaceEntry(ctx, symbol, rawMessage)
	if err != nil {
		o.log.Warn("entry failed, adding to retry list", zap.String("symbol", symbol), zap.Error(err))
		o.notifyEvent(ctx, notify.Event{
			Kind:  notify.KindTradeFailed,
			Title: "TRADE FAILED",
			Fields: []notify.Field{
				{Key: "Symbol", Value: symbol},
				{Key: "Error", Value: err.Error()},
				{Key: "Added To Retry", Value: "true"},
			},
		})

		o.mu.Lock()
		o.pendingRetries[symbol] = &types.RetryState{
			Attempts:        1,
			LastAttempt:     o.now(),
			OriginalMessage: rawMessage,
		}
		o.mu.Unlock()

		return
	}

	o.registerActive(ctx, filled, rawMessage, 0)
}

// registerActive records a filled entry in the in-memory map and the
// ledger, and announces it. retryAttempt of zero means a first-shot entry.
func (o *Orchestrator) registerActive(ctx context.Context, filled types.FilledTrade, rawMessage string, retryAttempt int) {
	entryTime := o.now()

	o.mu.Lock()
	o.activeTrades[filled.Symbol] = &types.ActiveTrade{
		Symbol:            filled.Symbol,
		EntryTime:         entryTime,
		EntryPrice:        filled.EntryPrice,
		Quantity:          filled.Quantity,
		StopLossPrice:     filled.StopLossPrice,
		TakeProfitPrice:   filled.TakeProfitPrice,
		OriginalMessage:   rawMessage,
		StopLossOrderID:   filled.StopLossOrderID,
		TakeProfitOrderID: filled.TakeProfitOrderID,
	}
	delete(o.pendingRetries, filled.Symbol)
	o.mu.Unlock()

	maxHoldUntil := entryTime.Add(o.cfg.MaxHold())
	record := types.TradeRecord{
		TradeID:         types.NewTradeID(filled.Symbol, entryTime),
		Symbol:          filled.Symbol,
		Action:          types.TradeActionBuy,
		Status:          types.TradeStatusActive,
		EntryTime:       entryTime,
		EntryPrice:      filled.EntryPrice,
		Quantity:        filled.Quantity,
		StopLossPrice:   filled.StopLossPrice,
		TakeProfitPrice: filled.TakeProfitPrice,
		Leverage:        o.cfg.Leverage,
		TradeAmount:     o.cfg.TradeAmount,
		OriginalMessage: rawMessage,
		RetryAttempt:    retryAttempt,
		MaxHoldUntil:    &maxHoldUntil,
	}

	if err := o.ledger.Append(record); err != nil {
		o.reportLedgerFailure(ctx, filled.Symbol, err)
	}

	o.notifyEvent(ctx, notify.Event{
		Kind:  notify.KindTradeOpened,
		Title: "TRADE EXECUTED",
		Fields: []notify.Field{
			{Key: "Symbol", Value: filled.Symbol},
			{Key: "Entry Price", Value: fmt.Sprintf("$%v", filled.EntryPrice)},
			{Key: "Quantity", Value: fmt.Sprintf("%v", filled.Quantity)},
			{Key: "Stop Loss", Value: fmt.Sprintf("$%v (-%v%%)", filled.StopLossPrice, o.cfg.StopLossPct)},
			{Key: "Take Profit", Value: fmt.Sprintf("$%v (+%v%%)", filled.TakeProfitPrice, o.cfg.ProfitTargetPct)},
			{Key: "Leverage", Value: fmt.Sprintf("%dx", o.cfg.Leverage)},
			{Key: "Max Hold Time", Value: fmt.Sprintf("%v hours", o.cfg.MaxHoldHours)},
		},
	})
}

// removeActive drops a symbol from the in-memory active map.
func (o *Orchestrator) removeActive(symbol string) {
	o.mu.Lock()
	delete(o.activeTrades, symbol)
	o.mu.Unlock()
}

// reportLedgerFailure logs and announces a ledger write failure. The
// process keeps running; in-memory state stays authoritative until the
// next successful write.
func (o *Orchestrator) reportLedgerFailure(ctx context.Context, symbol string, err error) {
	o.log.Error("ledger write failed", zap.String("symbol", symbol), zap.Error(err))
	o.notifyEvent(ctx, notify.Event{
		Kind:  notify.KindError,
		Title: "LEDGER WRITE FAILURE",
		Fields: []notify.Field{
			{Key: "Symbol", Value: symbol},
			{Key: "Error", Value: err.Error()},
		},
	})
}

// notifyEvent fires a notification and logs delivery failures. Never fatal.
func (o *Orchestrator) notifyEvent(ctx context.Context, event notify.Event) {
	if err := o.notifier.Notify(ctx, event); err != nil {
		o.log.Warn("notification delivery failed", zap.String("kind", string(event.Kind)), zap.Error(err))
	}
}
