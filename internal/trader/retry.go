package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/notify"
	"go.uber.org/zap"
)

// retryLoop re-attempts failed entries on a fixed interval until they
// succeed or their retry window expires. Fixed cadence, not exponential
// backoff: the expiry window is long and listings move fast.
func (o *Orchestrator) retryLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(o.cfg.RetryInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.processRetries(ctx)
		}
	}
}

// processRetries runs one retry cycle over the pending set.
func (o *Orchestrator) processRetries(ctx context.Context) {
	now := o.now()

	type pendingRetry struct {
		symbol          string
		attempts        int
		lastAttempt     time.Time
		originalMessage string
	}

	o.mu.Lock()

	pending := make([]pendingRetry, 0, len(o.pendingRetries))
	for symbol, state := range o.pendingRetries {
		pending = append(pending, pendingRetry{
			symbol:          symbol,
			attempts:        state.Attempts,
			lastAttempt:     state.LastAttempt,
			originalMessage: state.OriginalMessage,
		})
	}

	o.mu.Unlock()

	for _, p := range pending {
		if now.Sub(p.lastAttempt) >= o.cfg.MaxRetryWindow() {
			o.log.Info("retry window expired, abandoning symbol",
				zap.String("symbol", p.symbol),
				zap.Int("attempts", p.attempts),
			)

			o.mu.Lock()
			delete(o.pendingRetries, p.symbol)
			o.mu.Unlock()

			o.notifyEvent(ctx, notify.Event{
				Kind:  notify.KindRetryExpired,
				Title: "RETRY EXPIRED",
				Fields: []notify.Field{
					{Key: "Symbol", Value: p.symbol},
					{Key: "Attempts", Value: fmt.Sprintf("%d", p.attempts)},
					{Key: "Window", Value: fmt.Sprintf("%d minutes", o.cfg.MaxRetryMinutes)},
				},
			})

			continue
		}

		attempt := p.attempts + 1
		o.log.Info("retrying entry", zap.String("symbol", p.symbol), zap.Int("attempt", attempt))

		filled, err := o.executor.PlaceEntry(ctx, p.symbol, p.originalMessage)
		if err != nil {
			o.log.Warn("retry failed", zap.String("symbol", p.symbol), zap.Int("attempt", attempt), zap.Error(err))

			o.mu.Lock()
			if state, ok := o.pendingRetries[p.symbol]; ok {
				state.Attempts = attempt
				state.LastAttempt = now
			}
			o.mu.Unlock()

			o.notifyEvent(ctx, notify.Event{
				Kind:  notify.KindRetryResult,
				Title: "RETRY FAILED",
				Fields: []notify.Field{
					{Key: "Symbol", Value: p.symbol},
					{Key: "Attempt", Value: fmt.Sprintf("%d", attempt)},
					{Key: "Error", Value: err.Error()},
				},
			})

			continue
		}

		o.notifyEvent(ctx, notify.Event{
			Kind:  notify.KindRetryResult,
			Title: "RETRY SUCCEEDED",
			Fields: []notify.Field{
				{Key: "Symbol", Value: p.symbol},
				{Key: "Attempt", Value: fmt.Sprintf("%d", attempt)},
			},
		})

		o.registerActive(ctx, filled, p.originalMessage, attempt)
	}
}
