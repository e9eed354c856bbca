package trader

import (
	"context"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/notify"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
)

func (s *OrchestratorTestSuite) seedRetry(symbol string, attempts int, lastAttempt time.Time) {
	s.orch.mu.Lock()
	s.orch.pendingRetries[symbol] = &types.RetryState{
		Attempts:        attempts,
		LastAttempt:     lastAttempt,
		OriginalMessage: "original message",
	}
	s.orch.mu.Unlock()
}

func (s *OrchestratorTestSuite) TestRetryExpiredSymbolIsAbandoned() {
	s.seedRetry("NEWUSDT", 7, s.now.Add(-25*time.Hour))

	s.orch.processRetries(context.Background())

	_, pending := s.pendingRetry("NEWUSDT")
	s.False(pending)
	s.Empty(s.broker.placedOrders())
	s.Empty(s.activeSymbols())
	s.Contains(s.notifier.kinds(), notify.KindRetryExpired)
}

func (s *OrchestratorTestSuite) TestRetryExpiresAtExactWindowBoundary() {
	s.seedRetry("NEWUSDT", 1, s.now.Add(-24*time.Hour))

	s.orch.processRetries(context.Background())

	_, pending := s.pendingRetry("NEWUSDT")
	s.False(pending)
	s.Empty(s.broker.placedOrders())
}

func (s *OrchestratorTestSuite) TestRetrySuccessRegistersTradeWithAttemptCount() {
	s.seedRetry("NEWUSDT", 1, s.now.Add(-time.Minute))

	s.orch.processRetries(context.Background())

	_, pending := s.pendingRetry("NEWUSDT")
	s.False(pending)
	s.Equal([]string{"NEWUSDT"}, s.activeSymbols())

	records, err := s.ledger.Load()
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(2, records[0].RetryAttempt)
	s.Equal("original message", records[0].OriginalMessage)

	s.Contains(s.notifier.kinds(), notify.KindRetryResult)
	s.Contains(s.notifier.kinds(), notify.KindTradeOpened)
}

func (s *OrchestratorTestSuite) TestRetryFailureIncrementsAttempts() {
	s.seedRetry("NEWUSDT", 1, s.now.Add(-time.Minute))
	s.broker.marketOrderFn = func(string, broker.OrderSide, float64) (broker.OrderAck, error) {
		return broker.OrderAck{}, errors.New(errors.ErrCodeOrderFailed, "still not tradeable")
	}

	s.orch.processRetries(context.Background())

	state, pending := s.pendingRetry("NEWUSDT")
	s.Require().True(pending)
	s.Equal(2, state.Attempts)
	s.True(state.LastAttempt.Equal(s.now))
	s.Empty(s.activeSymbols())

	s.Contains(s.notifier.kinds(), notify.KindRetryResult)
}
