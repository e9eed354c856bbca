package trader

import (
	"context"

	"github.com/rxtech-lab/listing-trader/internal/notify"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
)

func (s *OrchestratorTestSuite) statusChangeCount() int {
	count := 0

	for _, kind := range s.notifier.kinds() {
		if kind == notify.KindStatusChange {
			count++
		}
	}

	return count
}

func (s *OrchestratorTestSuite) TestReconcileClosesFlatTrade() {
	s.openTrade("NEWUSDT")

	// The mock reports no open position: the exchange filled the target or
	// the stop on its own.
	s.orch.reconcileOnce(context.Background())

	s.Empty(s.activeSymbols())

	records, err := s.ledger.Load()
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(types.TradeStatusClosed, records[0].Status)
	s.Equal(types.ExitReasonTargetOrStopLoss, records[0].ExitReason)
	s.Require().NotNil(records[0].ExitTime)

	s.Equal(1, s.statusChangeCount())
}

func (s *OrchestratorTestSuite) TestReconcileKeepsOpenPosition() {
	s.openTrade("NEWUSDT")
	s.broker.positionFn = func(string) (float64, error) { return 30, nil }

	s.orch.reconcileOnce(context.Background())

	s.Equal([]string{"NEWUSDT"}, s.activeSymbols())

	records, err := s.ledger.Load()
	s.Require().NoError(err)
	s.Equal(types.TradeStatusActive, records[0].Status)
	s.Zero(s.statusChangeCount())
}

func (s *OrchestratorTestSuite) TestReconcilePositionQueryFailureSkipsCycle() {
	s.openTrade("NEWUSDT")
	s.broker.positionFn = func(string) (float64, error) {
		return 0, errors.New(errors.ErrCodePositionQueryFailed, "timeout")
	}

	s.orch.reconcileOnce(context.Background())

	// Nothing changed; the next cycle sees the symbol again.
	s.Equal([]string{"NEWUSDT"}, s.activeSymbols())

	records, err := s.ledger.Load()
	s.Require().NoError(err)
	s.Equal(types.TradeStatusActive, records[0].Status)
}

func (s *OrchestratorTestSuite) TestReconcileSecondPassIsQuiet() {
	s.openTrade("NEWUSDT")

	s.orch.reconcileOnce(context.Background())
	s.orch.reconcileOnce(context.Background())

	records, err := s.ledger.Load()
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(types.TradeStatusClosed, records[0].Status)

	s.Equal(1, s.statusChangeCount())
}
