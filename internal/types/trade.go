package types

import (
	"fmt"
	"time"
)

// TradeStatus is the lifecycle state of a ledger record.
type TradeStatus string

const (
	TradeStatusActive TradeStatus = "ACTIVE"
	TradeStatusClosed TradeStatus = "CLOSED"
)

// TradeAction distinguishes entry records from close records in the ledger.
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// ExitReason explains why a trade left the ACTIVE state.
type ExitReason string

const (
	ExitReasonTargetOrStopLoss ExitReason = "TARGET_OR_STOPLOSS_HIT"
	ExitReasonMaxHoldTime      ExitReason = "MAX_HOLD_TIME"
	ExitReasonManual           ExitReason = "manual"
)

// TradeRecord is the unit of the trade ledger. Field names are kept
// compatible with previously persisted ledgers.
type TradeRecord struct {
	TradeID             string      `json:"trade_id"`
	Symbol              string      `json:"symbol"`
	Action              TradeAction `json:"action"`
	Status              TradeStatus `json:"status"`
	EntryTime           time.Time   `json:"entry_time"`
	ExitTime            *time.Time  `json:"exit_time,omitempty"`
	EntryPrice          float64     `json:"entry_price"`
	ExitPrice           float64     `json:"exit_price,omitempty"`
	Quantity            float64     `json:"quantity"`
	StopLossPrice       float64     `json:"stop_loss_price,omitempty"`
	TakeProfitPrice     float64     `json:"take_profit_price,omitempty"`
	Leverage            int         `json:"leverage"`
	TradeAmount         float64     `json:"trade_amount"`
	PnLPercentage       float64     `json:"pnl_percentage,omitempty"`
	PnLAmount           float64     `json:"pnl_amount,omitempty"`
	HoldDurationMinutes int         `json:"hold_duration_minutes,omitempty"`
	ExitReason          ExitReason  `json:"exit_reason,omitempty"`
	OriginalMessage     string      `json:"original_message,omitempty"`
	RetryAttempt        int         `json:"retry_attempt,omitempty"`
	MaxHoldUntil        *time.Time  `json:"max_hold_until,omitempty"`
}

// NewTradeID builds the ledger trade ID from the symbol and creation time.
func NewTradeID(symbol string, createdAt time.Time) string {
	return fmt.Sprintf("%s_%d", symbol, createdAt.Unix())
}

// ActiveTrade mirrors the live subset of a TradeRecord plus the broker order
// identifiers needed to cancel or track the working protective orders.
type ActiveTrade struct {
	Symbol            string
	EntryTime         time.Time
	EntryPrice        float64
	Quantity          float64
	StopLossPrice     float64
	TakeProfitPrice   float64
	OriginalMessage   string
	StopLossOrderID   int64
	TakeProfitOrderID int64
}

// RetryState tracks a symbol whose entry failed and is awaiting re-attempts.
type RetryState struct {
	Attempts        int
	LastAttempt     time.Time
	OriginalMessage string
}

// LotSizeRule is the exchange-imposed quantity step and minimum for a symbol.
type LotSizeRule struct {
	StepSize float64
	MinQty   float64
}

// FilledTrade describes a successfully opened position with its protective
// order levels and identifiers.
type FilledTrade struct {
	Symbol            string
	EntryPrice        float64
	Quantity          float64
	StopLossPrice     float64
	TakeProfitPrice   float64
	StopLossOrderID   int64
	TakeProfitOrderID int64
}
