package trader

import (
	"context"
	"sync"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/notify"
	"github.com/rxtech-lab/listing-trader/internal/types"
)

// placedOrder records a single order submitted to the mock broker.
type placedOrder struct {
	kind     string // "market", "stop", "limit"
	symbol   string
	side     broker.OrderSide
	quantity float64
	price    float64
}

// mockBroker implements broker.Broker for testing. Behavior is driven by
// the function fields; unset fields fall back to permissive defaults.
type mockBroker struct {
	mu sync.Mutex

	priceFn        func(symbol string) (float64, error)
	balanceFn      func(asset string) (float64, error)
	lotSizeFn      func(symbol string) (types.LotSizeRule, error)
	leverageFn     func(symbol string, leverage int) error
	marketOrderFn  func(symbol string, side broker.OrderSide, quantity float64) (broker.OrderAck, error)
	stopOrderFn    func(symbol string, side broker.OrderSide, stopPrice float64) (broker.OrderAck, error)
	limitOrderFn   func(symbol string, side broker.OrderSide, price, quantity float64) (broker.OrderAck, error)
	positionFn     func(symbol string) (float64, error)
	cancelOrdersFn func(symbol string) error

	orders       []placedOrder
	cancelCalls  []string
	nextOrderID  int64
	leverageSets map[string]int
}

func newMockBroker() *mockBroker {
	return &mockBroker{
		nextOrderID:  1000,
		leverageSets: make(map[string]int),
	}
}

func (m *mockBroker) nextAck() broker.OrderAck {
	m.nextOrderID++

	return broker.OrderAck{OrderID: m.nextOrderID, ClientOrderID: "test"}
}

func (m *mockBroker) placedOrders() []placedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]placedOrder, len(m.orders))
	copy(out, m.orders)

	return out
}

func (m *mockBroker) GetPrice(_ context.Context, symbol string) (float64, error) {
	if m.priceFn != nil {
		return m.priceFn(symbol)
	}

	return 100, nil
}

func (m *mockBroker) GetAvailableBalance(_ context.Context, asset string) (float64, error) {
	if m.balanceFn != nil {
		return m.balanceFn(asset)
	}

	return 10000, nil
}

func (m *mockBroker) GetLotSizeRule(_ context.Context, symbol string) (types.LotSizeRule, error) {
	if m.lotSizeFn != nil {
		return m.lotSizeFn(symbol)
	}

	return types.LotSizeRule{StepSize: 1, MinQty: 1}, nil
}

func (m *mockBroker) SetLeverage(_ context.Context, symbol string, leverage int) error {
	m.mu.Lock()
	m.leverageSets[symbol] = leverage
	m.mu.Unlock()

	if m.leverageFn != nil {
		return m.leverageFn(symbol, leverage)
	}

	return nil
}

func (m *mockBroker) PlaceMarketOrder(_ context.Context, symbol string, side broker.OrderSide, quantity float64) (broker.OrderAck, error) {
	if m.marketOrderFn != nil {
		return m.marketOrderFn(symbol, side, quantity)
	}

	m.mu.Lock()
	m.orders = append(m.orders, placedOrder{kind: "market", symbol: symbol, side: side, quantity: quantity})
	ack := m.nextAck()
	m.mu.Unlock()

	return ack, nil
}

func (m *mockBroker) PlaceStopMarketOrder(_ context.Context, symbol string, side broker.OrderSide, stopPrice float64) (broker.OrderAck, error) {
	if m.stopOrderFn != nil {
		return m.stopOrderFn(symbol, side, stopPrice)
	}

	m.mu.Lock()
	m.orders = append(m.orders, placedOrder{kind: "stop", symbol: symbol, side: side, price: stopPrice})
	ack := m.nextAck()
	m.mu.Unlock()

	return ack, nil
}

func (m *mockBroker) PlaceLimitOrder(_ context.Context, symbol string, side broker.OrderSide, price, quantity float64) (broker.OrderAck, error) {
	if m.limitOrderFn != nil {
		return m.limitOrderFn(symbol, side, price, quantity)
	}

	m.mu.Lock()
	m.orders = append(m.orders, placedOrder{kind: "limit", symbol: symbol, side: side, price: price, quantity: quantity})
	ack := m.nextAck()
	m.mu.Unlock()

	return ack, nil
}

func (m *mockBroker) GetOpenPositionSize(_ context.Context, symbol string) (float64, error) {
	if m.positionFn != nil {
		return m.positionFn(symbol)
	}

	return 0, nil
}

func (m *mockBroker) CancelAllOpenOrders(_ context.Context, symbol string) error {
	m.mu.Lock()
	m.cancelCalls = append(m.cancelCalls, symbol)
	m.mu.Unlock()

	if m.cancelOrdersFn != nil {
		return m.cancelOrdersFn(symbol)
	}

	return nil
}

func (m *mockBroker) CheckConnection(_ context.Context) error {
	return nil
}

var _ broker.Broker = (*mockBroker)(nil)

// recordingNotifier captures every event for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	return nil
}

func (r *recordingNotifier) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	kinds := make([]notify.Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}
