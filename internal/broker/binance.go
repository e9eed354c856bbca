package broker

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"
	"github.com/rxtech-lab/listing-trader/internal/types"
	"github.com/rxtech-lab/listing-trader/pkg/errors"
)

// Service interfaces for mocking the Binance futures API

// ListPricesService interface for fetching last trade prices.
type ListPricesService interface {
	Symbol(symbol string) ListPricesService
	Do(ctx context.Context) ([]*futures.SymbolPrice, error)
}

// GetBalanceService interface for fetching futures account balances.
type GetBalanceService interface {
	Do(ctx context.Context) ([]*futures.Balance, error)
}

// ExchangeInfoService interface for fetching exchange filters.
type ExchangeInfoService interface {
	Do(ctx context.Context) (*futures.ExchangeInfo, error)
}

// ChangeLeverageService interface for setting symbol leverage.
type ChangeLeverageService interface {
	Symbol(symbol string) ChangeLeverageService
	Leverage(leverage int) ChangeLeverageService
	Do(ctx context.Context) (*futures.SymbolLeverage, error)
}

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side futures.SideType) CreateOrderService
	Type(orderType futures.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	StopPrice(price string) CreateOrderService
	ClosePosition(closePosition bool) CreateOrderService
	TimeInForce(tif futures.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*futures.CreateOrderResponse, error)
}

// PositionRiskService interface for querying open positions.
type PositionRiskService interface {
	Symbol(symbol string) PositionRiskService
	Do(ctx context.Context) ([]*futures.PositionRisk, error)
}

// CancelAllOpenOrdersService interface for canceling all open orders for a symbol.
type CancelAllOpenOrdersService interface {
	Symbol(symbol string) CancelAllOpenOrdersService
	Do(ctx context.Context) error
}

// GetAccountService interface for fetching account info.
type GetAccountService interface {
	Do(ctx context.Context) (*futures.Account, error)
}

// FuturesClient interface abstracts the Binance futures client for testing.
type FuturesClient interface {
	NewListPricesService() ListPricesService
	NewGetBalanceService() GetBalanceService
	NewExchangeInfoService() ExchangeInfoService
	NewChangeLeverageService() ChangeLeverageService
	NewCreateOrderService() CreateOrderService
	NewGetPositionRiskService() PositionRiskService
	NewCancelAllOpenOrdersService() CancelAllOpenOrdersService
	NewGetAccountService() GetAccountService
}

// realFuturesClient wraps the actual futures.Client.
type realFuturesClient struct {
	client *futures.Client
}

func (r *realFuturesClient) NewListPricesService() ListPricesService {
	return &realListPricesService{service: r.client.NewListPricesService()}
}

func (r *realFuturesClient) NewGetBalanceService() GetBalanceService {
	return &realGetBalanceService{service: r.client.NewGetBalanceService()}
}

func (r *realFuturesClient) NewExchangeInfoService() ExchangeInfoService {
	return &realExchangeInfoService{service: r.client.NewExchangeInfoService()}
}

func (r *realFuturesClient) NewChangeLeverageService() ChangeLeverageService {
	return &realChangeLeverageService{service: r.client.NewChangeLeverageService()}
}

func (r *realFuturesClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realFuturesClient) NewGetPositionRiskService() PositionRiskService {
	return &realPositionRiskService{service: r.client.NewGetPositionRiskService()}
}

func (r *realFuturesClient) NewCancelAllOpenOrdersService() CancelAllOpenOrdersService {
	return &realCancelAllOpenOrdersService{service: r.client.NewCancelAllOpenOrdersService()}
}

func (r *realFuturesClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: r.client.NewGetAccountService()}
}

// Real service wrappers

type realListPricesService struct {
	service *futures.ListPricesService
}

func (s *realListPricesService) Symbol(symbol string) ListPricesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListPricesService) Do(ctx context.Context) ([]*futures.SymbolPrice, error) {
	return s.service.Do(ctx)
}

type realGetBalanceService struct {
	service *futures.GetBalanceService
}

func (s *realGetBalanceService) Do(ctx context.Context) ([]*futures.Balance, error) {
	return s.service.Do(ctx)
}

type realExchangeInfoService struct {
	service *futures.ExchangeInfoService
}

func (s *realExchangeInfoService) Do(ctx context.Context) (*futures.ExchangeInfo, error) {
	return s.service.Do(ctx)
}

type realChangeLeverageService struct {
	service *futures.ChangeLeverageService
}

func (s *realChangeLeverageService) Symbol(symbol string) ChangeLeverageService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realChangeLeverageService) Leverage(leverage int) ChangeLeverageService {
	s.service = s.service.Leverage(leverage)

	return s
}

func (s *realChangeLeverageService) Do(ctx context.Context) (*futures.SymbolLeverage, error) {
	return s.service.Do(ctx)
}

type realCreateOrderService struct {
	service *futures.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side futures.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType futures.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) StopPrice(price string) CreateOrderService {
	s.service = s.service.StopPrice(price)

	return s
}

func (s *realCreateOrderService) ClosePosition(closePosition bool) CreateOrderService {
	s.service = s.service.ClosePosition(closePosition)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif futures.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*futures.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realPositionRiskService struct {
	service *futures.GetPositionRiskService
}

func (s *realPositionRiskService) Symbol(symbol string) PositionRiskService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realPositionRiskService) Do(ctx context.Context) ([]*futures.PositionRisk, error) {
	return s.service.Do(ctx)
}

type realCancelAllOpenOrdersService struct {
	service *futures.CancelAllOpenOrdersService
}

func (s *realCancelAllOpenOrdersService) Symbol(symbol string) CancelAllOpenOrdersService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelAllOpenOrdersService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

type realGetAccountService struct {
	service *futures.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*futures.Account, error) {
	return s.service.Do(ctx)
}

// BinanceFuturesBroker implements Broker against the Binance USDT-M futures
// API. It is stateless - all data is fetched directly from the API.
type BinanceFuturesBroker struct {
	client FuturesClient
}

// NewBinanceFuturesBroker creates a new Binance futures broker.
// If useTestnet is true, connects to the Binance futures testnet.
// If config.BaseURL is set, it takes precedence over useTestnet.
func NewBinanceFuturesBroker(config BinanceBrokerConfig, useTestnet bool) (*BinanceFuturesBroker, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if useTestnet {
		futures.UseTestnet = true
	}

	client := futures.NewClient(config.ApiKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	return &BinanceFuturesBroker{
		client: &realFuturesClient{client: client},
	}, nil
}

// newBinanceFuturesBrokerWithClient creates a broker with a custom client.
// This is used for testing with mock clients.
func newBinanceFuturesBrokerWithClient(client FuturesClient) *BinanceFuturesBroker {
	return &BinanceFuturesBroker{client: client}
}

// GetPrice returns the last trade price for a symbol.
func (b *BinanceFuturesBroker) GetPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeSymbolUnavailable, err, "symbol %s not found or not tradeable", symbol)
	}

	for _, p := range prices {
		if p.Symbol != symbol {
			continue
		}

		price, parseErr := strconv.ParseFloat(p.Price, 64)
		if parseErr != nil {
			return 0, errors.Wrapf(errors.ErrCodePriceFetchFailed, parseErr, "invalid price %q for %s", p.Price, symbol)
		}

		return price, nil
	}

	return 0, errors.Newf(errors.ErrCodeSymbolUnavailable, "no price returned for symbol %s", symbol)
}

// GetAvailableBalance returns the available futures balance for an asset.
func (b *BinanceFuturesBroker) GetAvailableBalance(ctx context.Context, asset string) (float64, error) {
	balances, err := b.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeBalanceUnavailable, "failed to fetch futures balances", err)
	}

	for _, bal := range balances {
		if bal.Asset != asset {
			continue
		}

		amount, parseErr := strconv.ParseFloat(bal.Balance, 64)
		if parseErr != nil {
			return 0, errors.Wrapf(errors.ErrCodeBalanceUnavailable, parseErr, "invalid balance %q for %s", bal.Balance, asset)
		}

		return amount, nil
	}

	return 0, nil
}

// GetLotSizeRule returns the LOT_SIZE step and minimum quantity for a symbol.
func (b *BinanceFuturesBroker) GetLotSizeRule(ctx context.Context, symbol string) (types.LotSizeRule, error) {
	info, err := b.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return types.LotSizeRule{}, errors.Wrap(errors.ErrCodeLotSizeUnavailable, "failed to fetch exchange info", err)
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != symbol {
			continue
		}

		filter := s.LotSizeFilter()
		if filter == nil {
			return types.LotSizeRule{}, errors.Newf(errors.ErrCodeLotSizeUnavailable, "no LOT_SIZE filter for symbol %s", symbol)
		}

		stepSize, stepErr := strconv.ParseFloat(filter.StepSize, 64)
		if stepErr != nil {
			return types.LotSizeRule{}, errors.Wrapf(errors.ErrCodeLotSizeUnavailable, stepErr, "invalid step size %q for %s", filter.StepSize, symbol)
		}

		minQty, minErr := strconv.ParseFloat(filter.MinQuantity, 64)
		if minErr != nil {
			return types.LotSizeRule{}, errors.Wrapf(errors.ErrCodeLotSizeUnavailable, minErr, "invalid min quantity %q for %s", filter.MinQuantity, symbol)
		}

		return types.LotSizeRule{StepSize: stepSize, MinQty: minQty}, nil
	}

	return types.LotSizeRule{}, errors.Newf(errors.ErrCodeLotSizeUnavailable, "symbol %s not present in exchange info", symbol)
}

// SetLeverage sets the leverage multiplier for a symbol.
func (b *BinanceFuturesBroker) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := b.client.NewChangeLeverageService().
		Symbol(symbol).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeLeverageFailed, err, "failed to set %dx leverage for %s", leverage, symbol)
	}

	return nil
}

// PlaceMarketOrder submits a market order.
func (b *BinanceFuturesBroker) PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64) (OrderAck, error) {
	if quantity <= 0 {
		return OrderAck{}, errors.New(errors.ErrCodeInvalidOrder, "order quantity must be greater than zero")
	}

	clientOrderID := uuid.NewString()

	resp, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(mapOrderSide(side)).
		Type(futures.OrderTypeMarket).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return OrderAck{}, errors.Wrapf(errors.ErrCodeOrderFailed, err, "failed to place market %s order for %s", side, symbol)
	}

	return OrderAck{OrderID: resp.OrderID, ClientOrderID: clientOrderID}, nil
}

// PlaceStopMarketOrder submits a stop-market order covering the whole position.
func (b *BinanceFuturesBroker) PlaceStopMarketOrder(ctx context.Context, symbol string, side OrderSide, stopPrice float64) (OrderAck, error) {
	if stopPrice <= 0 {
		return OrderAck{}, errors.New(errors.ErrCodeInvalidOrder, "stop price must be greater than zero")
	}

	clientOrderID := uuid.NewString()

	resp, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(mapOrderSide(side)).
		Type(futures.OrderTypeStopMarket).
		StopPrice(strconv.FormatFloat(stopPrice, 'f', -1, 64)).
		ClosePosition(true).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return OrderAck{}, errors.Wrapf(errors.ErrCodeOrderFailed, err, "failed to place stop-market %s order for %s", side, symbol)
	}

	return OrderAck{OrderID: resp.OrderID, ClientOrderID: clientOrderID}, nil
}

// PlaceLimitOrder submits a GTC limit order.
func (b *BinanceFuturesBroker) PlaceLimitOrder(ctx context.Context, symbol string, side OrderSide, price, quantity float64) (OrderAck, error) {
	if price <= 0 || quantity <= 0 {
		return OrderAck{}, errors.New(errors.ErrCodeInvalidOrder, "limit order price and quantity must be greater than zero")
	}

	clientOrderID := uuid.NewString()

	resp, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(mapOrderSide(side)).
		Type(futures.OrderTypeLimit).
		Price(strconv.FormatFloat(price, 'f', -1, 64)).
		Quantity(strconv.FormatFloat(quantity, 'f', -1, 64)).
		TimeInForce(futures.TimeInForceTypeGTC).
		NewClientOrderID(clientOrderID).
		Do(ctx)
	if err != nil {
		return OrderAck{}, errors.Wrapf(errors.ErrCodeOrderFailed, err, "failed to place limit %s order for %s", side, symbol)
	}

	return OrderAck{OrderID: resp.OrderID, ClientOrderID: clientOrderID}, nil
}

// GetOpenPositionSize returns the signed open position quantity for a symbol.
func (b *BinanceFuturesBroker) GetOpenPositionSize(ctx context.Context, symbol string) (float64, error) {
	positions, err := b.client.NewGetPositionRiskService().Symbol(symbol).Do(ctx)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodePositionQueryFailed, err, "failed to query position for %s", symbol)
	}

	for _, pos := range positions {
		if pos.Symbol != symbol {
			continue
		}

		amount, parseErr := strconv.ParseFloat(pos.PositionAmt, 64)
		if parseErr != nil {
			return 0, errors.Wrapf(errors.ErrCodePositionQueryFailed, parseErr, "invalid position amount %q for %s", pos.PositionAmt, symbol)
		}

		return amount, nil
	}

	return 0, nil
}

// CancelAllOpenOrders cancels every open order for a symbol.
func (b *BinanceFuturesBroker) CancelAllOpenOrders(ctx context.Context, symbol string) error {
	err := b.client.NewCancelAllOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeCancelFailed, err, "failed to cancel open orders for %s", symbol)
	}

	return nil
}

// CheckConnection verifies connectivity and authentication by fetching the
// account info.
func (b *BinanceFuturesBroker) CheckConnection(ctx context.Context) error {
	_, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnknown, "failed to connect to Binance futures API", err)
	}

	return nil
}

// mapOrderSide maps our order side to the Binance side type.
func mapOrderSide(side OrderSide) futures.SideType {
	if side == OrderSideSell {
		return futures.SideTypeSell
	}

	return futures.SideTypeBuy
}

// Ensure BinanceFuturesBroker implements Broker.
var _ Broker = (*BinanceFuturesBroker)(nil)
