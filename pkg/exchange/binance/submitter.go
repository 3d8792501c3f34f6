package binance

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"

	"github.com/c9s/bandbot/pkg/types"
	"github.com/c9s/bandbot/pkg/util"
)

const (
	MainnetAPIURL = "https://api.binance.com"
	TestnetAPIURL = "https://testnet.binance.vision"
)

// Submitter places spot orders through the REST api
type Submitter struct {
	Client *binance.Client

	QuantityPrecision int32
	PricePrecision    int32
}

// NewSubmitter creates a submitter bound to the REST endpoint of one network
func NewSubmitter(key, secret string, testnet bool) *Submitter {
	client := binance.NewClient(key, secret)
	client.BaseURL = MainnetAPIURL
	if testnet {
		client.BaseURL = TestnetAPIURL
	}

	return &Submitter{
		Client:            client,
		QuantityPrecision: 8,
		PricePrecision:    8,
	}
}

func (s *Submitter) SubmitOrder(ctx context.Context, order types.SubmitOrder) (*types.Fill, error) {
	orderType, err := toLocalOrderType(order.Type)
	if err != nil {
		return nil, err
	}

	req := s.Client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(binance.SideType(order.Side)).
		Type(orderType).
		Quantity(util.FormatDecimal(order.Quantity, s.QuantityPrecision)).
		NewOrderRespType(binance.NewOrderRespTypeFULL)

	if len(order.ClientOrderID) > 0 {
		req.NewClientOrderID(order.ClientOrderID)
	}

	if orderType == binance.OrderTypeLimit {
		req.Price(util.FormatDecimal(order.Price, s.PricePrecision)).
			TimeInForce(binance.TimeInForceTypeGTC)
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "create order %s", order)
	}

	log.Infof("order created: %+v", resp)
	return toFill(resp, order)
}

func toFill(resp *binance.CreateOrderResponse, order types.SubmitOrder) (*types.Fill, error) {
	executed, err := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid executed quantity %q", resp.ExecutedQuantity)
	}

	if executed <= 0 {
		return nil, errors.Errorf("order %d %s not executed, status %s", resp.OrderID, resp.ClientOrderID, resp.Status)
	}

	price := order.Price
	if quote, err := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64); err == nil && quote > 0 {
		price = quote / executed
	}

	return &types.Fill{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: resp.ClientOrderID,
		Symbol:        resp.Symbol,
		Side:          types.SideType(resp.Side),
		Price:         price,
		Quantity:      executed,
		Time:          time.UnixMilli(resp.TransactTime),
	}, nil
}

func toLocalOrderType(orderType types.OrderType) (binance.OrderType, error) {
	switch orderType {
	case types.OrderTypeLimit:
		return binance.OrderTypeLimit, nil

	case types.OrderTypeMarket:
		return binance.OrderTypeMarket, nil
	}

	return "", errors.Errorf("order type %s not supported", orderType)
}
