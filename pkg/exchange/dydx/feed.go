package dydx

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"

	"github.com/c9s/bandbot/pkg/metrics"
	"github.com/c9s/bandbot/pkg/types"
	"github.com/c9s/bandbot/pkg/websocket"
)

const (
	MainnetURL = "wss://api.dydx.exchange/v3/ws"
	TestnetURL = "wss://api.stage.dydx.exchange/v3/ws"

	OrderBookChannel = "v3_orderbook"
)

var log = logrus.WithField("exchange", types.ExchangeDydx)

type subscribeMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	ID      string `json:"id"`
}

// Feed streams the orderbook level updates of one dYdX market
type Feed struct {
	Market string

	client *websocket.Client
	now    func() time.Time
}

func NewFeed(market string, testnet bool, options ...websocket.Option) *Feed {
	url := MainnetURL
	if testnet {
		url = TestnetURL
	}

	return NewFeedWithURL(url, market, options...)
}

func NewFeedWithURL(url, market string, options ...websocket.Option) *Feed {
	options = append([]websocket.Option{websocket.WithLogger(log)}, options...)

	f := &Feed{
		Market: market,
		client: websocket.New(url, nil, options...),
		now:    time.Now,
	}

	f.client.OnConnect(func(c *websocket.Client) error {
		log.Infof("subscribing %s %s", OrderBookChannel, f.Market)
		return c.WriteJSON(subscribeMessage{
			Type:    "subscribe",
			Channel: OrderBookChannel,
			ID:      f.Market,
		})
	})

	f.client.OnDisconnect(func(c *websocket.Client, err error) {
		metrics.FeedReconnectsCounterMetrics.WithLabelValues(types.ExchangeDydx.String()).Inc()
	})

	return f
}

func (f *Feed) Run(ctx context.Context, out chan<- types.Quote) error {
	var parser fastjson.Parser
	counter := metrics.FeedQuotesCounterMetrics.WithLabelValues(types.ExchangeDydx.String(), f.Market)

	return f.client.Run(ctx, func(message []byte) error {
		quotes, err := parseOrderBookMessage(&parser, message, f.Market, f.now())
		if err != nil {
			log.WithError(err).Warnf("can not parse orderbook message")
			return nil
		}

		for _, q := range quotes {
			select {
			case out <- q:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		counter.Add(float64(len(quotes)))
		return nil
	})
}
