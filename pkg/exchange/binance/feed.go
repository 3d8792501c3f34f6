package binance

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/bandbot/pkg/metrics"
	"github.com/c9s/bandbot/pkg/types"
	bbbackoff "github.com/c9s/bandbot/pkg/util/backoff"
)

var log = logrus.WithField("exchange", types.ExchangeBinance)

const maxReconnectInterval = 30 * time.Second

type bookTickerServe func(symbol string, handler binance.WsBookTickerHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)

// Feed streams the best bid and best ask of a symbol from the book ticker
// stream. Every event is split into one bid quote and one ask quote.
type Feed struct {
	Symbol string

	serve bookTickerServe
	now   func() time.Time
}

// go-binance picks the websocket endpoint from the package level
// binance.UseTestnet flag, so all the feeds of a process share one network.
var streamNetwork struct {
	sync.Mutex
	selected bool
	testnet  bool
}

func networkName(testnet bool) string {
	if testnet {
		return "testnet"
	}
	return "mainnet"
}

func selectStreamNetwork(testnet bool) error {
	streamNetwork.Lock()
	defer streamNetwork.Unlock()

	if streamNetwork.selected && streamNetwork.testnet != testnet {
		return errors.Errorf("binance streams are already connected to %s, can not mix with %s sessions",
			networkName(streamNetwork.testnet), networkName(testnet))
	}

	streamNetwork.selected = true
	streamNetwork.testnet = testnet
	binance.UseTestnet = testnet
	return nil
}

// NewFeed creates the book ticker feed of symbol. All the binance feeds of a
// process must use the same network.
func NewFeed(symbol string, testnet bool) (*Feed, error) {
	if err := selectStreamNetwork(testnet); err != nil {
		return nil, err
	}

	return &Feed{
		Symbol: symbol,
		serve:  binance.WsBookTickerServe,
		now:    time.Now,
	}, nil
}

func (f *Feed) Run(ctx context.Context, out chan<- types.Quote) error {
	return bbbackoff.RetryForever(ctx, maxReconnectInterval, log, func() error {
		return f.stream(ctx, out)
	})
}

// stream runs one book ticker connection, the handler is never called after
// it returns
func (f *Feed) stream(ctx context.Context, out chan<- types.Quote) error {
	counter := metrics.FeedQuotesCounterMetrics.WithLabelValues(types.ExchangeBinance.String(), f.Symbol)

	errC := make(chan error, 1)
	handler := func(event *binance.WsBookTickerEvent) {
		now := f.now()
		for _, q := range toQuotes(event, now) {
			select {
			case out <- q:
				counter.Inc()
			case <-ctx.Done():
				return
			}
		}
	}

	errHandler := func(err error) {
		select {
		case errC <- err:
		default:
		}
	}

	doneC, stopC, err := f.serve(f.Symbol, handler, errHandler)
	if err != nil {
		return errors.Wrapf(err, "book ticker stream of %s", f.Symbol)
	}

	log.Infof("book ticker stream of %s connected", f.Symbol)

	select {
	case <-ctx.Done():
		close(stopC)
		<-doneC
		return backoff.Permanent(ctx.Err())

	case <-doneC:
		metrics.FeedReconnectsCounterMetrics.WithLabelValues(types.ExchangeBinance.String()).Inc()

		select {
		case err := <-errC:
			return errors.Wrapf(err, "book ticker stream of %s closed", f.Symbol)
		default:
			return errors.Errorf("book ticker stream of %s closed", f.Symbol)
		}
	}
}

func toQuotes(event *binance.WsBookTickerEvent, now time.Time) []types.Quote {
	quotes := make([]types.Quote, 0, 2)
	for _, level := range []struct {
		price, size string
		side        types.BookSide
	}{
		{event.BestBidPrice, event.BestBidQty, types.BookSideBid},
		{event.BestAskPrice, event.BestAskQty, types.BookSideAsk},
	} {
		price, err := strconv.ParseFloat(level.price, 64)
		if err != nil {
			log.WithError(err).Warnf("invalid %s price %q", level.side, level.price)
			continue
		}

		size, err := strconv.ParseFloat(level.size, 64)
		if err != nil {
			log.WithError(err).Warnf("invalid %s size %q", level.side, level.size)
			continue
		}

		q := types.Quote{
			Symbol: event.Symbol,
			Price:  price,
			Size:   size,
			Side:   level.side,
			Time:   now,
		}

		if q.Valid() {
			quotes = append(quotes, q)
		}
	}

	return quotes
}
