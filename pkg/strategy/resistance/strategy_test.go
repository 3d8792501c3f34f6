package resistance

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/bbgo"
	"github.com/c9s/bandbot/pkg/exchange/paper"
	"github.com/c9s/bandbot/pkg/types"
	"github.com/c9s/bandbot/pkg/types/mocks"
)

const baseTime = 1700000000

func quoteAt(sec int64, side types.BookSide, price float64) types.Quote {
	return types.Quote{
		Symbol: "BTCUSDT",
		Price:  price,
		Size:   1,
		Side:   side,
		Time:   time.Unix(baseTime+sec, 0),
	}
}

// three flat buckets at 100 give a band collapsed on 100, then the price
// pokes above it and turns down (short) and dips under it and turns up (long)
var bandScenario = []types.Quote{
	quoteAt(0, types.BookSideAsk, 100.5),
	quoteAt(0, types.BookSideBid, 99.5),
	quoteAt(1, types.BookSideAsk, 100.5),
	quoteAt(1, types.BookSideBid, 99.5),
	quoteAt(2, types.BookSideAsk, 100.5),
	quoteAt(2, types.BookSideBid, 99.5),
	quoteAt(3, types.BookSideAsk, 100.5),
	quoteAt(3, types.BookSideBid, 99.5),
	quoteAt(4, types.BookSideAsk, 100.5), // closes the third bucket and fits

	quoteAt(4, types.BookSideBid, 101.5), // live 101
	quoteAt(4, types.BookSideAsk, 102.5), // live 102, rising
	quoteAt(4, types.BookSideBid, 100.5), // live 101.5, falling: short
	quoteAt(4, types.BookSideAsk, 101.5), // live 101, still falling

	quoteAt(5, types.BookSideAsk, 98.5), // live 99.5
	quoteAt(5, types.BookSideBid, 99.5), // live 99
	quoteAt(5, types.BookSideBid, 100),  // live 99.25, rising: long
}

func newTestStrategy() *Strategy {
	s := &Strategy{
		Window:            3,
		Quantity:          0.01,
		QuantityPrecision: 4,
		PricePrecision:    2,
	}
	_ = s.Defaults()
	return s
}

func newTestSession(feed types.QuoteFeed, submitter types.OrderSubmitter) *bbgo.ExchangeSession {
	return &bbgo.ExchangeSession{
		Name:           "test",
		ExchangeName:   types.ExchangePaper,
		Symbol:         "BTCUSDT",
		QuoteFeed:      feed,
		OrderSubmitter: submitter,
	}
}

func fillOf(order types.SubmitOrder) *types.Fill {
	return &types.Fill{
		OrderID:       "1",
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Price:         order.Price,
		Quantity:      order.Quantity,
	}
}

func TestStrategy_Defaults(t *testing.T) {
	s := &Strategy{Quantity: 0.01}
	require.NoError(t, s.Defaults())
	require.NoError(t, s.Validate())

	assert.Equal(t, 10, s.Window)
	assert.Equal(t, 1.0, s.Deviations)
	assert.Equal(t, 0.0002, s.Sensitivity)
	assert.Equal(t, 30, s.QueueSize)
	assert.Equal(t, 10, s.RingSize)
	assert.Equal(t, types.OrderTypeMarket, s.OrderType)
	assert.Equal(t, analysis.DegenerateSkip, s.DegeneratePolicy)
	assert.Equal(t, 10*time.Second, s.StallTimeout.Duration())
}

func TestStrategy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *Strategy)
		target error
	}{
		{name: "window", modify: func(s *Strategy) { s.Window = 1 }, target: analysis.ErrInvalidWindowSize},
		{name: "deviations", modify: func(s *Strategy) { s.Deviations = -1 }, target: analysis.ErrInvalidDeviation},
		{name: "quantity", modify: func(s *Strategy) { s.Quantity = 0 }},
		{name: "sensitivity", modify: func(s *Strategy) { s.Sensitivity = -0.1 }},
		{name: "policy", modify: func(s *Strategy) { s.DegeneratePolicy = "zero" }},
		{name: "rate limit", modify: func(s *Strategy) { s.SubmitRateLimit = "often" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStrategy()
			tt.modify(s)

			err := s.Validate()
			assert.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestStrategy_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockOrderSubmitter(ctrl)

	var orders []types.SubmitOrder
	submitter.EXPECT().
		SubmitOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, order types.SubmitOrder) (*types.Fill, error) {
			orders = append(orders, order)
			return fillOf(order), nil
		}).
		Times(2)

	s := newTestStrategy()
	err := s.Run(context.Background(), newTestSession(&paper.ReplayFeed{Quotes: bandScenario}, submitter))
	assert.ErrorIs(t, err, ErrChannelClosed)

	lines, ok := s.evaluator.Lines()
	require.True(t, ok)
	assert.InDelta(t, 100.0, lines.Alpha, 1e-9)
	assert.InDelta(t, 0.0, lines.Beta, 1e-9)

	require.Len(t, orders, 2)

	assert.Equal(t, types.SideTypeSell, orders[0].Side)
	assert.Equal(t, "BTCUSDT", orders[0].Symbol)
	assert.Equal(t, types.OrderTypeMarket, orders[0].Type)
	assert.Equal(t, 0.01, orders[0].Quantity)
	assert.Equal(t, 101.5, orders[0].Price)
	assert.NotEmpty(t, orders[0].ClientOrderID)

	// the long closes the short first
	assert.Equal(t, types.SideTypeBuy, orders[1].Side)
	assert.Equal(t, 0.02, orders[1].Quantity)
	assert.Equal(t, 99.25, orders[1].Price)
	assert.NotEqual(t, orders[0].ClientOrderID, orders[1].ClientOrderID)

	assert.True(t, s.evaluator.OpenLong())
	assert.False(t, s.evaluator.OpenShort())

	// the window rotated after the fit, the bucket of second 4 is the first
	// sample of the next window
	buf := s.bucketer.Buffer()
	assert.Equal(t, []uint64{0}, buf.Elapsed())
	assert.Equal(t, []float64{101}, buf.Prices())
	assert.Equal(t, int64(baseTime+4), s.bucketer.Anchor().Unix())
	assert.Equal(t, 3, s.ring.Size())
	assert.True(t, s.ring.Full())
}

func TestStrategy_RunSubmissionFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockOrderSubmitter(ctrl)

	var sides []types.SideType
	gomock.InOrder(
		submitter.EXPECT().
			SubmitOrder(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("insufficient balance")),
		submitter.EXPECT().
			SubmitOrder(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, order types.SubmitOrder) (*types.Fill, error) {
				sides = append(sides, order.Side)
				return fillOf(order), nil
			}).
			Times(2),
	)

	s := newTestStrategy()
	err := s.Run(context.Background(), newTestSession(&paper.ReplayFeed{Quotes: bandScenario}, submitter))
	assert.ErrorIs(t, err, ErrChannelClosed)

	// the failed short is retried on the next falling tick
	assert.Equal(t, []types.SideType{types.SideTypeSell, types.SideTypeBuy}, sides)
	assert.True(t, s.evaluator.OpenLong())
}

func TestStrategy_RunRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockOrderSubmitter(ctrl)
	submitter.EXPECT().
		SubmitOrder(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, order types.SubmitOrder) (*types.Fill, error) {
			return fillOf(order), nil
		}).
		Times(1)

	s := newTestStrategy()
	s.SubmitRateLimit = "1+1/1h"

	err := s.Run(context.Background(), newTestSession(&paper.ReplayFeed{Quotes: bandScenario}, submitter))
	assert.ErrorIs(t, err, ErrChannelClosed)

	assert.True(t, s.evaluator.OpenShort())
	assert.False(t, s.evaluator.OpenLong())
}

func TestStrategy_RunDryRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockOrderSubmitter(ctrl)

	s := newTestStrategy()
	s.DryRun = true

	err := s.Run(context.Background(), newTestSession(&paper.ReplayFeed{Quotes: bandScenario}, submitter))
	assert.ErrorIs(t, err, ErrChannelClosed)

	paperSubmitter, ok := s.submitter.(*paper.Submitter)
	require.True(t, ok)

	fills := paperSubmitter.Fills()
	require.Len(t, fills, 2)
	assert.InDelta(t, 0.01, paperSubmitter.Position(), 1e-12)
}

// blockingFeed sends its quotes and then waits for the shutdown
type blockingFeed struct {
	quotes []types.Quote
	sent   chan struct{}
}

func (f *blockingFeed) Run(ctx context.Context, out chan<- types.Quote) error {
	for _, q := range f.quotes {
		out <- q
	}
	close(f.sent)

	<-ctx.Done()
	return ctx.Err()
}

func TestStrategy_RunShutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockOrderSubmitter(ctrl)

	feed := &blockingFeed{quotes: bandScenario[:6], sent: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	errC := make(chan error, 1)

	s := newTestStrategy()
	go func() {
		errC <- s.Run(ctx, newTestSession(feed, submitter))
	}()

	<-feed.sent
	cancel()

	select {
	case err := <-errC:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("strategy did not stop after cancel")
	}

	// every queued quote was folded in: buckets of second 1 and 2 are pending
	assert.Equal(t, 1, s.bucketer.Buffer().Len())
}

type failingFeed struct{}

func (f *failingFeed) Run(ctx context.Context, out chan<- types.Quote) error {
	return errors.New("handshake failed")
}

func TestStrategy_RunFeedError(t *testing.T) {
	ctrl := gomock.NewController(t)
	submitter := mocks.NewMockOrderSubmitter(ctrl)

	s := newTestStrategy()
	err := s.Run(context.Background(), newTestSession(&failingFeed{}, submitter))
	assert.ErrorContains(t, err, "handshake failed")
	assert.ErrorIs(t, err, ErrChannelClosed)
}
