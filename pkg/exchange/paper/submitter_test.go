package paper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/bandbot/pkg/types"
)

func TestSubmitter_SubmitOrder(t *testing.T) {
	s := NewSubmitter()
	s.now = func() time.Time { return time.Unix(1700000000, 0) }

	fill, err := s.SubmitOrder(context.Background(), types.SubmitOrder{
		ClientOrderID: "c1",
		Symbol:        "BTCUSDT",
		Side:          types.SideTypeSell,
		Type:          types.OrderTypeMarket,
		Quantity:      0.01,
		Price:         27000,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", fill.OrderID)
	assert.Equal(t, "c1", fill.ClientOrderID)
	assert.Equal(t, 27000.0, fill.Price)
	assert.Equal(t, time.Unix(1700000000, 0), fill.Time)

	_, err = s.SubmitOrder(context.Background(), types.SubmitOrder{Symbol: "BTCUSDT", Side: types.SideTypeBuy, Quantity: 0.03, Price: 26900})
	require.NoError(t, err)

	assert.Len(t, s.Fills(), 2)
	assert.InDelta(t, 0.02, s.Position(), 1e-12)
}

func TestSubmitter_Rejects(t *testing.T) {
	s := NewSubmitter()

	_, err := s.SubmitOrder(context.Background(), types.SubmitOrder{Quantity: 0, Price: 1})
	assert.Error(t, err)

	_, err = s.SubmitOrder(context.Background(), types.SubmitOrder{Quantity: 1, Price: 0})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SubmitOrder(ctx, types.SubmitOrder{Quantity: 1, Price: 1})
	assert.ErrorIs(t, err, context.Canceled)

	assert.Empty(t, s.Fills())
}

func TestReplayFeed_Run(t *testing.T) {
	feed := &ReplayFeed{Quotes: []types.Quote{
		{Symbol: "BTCUSDT", Price: 100, Size: 1, Side: types.BookSideAsk},
		{Symbol: "BTCUSDT", Price: 99, Size: 1, Side: types.BookSideBid},
	}}

	out := make(chan types.Quote, 2)
	require.NoError(t, feed.Run(context.Background(), out))
	assert.Len(t, out, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocked := make(chan types.Quote)
	assert.ErrorIs(t, feed.Run(ctx, blocked), context.Canceled)
}
