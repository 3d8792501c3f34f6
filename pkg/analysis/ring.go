package analysis

import (
	"github.com/pkg/errors"

	"github.com/c9s/bandbot/pkg/types"
)

// Ring keeps the last N trades and a running average of their prices.
type Ring struct {
	ring    []types.Trade
	sum     float64
	average float64
	index   int
	full    bool
	size    int
}

func NewRing(n int) (*Ring, error) {
	if n < 1 {
		return nil, errors.Errorf("ring capacity must be positive, got %d", n)
	}

	return &Ring{ring: make([]types.Trade, n)}, nil
}

// Push overwrites the oldest slot with the trade in O(1)
func (r *Ring) Push(trade types.Trade) {
	evicted := r.ring[r.index]
	if r.full {
		r.sum -= evicted.Price
	} else {
		r.size++
	}

	r.ring[r.index] = trade
	r.sum += trade.Price

	r.index = (r.index + 1) % len(r.ring)
	if r.index == 0 {
		r.full = true
	}

	r.average = r.sum / float64(r.size)
}

func (r *Ring) Sum() float64 { return r.sum }

func (r *Ring) Average() float64 { return r.average }

func (r *Ring) Size() int { return r.size }

func (r *Ring) Full() bool { return r.full }

func (r *Ring) Cap() int { return len(r.ring) }

// Last returns the most recently pushed trade
func (r *Ring) Last() (types.Trade, bool) {
	if r.size == 0 {
		return types.Trade{}, false
	}

	i := r.index - 1
	if i < 0 {
		i = len(r.ring) - 1
	}
	return r.ring[i], true
}

// Trades returns the resident trades from the oldest to the newest
func (r *Ring) Trades() []types.Trade {
	out := make([]types.Trade, 0, r.size)
	if r.full {
		out = append(out, r.ring[r.index:]...)
	}
	return append(out, r.ring[:r.index]...)
}
