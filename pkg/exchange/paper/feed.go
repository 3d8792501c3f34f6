package paper

import (
	"context"

	"github.com/c9s/bandbot/pkg/types"
)

// ReplayFeed sends a fixed list of quotes and returns. It is handy for
// replays and for tests of the strategy loop.
type ReplayFeed struct {
	Quotes []types.Quote
}

func (f *ReplayFeed) Run(ctx context.Context, out chan<- types.Quote) error {
	for _, q := range f.Quotes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- q:
		}
	}
	return nil
}
