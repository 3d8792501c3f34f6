package types

import (
	"fmt"
	"math"
	"time"
)

// Quote is a single price level update of the best bid or best ask
type Quote struct {
	Symbol string
	Price  float64
	Size   float64
	Side   BookSide
	Time   time.Time
}

// Valid returns false for removals (zero size) and unusable prices
func (q Quote) Valid() bool {
	if q.Side != BookSideBid && q.Side != BookSideAsk {
		return false
	}

	if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) || q.Price <= 0 {
		return false
	}

	return q.Size > 0
}

func (q Quote) String() string {
	return fmt.Sprintf("%s %s %f x %f @ %s", q.Symbol, q.Side, q.Price, q.Size, q.Time.Format(time.RFC3339Nano))
}
