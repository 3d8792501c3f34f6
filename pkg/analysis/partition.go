package analysis

import (
	"fmt"
	"math"

	"github.com/c9s/bandbot/pkg/types"
)

// Partition summarizes the trades of one aggregation bucket
type Partition struct {
	Sum       float64 `json:"sum"`
	Average   float64 `json:"average"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Direction float64 `json:"direction"`
	Volume    int     `json:"volume"`
}

// NewPartition folds the trades of a closed bucket, the trades must be in
// arrival order.
func NewPartition(trades []types.Trade) Partition {
	if len(trades) == 0 {
		return Partition{}
	}

	p := Partition{
		High: math.Inf(-1),
		Low:  math.Inf(1),
	}

	for _, trade := range trades {
		p.Sum += trade.Price
		p.High = math.Max(p.High, trade.Price)
		p.Low = math.Min(p.Low, trade.Price)
	}

	p.Volume = len(trades)
	p.Average = p.Sum / float64(p.Volume)

	switch delta := trades[len(trades)-1].Price - trades[0].Price; {
	case delta > 0:
		p.Direction = 1
	case delta < 0:
		p.Direction = -1
	}

	return p
}

func (p Partition) String() string {
	return fmt.Sprintf("Partition{avg: %f, high: %f, low: %f, direction: %+.0f, volume: %d}", p.Average, p.High, p.Low, p.Direction, p.Volume)
}
