package paper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/bandbot/pkg/types"
)

var log = logrus.WithField("exchange", types.ExchangePaper)

// Submitter fills every order in process at the requested price. It is used
// for dry runs and replays.
type Submitter struct {
	mu      sync.Mutex
	orderID uint64
	fills   []types.Fill

	// now is overridable for tests
	now func() time.Time
}

func NewSubmitter() *Submitter {
	return &Submitter{now: time.Now}
}

func (s *Submitter) SubmitOrder(ctx context.Context, order types.SubmitOrder) (*types.Fill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if order.Quantity <= 0 {
		return nil, errors.Errorf("invalid quantity %f", order.Quantity)
	}

	if order.Price <= 0 {
		return nil, errors.Errorf("paper orders need a reference price, got %f", order.Price)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderID++
	fill := types.Fill{
		OrderID:       strconv.FormatUint(s.orderID, 10),
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Side:          order.Side,
		Price:         order.Price,
		Quantity:      order.Quantity,
		Time:          s.now(),
	}
	s.fills = append(s.fills, fill)

	log.Infof("paper fill: %s", fill)
	return &fill, nil
}

// Fills returns a copy of the fills so far
func (s *Submitter) Fills() []types.Fill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Fill(nil), s.fills...)
}

// Position returns the net base quantity of the fills, positive when long
func (s *Submitter) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pos float64
	for _, f := range s.fills {
		switch f.Side {
		case types.SideTypeBuy:
			pos += f.Quantity
		case types.SideTypeSell:
			pos -= f.Quantity
		}
	}
	return pos
}
