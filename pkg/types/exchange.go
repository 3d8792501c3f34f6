package types

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type ExchangeName string

func (n *ExchangeName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	name, err := ValidExchangeName(s)
	if err != nil {
		return err
	}

	*n = name
	return nil
}

func (n *ExchangeName) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	name, err := ValidExchangeName(s)
	if err != nil {
		return err
	}

	*n = name
	return nil
}

func (n ExchangeName) String() string {
	return string(n)
}

const (
	ExchangeBinance = ExchangeName("binance")
	ExchangeDydx    = ExchangeName("dydx")
	ExchangePaper   = ExchangeName("paper")
)

var SupportedExchanges = []ExchangeName{ExchangeBinance, ExchangeDydx}

func ValidExchangeName(a string) (ExchangeName, error) {
	switch strings.ToLower(a) {
	case "binance", "bn":
		return ExchangeBinance, nil
	case "dydx":
		return ExchangeDydx, nil
	case "paper":
		return ExchangePaper, nil
	}

	return "", fmt.Errorf("unsupported exchange: %v", a)
}

// QuoteFeed streams best bid / best ask updates. Run blocks until the
// context is canceled or the stream fails, it never closes out.
type QuoteFeed interface {
	Run(ctx context.Context, out chan<- Quote) error
}

//go:generate mockgen -destination=mocks/mock_exchange.go -package=mocks . OrderSubmitter

// OrderSubmitter places an order and waits for its execution
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, order SubmitOrder) (*Fill, error)
}
