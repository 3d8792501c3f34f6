package bbgo

import (
	"fmt"

	"github.com/c9s/bandbot/pkg/types"
)

// ExchangeSession binds a market feed and an order submitter of one exchange
// to the symbol a strategy trades on.
type ExchangeSession struct {
	// Exchange session name
	Name string

	ExchangeName types.ExchangeName

	Symbol string

	Testnet bool

	// QuoteFeed streams the best bid / best ask updates of Symbol
	QuoteFeed types.QuoteFeed

	// OrderSubmitter executes the orders emitted by the strategies
	OrderSubmitter types.OrderSubmitter
}

func (session *ExchangeSession) String() string {
	network := "mainnet"
	if session.Testnet {
		network = "testnet"
	}

	return fmt.Sprintf("%s(%s %s %s)", session.Name, session.ExchangeName, session.Symbol, network)
}

func (session *ExchangeSession) Validate() error {
	if session.Name == "" {
		return fmt.Errorf("session name is required")
	}

	if session.Symbol == "" {
		return fmt.Errorf("session %s: symbol is required", session.Name)
	}

	if session.QuoteFeed == nil {
		return fmt.Errorf("session %s: quote feed is not configured", session.Name)
	}

	if session.OrderSubmitter == nil {
		return fmt.Errorf("session %s: order submitter is not configured", session.Name)
	}

	return nil
}
