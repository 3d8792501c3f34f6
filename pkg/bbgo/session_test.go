package bbgo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c9s/bandbot/pkg/exchange/paper"
	"github.com/c9s/bandbot/pkg/types"
)

func newTestSession(name string) *ExchangeSession {
	return &ExchangeSession{
		Name:           name,
		ExchangeName:   types.ExchangePaper,
		Symbol:         "BTCUSDT",
		QuoteFeed:      &paper.ReplayFeed{},
		OrderSubmitter: paper.NewSubmitter(),
	}
}

func TestExchangeSession_Validate(t *testing.T) {
	session := newTestSession("paper")
	assert.NoError(t, session.Validate())
	assert.Equal(t, "paper(paper BTCUSDT mainnet)", session.String())

	session.Testnet = true
	assert.Equal(t, "paper(paper BTCUSDT testnet)", session.String())

	session.Symbol = ""
	assert.ErrorContains(t, session.Validate(), "symbol is required")

	session = newTestSession("")
	assert.Error(t, session.Validate())

	session = newTestSession("paper")
	session.QuoteFeed = nil
	assert.ErrorContains(t, session.Validate(), "quote feed")

	session = newTestSession("paper")
	session.OrderSubmitter = nil
	assert.ErrorContains(t, session.Validate(), "order submitter")
}

func TestEnvironment_AddExchangeSession(t *testing.T) {
	environ := NewEnvironment()

	_, err := environ.AddExchangeSession(newTestSession("paper"))
	assert.NoError(t, err)

	_, err = environ.AddExchangeSession(newTestSession("paper"))
	assert.ErrorContains(t, err, "already registered")

	_, err = environ.AddExchangeSession(&ExchangeSession{Name: "broken"})
	assert.Error(t, err)

	session, ok := environ.Session("paper")
	assert.True(t, ok)
	assert.Equal(t, "BTCUSDT", session.Symbol)
	assert.Len(t, environ.Sessions(), 1)
}
