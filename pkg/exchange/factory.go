package exchange

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/c9s/bandbot/pkg/bbgo"
	"github.com/c9s/bandbot/pkg/exchange/binance"
	"github.com/c9s/bandbot/pkg/exchange/dydx"
	"github.com/c9s/bandbot/pkg/exchange/paper"
	"github.com/c9s/bandbot/pkg/types"
)

const (
	ExchangeOptionsKeyAPIKey    = "API_KEY"
	ExchangeOptionsKeyAPISecret = "API_SECRET"
)

// ExchangeOptions is a map of exchange options used to initialize an exchange
type ExchangeOptions map[string]string

type SessionOptions struct {
	Symbol  string
	Testnet bool

	// EnvVarPrefix is the prefix of the credential env vars, the exchange
	// name is used when it is empty
	EnvVarPrefix string
}

// NewQuoteFeed creates the public market feed of an exchange
func NewQuoteFeed(n types.ExchangeName, symbol string, testnet bool) (types.QuoteFeed, error) {
	switch n {
	case types.ExchangeBinance:
		feed, err := binance.NewFeed(symbol, testnet)
		if err != nil {
			return nil, err
		}
		return feed, nil

	case types.ExchangeDydx:
		return dydx.NewFeed(symbol, testnet), nil
	}

	return nil, fmt.Errorf("exchange %s does not provide a quote feed", n)
}

// NewOrderSubmitter creates an authenticated order submitter. Exchanges or
// sessions without credentials get a paper submitter.
func NewOrderSubmitter(n types.ExchangeName, options ExchangeOptions, testnet bool) types.OrderSubmitter {
	log := logrus.WithField("exchange", n)

	switch n {
	case types.ExchangeBinance:
		if options != nil {
			return binance.NewSubmitter(options[ExchangeOptionsKeyAPIKey], options[ExchangeOptionsKeyAPISecret], testnet)
		}

		log.Warnf("no api credentials, orders are paper traded")

	case types.ExchangeDydx:
		log.Warnf("order placement is not supported, orders are paper traded")

	case types.ExchangePaper:

	default:
		log.Warnf("unknown exchange, orders are paper traded")
	}

	return paper.NewSubmitter()
}

// NewSession builds an exchange session from the environment
func NewSession(name string, n types.ExchangeName, options SessionOptions) (*bbgo.ExchangeSession, error) {
	feed, err := NewQuoteFeed(n, options.Symbol, options.Testnet)
	if err != nil {
		return nil, err
	}

	varPrefix := options.EnvVarPrefix
	if len(varPrefix) == 0 {
		varPrefix = n.String()
	}

	credentials, err := DefaultEnvVarLoader(varPrefix)
	if err != nil {
		logrus.WithError(err).Debugf("session %s has no credentials", name)
	}

	session := &bbgo.ExchangeSession{
		Name:           name,
		ExchangeName:   n,
		Symbol:         options.Symbol,
		Testnet:        options.Testnet,
		QuoteFeed:      feed,
		OrderSubmitter: NewOrderSubmitter(n, credentials, options.Testnet),
	}

	return session, session.Validate()
}

func DefaultEnvVarLoader(varPrefix string) (ExchangeOptions, error) {
	varPrefix = strings.ToUpper(varPrefix)

	key := os.Getenv(varPrefix + "_API_KEY")
	secret := os.Getenv(varPrefix + "_API_SECRET")
	if len(key) == 0 || len(secret) == 0 {
		return nil, fmt.Errorf("empty key or secret, env var prefix: %s", varPrefix)
	}

	return ExchangeOptions{
		ExchangeOptionsKeyAPIKey:    key,
		ExchangeOptionsKeyAPISecret: secret,
	}, nil
}
