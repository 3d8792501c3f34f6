package bbgo

import (
	"context"
	"reflect"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// SingleExchangeStrategy represents the single Exchange strategy
type SingleExchangeStrategy interface {
	ID() string
	Run(ctx context.Context, session *ExchangeSession) error
}

// StrategyDefaulter fills the zero fields of a strategy loaded from config
type StrategyDefaulter interface {
	Defaults() error
}

type StrategyValidator interface {
	Validate() error
}

// StrategyShutdown is called once when the process is shutting down
type StrategyShutdown interface {
	Shutdown(ctx context.Context, wg *sync.WaitGroup)
}

type Trader struct {
	environment *Environment

	exchangeStrategies map[string][]SingleExchangeStrategy

	Graceful GracefulShutdown
}

func NewTrader(environ *Environment) *Trader {
	return &Trader{
		environment:        environ,
		exchangeStrategies: make(map[string][]SingleExchangeStrategy),
	}
}

// AttachStrategyOn attaches the single exchange strategy on an exchange session.
func (trader *Trader) AttachStrategyOn(session string, strategies ...SingleExchangeStrategy) error {
	if _, ok := trader.environment.Session(session); !ok {
		return errors.Errorf("session %s is not defined", session)
	}

	for _, s := range strategies {
		if on, ok := trader.attachedOn(s); ok {
			return errors.Errorf("strategy %s instance is already attached on session %s, each session needs its own instance", s.ID(), on)
		}

		if d, ok := s.(StrategyDefaulter); ok {
			if err := d.Defaults(); err != nil {
				return errors.Wrapf(err, "strategy %s defaults error", s.ID())
			}
		}

		if v, ok := s.(StrategyValidator); ok {
			if err := v.Validate(); err != nil {
				return errors.Wrapf(err, "invalid strategy %s config", s.ID())
			}
		}

		if sh, ok := s.(StrategyShutdown); ok {
			trader.Graceful.OnShutdown(sh.Shutdown)
		}
	}

	trader.exchangeStrategies[session] = append(trader.exchangeStrategies[session], strategies...)
	return nil
}

func (trader *Trader) attachedOn(s SingleExchangeStrategy) (string, bool) {
	if !reflect.TypeOf(s).Comparable() {
		return "", false
	}

	for session, attached := range trader.exchangeStrategies {
		for _, a := range attached {
			if reflect.TypeOf(a).Comparable() && a == s {
				return session, true
			}
		}
	}

	return "", false
}

// Run runs every attached strategy until ctx is canceled or one of them
// returns an error, which cancels the others.
func (trader *Trader) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for sessionName, strategies := range trader.exchangeStrategies {
		session, _ := trader.environment.Session(sessionName)
		for _, strategy := range strategies {
			strategy := strategy
			log.Infof("running strategy %s on session %s", strategy.ID(), session)

			g.Go(func() error {
				if err := strategy.Run(ctx, session); err != nil {
					return errors.Wrapf(err, "strategy %s on session %s", strategy.ID(), session.Name)
				}
				return nil
			})
		}
	}

	return g.Wait()
}
