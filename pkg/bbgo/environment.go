package bbgo

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

var LoadedExchangeStrategies = make(map[string]SingleExchangeStrategy)

func RegisterStrategy(key string, s interface{}) {
	switch d := s.(type) {
	case SingleExchangeStrategy:
		LoadedExchangeStrategies[key] = d

	default:
		panic(fmt.Errorf("%T does not implement SingleExchangeStrategy", d))
	}
}

// StrategyIDs returns the registered strategy ids in order
func StrategyIDs() []string {
	ids := make([]string, 0, len(LoadedExchangeStrategies))
	for id := range LoadedExchangeStrategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Environment holds the exchange sessions of a running process
type Environment struct {
	// Notifiability here for environment is for the streaming data notification
	Notifiability

	sessions map[string]*ExchangeSession
}

func NewEnvironment() *Environment {
	return &Environment{
		sessions: make(map[string]*ExchangeSession),
	}
}

func (environ *Environment) Sessions() map[string]*ExchangeSession {
	return environ.sessions
}

func (environ *Environment) Session(name string) (*ExchangeSession, bool) {
	s, ok := environ.sessions[name]
	return s, ok
}

func (environ *Environment) AddExchangeSession(session *ExchangeSession) (*ExchangeSession, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	if _, exists := environ.sessions[session.Name]; exists {
		return nil, errors.Errorf("session %s is already registered", session.Name)
	}

	environ.sessions[session.Name] = session
	return session, nil
}
