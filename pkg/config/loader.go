package config

import (
	"encoding/json"
	"os"
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/c9s/bandbot/pkg/bbgo"
	"github.com/c9s/bandbot/pkg/types"
)

type Session struct {
	Name     string             `yaml:"-"`
	Exchange types.ExchangeName `yaml:"exchange"`
	Symbol   string             `yaml:"symbol"`
	Testnet  bool               `yaml:"testnet"`

	// EnvVarPrefix selects the {PREFIX}_API_KEY and {PREFIX}_API_SECRET env vars
	EnvVarPrefix string `yaml:"envVarPrefix"`
}

type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type SlackNotification struct {
	DefaultChannel string `yaml:"defaultChannel"`
	ErrorChannel   string `yaml:"errorChannel"`

	// SymbolChannels routes the messages of the matching symbols, pattern to channel
	SymbolChannels map[string]string `yaml:"symbolChannels"`
}

type Notifications struct {
	Slack *SlackNotification `yaml:"slack,omitempty"`
}

// SingleExchangeStrategyConfig is one strategy instance. An entry mounted on
// several sessions is expanded into one instance per session.
type SingleExchangeStrategyConfig struct {
	Mounts   []string
	Strategy bbgo.SingleExchangeStrategy
}

type Config struct {
	Sessions map[string]*Session `yaml:"sessions"`

	Metrics *Metrics `yaml:"metrics,omitempty"`

	Notifications *Notifications `yaml:"notifications,omitempty"`

	ExchangeStrategies []SingleExchangeStrategyConfig `yaml:"-"`
}

// SessionNames returns the configured session names in order
func (c *Config) SessionNames() []string {
	var names []string
	for name := range c.Sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Stash map[string]interface{}

func Load(configFile string) (*Config, error) {
	content, err := os.ReadFile(configFile)
	if err != nil {
		return nil, err
	}

	config, err := LoadFromBytes(content)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", configFile)
	}

	return config, nil
}

func LoadFromBytes(content []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(content, &config); err != nil {
		return nil, err
	}

	for name, session := range config.Sessions {
		if session == nil {
			return nil, errors.Errorf("session %s is empty", name)
		}
		session.Name = name
	}

	stash := make(Stash)
	if err := yaml.Unmarshal(content, &stash); err != nil {
		return nil, err
	}

	strategies, err := loadExchangeStrategies(stash)
	if err != nil {
		return nil, err
	}

	for _, mount := range strategies {
		for _, on := range mount.Mounts {
			if _, ok := config.Sessions[on]; !ok {
				return nil, errors.Errorf("strategy %s is mounted on undefined session %s", mount.Strategy.ID(), on)
			}
		}
	}

	config.ExchangeStrategies = strategies
	return &config, nil
}

func loadExchangeStrategies(stash Stash) (strategies []SingleExchangeStrategyConfig, err error) {
	exchangeStrategiesConf, ok := stash["exchangeStrategies"]
	if !ok {
		return strategies, nil
	}

	configList, ok := exchangeStrategiesConf.([]interface{})
	if !ok {
		return nil, errors.New("expecting list in exchangeStrategies")
	}

	for _, entry := range configList {
		configStash, ok := toStash(entry)
		if !ok {
			return nil, errors.Errorf("strategy config should be a map, given: %T %+v", entry, entry)
		}

		var mounts StringSlice
		if val, ok := configStash["on"]; ok {
			if err := mounts.decode(val); err != nil {
				return nil, errors.Wrap(err, "invalid strategy mount")
			}
		}

		if len(mounts) == 0 {
			return nil, errors.New("strategy config requires the session mount \"on\"")
		}

		var ids []string
		for id := range configStash {
			if id != "on" {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)

		if len(ids) == 0 {
			return nil, errors.Errorf("no strategy is defined in entry %+v", configStash)
		}

		for _, id := range ids {
			// look up the real struct type
			st, ok := bbgo.LoadedExchangeStrategies[id]
			if !ok {
				return nil, errors.Errorf("strategy %s is not registered", id)
			}

			// every mount runs its own instance, strategies keep per-session state
			seen := make(map[string]struct{}, len(mounts))
			for _, mount := range mounts {
				if _, dup := seen[mount]; dup {
					return nil, errors.Errorf("strategy %s is mounted on session %s twice", id, mount)
				}
				seen[mount] = struct{}{}

				val, err := reUnmarshal(configStash[id], st)
				if err != nil {
					return nil, err
				}

				strategies = append(strategies, SingleExchangeStrategyConfig{
					Mounts:   []string{mount},
					Strategy: val.(bbgo.SingleExchangeStrategy),
				})
			}
		}
	}

	return strategies, nil
}

// toStash accepts both the nested Stash maps produced by yaml.v3 and plain maps
func toStash(entry interface{}) (Stash, bool) {
	switch m := entry.(type) {
	case Stash:
		return m, true
	case map[string]interface{}:
		return Stash(m), true
	}

	return nil, false
}

func reUnmarshal(conf interface{}, tpe interface{}) (interface{}, error) {
	// get the type "*Strategy"
	rt := reflect.TypeOf(tpe)

	// allocate new object from the given type
	val := reflect.New(rt)

	// now we have &(*Strategy) -> **Strategy
	valRef := val.Interface()

	plain, err := json.Marshal(conf)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(plain, valRef); err != nil {
		return nil, errors.Wrapf(err, "json parsing error, given payload: %s", plain)
	}

	return val.Elem().Interface(), nil
}
