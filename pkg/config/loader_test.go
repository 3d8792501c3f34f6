package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/bandbot/pkg/analysis"
	"github.com/c9s/bandbot/pkg/types"

	// register the strategies
	"github.com/c9s/bandbot/pkg/strategy/resistance"
)

func TestLoadConfig(t *testing.T) {
	type args struct {
		configFile string
	}

	tests := []struct {
		name    string
		args    args
		wantErr bool
		f       func(t *testing.T, config *Config)
	}{
		{
			name:    "bandbot",
			args:    args{configFile: "testdata/bandbot.yaml"},
			wantErr: false,
			f: func(t *testing.T, config *Config) {
				require.Len(t, config.Sessions, 2)
				assert.Equal(t, []string{"binance", "dydx"}, config.SessionNames())

				session := config.Sessions["binance"]
				assert.Equal(t, "binance", session.Name)
				assert.Equal(t, types.ExchangeBinance, session.Exchange)
				assert.Equal(t, "BTCUSDT", session.Symbol)
				assert.True(t, session.Testnet)
				assert.Equal(t, "BINANCE_TESTNET", session.EnvVarPrefix)

				assert.Equal(t, types.ExchangeDydx, config.Sessions["dydx"].Exchange)

				require.NotNil(t, config.Metrics)
				assert.Equal(t, ":9090", config.Metrics.Addr)

				require.NotNil(t, config.Notifications)
				require.NotNil(t, config.Notifications.Slack)
				assert.Equal(t, "#bandbot", config.Notifications.Slack.DefaultChannel)
				assert.Equal(t, map[string]string{"^BTC": "#bandbot-btc"}, config.Notifications.Slack.SymbolChannels)

				require.Len(t, config.ExchangeStrategies, 2)

				mount := config.ExchangeStrategies[0]
				assert.Equal(t, []string{"binance"}, mount.Mounts)

				s, ok := mount.Strategy.(*resistance.Strategy)
				require.True(t, ok)
				assert.Equal(t, 10, s.Window)
				assert.Equal(t, 1.5, s.Deviations)
				assert.Equal(t, 0.001, s.Quantity)
				assert.Equal(t, int32(5), s.QuantityPrecision)
				assert.Equal(t, 15*time.Second, s.StallTimeout.Duration())
				assert.Equal(t, 5*time.Second, s.SubmitTimeout.Duration())
				assert.Equal(t, analysis.DegenerateCarry, s.DegeneratePolicy)

				mount = config.ExchangeStrategies[1]
				assert.Equal(t, []string{"dydx"}, mount.Mounts)
				s, ok = mount.Strategy.(*resistance.Strategy)
				require.True(t, ok)
				assert.Equal(t, 20, s.Window)
				assert.True(t, s.DryRun)
			},
		},
		{
			name:    "undefined session",
			args:    args{configFile: "testdata/undefined_session.yaml"},
			wantErr: true,
		},
		{
			name:    "unknown exchange",
			args:    args{configFile: "testdata/unknown_exchange.yaml"},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    args{configFile: "testdata/missing.yaml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := Load(tt.args.configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, config)

			if tt.f != nil {
				tt.f(t, config)
			}
		})
	}
}

func TestLoadFromBytes_StrategyErrors(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
sessions:
  binance: {exchange: binance, symbol: BTCUSDT}
exchangeStrategies:
- on: binance
  grid: {}
`))
	assert.ErrorContains(t, err, "not registered")

	_, err = LoadFromBytes([]byte(`
sessions:
  binance: {exchange: binance, symbol: BTCUSDT}
exchangeStrategies:
- resistance: {quantity: 0.01}
`))
	assert.Error(t, err)

	_, err = LoadFromBytes([]byte(`
sessions:
  binance: {exchange: binance, symbol: BTCUSDT}
exchangeStrategies:
- on: binance
  resistance: {window: "ten"}
`))
	assert.ErrorContains(t, err, "json parsing error")
}

func TestLoadFromBytes_MultipleMounts(t *testing.T) {
	config, err := LoadFromBytes([]byte(`
sessions:
  binance: {exchange: binance, symbol: BTCUSDT}
  dydx: {exchange: dydx, symbol: BTC-USD}
exchangeStrategies:
- on: [binance, dydx]
  resistance:
    window: 12
    quantity: 0.01
`))
	require.NoError(t, err)
	require.Len(t, config.ExchangeStrategies, 2)

	assert.Equal(t, []string{"binance"}, config.ExchangeStrategies[0].Mounts)
	assert.Equal(t, []string{"dydx"}, config.ExchangeStrategies[1].Mounts)

	a, ok := config.ExchangeStrategies[0].Strategy.(*resistance.Strategy)
	require.True(t, ok)
	b, ok := config.ExchangeStrategies[1].Strategy.(*resistance.Strategy)
	require.True(t, ok)

	assert.NotSame(t, a, b)
	assert.Equal(t, 12, a.Window)
	assert.Equal(t, 12, b.Window)

	_, err = LoadFromBytes([]byte(`
sessions:
  binance: {exchange: binance, symbol: BTCUSDT}
exchangeStrategies:
- on: [binance, binance]
  resistance: {quantity: 0.01}
`))
	assert.ErrorContains(t, err, "twice")
}

func TestToStash(t *testing.T) {
	s, ok := toStash(Stash{"on": "binance"})
	assert.True(t, ok)
	assert.Equal(t, "binance", s["on"])

	s, ok = toStash(map[string]interface{}{"on": "dydx"})
	assert.True(t, ok)
	assert.Equal(t, "dydx", s["on"])

	_, ok = toStash([]interface{}{"binance"})
	assert.False(t, ok)
}
