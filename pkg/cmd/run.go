package cmd

import (
	"context"
	"net/http"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/c9s/bandbot/pkg/bbgo"
	"github.com/c9s/bandbot/pkg/cmd/cmdutil"
	"github.com/c9s/bandbot/pkg/config"
	"github.com/c9s/bandbot/pkg/exchange"
	"github.com/c9s/bandbot/pkg/notifier/slacknotifier"
	"github.com/c9s/bandbot/pkg/slack/slacklog"
	"github.com/c9s/bandbot/pkg/strategy/resistance"
)

const shutdownTimeout = 30 * time.Second

func init() {
	RunCmd.Flags().String("session", "", "only run the strategies mounted on this session")
	RunCmd.Flags().Bool("dry-run", false, "paper trade every strategy")
	RootCmd.AddCommand(RunCmd)
}

type runOptions struct {
	Session     string
	DryRun      bool
	MetricsAddr string
	SlackToken  string
}

// newEnvironment creates the exchange sessions of the config. A non-empty
// filter keeps only the session with that name.
func newEnvironment(userConfig *config.Config, filter string) (*bbgo.Environment, error) {
	environ := bbgo.NewEnvironment()

	for _, name := range userConfig.SessionNames() {
		if filter != "" && name != filter {
			continue
		}

		sessionConfig := userConfig.Sessions[name]
		session, err := exchange.NewSession(name, sessionConfig.Exchange, exchange.SessionOptions{
			Symbol:       sessionConfig.Symbol,
			Testnet:      sessionConfig.Testnet,
			EnvVarPrefix: sessionConfig.EnvVarPrefix,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "session %s", name)
		}

		if _, err := environ.AddExchangeSession(session); err != nil {
			return nil, err
		}

		log.Infof("session %s configured", session)
	}

	if len(environ.Sessions()) == 0 {
		return nil, errors.Errorf("no exchange session is configured")
	}

	return environ, nil
}

func attachStrategies(trader *bbgo.Trader, environ *bbgo.Environment, userConfig *config.Config, dryRun bool) (int, error) {
	attached := 0
	for _, entry := range userConfig.ExchangeStrategies {
		if s, ok := entry.Strategy.(*resistance.Strategy); ok && dryRun {
			s.DryRun = true
		}

		for _, mount := range entry.Mounts {
			if _, ok := environ.Session(mount); !ok {
				log.Infof("skipping strategy %s on filtered session %s", entry.Strategy.ID(), mount)
				continue
			}

			log.Infof("attaching strategy %T on %s...", entry.Strategy, mount)
			if err := trader.AttachStrategyOn(mount, entry.Strategy); err != nil {
				return attached, err
			}
			attached++
		}
	}

	if attached == 0 {
		return 0, errors.New("no strategy is attached")
	}

	return attached, nil
}

func metricsAddr(userConfig *config.Config, flagAddr string) string {
	if flagAddr != "" {
		return flagAddr
	}

	if userConfig.Metrics != nil && userConfig.Metrics.Enabled {
		if userConfig.Metrics.Addr != "" {
			return userConfig.Metrics.Addr
		}
		return ":9090"
	}

	return ""
}

func setupNotification(userConfig *config.Config, token string) (closer func(), err error) {
	closer = func() {}
	if len(token) == 0 || userConfig.Notifications == nil || userConfig.Notifications.Slack == nil {
		return closer, nil
	}

	conf := userConfig.Notifications.Slack
	if err := bbgo.Notification.AddSymbolRoutes(conf.SymbolChannels); err != nil {
		return closer, err
	}

	if conf.ErrorChannel != "" {
		log.Infof("found slack configured, setting up log hook...")
		log.AddHook(slacklog.NewLogHook(token, conf.ErrorChannel))
	}

	log.Infof("adding slack notifier with default channel: %s", conf.DefaultChannel)
	notifier := slacknotifier.New(slack.New(token), conf.DefaultChannel)
	bbgo.Notification.AddNotifier(notifier)
	return notifier.Close, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("serving metrics on %s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Errorf("metrics server error")
		}
	}()

	return server
}

func runConfig(basectx context.Context, userConfig *config.Config, options runOptions) (err error) {
	environ, err := newEnvironment(userConfig, options.Session)
	if err != nil {
		return err
	}

	closeNotifier, err := setupNotification(userConfig, options.SlackToken)
	if err != nil {
		return err
	}
	defer closeNotifier()

	trader := bbgo.NewTrader(environ)
	if _, err := attachStrategies(trader, environ, userConfig, options.DryRun); err != nil {
		return err
	}

	var server *http.Server
	if addr := metricsAddr(userConfig, options.MetricsAddr); addr != "" {
		server = serveMetrics(addr)
	}

	ctx, cancelTrading := context.WithCancel(basectx)
	defer cancelTrading()

	go func() {
		if sig := cmdutil.WaitForSignal(ctx, syscall.SIGINT, syscall.SIGTERM); sig != nil {
			log.Infof("received %v, stopping the strategies...", sig)
		}
		cancelTrading()
	}()

	err = trader.Run(ctx)
	cancelTrading()

	shutdownCtx, cancelShutdown := context.WithTimeout(basectx, shutdownTimeout)
	defer cancelShutdown()

	trader.Graceful.Shutdown(shutdownCtx, shutdownTimeout)

	if server != nil {
		err = multierr.Append(err, server.Shutdown(shutdownCtx))
	}

	return err
}

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "run strategies from config file",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := viper.GetString("config")
		if len(configFile) == 0 {
			return errors.New("--config option is required")
		}

		userConfig, err := config.Load(configFile)
		if err != nil {
			return err
		}

		session, err := cmd.Flags().GetString("session")
		if err != nil {
			return err
		}

		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		return runConfig(context.Background(), userConfig, runOptions{
			Session:     session,
			DryRun:      dryRun,
			MetricsAddr: viper.GetString("metrics-addr"),
			SlackToken:  viper.GetString("slack-token"),
		})
	},
}
