package cmd

import (
	"context"
	"fmt"
	"io"
	"syscall"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/c9s/bandbot/pkg/cmd/cmdutil"
	"github.com/c9s/bandbot/pkg/exchange"
	"github.com/c9s/bandbot/pkg/types"
)

var (
	askColor = color.New(color.FgRed)
	bidColor = color.New(color.FgGreen)
)

func printQuote(w io.Writer, q types.Quote) {
	c := bidColor
	if q.Side == types.BookSideAsk {
		c = askColor
	}

	_, _ = c.Fprintf(w, "%s | %s %f\n", q.Time.Format(time.RFC3339Nano), q.Side, q.Price)
}

// go run ./cmd/bandbot orderbook --session=binance --symbol=BTCUSDT
var orderbookCmd = &cobra.Command{
	Use:   "orderbook --session=[exchange_name] --symbol=[pair_name]",
	Short: "connect to the best bid / best ask stream of an exchange",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionName, err := cmd.Flags().GetString("session")
		if err != nil {
			return err
		}

		symbol, err := cmd.Flags().GetString("symbol")
		if err != nil {
			return fmt.Errorf("can not get the symbol from flags: %w", err)
		}

		if symbol == "" {
			return fmt.Errorf("--symbol option is required")
		}

		testnet, err := cmd.Flags().GetBool("testnet")
		if err != nil {
			return err
		}

		exchangeName, err := types.ValidExchangeName(sessionName)
		if err != nil {
			return err
		}

		feed, err := exchange.NewQuoteFeed(exchangeName, symbol, testnet)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			cmdutil.WaitForSignal(ctx, syscall.SIGINT, syscall.SIGTERM)
			cancel()
		}()

		quoteC := make(chan types.Quote, 100)
		errC := make(chan error, 1)
		go func() {
			defer close(quoteC)
			errC <- feed.Run(ctx, quoteC)
		}()

		log.Infof("streaming %s quotes from %s...", symbol, exchangeName)
		for q := range quoteC {
			printQuote(cmd.OutOrStdout(), q)
		}

		if err := <-errC; err != nil && ctx.Err() == nil {
			return err
		}

		return nil
	},
}

func init() {
	orderbookCmd.Flags().String("session", "binance", "exchange name")
	orderbookCmd.Flags().String("symbol", "", "the trading pair. e.g, BTCUSDT, BTC-USD...")
	orderbookCmd.Flags().Bool("testnet", false, "connect to the testnet")
	RootCmd.AddCommand(orderbookCmd)
}
