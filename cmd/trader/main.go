package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rxtech-lab/listing-trader/internal/broker"
	"github.com/rxtech-lab/listing-trader/internal/ledger"
	"github.com/rxtech-lab/listing-trader/internal/logger"
	"github.com/rxtech-lab/listing-trader/internal/notify"
	sig "github.com/rxtech-lab/listing-trader/internal/signal"
	"github.com/rxtech-lab/listing-trader/internal/trader"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// traderAction wires the broker, ledger, notifier and orchestrator, then
// feeds listing announcements read line-by-line from stdin into the
// orchestrator until interrupted.
func traderAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	ledgerPath := cmd.String("ledger")
	useTestnet := cmd.Bool("testnet")

	apiKey := cmd.String("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("BINANCE_API_KEY")
	}

	secretKey := cmd.String("secret-key")
	if secretKey == "" {
		secretKey = os.Getenv("BINANCE_API_SECRET")
	}

	webhookURL := cmd.String("webhook-url")
	if webhookURL == "" {
		webhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck // best-effort flush on shutdown

	config, err := trader.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	brokerConfig := broker.BinanceBrokerConfig{
		ApiKey:    apiKey,
		SecretKey: secretKey,
	}

	exchange, err := broker.NewBinanceFuturesBroker(brokerConfig, useTestnet)
	if err != nil {
		return fmt.Errorf("failed to create broker: %w", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if webhookURL != "" {
		notifier = notify.NewWebhookNotifier(webhookURL)
	} else {
		appLogger.Warn("no webhook URL configured, notifications disabled")
	}

	tradeLedger := ledger.New(ledgerPath)
	orchestrator := trader.New(config, exchange, tradeLedger, notifier, appLogger)

	checkCtx, cancelCheck := context.WithTimeout(ctx, time.Duration(config.RequestTimeout))
	defer cancelCheck()

	if err := exchange.CheckConnection(checkCtx); err != nil {
		return fmt.Errorf("broker connection check failed: %w", err)
	}

	appLogger.Info("broker connection verified",
		zap.Bool("testnet", useTestnet),
		zap.String("ledger", ledgerPath),
		zap.Float64("trade_amount", config.TradeAmount),
		zap.Int("leverage", config.Leverage),
	)

	if err := notifier.Notify(ctx, notify.Event{
		Kind:  notify.KindStartup,
		Title: "BOT STARTED",
		Fields: []notify.Field{
			{Key: "Time", Value: time.Now().Format("2006-01-02 15:04:05")},
			{Key: "Status", Value: "listening for listing announcements"},
		},
	}); err != nil {
		appLogger.Warn("startup notification failed", zap.Error(err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go orchestrator.Run(runCtx)

	// Announcement lines arrive on stdin, one message per line; the chat
	// transport delivering them is outside this process.
	scanner := bufio.NewScanner(os.Stdin)
	lines := make(chan string)

	go func() {
		defer close(lines)

		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// Stdin closed; keep the loops running until interrupted.
				<-runCtx.Done()

				return nil
			}

			symbol, found := sig.ExtractSymbol(line)
			if !found {
				appLogger.Info("message carried no listing signal", zap.String("message", line))

				continue
			}

			appLogger.Info("listing signal detected", zap.String("symbol", symbol))
			orchestrator.HandleSignal(runCtx, symbol, line)
		}
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "trader",
		Usage: "Trade new futures listings from announcement signals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML trading config file",
			},
			&cli.StringFlag{
				Name:    "ledger",
				Aliases: []string{"l"},
				Usage:   "Path to the JSON trade ledger file",
				Value:   "trades.json",
			},
			&cli.StringFlag{
				Name:  "api-key",
				Usage: "Binance API key (defaults to BINANCE_API_KEY)",
			},
			&cli.StringFlag{
				Name:  "secret-key",
				Usage: "Binance API secret (defaults to BINANCE_API_SECRET)",
			},
			&cli.StringFlag{
				Name:  "webhook-url",
				Usage: "Notification webhook URL (defaults to SLACK_WEBHOOK_URL)",
			},
			&cli.BoolFlag{
				Name:  "testnet",
				Usage: "Use the Binance futures testnet",
			},
		},
		Action: traderAction,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
