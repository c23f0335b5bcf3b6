package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"kimchibot/cmd/utils"
	"kimchibot/internal/config"
	"kimchibot/internal/engine"
	"kimchibot/internal/exchange/upbit"
	"kimchibot/internal/ledger"
	"kimchibot/internal/pricing"
	"kimchibot/internal/store"

	"github.com/urfave/cli/v2"
)

var app = &cli.App{
	Name:   filepath.Base(os.Args[0]),
	Usage:  "kimchi premium order-task engine for Upbit",
	Flags:  []cli.Flag{utils.ConfigFlag, utils.OnceFlag},
	Action: run,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String(utils.ConfigFlag.Name))
	if err != nil {
		return err
	}
	log := utils.NewLogger(cfg)

	client := upbit.New(upbit.Config{
		BaseURL:   cfg.Exchange.BaseUrl,
		AccessKey: cfg.Exchange.AccessKey,
		SecretKey: cfg.Exchange.SecretKey,
		Timeout:   cfg.Exchange.Timeout,
		RateLimit: cfg.Exchange.RateLimit,
		RateBurst: cfg.Exchange.RateBurst,
	}, log)
	if cfg.Exchange.AccessKey == "" || cfg.Exchange.SecretKey == "" {
		log.Warn("Ключи биржи не заданы, приватные запросы будут отклонены.")
	}

	oracle := pricing.NewOracle(
		pricing.NewRateSource(cfg.Pricing.RateURL, cfg.Pricing.Timeout, log),
		client,
		cfg.Exchange.Market,
	)
	eng := engine.New(
		cfg,
		client,
		oracle,
		store.New(cfg.Storage.OrderState, log),
		ledger.New(cfg.Storage.CashBalance, cfg.Ledger.InitialMoney, log),
		log,
	)

	if c.Bool(utils.OnceFlag.Name) {
		log.Debug("Разовый тик.")
		if err := eng.Tick(c.Context); err != nil {
			log.Error("Разовый тик завершился с ошибкой.")
			return err
		}
		return nil
	}

	log.Info("Бот запущен.")
	err = eng.Start(c.Context)

	status := eng.Status()
	log.WithFields(map[string]interface{}{
		"ticks":      status.Ticks,
		"last_tick":  status.LastTick,
		"last_error": status.LastError,
	}).Info("Бот остановлен.")
	return err
}
