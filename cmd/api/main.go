package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"kimchibot/cmd/utils"
	"kimchibot/internal/api"
	"kimchibot/internal/config"
	"kimchibot/internal/ledger"
	"kimchibot/internal/store"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var app = &cli.App{
	Name:   filepath.Base(os.Args[0]),
	Usage:  "HTTP API over the kimchibot task and cash documents",
	Flags:  []cli.Flag{utils.ConfigFlag, utils.ListenFlag},
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
	if listen := c.String(utils.ListenFlag.Name); listen != "" {
		cfg.API.Listen = listen
	}
	log := utils.NewLogger(cfg)

	srv := api.NewServer(
		cfg,
		store.New(cfg.Storage.OrderState, log),
		ledger.New(cfg.Storage.CashBalance, cfg.Ledger.InitialMoney, log),
		log,
	)
	httpSrv := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		log.WithComponent("api").WithField("listen", cfg.API.Listen).Info("API запущен.")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.WithComponent("api").Info("API остановлен.")
	return err
}
