package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"kimchibot/internal/config"
	"kimchibot/internal/exchange"
	"kimchibot/internal/ledger"
	"kimchibot/internal/logger"
	"kimchibot/internal/pricing"
	"kimchibot/internal/store"
)

type PriceSource interface {
	Fetch(ctx context.Context) (pricing.Prices, error)
}

type Status struct {
	Running   bool      `json:"running"`
	Ticks     int64     `json:"ticks"`
	LastTick  time.Time `json:"lastTick"`
	LastError string    `json:"lastError,omitempty"`
}

type Engine struct {
	cfg    *config.Config
	client exchange.Client
	prices PriceSource
	store  *store.Store
	ledger *ledger.Ledger
	log    *logger.Logger

	now func() time.Time

	mu     sync.Mutex
	stop   chan struct{}
	status Status
}

func New(cfg *config.Config, client exchange.Client, prices PriceSource, st *store.Store, lg *ledger.Ledger, log *logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: client,
		prices: prices,
		store:  st,
		ledger: lg,
		log:    log,
		now:    time.Now,
	}
}

// Start крутит цикл до отмены ctx или вызова Stop. Ошибки тика логируются,
// следующий тик идёт по расписанию.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.status.Running {
		e.mu.Unlock()
		return errAlreadyRunning
	}
	e.status.Running = true
	stop := make(chan struct{})
	e.stop = stop
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.status.Running = false
		e.stop = nil
		e.mu.Unlock()
	}()

	e.logEntry().WithField("interval", e.cfg.Engine.Interval.String()).Info("Движок запущен")

	if e.cfg.Engine.ReconcileOnStart {
		if _, err := e.reconcile(ctx); err != nil {
			e.logEntry().WithError(err).Warn("Сверка открытых ордеров не удалась")
		}
	}

	for {
		if err := e.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.logEntry().WithError(err).Error("Тик завершился с ошибкой")
		}

		select {
		case <-ctx.Done():
			e.logEntry().Info("Движок остановлен")
			return nil
		case <-stop:
			e.logEntry().Info("Движок остановлен по запросу")
			return nil
		case <-time.After(e.cfg.Engine.Interval):
		}
	}
}

func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) recordTick(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status.Ticks++
	e.status.LastTick = e.now()
	e.status.LastError = ""
	if err != nil {
		e.status.LastError = err.Error()
	}
}
