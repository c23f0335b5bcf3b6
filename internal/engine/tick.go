package engine

import (
	"context"
	"errors"
	"fmt"

	"kimchibot/internal/config"
	"kimchibot/internal/exchange"
	"kimchibot/internal/models"
	"kimchibot/internal/pricing"
	"kimchibot/internal/store"

	"github.com/sirupsen/logrus"
)

// Tick: одна итерация: команды, цены, задачи, запись документа.
func (e *Engine) Tick(ctx context.Context) (err error) {
	defer func() { e.recordTick(err) }()

	trading, err := config.LoadTrading(e.cfg.Storage.TradingConfig)
	if err != nil {
		return err
	}
	e.store.SetDefaults(store.Thresholds{Buy: trading.BuyThreshold, Sell: trading.SellThreshold})

	if err := e.drainCommands(ctx); err != nil {
		return fmt.Errorf("Не удалось обработать команду: %w", err)
	}

	if !trading.IsTrading {
		e.logEntry().Debug("Торговля выключена, тик пропущен")
		return nil
	}

	prices, err := e.prices.Fetch(ctx)
	if err != nil {
		return err
	}

	e.logAccount(ctx)
	e.logEntry().WithFields(logrus.Fields{
		"ticker":     prices.Ticker,
		"rate":       prices.Rate,
		"premium":    fmt.Sprintf("%.3f%%", prices.Premium),
		"buy_price":  TargetPrice(prices.Rate, trading.BuyThreshold),
		"sell_price": TargetPrice(prices.Rate, trading.SellThreshold),
	}).Info("Цены тика")

	doc, err := e.store.Load()
	if err != nil {
		return err
	}

	evaluated, loopErr := e.evaluateTasks(ctx, doc.Orders, prices)

	tether := prices.Ticker
	if _, err := e.store.MergeTickResult(evaluated, &tether); err != nil {
		return fmt.Errorf("Не удалось сохранить задачи: %w", err)
	}
	return loopErr
}

func (e *Engine) evaluateTasks(ctx context.Context, tasks []models.Task, prices pricing.Prices) ([]models.Task, error) {
	evaluated := make([]models.Task, 0, len(tasks))

	for i := range tasks {
		task := tasks[i]
		if task.IsCompleted() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return evaluated, err
		}

		next, step, err := e.evaluate(ctx, task, prices)
		evaluated = append(evaluated, next)

		if err != nil {
			entry := e.taskEntry(&task).WithError(err).WithField("uuid", task.RestingUUID())
			switch {
			case errors.Is(err, ErrOrderQuery):
				entry.Error("Статус ордера неизвестен, остальные задачи тика пропущены")
				return evaluated, err
			case errors.Is(err, exchange.ErrRejected):
				entry.Warn("Биржа отклонила запрос, задача повторится на следующем тике")
			default:
				entry.Error("Ошибка обработки задачи")
			}
			continue
		}

		if step == stepExternalCancel && e.cfg.Engine.PauseOnExternalCancel == config.PauseGlobal {
			if err := config.SetTrading(e.cfg.Storage.TradingConfig, false); err != nil {
				e.logEntry().WithError(err).Error("Не удалось выключить торговлю")
			}
			e.taskEntry(&next).Warn("Ордер отменён биржей, торговля выключена")
			return evaluated, nil
		}
	}
	return evaluated, nil
}

func (e *Engine) logAccount(ctx context.Context) {
	balances, err := e.client.GetBalances(ctx)
	if err != nil {
		e.logEntry().WithError(err).Warn("Не удалось получить балансы")
		return
	}
	krw := balances["KRW"]
	usdt := balances["USDT"]
	e.logEntry().WithFields(logrus.Fields{
		"krw":         krw.Balance,
		"krw_locked":  krw.Locked,
		"usdt":        usdt.Balance,
		"usdt_locked": usdt.Locked,
	}).Info("Балансы аккаунта")
}
