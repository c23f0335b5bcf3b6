package engine

import (
	"context"
	"fmt"

	"kimchibot/internal/exchange"
	"kimchibot/internal/models"
	"kimchibot/internal/pricing"

	"github.com/sirupsen/logrus"
)

type step int

const (
	stepNone step = iota
	stepPlaced
	stepRepriced
	stepFilled
	stepExternalCancel
)

// evaluate применяет один переход к копии задачи. При ошибке возвращается исходная задача.
func (e *Engine) evaluate(ctx context.Context, task models.Task, prices pricing.Prices) (models.Task, step, error) {
	switch task.Status {
	case models.TaskStatusBuyPending:
		return e.placeLeg(ctx, task, models.OrderSideBid, prices)
	case models.TaskStatusSellPending:
		return e.placeLeg(ctx, task, models.OrderSideAsk, prices)
	case models.TaskStatusBuyOrdered, models.TaskStatusSellOrdered:
		return e.checkLeg(ctx, task, prices)
	default:
		return task, stepNone, fmt.Errorf("Неизвестный статус задачи: %s", task.Status)
	}
}

func (e *Engine) target(task *models.Task, side models.OrderSide, prices pricing.Prices) (price, volume float64) {
	if side == models.OrderSideBid {
		price = TargetPrice(prices.Rate, task.BuyThreshold)
		return price, BuyVolume(task, price)
	}
	price = TargetPrice(prices.Rate, task.SellThreshold)
	return price, SellVolume(task, price)
}

func (e *Engine) placeLeg(ctx context.Context, task models.Task, side models.OrderSide, prices pricing.Prices) (models.Task, step, error) {
	price, volume := e.target(&task, side, prices)
	if price <= 0 || volume <= 0 {
		return task, stepNone, fmt.Errorf("Нулевая цена или объём: price=%v volume=%v", price, volume)
	}

	order, err := e.client.PlaceOrder(ctx, exchange.PlaceRequest{
		Market: e.cfg.Exchange.Market,
		Side:   side,
		Price:  price,
		Volume: volume,
	})
	if err != nil {
		return task, stepNone, err
	}
	if order.UUID == "" {
		return task, stepNone, fmt.Errorf("%w: биржа не вернула uuid", exchange.ErrRejected)
	}

	if side == models.OrderSideBid {
		task.Status = models.TaskStatusBuyOrdered
		task.BuyUUID = models.String(order.UUID)
	} else {
		task.Status = models.TaskStatusSellOrdered
		task.SellUUID = models.String(order.UUID)
	}

	e.taskEntry(&task).WithFields(logrus.Fields{
		"side":   side,
		"uuid":   order.UUID,
		"price":  price,
		"volume": volume,
	}).Info("Ордер выставлен")
	return task, stepPlaced, nil
}

func (e *Engine) checkLeg(ctx context.Context, task models.Task, prices pricing.Prices) (models.Task, step, error) {
	uuid := task.RestingUUID()
	if uuid == "" {
		return task, stepNone, fmt.Errorf("Задача в статусе %s без uuid", task.Status)
	}

	order, err := e.client.GetOrder(ctx, uuid)
	if err != nil {
		return task, stepNone, fmt.Errorf("%w: %s: %v", ErrOrderQuery, uuid, err)
	}

	side := models.OrderSideBid
	if task.Status == models.TaskStatusSellOrdered {
		side = models.OrderSideAsk
	}

	switch {
	case order.State.IsResting():
		return e.repriceIfDrifted(ctx, task, side, order, prices)
	case order.State == models.OrderStateDone:
		return e.recordFill(task, side, order)
	case order.State == models.OrderStateCancel:
		return e.onExternalCancel(task, side, order)
	default:
		e.taskEntry(&task).WithFields(logrus.Fields{
			"uuid":  uuid,
			"state": order.State,
		}).Warn("Неизвестное состояние ордера")
		return task, stepNone, nil
	}
}

func (e *Engine) repriceIfDrifted(ctx context.Context, task models.Task, side models.OrderSide, order models.Order, prices pricing.Prices) (models.Task, step, error) {
	price, volume := e.target(&task, side, prices)

	drifted := !sameAmount(order.Price, price)
	if side == models.OrderSideBid && !sameAmount(order.Volume, volume) {
		drifted = true
	}
	if !drifted {
		return task, stepNone, nil
	}

	cancelled, err := e.client.CancelOrder(ctx, order.UUID)
	if err != nil {
		return task, stepNone, err
	}
	executed := order.ExecutedVolume
	if cancelled.ExecutedVolume > executed {
		executed = cancelled.ExecutedVolume
	}

	entry := e.taskEntry(&task).WithFields(logrus.Fields{
		"side":            side,
		"uuid":            order.UUID,
		"order_price":     order.Price,
		"target_price":    price,
		"order_volume":    order.Volume,
		"target_vol":      volume,
		"executed_volume": executed,
	})
	if executed > 0 {
		entry.Warn("Отменён частично исполненный ордер, исполненная часть не учтена")
	}
	entry.Info("Цена разошлась, ордер отменён и будет выставлен заново")

	clearResting(&task)
	return task, stepRepriced, nil
}

func (e *Engine) recordFill(task models.Task, side models.OrderSide, order models.Order) (models.Task, step, error) {
	price := order.Price
	volume := order.ExecutedVolume
	if volume <= 0 {
		volume = order.Volume
	}
	now := e.now()

	if side == models.OrderSideBid {
		if _, err := e.ledger.RecordBuy(order.UUID, price, volume, now); err != nil {
			return task, stepNone, err
		}
		task.BuyPrice = models.Float(price)
		task.FilledVolume = models.Float(volume)
		task.BuyUUID = nil
		task.Status = models.TaskStatusSellPending
	} else {
		costPrice := 0.0
		if task.Type == models.TaskTypeBuy {
			costPrice = models.Value(task.BuyPrice)
		}
		if _, err := e.ledger.RecordSell(order.UUID, price, volume, costPrice, now); err != nil {
			return task, stepNone, err
		}
		task.SellPrice = models.Float(price)
		task.SellUUID = nil
		task.Status = models.TaskStatusCompleted
		task.CompletedAt = &now
	}

	e.taskEntry(&task).WithFields(logrus.Fields{
		"side":   side,
		"uuid":   order.UUID,
		"price":  price,
		"volume": volume,
	}).Info("Ордер исполнен")
	return task, stepFilled, nil
}

func (e *Engine) onExternalCancel(task models.Task, side models.OrderSide, order models.Order) (models.Task, step, error) {
	clearResting(&task)
	e.taskEntry(&task).WithFields(logrus.Fields{
		"side":            side,
		"uuid":            order.UUID,
		"executed_volume": order.ExecutedVolume,
		"pause":           e.cfg.Engine.PauseOnExternalCancel,
	}).Warn("Ордер отменён на стороне биржи")
	return task, stepExternalCancel, nil
}

func clearResting(task *models.Task) {
	switch task.Status {
	case models.TaskStatusBuyOrdered:
		task.Status = models.TaskStatusBuyPending
	case models.TaskStatusSellOrdered:
		task.Status = models.TaskStatusSellPending
	}
	task.BuyUUID = nil
	task.SellUUID = nil
}
