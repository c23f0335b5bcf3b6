package engine

import (
	"context"

	"kimchibot/internal/models"
	"kimchibot/internal/store"

	"github.com/sirupsen/logrus"
)

// drainCommands забирает команду из слота (слот очищается до исполнения) и выполняет её.
func (e *Engine) drainCommands(ctx context.Context) error {
	cmd, params, err := e.store.TakeCommand()
	if err != nil {
		return err
	}
	if cmd == "" {
		return nil
	}

	e.logEntry().WithFields(logrus.Fields{
		"command": cmd,
		"params":  params,
	}).Info("Получена команда")

	switch cmd {
	case store.CommandClearOrders:
		return e.clearOrders(ctx, params)
	case store.CommandClearAll:
		return e.clearAllOrders(ctx)
	default:
		e.logEntry().WithField("command", cmd).Warn("Неизвестная команда пропущена")
		return nil
	}
}

func (e *Engine) clearOrders(ctx context.Context, ids []string) error {
	doc, err := e.store.Load()
	if err != nil {
		return err
	}

	kept := map[string]bool{}
	for _, id := range ids {
		_, task := doc.Find(id)
		if task == nil {
			e.logEntry().WithField("task_id", id).Warn("Задача из команды не найдена")
			continue
		}
		if !e.cancelResting(ctx, task) {
			kept[id] = true
		}
	}

	_, err = e.store.Update(func(doc *store.Document) error {
		for _, id := range ids {
			if !kept[id] {
				doc.Remove(id)
			}
		}
		return nil
	})
	return err
}

// clearAllOrders снимает все ордера и сбрасывает документ. Задачи, чей ордер снять
// не удалось, остаются вместе с uuid.
func (e *Engine) clearAllOrders(ctx context.Context) error {
	doc, err := e.store.Load()
	if err != nil {
		return err
	}

	kept := map[string]bool{}
	for i := range doc.Orders {
		if !e.cancelResting(ctx, &doc.Orders[i]) {
			kept[doc.Orders[i].ID] = true
		}
	}

	_, err = e.store.Update(func(fresh *store.Document) error {
		orders := make([]models.Task, 0, len(kept))
		for _, task := range fresh.Orders {
			if kept[task.ID] {
				orders = append(orders, task)
			}
		}
		fresh.Orders = orders
		fresh.TetherPrice = nil
		return nil
	})
	if err != nil {
		return err
	}

	e.logEntry().WithFields(logrus.Fields{
		"removed": len(doc.Orders) - len(kept),
		"kept":    len(kept),
	}).Info("Все задачи очищены")
	return nil
}

// cancelResting возвращает false, если ордер на бирже мог остаться.
func (e *Engine) cancelResting(ctx context.Context, task *models.Task) bool {
	uuid := task.RestingUUID()
	if uuid == "" {
		return true
	}

	if _, err := e.client.CancelOrder(ctx, uuid); err != nil {
		e.taskEntry(task).WithError(err).WithField("uuid", uuid).Error("Не удалось отменить ордер, задача сохранена")
		return false
	}
	e.taskEntry(task).WithField("uuid", uuid).Info("Ордер отменён по команде")
	return true
}
