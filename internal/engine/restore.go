package engine

import (
	"context"

	"kimchibot/internal/models"

	"github.com/sirupsen/logrus"
)

type reconcileReport struct {
	Orphans []models.Order
	Missing []string
	Invalid []string
}

// reconcile сверяет открытые ордера биржи с задачами. Ничего не отменяет:
// чужие ордера только логируются, пропавшие разберёт обычный тик.
func (e *Engine) reconcile(ctx context.Context) (reconcileReport, error) {
	var report reconcileReport

	open, err := e.withRetryOpenOrders(ctx)
	if err != nil {
		return report, err
	}
	doc, err := e.store.Load()
	if err != nil {
		return report, err
	}

	known := map[string]string{}
	for i := range doc.Orders {
		task := &doc.Orders[i]
		if err := task.Validate(); err != nil {
			report.Invalid = append(report.Invalid, task.ID)
			e.taskEntry(task).WithError(err).Warn("Задача нарушает инварианты")
		}
		if uuid := task.RestingUUID(); uuid != "" {
			known[uuid] = task.ID
		}
	}

	openSet := make(map[string]bool, len(open))
	for _, order := range open {
		openSet[order.UUID] = true
		if order.Market != "" && order.Market != e.cfg.Exchange.Market {
			continue
		}
		if _, ok := known[order.UUID]; ok {
			continue
		}
		report.Orphans = append(report.Orphans, order)
		e.logEntry().WithFields(logrus.Fields{
			"uuid":   order.UUID,
			"side":   order.Side,
			"price":  order.Price,
			"volume": order.Volume,
			"state":  order.State,
		}).Warn("Ордер на бирже не принадлежит ни одной задаче")
	}

	for uuid, id := range known {
		if openSet[uuid] {
			continue
		}
		report.Missing = append(report.Missing, id)
		e.logEntry().WithFields(logrus.Fields{
			"task_id": id,
			"uuid":    uuid,
		}).Info("Ордер задачи не среди открытых, статус уточнится на тике")
	}

	e.logEntry().WithFields(logrus.Fields{
		"open":    len(open),
		"tasks":   len(doc.Orders),
		"orphans": len(report.Orphans),
		"missing": len(report.Missing),
	}).Info("Сверка ордеров завершена")
	return report, nil
}
