package engine

import (
	"kimchibot/internal/models"

	"github.com/sirupsen/logrus"
)

func (e *Engine) logEntry() *logrus.Entry {
	if e.cfg != nil && e.cfg.Exchange.Market != "" {
		return e.log.WithMarket(e.cfg.Exchange.Market).WithField("component", "engine")
	}
	return e.log.WithComponent("engine")
}

func (e *Engine) taskEntry(task *models.Task) *logrus.Entry {
	return e.logEntry().WithFields(logrus.Fields{
		"task_id": task.ID,
		"type":    task.Type,
		"status":  task.Status,
	})
}
