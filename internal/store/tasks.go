package store

import (
	"fmt"

	"kimchibot/internal/models"

	"github.com/sirupsen/logrus"
)

func (s *Store) AddTask(task models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	_, err := s.Update(func(doc *Document) error {
		if _, existing := doc.Find(task.ID); existing != nil {
			return fmt.Errorf("Задача %s уже существует.", task.ID)
		}
		doc.Orders = append(doc.Orders, task)
		return nil
	})
	return err
}

// DeleteTask удаляет задачу без ордера сразу, а задачу с ордером ставит в clearOrders.
func (s *Store) DeleteTask(id string) (queued bool, err error) {
	_, err = s.Update(func(doc *Document) error {
		_, task := doc.Find(id)
		if task == nil {
			return ErrTaskNotFound
		}
		if task.Status.IsOrdered() {
			queued = true
			return doc.EnqueueClear(id)
		}
		doc.Remove(id)
		return nil
	})
	return queued, err
}

func (s *Store) EnqueueClearAll() error {
	_, err := s.Update(func(doc *Document) error {
		return doc.EnqueueClearAll()
	})
	return err
}

// TakeCommand забирает команду и освобождает слот до её исполнения.
// Если процесс упадёт после этого, команда не выполнится повторно.
func (s *Store) TakeCommand() (Command, []string, error) {
	doc, err := s.Load()
	if err != nil {
		return "", nil, err
	}
	if doc.Command == nil {
		return "", nil, nil
	}

	cmd := *doc.Command
	params := doc.CommandParams
	doc.ClearCommand()
	if err := s.Save(doc); err != nil {
		return "", nil, err
	}
	return cmd, params, nil
}

// MergeTickResult записывает итог тика поверх свежей копии документа.
// Задачи, созданные API во время тика, и текущая команда сохраняются.
func (s *Store) MergeTickResult(evaluated []models.Task, tetherPrice *float64) (*Document, error) {
	return s.Update(func(doc *Document) error {
		seen := make(map[string]bool, len(doc.Orders))
		for i := range doc.Orders {
			seen[doc.Orders[i].ID] = true
		}

		byID := make(map[string]models.Task, len(evaluated))
		for _, task := range evaluated {
			byID[task.ID] = task
			if seen[task.ID] {
				continue
			}
			if task.HoldsOrder() {
				s.logEntry().WithFields(logrus.Fields{
					"task_id":   task.ID,
					"status":    task.Status,
					"buy_uuid":  models.StringValue(task.BuyUUID),
					"sell_uuid": models.StringValue(task.SellUUID),
				}).Warn("Задача удалена во время тика, но держит ордер. Возвращаем её")
				doc.Orders = append(doc.Orders, task)
				seen[task.ID] = true
			}
		}

		for i := range doc.Orders {
			if task, ok := byID[doc.Orders[i].ID]; ok {
				doc.Orders[i] = task
			}
		}

		if tetherPrice != nil {
			doc.TetherPrice = tetherPrice
		}
		return nil
	})
}
