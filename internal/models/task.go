package models

import "fmt"

func Float(v float64) *float64 {
	return &v
}

func String(v string) *string {
	return &v
}

func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func StringValue(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func (s OrderState) IsResting() bool {
	return s == OrderStateWait || s == OrderStateWatch
}

func (s TaskStatus) IsOrdered() bool {
	return s == TaskStatusBuyOrdered || s == TaskStatusSellOrdered
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// RestingUUID возвращает uuid ордера, который сейчас стоит на бирже для задачи.
func (t *Task) RestingUUID() string {
	switch t.Status {
	case TaskStatusBuyOrdered:
		if t.BuyUUID != nil {
			return *t.BuyUUID
		}
	case TaskStatusSellOrdered:
		if t.SellUUID != nil {
			return *t.SellUUID
		}
	}
	return ""
}

// HoldsOrder сообщает, ссылается ли задача хоть на один uuid, даже при нарушенном статусе.
func (t *Task) HoldsOrder() bool {
	return t.BuyUUID != nil || t.SellUUID != nil
}

// SellVolume is the asset amount the sell leg must offer.
func (t *Task) SellVolume() float64 {
	if t.FilledVolume != nil {
		return *t.FilledVolume
	}
	return Value(t.Volume)
}

func (t *Task) Validate() error {
	if t.BuyUUID != nil && t.SellUUID != nil {
		return fmt.Errorf("Задача %s держит два ордера одновременно.", t.ID)
	}
	switch t.Status {
	case TaskStatusBuyOrdered:
		if t.BuyUUID == nil {
			return fmt.Errorf("Задача %s в статусе %s без buyUuid.", t.ID, t.Status)
		}
		if t.SellUUID != nil {
			return fmt.Errorf("Задача %s в статусе %s с sellUuid.", t.ID, t.Status)
		}
	case TaskStatusSellOrdered:
		if t.SellUUID == nil {
			return fmt.Errorf("Задача %s в статусе %s без sellUuid.", t.ID, t.Status)
		}
		if t.BuyUUID != nil {
			return fmt.Errorf("Задача %s в статусе %s с buyUuid.", t.ID, t.Status)
		}
	case TaskStatusBuyPending, TaskStatusSellPending, TaskStatusCompleted:
		if t.HoldsOrder() {
			return fmt.Errorf("Задача %s в статусе %s держит ордер.", t.ID, t.Status)
		}
	default:
		return fmt.Errorf("Неизвестный статус задачи %s: %s", t.ID, t.Status)
	}
	if (t.AllocatedAmount == nil) == (t.Volume == nil) {
		return fmt.Errorf("Задача %s: должен быть задан ровно один из allocatedAmount и volume.", t.ID)
	}
	return nil
}

// MigrateLegacy переводит старые статусы *_waiting в новую схему.
func (t *Task) MigrateLegacy() bool {
	switch t.Status {
	case TaskStatusLegacyBuyWaiting:
		if t.BuyUUID != nil {
			t.Status = TaskStatusBuyOrdered
		} else {
			t.Status = TaskStatusBuyPending
		}
		return true
	case TaskStatusLegacySellWaiting:
		if t.SellUUID != nil {
			t.Status = TaskStatusSellOrdered
		} else {
			t.Status = TaskStatusSellPending
		}
		return true
	}
	return false
}
