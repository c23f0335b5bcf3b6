package ledger

import (
	"errors"
	"fmt"
	"os"
	"time"

	"kimchibot/internal/logger"
	"kimchibot/internal/models"
	"kimchibot/internal/pkg/jsonfile"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrInsufficientCapital = errors.New("insufficient capital")

const (
	EntryBuy  = "buy"
	EntrySell = "sell"
)

type Entry struct {
	Type   string    `json:"type"`
	UUID   string    `json:"uuid,omitempty"`
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
}

// Document: файл cashBalance.json. total = availableMoney + usdtCost,
// поэтому покупка не меняет total, а продажа меняет его на реализованный результат.
type Document struct {
	History        []Entry `json:"history"`
	Total          float64 `json:"total"`
	AvailableMoney float64 `json:"availableMoney"`
	AvailableUsdt  float64 `json:"availableUsdt"`
	UsdtCost       float64 `json:"usdtCost"`
}

type Ledger struct {
	path         string
	initialMoney float64
	log          *logger.Logger
}

func New(path string, initialMoney float64, log *logger.Logger) *Ledger {
	return &Ledger{path: path, initialMoney: initialMoney, log: log}
}

func (l *Ledger) logEntry() *logrus.Entry {
	return l.log.WithComponent("ledger")
}

func (l *Ledger) Load() (*Document, error) {
	doc := &Document{}
	err := jsonfile.Read(l.path, doc)
	if errors.Is(err, os.ErrNotExist) {
		doc = &Document{
			History:        []Entry{},
			Total:          l.initialMoney,
			AvailableMoney: l.initialMoney,
		}
		if err := jsonfile.Write(l.path, doc); err != nil {
			return nil, err
		}
		l.logEntry().WithField("money", l.initialMoney).Info("Создан новый кассовый документ")
		return doc, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.History == nil {
		doc.History = []Entry{}
	}
	return doc, nil
}

// Recorded сообщает, есть ли уже запись этого типа для ордера uuid.
func (d *Document) Recorded(entryType, uuid string) bool {
	if uuid == "" {
		return false
	}
	for i := range d.History {
		if d.History[i].Type == entryType && d.History[i].UUID == uuid {
			return true
		}
	}
	return false
}

// record применяет fn, только если исполнение ордера ещё не записано.
// Повтор после падения между записью кассы и записью задач ничего не меняет.
func (l *Ledger) record(entryType, uuid string, fn func(doc *Document)) (*Document, bool, error) {
	doc, err := l.Load()
	if err != nil {
		return nil, false, err
	}
	if doc.Recorded(entryType, uuid) {
		l.logEntry().WithFields(logrus.Fields{
			"type": entryType,
			"uuid": uuid,
		}).Info("Исполнение уже записано в кассу, повтор пропущен")
		return doc, false, nil
	}
	fn(doc)
	if err := jsonfile.Write(l.path, doc); err != nil {
		return nil, false, fmt.Errorf("Не удалось записать кассовый документ: %w", err)
	}
	return doc, true, nil
}

// RecordBuy списывает деньги и добавляет купленный объём по цене покупки.
func (l *Ledger) RecordBuy(uuid string, price, volume float64, at time.Time) (*Document, error) {
	cost := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(volume))

	doc, written, err := l.record(EntryBuy, uuid, func(doc *Document) {
		doc.AvailableMoney = decimal.NewFromFloat(doc.AvailableMoney).Sub(cost).InexactFloat64()
		doc.AvailableUsdt = decimal.NewFromFloat(doc.AvailableUsdt).Add(decimal.NewFromFloat(volume)).InexactFloat64()
		doc.UsdtCost = decimal.NewFromFloat(doc.UsdtCost).Add(cost).InexactFloat64()
		doc.recomputeTotal()
		doc.History = append(doc.History, Entry{Type: EntryBuy, UUID: uuid, Date: at, Price: price, Volume: volume})
	})
	if err != nil || !written {
		return doc, err
	}

	l.logEntry().WithFields(logrus.Fields{
		"price":  price,
		"volume": volume,
		"money":  doc.AvailableMoney,
		"total":  doc.Total,
	}).Info("Покупка записана в кассу")
	return doc, nil
}

// RecordSell зачисляет выручку. costPrice: цена покупки проданного объёма,
// 0 для задач на продажу, чей актив куплен не движком.
func (l *Ledger) RecordSell(uuid string, price, volume, costPrice float64, at time.Time) (*Document, error) {
	proceeds := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(volume))
	cost := decimal.NewFromFloat(costPrice).Mul(decimal.NewFromFloat(volume))

	doc, written, err := l.record(EntrySell, uuid, func(doc *Document) {
		doc.AvailableMoney = decimal.NewFromFloat(doc.AvailableMoney).Add(proceeds).InexactFloat64()
		doc.AvailableUsdt = nonNegative(decimal.NewFromFloat(doc.AvailableUsdt).Sub(decimal.NewFromFloat(volume)))
		doc.UsdtCost = nonNegative(decimal.NewFromFloat(doc.UsdtCost).Sub(cost))
		doc.recomputeTotal()
		doc.History = append(doc.History, Entry{Type: EntrySell, UUID: uuid, Date: at, Price: price, Volume: volume})
	})
	if err != nil || !written {
		return doc, err
	}

	l.logEntry().WithFields(logrus.Fields{
		"price":  price,
		"volume": volume,
		"profit": proceeds.Sub(cost).InexactFloat64(),
		"money":  doc.AvailableMoney,
		"total":  doc.Total,
	}).Info("Продажа записана в кассу")
	return doc, nil
}

func (d *Document) recomputeTotal() {
	d.Total = decimal.NewFromFloat(d.AvailableMoney).Add(decimal.NewFromFloat(d.UsdtCost)).InexactFloat64()
}

func nonNegative(v decimal.Decimal) float64 {
	if v.IsNegative() {
		return 0
	}
	return v.InexactFloat64()
}

// CheckAllocation проверяет, что новая задача на покупку помещается в свободные деньги
// вместе с уже выделенными суммами незаполненных покупок.
func CheckAllocation(available float64, tasks []models.Task, amount float64) error {
	committed := decimal.NewFromFloat(amount)
	for i := range tasks {
		task := &tasks[i]
		if task.Status != models.TaskStatusBuyPending && task.Status != models.TaskStatusBuyOrdered {
			continue
		}
		committed = committed.Add(decimal.NewFromFloat(models.Value(task.AllocatedAmount)))
	}
	if committed.GreaterThan(decimal.NewFromFloat(available)) {
		return fmt.Errorf("%w: нужно %s, доступно %v", ErrInsufficientCapital, committed.String(), available)
	}
	return nil
}
