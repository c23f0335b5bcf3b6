package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"kimchibot/internal/config"
	"kimchibot/internal/logger"
	"kimchibot/internal/models"
	"kimchibot/internal/pkg/jsonfile"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

type Thresholds struct {
	Buy  float64
	Sell float64
}

// Store: файловое хранилище задач. Блокировок нет: каждый писатель перечитывает
// документ непосредственно перед записью и пишет его целиком.
type Store struct {
	path     string
	defaults Thresholds
	log      *logger.Logger
}

func New(path string, log *logger.Logger) *Store {
	return &Store{
		path: path,
		defaults: Thresholds{
			Buy:  config.DefaultBuyThreshold,
			Sell: config.DefaultSellThreshold,
		},
		log: log,
	}
}

// SetDefaults задаёт пороги для старых задач, у которых их нет в файле.
func (s *Store) SetDefaults(t Thresholds) {
	s.defaults = t
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) logEntry() *logrus.Entry {
	return s.log.WithComponent("store").WithField("path", s.path)
}

func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(bytes.TrimSpace(data)) == 0) {
		doc := NewDocument()
		if err := jsonfile.Write(s.path, doc); err != nil {
			return nil, err
		}
		s.logEntry().Info("Создан новый документ задач")
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Не удалось прочитать %s: %w", s.path, err)
	}

	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("Не удалось разобрать %s: %w", s.path, err)
	}
	if doc.Orders == nil {
		doc.Orders = []models.Task{}
	}
	s.normalize(doc, data)
	return doc, nil
}

func (s *Store) normalize(doc *Document, raw []byte) {
	for i := range doc.Orders {
		task := &doc.Orders[i]
		if task.MigrateLegacy() {
			s.logEntry().WithFields(logrus.Fields{
				"task_id": task.ID,
				"status":  task.Status,
			}).Info("Статус задачи переведён из старой схемы")
		}
		if !gjson.GetBytes(raw, fmt.Sprintf("orders.%d.buyThreshold", i)).Exists() {
			task.BuyThreshold = s.defaults.Buy
		}
		if !gjson.GetBytes(raw, fmt.Sprintf("orders.%d.sellThreshold", i)).Exists() {
			task.SellThreshold = s.defaults.Sell
		}
	}
}

func (s *Store) Save(doc *Document) error {
	if doc.Orders == nil {
		doc.Orders = []models.Task{}
	}
	return jsonfile.Write(s.path, doc)
}

// Update перечитывает документ, применяет fn и сразу пишет результат.
func (s *Store) Update(fn func(doc *Document) error) (*Document, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}
