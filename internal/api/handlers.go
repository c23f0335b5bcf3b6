package api

import (
	"errors"
	"net/http"

	"kimchibot/internal/config"
	"kimchibot/internal/ledger"
	"kimchibot/internal/models"
	"kimchibot/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) fail(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) listTasks(c *gin.Context) {
	doc, err := s.store.Load()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks":       doc.Orders,
		"tetherPrice": doc.TetherPrice,
		"command":     doc.Command,
	})
}

type createTaskRequest struct {
	Type   models.TaskType `json:"type"`
	Amount float64         `json:"amount"`
}

// createTask фиксирует пороги и режим размера из текущих настроек.
func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.Type == "" {
		req.Type = models.TaskTypeBuy
	}
	if req.Type != models.TaskTypeBuy && req.Type != models.TaskTypeSell {
		s.fail(c, http.StatusBadRequest, errors.New("type must be buy or sell"))
		return
	}

	trading, err := config.LoadTrading(s.cfg.Storage.TradingConfig)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	amount := req.Amount
	if amount <= 0 {
		amount = trading.TradeAmount
	}
	if amount <= 0 {
		s.fail(c, http.StatusBadRequest, errors.New("amount must be positive"))
		return
	}

	task := models.Task{
		ID:             uuid.NewString(),
		Type:           req.Type,
		Status:         models.TaskStatusBuyPending,
		BuyThreshold:   trading.BuyThreshold,
		SellThreshold:  trading.SellThreshold,
		IsTradeByMoney: trading.IsTradeByMoney,
		CreatedAt:      s.now(),
	}
	if req.Type == models.TaskTypeSell {
		task.Status = models.TaskStatusSellPending
	}
	if trading.IsTradeByMoney {
		task.AllocatedAmount = models.Float(amount)
	} else {
		task.Volume = models.Float(amount)
	}

	var available float64
	if task.Status == models.TaskStatusBuyPending && task.AllocatedAmount != nil {
		cash, err := s.ledger.Load()
		if err != nil {
			s.fail(c, http.StatusInternalServerError, err)
			return
		}
		available = cash.AvailableMoney
	}

	_, err = s.store.Update(func(doc *store.Document) error {
		if task.Status == models.TaskStatusBuyPending && task.AllocatedAmount != nil {
			if err := ledger.CheckAllocation(available, doc.Orders, amount); err != nil {
				return err
			}
		}
		if err := task.Validate(); err != nil {
			return err
		}
		doc.Orders = append(doc.Orders, task)
		return nil
	})
	switch {
	case errors.Is(err, ledger.ErrInsufficientCapital):
		s.fail(c, http.StatusConflict, err)
		return
	case err != nil:
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	s.log.WithTask(task.ID).WithFields(map[string]interface{}{
		"type":   task.Type,
		"amount": amount,
	}).Info("Задача создана")
	c.JSON(http.StatusCreated, task)
}

// deleteTask: задача с ордером на бирже уходит в команду clearOrders, остальные удаляются сразу.
func (s *Server) deleteTask(c *gin.Context) {
	id := c.Param("id")
	queued, err := s.store.DeleteTask(id)
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		s.fail(c, http.StatusNotFound, err)
		return
	case errors.Is(err, store.ErrCommandConflict):
		s.fail(c, http.StatusConflict, err)
		return
	case err != nil:
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	if queued {
		c.JSON(http.StatusAccepted, gin.H{"id": id, "queued": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "queued": false})
}

func (s *Server) clearAll(c *gin.Context) {
	err := s.store.EnqueueClearAll()
	if errors.Is(err, store.ErrCommandConflict) {
		s.fail(c, http.StatusConflict, err)
		return
	}
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"command": store.CommandClearAll})
}

func (s *Server) getCashBalance(c *gin.Context) {
	cash, err := s.ledger.Load()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, cash)
}

func (s *Server) getStatus(c *gin.Context) {
	trading, err := config.LoadTrading(s.cfg.Storage.TradingConfig)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	doc, err := s.store.Load()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	counts := map[models.TaskStatus]int{}
	for i := range doc.Orders {
		counts[doc.Orders[i].Status]++
	}

	c.JSON(http.StatusOK, gin.H{
		"trading":     trading,
		"market":      s.cfg.Exchange.Market,
		"tetherPrice": doc.TetherPrice,
		"command":     doc.Command,
		"tasks":       counts,
	})
}

type setTradingRequest struct {
	IsTrading *bool `json:"isTrading"`
}

func (s *Server) setTrading(c *gin.Context) {
	var req setTradingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if req.IsTrading == nil {
		s.fail(c, http.StatusBadRequest, errors.New("isTrading is required"))
		return
	}
	if err := config.SetTrading(s.cfg.Storage.TradingConfig, *req.IsTrading); err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	s.log.WithComponent("api").WithField("isTrading", *req.IsTrading).Info("Торговля переключена")
	c.JSON(http.StatusOK, gin.H{"isTrading": *req.IsTrading})
}
