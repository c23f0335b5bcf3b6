package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"kimchibot/internal/config"
	"kimchibot/internal/exchange"
	"kimchibot/internal/ledger"
	"kimchibot/internal/logger"
	"kimchibot/internal/models"
	"kimchibot/internal/pricing"
	"kimchibot/internal/store"

	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	mu sync.Mutex

	seq    int
	orders map[string]*models.Order

	placed    []exchange.PlaceRequest
	cancelled []string
	queried   []string

	placeErr  error
	cancelErr error
	queryErr  map[string]error
	openErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		orders:   map[string]*models.Order{},
		queryErr: map[string]error{},
	}
}

func (c *fakeClient) PlaceOrder(_ context.Context, req exchange.PlaceRequest) (models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.placeErr != nil {
		return models.Order{}, c.placeErr
	}
	c.seq++
	order := &models.Order{
		UUID:   fmt.Sprintf("order-%d", c.seq),
		Market: req.Market,
		Side:   req.Side,
		State:  models.OrderStateWait,
		Price:  req.Price,
		Volume: req.Volume,
	}
	c.orders[order.UUID] = order
	c.placed = append(c.placed, req)
	return *order, nil
}

func (c *fakeClient) CancelOrder(_ context.Context, uuid string) (models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelErr != nil {
		return models.Order{}, c.cancelErr
	}
	c.cancelled = append(c.cancelled, uuid)
	order, ok := c.orders[uuid]
	if !ok {
		return models.Order{}, &exchange.APIError{Status: 404, Name: "order_not_found"}
	}
	order.State = models.OrderStateCancel
	return *order, nil
}

func (c *fakeClient) GetOrder(_ context.Context, uuid string) (models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queried = append(c.queried, uuid)
	if err := c.queryErr[uuid]; err != nil {
		return models.Order{}, err
	}
	order, ok := c.orders[uuid]
	if !ok {
		return models.Order{}, &exchange.APIError{Status: 404, Name: "order_not_found"}
	}
	return *order, nil
}

func (c *fakeClient) GetOpenOrders(_ context.Context, market string) ([]models.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.openErr != nil {
		return nil, c.openErr
	}
	var open []models.Order
	for _, order := range c.orders {
		if order.State.IsResting() && order.Market == market {
			open = append(open, *order)
		}
	}
	return open, nil
}

func (c *fakeClient) GetTicker(_ context.Context, market string) (models.Ticker, error) {
	return models.Ticker{Market: market, TradePrice: 1339}, nil
}

func (c *fakeClient) GetBalances(context.Context) (map[string]models.Balance, error) {
	return map[string]models.Balance{
		"KRW":  {Currency: "KRW", Balance: 1000000},
		"USDT": {Currency: "USDT"},
	}, nil
}

// setState меняет состояние ордера, как будто его исполнила или отменила биржа.
func (c *fakeClient) setState(uuid string, state models.OrderState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	order := c.orders[uuid]
	order.State = state
	if state == models.OrderStateDone {
		order.ExecutedVolume = order.Volume
	}
}

// setExecuted отмечает частичное исполнение ордера, который ещё стоит в стакане.
func (c *fakeClient) setExecuted(uuid string, volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[uuid].ExecutedVolume = volume
}

func (c *fakeClient) addResting(uuid string, side models.OrderSide, price, volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[uuid] = &models.Order{
		UUID:   uuid,
		Market: "KRW-USDT",
		Side:   side,
		State:  models.OrderStateWait,
		Price:  price,
		Volume: volume,
	}
}

type fakePrices struct {
	mu    sync.Mutex
	rate  float64
	err   error
	calls int
}

func (p *fakePrices) Fetch(context.Context) (pricing.Prices, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return pricing.Prices{}, p.err
	}
	ticker := 1339.0
	return pricing.Prices{Rate: p.rate, Ticker: ticker, Premium: pricing.Premium(ticker, p.rate)}, nil
}

func (p *fakePrices) setRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
}

type harness struct {
	cfg    *config.Config
	client *fakeClient
	prices *fakePrices
	store  *store.Store
	ledger *ledger.Ledger
	eng    *Engine
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, pause string) *harness {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Exchange: config.ExchangeConfig{Market: "KRW-USDT"},
		Storage: config.StorageConfig{
			OrderState:    filepath.Join(dir, "orderState.json"),
			CashBalance:   filepath.Join(dir, "cashBalance.json"),
			TradingConfig: filepath.Join(dir, "config.json"),
		},
		Engine: config.EngineConfig{
			Interval:              time.Hour,
			PauseOnExternalCancel: pause,
		},
	}
	require.NoError(t, config.SetTrading(cfg.Storage.TradingConfig, true))

	log := logger.Discard()
	h := &harness{
		cfg:    cfg,
		client: newFakeClient(),
		prices: &fakePrices{rate: 1300},
		store:  store.New(cfg.Storage.OrderState, log),
		ledger: ledger.New(cfg.Storage.CashBalance, 1000000, log),
	}
	h.eng = New(cfg, h.client, h.prices, h.store, h.ledger, log)
	h.eng.now = func() time.Time { return fixedNow }
	return h
}

func (h *harness) addBuy(t *testing.T, id string, amount float64) {
	t.Helper()
	require.NoError(t, h.store.AddTask(models.Task{
		ID:              id,
		Type:            models.TaskTypeBuy,
		Status:          models.TaskStatusBuyPending,
		AllocatedAmount: models.Float(amount),
		BuyThreshold:    0.5,
		SellThreshold:   2.5,
		IsTradeByMoney:  true,
		CreatedAt:       fixedNow,
	}))
}

func (h *harness) task(t *testing.T, id string) models.Task {
	t.Helper()
	doc, err := h.store.Load()
	require.NoError(t, err)
	_, task := doc.Find(id)
	require.NotNil(t, task, "задача %s не найдена", id)
	return *task
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.eng.Tick(context.Background()))
	h.requireInvariants(t)
}

func (h *harness) requireInvariants(t *testing.T) {
	t.Helper()
	doc, err := h.store.Load()
	require.NoError(t, err)
	for i := range doc.Orders {
		require.NoError(t, doc.Orders[i].Validate())
	}
}
