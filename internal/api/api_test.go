package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"kimchibot/internal/config"
	"kimchibot/internal/ledger"
	"kimchibot/internal/logger"
	"kimchibot/internal/models"
	"kimchibot/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, token string, money float64) *Server {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Exchange: config.ExchangeConfig{Market: "KRW-USDT"},
		Storage: config.StorageConfig{
			OrderState:    filepath.Join(dir, "orderState.json"),
			CashBalance:   filepath.Join(dir, "cashBalance.json"),
			TradingConfig: filepath.Join(dir, "config.json"),
		},
		API: config.APIConfig{Token: token},
	}
	log := logger.Discard()
	return NewServer(cfg, store.New(cfg.Storage.OrderState, log), ledger.New(cfg.Storage.CashBalance, money, log), log)
}

func doJSON(t *testing.T, s *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestCreateTaskFreezesSettings(t *testing.T) {
	s := newTestServer(t, "", 1000000)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", payload{"type": "buy", "amount": 100000}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskStatusBuyPending, task.Status)
	assert.Equal(t, 100000.0, models.Value(task.AllocatedAmount))
	assert.Nil(t, task.Volume)
	assert.Equal(t, config.DefaultBuyThreshold, task.BuyThreshold)
	assert.Equal(t, config.DefaultSellThreshold, task.SellThreshold)

	doc, err := s.store.Load()
	require.NoError(t, err)
	require.Len(t, doc.Orders, 1)
	assert.Equal(t, task.ID, doc.Orders[0].ID)
}

func TestCreateTaskEnforcesAllocation(t *testing.T) {
	s := newTestServer(t, "", 150000)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", payload{"amount": 100000}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/tasks", payload{"amount": 100000}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/tasks", payload{"amount": 50000}, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	s := newTestServer(t, "", 1000000)

	rec := doJSON(t, s, http.MethodPost, "/api/tasks", payload{"type": "hold", "amount": 1}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/tasks", payload{"type": "buy"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t, "", 1000000)
	require.NoError(t, s.store.AddTask(models.Task{
		ID:              "pending",
		Type:            models.TaskTypeBuy,
		Status:          models.TaskStatusBuyPending,
		AllocatedAmount: models.Float(1000),
	}))
	require.NoError(t, s.store.AddTask(models.Task{
		ID:              "ordered",
		Type:            models.TaskTypeBuy,
		Status:          models.TaskStatusBuyOrdered,
		AllocatedAmount: models.Float(1000),
		BuyUUID:         models.String("u-1"),
	}))

	rec := doJSON(t, s, http.MethodDelete, "/api/tasks/pending", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/tasks/ordered", nil, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/tasks/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	doc, err := s.store.Load()
	require.NoError(t, err)
	require.Len(t, doc.Orders, 1)
	require.NotNil(t, doc.Command)
	assert.Equal(t, store.CommandClearOrders, *doc.Command)
	assert.Equal(t, []string{"ordered"}, doc.CommandParams)
}

func TestClearAllAndTradingToggle(t *testing.T) {
	s := newTestServer(t, "", 1000000)

	rec := doJSON(t, s, http.MethodPost, "/api/commands/clear-all", nil, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/trading", payload{"isTrading": true}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/trading", payload{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Trading config.Trading `json:"trading"`
		Command string         `json:"command"`
		Market  string         `json:"market"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Trading.IsTrading)
	assert.Equal(t, string(store.CommandClearAll), status.Command)
	assert.Equal(t, "KRW-USDT", status.Market)
}

func TestCashBalance(t *testing.T) {
	s := newTestServer(t, "", 500000)

	rec := doJSON(t, s, http.MethodGet, "/api/cash-balance", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var cash ledger.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cash))
	assert.Equal(t, 500000.0, cash.AvailableMoney)
}

func TestTokenMiddleware(t *testing.T) {
	s := newTestServer(t, "s3cr3t", 0)

	assert.Equal(t, http.StatusUnauthorized, doJSON(t, s, http.MethodGet, "/api/tasks", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, s, http.MethodGet, "/api/tasks", nil, "wrong").Code)
	assert.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/api/tasks", nil, "s3cr3t").Code)
	assert.Equal(t, http.StatusOK, doJSON(t, s, http.MethodGet, "/health", nil, "").Code)
}

type payload map[string]any
