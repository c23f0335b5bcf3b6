package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"kimchibot/internal/logger"
	"kimchibot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "orderState.json"), logger.Discard())
}

func pendingBuy(id string, amount float64) models.Task {
	return models.Task{
		ID:              id,
		Type:            models.TaskTypeBuy,
		Status:          models.TaskStatusBuyPending,
		AllocatedAmount: models.Float(amount),
		BuyThreshold:    0.5,
		SellThreshold:   2.5,
		IsTradeByMoney:  true,
		CreatedAt:       time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func orderedBuy(id, uuid string) models.Task {
	task := pendingBuy(id, 100000)
	task.Status = models.TaskStatusBuyOrdered
	task.BuyUUID = models.String(uuid)
	return task
}

func TestLoadCreatesDefaultDocument(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Orders)
	assert.Nil(t, doc.Command)
	assert.Nil(t, doc.TetherPrice)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"orders":[],"command":null,"commandParams":null,"tetherPrice":null}`, string(data))
}

func TestLoadMigratesLegacyTasks(t *testing.T) {
	s := newTestStore(t)
	s.SetDefaults(Thresholds{Buy: 0.3, Sell: 2.0})
	legacy := `{"orders":[
		{"id":"a","type":"buy","status":"buy_waiting","allocatedAmount":1000,"buyUuid":"u-a"},
		{"id":"b","type":"buy","status":"sell_waiting","allocatedAmount":1000,"buyThreshold":0.7,"sellThreshold":3}
	],"command":null}`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	doc, err := s.Load()
	require.NoError(t, err)
	require.Len(t, doc.Orders, 2)

	assert.Equal(t, models.TaskStatusBuyOrdered, doc.Orders[0].Status)
	assert.Equal(t, 0.3, doc.Orders[0].BuyThreshold)
	assert.Equal(t, 2.0, doc.Orders[0].SellThreshold)

	assert.Equal(t, models.TaskStatusSellPending, doc.Orders[1].Status)
	assert.Equal(t, 0.7, doc.Orders[1].BuyThreshold)
	assert.Equal(t, 3.0, doc.Orders[1].SellThreshold)
}

func TestLoadRejectsCorruptDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`{"orders":[`), 0o644))

	_, err := s.Load()
	assert.Error(t, err)
}

func TestAddAndDeleteTask(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTask(pendingBuy("a", 1000)))
	require.NoError(t, s.AddTask(orderedBuy("b", "u-b")))
	assert.Error(t, s.AddTask(pendingBuy("a", 1000)))

	queued, err := s.DeleteTask("a")
	require.NoError(t, err)
	assert.False(t, queued)

	queued, err = s.DeleteTask("b")
	require.NoError(t, err)
	assert.True(t, queued)

	_, err = s.DeleteTask("missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	doc, err := s.Load()
	require.NoError(t, err)
	require.Len(t, doc.Orders, 1)
	assert.Equal(t, "b", doc.Orders[0].ID)
	require.NotNil(t, doc.Command)
	assert.Equal(t, CommandClearOrders, *doc.Command)
	assert.Equal(t, []string{"b"}, doc.CommandParams)
}

func TestAddTaskValidates(t *testing.T) {
	s := newTestStore(t)
	task := pendingBuy("a", 1000)
	task.Volume = models.Float(1)
	assert.Error(t, s.AddTask(task))
}

func TestEnqueueClearMerges(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.EnqueueClear("a"))
	require.NoError(t, doc.EnqueueClear("b"))
	require.NoError(t, doc.EnqueueClear("a"))
	assert.Equal(t, []string{"a", "b"}, doc.CommandParams)

	require.NoError(t, doc.EnqueueClearAll())
	assert.Equal(t, CommandClearAll, *doc.Command)
	assert.Nil(t, doc.CommandParams)

	require.NoError(t, doc.EnqueueClear("c"))
	assert.Equal(t, CommandClearAll, *doc.Command)

	unknown := Command("restart")
	doc.Command = &unknown
	assert.ErrorIs(t, doc.EnqueueClear("d"), ErrCommandConflict)
	assert.ErrorIs(t, doc.EnqueueClearAll(), ErrCommandConflict)
}

func TestTakeCommandIsAtMostOnce(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTask(orderedBuy("a", "u-a")))
	_, err := s.DeleteTask("a")
	require.NoError(t, err)

	cmd, params, err := s.TakeCommand()
	require.NoError(t, err)
	assert.Equal(t, CommandClearOrders, cmd)
	assert.Equal(t, []string{"a"}, params)

	// Повторное чтение после "падения" не видит команду.
	cmd, params, err = s.TakeCommand()
	require.NoError(t, err)
	assert.Empty(t, cmd)
	assert.Nil(t, params)
}

func TestMergeTickResult(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTask(pendingBuy("a", 1000)))
	require.NoError(t, s.AddTask(pendingBuy("b", 1000)))
	require.NoError(t, s.AddTask(pendingBuy("c", 1000)))

	snapshot, err := s.Load()
	require.NoError(t, err)

	// Scheduler evaluates its snapshot.
	evaluated := append([]models.Task(nil), snapshot.Orders...)
	evaluated[0].Status = models.TaskStatusBuyOrdered
	evaluated[0].BuyUUID = models.String("u-a")
	evaluated[1].Status = models.TaskStatusBuyOrdered
	evaluated[1].BuyUUID = models.String("u-b")

	// Meanwhile the API removes a and c, adds d and enqueues a command.
	_, err = s.Update(func(doc *Document) error {
		doc.Remove("a")
		doc.Remove("c")
		doc.Orders = append(doc.Orders, pendingBuy("d", 1000))
		return doc.EnqueueClearAll()
	})
	require.NoError(t, err)

	doc, err := s.MergeTickResult(evaluated, models.Float(1339))
	require.NoError(t, err)

	ids := make([]string, 0, len(doc.Orders))
	for _, task := range doc.Orders {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"b", "d", "a"}, ids)

	_, b := doc.Find("b")
	assert.Equal(t, "u-b", models.StringValue(b.BuyUUID))
	_, a := doc.Find("a")
	assert.Equal(t, "u-a", models.StringValue(a.BuyUUID))

	require.NotNil(t, doc.Command)
	assert.Equal(t, CommandClearAll, *doc.Command)
	assert.Equal(t, 1339.0, *doc.TetherPrice)
}

func TestSaveIsDeterministic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AddTask(orderedBuy("a", "u-a")))

	doc, err := s.Load()
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	require.NoError(t, s.Save(doc))
	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}
