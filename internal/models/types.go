package models

import "time"

type TaskType string
type TaskStatus string
type OrderSide string
type OrderState string

const (
	TaskTypeBuy  TaskType = "buy"
	TaskTypeSell TaskType = "sell"

	TaskStatusBuyPending  TaskStatus = "buy_pending"
	TaskStatusBuyOrdered  TaskStatus = "buy_ordered"
	TaskStatusSellPending TaskStatus = "sell_pending"
	TaskStatusSellOrdered TaskStatus = "sell_ordered"
	TaskStatusCompleted   TaskStatus = "completed"

	// Статусы старого формата, мигрируются при чтении.
	TaskStatusLegacyBuyWaiting  TaskStatus = "buy_waiting"
	TaskStatusLegacySellWaiting TaskStatus = "sell_waiting"

	OrderSideBid OrderSide = "bid"
	OrderSideAsk OrderSide = "ask"

	OrderStateWait   OrderState = "wait"
	OrderStateWatch  OrderState = "watch"
	OrderStateDone   OrderState = "done"
	OrderStateCancel OrderState = "cancel"
)

type Task struct {
	ID              string     `json:"id"`
	Type            TaskType   `json:"type"`
	Status          TaskStatus `json:"status"`
	AllocatedAmount *float64   `json:"allocatedAmount"`
	Volume          *float64   `json:"volume"`
	FilledVolume    *float64   `json:"filledVolume,omitempty"`
	BuyPrice        *float64   `json:"buyPrice"`
	SellPrice       *float64   `json:"sellPrice"`
	BuyUUID         *string    `json:"buyUuid"`
	SellUUID        *string    `json:"sellUuid"`
	BuyThreshold    float64    `json:"buyThreshold"`
	SellThreshold   float64    `json:"sellThreshold"`
	IsTradeByMoney  bool       `json:"isTradeByMoney"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

type Order struct {
	UUID           string     `json:"uuid"`
	Market         string     `json:"market"`
	Side           OrderSide  `json:"side"`
	State          OrderState `json:"state"`
	Price          float64    `json:"price"`
	Volume         float64    `json:"volume"`
	ExecutedVolume float64    `json:"executed_volume"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Ticker struct {
	Market     string    `json:"market"`
	TradePrice float64   `json:"trade_price"`
	Timestamp  time.Time `json:"timestamp"`
}

type Balance struct {
	Currency    string  `json:"currency"`
	Balance     float64 `json:"balance"`
	Locked      float64 `json:"locked"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
}
