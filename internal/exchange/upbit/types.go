package upbit

import (
	"time"

	"kimchibot/internal/models"

	"github.com/shopspring/decimal"
)

type orderResponse struct {
	UUID            string          `json:"uuid"`
	Side            string          `json:"side"`
	OrdType         string          `json:"ord_type"`
	Price           decimal.Decimal `json:"price"`
	State           string          `json:"state"`
	Market          string          `json:"market"`
	CreatedAt       time.Time       `json:"created_at"`
	Volume          decimal.Decimal `json:"volume"`
	RemainingVolume decimal.Decimal `json:"remaining_volume"`
	ExecutedVolume  decimal.Decimal `json:"executed_volume"`
	TradesCount     int             `json:"trades_count"`
}

func (o orderResponse) toModel() models.Order {
	return models.Order{
		UUID:           o.UUID,
		Market:         o.Market,
		Side:           models.OrderSide(o.Side),
		State:          models.OrderState(o.State),
		Price:          o.Price.InexactFloat64(),
		Volume:         o.Volume.InexactFloat64(),
		ExecutedVolume: o.ExecutedVolume.InexactFloat64(),
		CreatedAt:      o.CreatedAt,
	}
}

type tickerResponse struct {
	Market     string          `json:"market"`
	TradePrice decimal.Decimal `json:"trade_price"`
	Timestamp  int64           `json:"timestamp"`
}

type accountResponse struct {
	Currency    string          `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	Locked      decimal.Decimal `json:"locked"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
}
