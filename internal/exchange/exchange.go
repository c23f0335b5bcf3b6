package exchange

import (
	"context"
	"errors"
	"fmt"

	"kimchibot/internal/models"
)

// ErrRejected: биржа не приняла запрос (не-2xx или запрос не дошёл).
var ErrRejected = errors.New("exchange rejected")

type APIError struct {
	Status  int
	Name    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Ошибка биржи: %s: %s (status=%d)", e.Name, e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return ErrRejected
}

type PlaceRequest struct {
	Market string
	Side   models.OrderSide
	Price  float64
	Volume float64
}

type Client interface {
	PlaceOrder(ctx context.Context, req PlaceRequest) (models.Order, error)
	CancelOrder(ctx context.Context, uuid string) (models.Order, error)
	GetOrder(ctx context.Context, uuid string) (models.Order, error)
	GetOpenOrders(ctx context.Context, market string) ([]models.Order, error)
	GetTicker(ctx context.Context, market string) (models.Ticker, error)
	GetBalances(ctx context.Context) (map[string]models.Balance, error)
}
