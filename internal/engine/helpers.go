package engine

import (
	"context"
	"errors"
	"net/http"
	"time"

	"kimchibot/internal/exchange"
	"kimchibot/internal/models"
)

const (
	retryAttempts = 5
	retryMaxWait  = 30 * time.Second
)

// withRetryOpenOrders используется только при старте, в тиках повторов нет.
func (e *Engine) withRetryOpenOrders(ctx context.Context) ([]models.Order, error) {
	var lastErr error
	backoff := time.Second
	for i := 0; i < retryAttempts; i++ {
		orders, err := e.client.GetOpenOrders(ctx, e.cfg.Exchange.Market)
		if err == nil {
			return orders, nil
		}
		lastErr = err

		wait := backoff
		if isRateLimitError(err) {
			wait = backoff * 4
		}
		if wait > retryMaxWait {
			wait = retryMaxWait
		}
		e.logEntry().WithError(err).WithField("wait", wait.String()).Warn("Ошибка, повторяем запрос.")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return nil, lastErr
}

func isRateLimitError(err error) bool {
	var apiErr *exchange.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusTooManyRequests || apiErr.Name == "too_many_requests"
}
