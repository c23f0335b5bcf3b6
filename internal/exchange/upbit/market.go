package upbit

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"kimchibot/internal/models"

	"github.com/pkg/errors"
)

func (c *Client) GetTicker(ctx context.Context, market string) (models.Ticker, error) {
	params := url.Values{}
	params.Set("markets", market)

	var resp []tickerResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/ticker", params, false, &resp); err != nil {
		return models.Ticker{}, err
	}
	if len(resp) == 0 {
		return models.Ticker{}, errors.Errorf("Пустой ответ тикера для %s", market)
	}

	item := resp[0]
	return models.Ticker{
		Market:     item.Market,
		TradePrice: item.TradePrice.InexactFloat64(),
		Timestamp:  time.UnixMilli(item.Timestamp),
	}, nil
}
