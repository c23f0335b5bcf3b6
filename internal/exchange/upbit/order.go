package upbit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"kimchibot/internal/exchange"
	"kimchibot/internal/models"
)

func (c *Client) PlaceOrder(ctx context.Context, req exchange.PlaceRequest) (models.Order, error) {
	if req.Side != models.OrderSideBid && req.Side != models.OrderSideAsk {
		return models.Order{}, fmt.Errorf("Некорректная сторона ордера: %q", req.Side)
	}

	params := url.Values{}
	params.Set("market", req.Market)
	params.Set("side", string(req.Side))
	params.Set("price", formatNumber(req.Price))
	params.Set("volume", formatNumber(req.Volume))
	params.Set("ord_type", "limit")

	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/orders", params, true, &resp); err != nil {
		return models.Order{}, err
	}
	return resp.toModel(), nil
}

func (c *Client) CancelOrder(ctx context.Context, uuid string) (models.Order, error) {
	params := url.Values{}
	params.Set("uuid", uuid)

	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodDelete, "/v1/order", params, true, &resp); err != nil {
		return models.Order{}, err
	}
	return resp.toModel(), nil
}

func (c *Client) GetOrder(ctx context.Context, uuid string) (models.Order, error) {
	params := url.Values{}
	params.Set("uuid", uuid)

	var resp orderResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/order", params, true, &resp); err != nil {
		return models.Order{}, err
	}
	return resp.toModel(), nil
}

func (c *Client) GetOpenOrders(ctx context.Context, market string) ([]models.Order, error) {
	params := url.Values{}
	params.Set("market", market)

	var resp []orderResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/orders/open", params, true, &resp); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(resp))
	for _, item := range resp {
		orders = append(orders, item.toModel())
	}
	return orders, nil
}
