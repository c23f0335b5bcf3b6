package upbit

import (
	"context"
	"net/http"

	"kimchibot/internal/models"
)

func (c *Client) GetBalances(ctx context.Context) (map[string]models.Balance, error) {
	var resp []accountResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/accounts", nil, true, &resp); err != nil {
		return nil, err
	}

	balances := make(map[string]models.Balance, len(resp))
	for _, item := range resp {
		balances[item.Currency] = models.Balance{
			Currency:    item.Currency,
			Balance:     item.Balance.InexactFloat64(),
			Locked:      item.Locked.InexactFloat64(),
			AvgBuyPrice: item.AvgBuyPrice.InexactFloat64(),
		}
	}
	return balances, nil
}
