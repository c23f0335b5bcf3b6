package pricing

import (
	"context"
	"errors"
	"fmt"

	"kimchibot/internal/models"

	"golang.org/x/sync/errgroup"
)

var ErrPriceFetch = errors.New("price fetch failed")

type RateProvider interface {
	LatestRate(ctx context.Context) (float64, error)
}

type TickerProvider interface {
	GetTicker(ctx context.Context, market string) (models.Ticker, error)
}

type Prices struct {
	Rate    float64
	Ticker  float64
	Premium float64
}

// Oracle собирает курс и цену тикера за один тик.
type Oracle struct {
	rates   RateProvider
	tickers TickerProvider
	market  string
}

func NewOracle(rates RateProvider, tickers TickerProvider, market string) *Oracle {
	return &Oracle{rates: rates, tickers: tickers, market: market}
}

func (o *Oracle) Fetch(ctx context.Context) (Prices, error) {
	var prices Prices

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rate, err := o.rates.LatestRate(gctx)
		if err != nil {
			return fmt.Errorf("справочный курс: %v", err)
		}
		prices.Rate = rate
		return nil
	})
	g.Go(func() error {
		ticker, err := o.tickers.GetTicker(gctx, o.market)
		if err != nil {
			return fmt.Errorf("тикер %s: %v", o.market, err)
		}
		if ticker.TradePrice <= 0 {
			return fmt.Errorf("тикер %s: некорректная цена %v", o.market, ticker.TradePrice)
		}
		prices.Ticker = ticker.TradePrice
		return nil
	})
	if err := g.Wait(); err != nil {
		return Prices{}, fmt.Errorf("%w: %v", ErrPriceFetch, err)
	}

	prices.Premium = Premium(prices.Ticker, prices.Rate)
	return prices, nil
}

// Premium: отклонение цены тикера от справочного курса в процентах.
func Premium(ticker, rate float64) float64 {
	if rate == 0 {
		return 0
	}
	return (ticker - rate) / rate * 100
}
