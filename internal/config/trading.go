package config

import (
	"errors"
	"fmt"
	"os"

	"kimchibot/internal/pkg/jsonfile"

	"github.com/spf13/viper"
)

// Trading: документ торговых настроек. Его правит API, движок перечитывает его на каждом тике.
type Trading struct {
	IsTrading      bool    `json:"isTrading"`
	BuyThreshold   float64 `json:"buyThreshold"`
	SellThreshold  float64 `json:"sellThreshold"`
	TradeAmount    float64 `json:"tradeAmount"`
	IsTradeByMoney bool    `json:"isTradeByMoney"`
}

const (
	DefaultBuyThreshold  = 0.5
	DefaultSellThreshold = 2.5
)

func DefaultTrading() Trading {
	return Trading{
		IsTrading:      false,
		BuyThreshold:   DefaultBuyThreshold,
		SellThreshold:  DefaultSellThreshold,
		IsTradeByMoney: true,
	}
}

func LoadTrading(path string) (Trading, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultTrading(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	def := DefaultTrading()
	v.SetDefault("isTrading", def.IsTrading)
	v.SetDefault("buyThreshold", def.BuyThreshold)
	v.SetDefault("sellThreshold", def.SellThreshold)
	v.SetDefault("tradeAmount", def.TradeAmount)
	v.SetDefault("isTradeByMoney", def.IsTradeByMoney)

	if err := v.ReadInConfig(); err != nil {
		return Trading{}, fmt.Errorf("Не удалось прочитать торговые настройки: %w", err)
	}

	return Trading{
		IsTrading:      v.GetBool("isTrading"),
		BuyThreshold:   v.GetFloat64("buyThreshold"),
		SellThreshold:  v.GetFloat64("sellThreshold"),
		TradeAmount:    v.GetFloat64("tradeAmount"),
		IsTradeByMoney: v.GetBool("isTradeByMoney"),
	}, nil
}

// SetTrading перечитывает документ и меняет только isTrading, остальные ключи сохраняются.
func SetTrading(path string, on bool) error {
	raw := map[string]any{}
	if err := jsonfile.Read(path, &raw); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		def := DefaultTrading()
		raw["buyThreshold"] = def.BuyThreshold
		raw["sellThreshold"] = def.SellThreshold
		raw["tradeAmount"] = def.TradeAmount
		raw["isTradeByMoney"] = def.IsTradeByMoney
	}
	raw["isTrading"] = on
	return jsonfile.Write(path, raw)
}
