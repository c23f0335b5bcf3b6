package engine

import (
	"kimchibot/internal/models"

	"github.com/shopspring/decimal"
)

var (
	two     = decimal.NewFromInt(2)
	hundred = decimal.NewFromInt(100)
)

// FloorToHalf округляет цену вниз до шага 0.5 KRW.
func FloorToHalf(price decimal.Decimal) decimal.Decimal {
	return price.Mul(two).Floor().Div(two)
}

// FloorVolume округляет объём вниз до 0.1.
func FloorVolume(volume decimal.Decimal) decimal.Decimal {
	return volume.RoundFloor(1)
}

// TargetPrice = floor-to-half(rate × (1 + threshold/100)).
func TargetPrice(rate, threshold float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(threshold).Div(hundred))
	return FloorToHalf(decimal.NewFromFloat(rate).Mul(factor)).InexactFloat64()
}

func BuyVolume(task *models.Task, price float64) float64 {
	if task.AllocatedAmount != nil {
		if price <= 0 {
			return 0
		}
		amount := decimal.NewFromFloat(*task.AllocatedAmount)
		return FloorVolume(amount.Div(decimal.NewFromFloat(price))).InexactFloat64()
	}
	return FloorVolume(decimal.NewFromFloat(models.Value(task.Volume))).InexactFloat64()
}

// SellVolume: объём купленный на первой ноге. Задача на продажу в денежном режиме
// продаёт allocatedAmount / price.
func SellVolume(task *models.Task, price float64) float64 {
	if task.FilledVolume == nil && task.Volume == nil && task.AllocatedAmount != nil {
		if price <= 0 {
			return 0
		}
		amount := decimal.NewFromFloat(*task.AllocatedAmount)
		return FloorVolume(amount.Div(decimal.NewFromFloat(price))).InexactFloat64()
	}
	return FloorVolume(decimal.NewFromFloat(task.SellVolume())).InexactFloat64()
}

func sameAmount(a, b float64) bool {
	return decimal.NewFromFloat(a).Equal(decimal.NewFromFloat(b))
}
