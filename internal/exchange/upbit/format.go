package upbit

import "github.com/shopspring/decimal"

// formatNumber округляет до одного знака после запятой. Целые значения уходят без ".0".
func formatNumber(value float64) string {
	return decimal.NewFromFloat(value).Round(1).String()
}
