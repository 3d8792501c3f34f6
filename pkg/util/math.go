package util

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// TruncateFloat cuts val down to prec decimal places without rounding up,
// so an order never asks for more than the configured quantity.
func TruncateFloat(val float64, prec int32) float64 {
	f, _ := decimal.NewFromFloat(val).Truncate(prec).Float64()
	return f
}

// RoundFloat rounds val half away from zero to prec decimal places.
func RoundFloat(val float64, prec int32) float64 {
	f, _ := decimal.NewFromFloat(val).Round(prec).Float64()
	return f
}

func FormatFloat(val float64, prec int) string {
	return strconv.FormatFloat(val, 'f', prec, 64)
}

// FormatDecimal formats val with exactly prec decimal places after truncation
func FormatDecimal(val float64, prec int32) string {
	return decimal.NewFromFloat(val).Truncate(prec).StringFixed(prec)
}
