package convert

import (
	"math"
)

func TwoDecimals(number float64) float64 {
	return RoundFloat64(number, 2)
}

func RoundFloat64(number float64, decimals int) float64 {
	if math.IsNaN(number) || math.IsInf(number, 0) {
		return number
	}
	return math.Round(number*math.Pow10(decimals)) / math.Pow10(decimals)
}
