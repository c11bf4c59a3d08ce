package randsample

import (
	"math"
)

var epsilon = math.Nextafter(1, 2) - 1

func Lerp(value1, value2, amount float64) float64 { return value1 + (value2-value1)*amount }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isNoData(v, noData float64) bool {
	return math.IsNaN(v) || math.Abs(v-noData) <= epsilon
}

func getAverageExceptForNoDataValue(noData, valueIfAllBad float64, values ...float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if !isNoData(v, noData) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return valueIfAllBad
	}
	return sum / float64(n)
}
