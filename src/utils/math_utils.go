package utils

import (
	"fmt"
	"math"
	"strings"
)

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// FormatPercentBR renders a percentage with a comma decimal separator, the
// way the frontend displays it (e.g. 12.34 -> "12,34%").
func FormatPercentBR(pct float64) string {
	s := fmt.Sprintf("%.2f", pct)
	return strings.Replace(s, ".", ",", 1) + "%"
}
