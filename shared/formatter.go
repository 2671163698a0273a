package shared

import (
	"math"
	"strconv"
)

// FormatNumber renders a number without superfluous trailing zeros.
// Integral values print as integers; very large magnitudes switch to exponent form.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}

	if n == 0 {
		// Avoid printing "-0"
		return "0"
	}

	if math.Abs(n) >= 1e21 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}

	if n == math.Trunc(n) {
		return strconv.FormatFloat(n, 'f', 0, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FormatValueForDisplay formats a variable value for the console and watch views.
// Text is quoted so that "5" and 5 can be told apart.
func FormatValueForDisplay(v Value) string {
	if v.IsText() {
		return strconv.Quote(v.Str)
	}
	return FormatNumber(v.Num)
}
