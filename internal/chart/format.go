package chart

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands grouping and at most three fraction
// digits, e.g. 12345.678 as "12,345.678".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return printer.Sprint(v)
	}
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

func tickFormatter(v interface{}) string {
	switch n := v.(type) {
	case float64:
		return FormatNumber(n)
	case int:
		return FormatNumber(float64(n))
	default:
		return printer.Sprint(v)
	}
}

func indexFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return printer.Sprint(int(math.Round(f)))
	}
	return printer.Sprint(v)
}
