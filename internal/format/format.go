// Package format holds display helpers shared by calculations and exports.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Unknown labels values that could not be resolved.
const Unknown = "Unknown"

var (
	title   = cases.Title(language.English)
	printer = message.NewPrinter(language.English)
)

// Category returns the display form of a free text category: trimmed,
// whitespace collapsed, title cased. Empty input yields Unknown.
func Category(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return Unknown
	}
	return title.String(s)
}

// Money renders an amount with thousand separators and two decimals.
func Money(d decimal.Decimal) string {
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

// Percent renders a percentage with one decimal.
func Percent(f float64) string {
	return printer.Sprintf("%.1f%%", f)
}

// Round2 rounds to two decimal places.
func Round2(f float64) float64 {
	d := decimal.NewFromFloat(f).Round(2)
	r, _ := d.Float64()
	return r
}

// Ratio returns num/den*100 rounded to two places, 0 when den is zero.
func Ratio(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	f, _ := num.Div(den).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return f
}

// RatioInt is Ratio for counts.
func RatioInt(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return Round2(float64(num) / float64(den) * 100)
}
