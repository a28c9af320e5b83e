// Package money renders amounts for people: ISO currency code, thousands
// separators, and a leading minus for negative values.
package money

import (
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Format renders amount with two decimals, e.g. "USD 1,234.50".
func Format(amount float64, code string) string {
	return render(amount, code, 2)
}

// FormatWhole rounds to whole units, e.g. "PKR 37,200".
func FormatWhole(amount float64, code string) string {
	return render(math.Round(amount), code, 0)
}

func render(amount float64, code string, decimals int) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := printer.Sprint(number.Decimal(amount, number.Scale(decimals)))
	if code == "" {
		return sign + digits
	}
	return sign + code + " " + digits
}

// ValidCurrency reports whether code is an ISO 4217 currency code.
func ValidCurrency(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 3 || strings.ToUpper(code) != code {
		return false
	}
	_, err := currency.ParseISO(code)
	return err == nil
}
