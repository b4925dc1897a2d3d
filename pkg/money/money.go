package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
	"AUD": "A$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Parse reads a decimal amount from API text, treating blank or malformed input as zero.
func Parse(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return value
}

// FormatPrice renders an amount with exactly two decimals.
func FormatPrice(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatCurrency renders an amount with the currency symbol and thousands separators,
// e.g. "$1,234.50". Unknown currencies are prefixed with their ISO code.
func FormatCurrency(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if code == "" {
		code = "USD"
	}

	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	body := groupThousands(whole) + "." + frac

	if symbol, ok := currencySymbols[code]; ok {
		return sign + symbol + body
	}
	return fmt.Sprintf("%s%s %s", sign, code, body)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// CalculateDiscount returns the whole-number percentage saved by the sale price.
// It is zero when either price is missing or the sale is not cheaper.
func CalculateDiscount(original, sale decimal.Decimal) int64 {
	if !original.IsPositive() || !sale.IsPositive() || sale.GreaterThanOrEqual(original) {
		return 0
	}
	return original.Sub(sale).Div(original).Mul(hundred).Round(0).IntPart()
}

// CalculateTax applies a percentage rate and rounds to cents.
func CalculateTax(subtotal, ratePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ratePercent).Div(hundred).Round(2)
}

// CalculateShipping applies a percentage rate and rounds to cents.
func CalculateShipping(subtotal, ratePercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(ratePercent).Div(hundred).Round(2)
}

// CalculateTotal is subtotal+tax+shipping-discount clamped at zero.
func CalculateTotal(subtotal, tax, shipping, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}
