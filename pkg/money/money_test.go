package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestFormatPrice(t *testing.T) {
	cases := map[string]decimal.Decimal{
		"10.00": d("10"),
		"10.50": Parse("10.5"),
		"0.00":  Parse("garbage"),
	}
	for want, amount := range cases {
		if got := FormatPrice(amount); got != want {
			t.Fatalf("FormatPrice(%s) = %q, want %q", amount, got, want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1234.5", "usd", "$1,234.50"},
		{"99", "", "$99.00"},
		{"1000000", "EUR", "€1,000,000.00"},
		{"-12.3", "USD", "-$12.30"},
		{"5", "CHF", "CHF 5.00"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(d(tc.amount), tc.currency); got != tc.want {
			t.Fatalf("FormatCurrency(%s, %q) = %q, want %q", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestCalculateDiscount(t *testing.T) {
	cases := []struct {
		original, sale decimal.Decimal
		want           int64
	}{
		{d("100"), d("80"), 20},
		{d("30"), d("20"), 33},
		{d("80"), d("100"), 0},
		{decimal.Zero, d("10"), 0},
		{d("10"), decimal.Zero, 0},
	}
	for _, tc := range cases {
		if got := CalculateDiscount(tc.original, tc.sale); got != tc.want {
			t.Fatalf("CalculateDiscount(%s, %s) = %d, want %d", tc.original, tc.sale, got, tc.want)
		}
	}
}

func TestCalculateTaxAndShipping(t *testing.T) {
	if got := CalculateTax(d("100"), d("10")); !got.Equal(d("10")) {
		t.Fatalf("expected tax 10, got %s", got)
	}
	if got := CalculateTax(d("19.99"), d("8.25")); !got.Equal(d("1.65")) {
		t.Fatalf("expected tax rounded to 1.65, got %s", got)
	}
	if got := CalculateShipping(d("50"), d("5")); !got.Equal(d("2.5")) {
		t.Fatalf("expected shipping 2.5, got %s", got)
	}
}

func TestCalculateTotalNeverNegative(t *testing.T) {
	if got := CalculateTotal(d("100"), d("10"), d("5"), d("15")); !got.Equal(d("100")) {
		t.Fatalf("expected total 100, got %s", got)
	}
	if got := CalculateTotal(d("10"), d("1"), d("1"), d("50")); !got.IsZero() {
		t.Fatalf("expected total clamped to 0, got %s", got)
	}
	if got := CalculateTotal(d("-10"), decimal.Zero, decimal.Zero, decimal.Zero); !got.IsZero() {
		t.Fatalf("expected negative subtotal clamped to 0, got %s", got)
	}
}
