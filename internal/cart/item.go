package cart

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one cart line. ID identifies the product plus its chosen options,
// so adding the same combination again merges into the same line.
type Item struct {
	ID          string            `json:"id"`
	ProductID   int               `json:"product_id"`
	Quantity    int               `json:"quantity"`
	VariationID int               `json:"variation_id,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Totals are the amounts last supplied by the pricing source.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// LineID derives a stable line identifier from the product, the variation and
// the attribute selection. Attribute order does not matter.
func LineID(productID, variationID int, attributes map[string]string) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(productID))
	if variationID > 0 {
		b.WriteString(":v")
		b.WriteString(strconv.Itoa(variationID))
	}
	if len(attributes) > 0 {
		b.WriteByte('|')
		for i, key := range slices.Sorted(maps.Keys(attributes)) {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(attributes[key])
		}
	}
	return b.String()
}

func (i Item) clone() Item {
	out := i
	if i.Attributes != nil {
		out.Attributes = maps.Clone(i.Attributes)
	}
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		out = append(out, item.clone())
	}
	return out
}
