package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry returned by the commerce API.
type Product struct {
	ID               int                `json:"id"`
	Name             string             `json:"name"`
	Slug             string             `json:"slug"`
	Description      string             `json:"description"`
	ShortDescription string             `json:"short_description"`
	Price            string             `json:"price"`
	RegularPrice     string             `json:"regular_price"`
	SalePrice        string             `json:"sale_price"`
	Images           []ProductImage     `json:"images"`
	Categories       []Category         `json:"categories"`
	RelatedIDs       []int              `json:"related_ids"`
	Rating           float64            `json:"rating"`
	ReviewCount      int                `json:"review_count"`
	InStock          bool               `json:"in_stock"`
	StockQuantity    int                `json:"stock_quantity"`
	Attributes       []ProductAttribute `json:"attributes"`
	Variations       []int              `json:"variations,omitempty"`
}

type ProductImage struct {
	ID   int    `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

type ProductAttribute struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Position  int      `json:"position"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

// Category is a product category; Image is optional on the wire.
type Category struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Parent      int           `json:"parent"`
	Description string        `json:"description"`
	Display     string        `json:"display"`
	Image       *ProductImage `json:"image,omitempty"`
	MenuOrder   int           `json:"menu_order"`
	Count       int           `json:"count"`
}

// PriceValue parses the current price, returning zero for blank or malformed values.
func (p Product) PriceValue() decimal.Decimal {
	return parseAmount(p.Price)
}

// RegularPriceValue parses the list price.
func (p Product) RegularPriceValue() decimal.Decimal {
	return parseAmount(p.RegularPrice)
}

// OnSale reports whether a sale price below the regular price is set.
func (p Product) OnSale() bool {
	sale := parseAmount(p.SalePrice)
	return sale.IsPositive() && sale.LessThan(p.RegularPriceValue())
}

// PrimaryImage returns the first image, if any.
func (p Product) PrimaryImage() (ProductImage, bool) {
	if len(p.Images) == 0 {
		return ProductImage{}, false
	}
	return p.Images[0], true
}

func parseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return value
}
