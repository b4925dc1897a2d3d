package types

import (
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order mirrors the commerce API order resource. Monetary fields stay as the
// decimal strings the API sends.
type Order struct {
	ID            int               `json:"id"`
	Number        string            `json:"number"`
	Status        enums.OrderStatus `json:"status"`
	DateCreated   string            `json:"date_created"`
	DateCompleted string            `json:"date_completed,omitempty"`
	Total         string            `json:"total"`
	Subtotal      string            `json:"subtotal"`
	ShippingTotal string            `json:"shipping_total"`
	TaxTotal      string            `json:"tax_total"`
	DiscountTotal string            `json:"discount_total"`
	Currency      string            `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	LineItems     []OrderLineItem   `json:"line_items"`
	Billing       Address           `json:"billing"`
	Shipping      Address           `json:"shipping"`
}

type OrderLineItem struct {
	ID        int    `json:"id"`
	ProductID int    `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// TotalValue parses the order total.
func (o Order) TotalValue() decimal.Decimal {
	return parseAmount(o.Total)
}

// ItemCount sums the quantities of every line.
func (o Order) ItemCount() int {
	count := 0
	for _, line := range o.LineItems {
		count += line.Quantity
	}
	return count
}

// OrderLineInput is a line in a create-order payload.
type OrderLineInput struct {
	ProductID   int `json:"product_id" validate:"required,gt=0"`
	VariationID int `json:"variation_id,omitempty" validate:"omitempty,gt=0"`
	Quantity    int `json:"quantity" validate:"required,gte=1"`
}

// CouponLineInput applies a coupon code to a new order.
type CouponLineInput struct {
	Code string `json:"code" validate:"required"`
}

// CreateOrderInput is the payload for POST /orders.
type CreateOrderInput struct {
	CustomerID    int               `json:"customer_id,omitempty" validate:"omitempty,gte=0"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	SetPaid       bool              `json:"set_paid"`
	Billing       Address           `json:"billing"`
	Shipping      Address           `json:"shipping"`
	LineItems     []OrderLineInput  `json:"line_items" validate:"required,min=1,dive"`
	CouponLines   []CouponLineInput `json:"coupon_lines,omitempty" validate:"omitempty,dive"`
}
