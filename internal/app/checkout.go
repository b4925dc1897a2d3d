package app

import (
	"context"

	"github.com/angelmondragon/packfinderz-storefront/internal/api"
	"github.com/angelmondragon/packfinderz-storefront/internal/cart"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/money"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/shopspring/decimal"
)

// PriceCart fetches current product prices and the applied coupon, then
// stores the resulting totals on the cart.
func (a *App) PriceCart(ctx context.Context) (cart.Totals, error) {
	items := a.cart.Items()
	prices := make(map[int]decimal.Decimal, len(items))

	subtotal := decimal.Zero
	for _, item := range items {
		price, ok := prices[item.ProductID]
		if !ok {
			product, err := a.api.GetProduct(ctx, item.ProductID)
			if err != nil {
				return cart.Totals{}, err
			}
			price = product.PriceValue()
			prices[item.ProductID] = price
		}
		subtotal = subtotal.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if code, ok := a.cart.Coupon(); ok {
		coupon, err := a.api.LookupCoupon(ctx, code)
		if err != nil {
			return cart.Totals{}, err
		}
		discount = api.CouponDiscount(*coupon, subtotal)
	}

	pricing := a.cfg.Pricing
	tax := money.CalculateTax(subtotal, pricing.TaxRate)
	shipping := money.CalculateShipping(subtotal, pricing.ShippingRate)
	a.cart.CalculateTotals(ctx, subtotal, tax, shipping, discount)
	return a.cart.Totals(), nil
}

// ApplyCoupon checks the code against the API before attaching it to the cart
// and repricing.
func (a *App) ApplyCoupon(ctx context.Context, code string) (cart.Totals, error) {
	coupon, err := a.api.LookupCoupon(ctx, code)
	if err != nil {
		return cart.Totals{}, err
	}
	a.cart.ApplyCoupon(ctx, coupon.Code)
	return a.PriceCart(ctx)
}

type CheckoutInput struct {
	PaymentMethod string
	Billing       types.Address
	Shipping      types.Address
}

// Checkout turns the cart into an order. The cart is cleared only after the
// API accepted the order.
func (a *App) Checkout(ctx context.Context, input CheckoutInput) (*types.Order, error) {
	items := a.cart.Items()
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	order := types.CreateOrderInput{
		PaymentMethod: input.PaymentMethod,
		Billing:       input.Billing,
		Shipping:      input.Shipping,
		LineItems:     make([]types.OrderLineInput, 0, len(items)),
	}
	if order.Shipping.IsZero() {
		order.Shipping = order.Billing
	}
	if session := a.auth.Session(); session.Authenticated && session.User != nil {
		order.CustomerID = session.User.ID
	}
	for _, item := range items {
		order.LineItems = append(order.LineItems, types.OrderLineInput{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
		})
	}
	if code, ok := a.cart.Coupon(); ok {
		order.CouponLines = []types.CouponLineInput{{Code: code}}
	}

	created, err := a.api.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	a.cart.ClearCart(ctx)
	a.log.Info(a.log.WithField(ctx, "order_id", created.ID), "order placed")
	return created, nil
}
