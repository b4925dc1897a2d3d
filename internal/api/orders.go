package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validators"
	"github.com/shopspring/decimal"
)

func (c *Client) ListOrders(ctx context.Context, params types.ListParams) (pagination.Page[types.Order], error) {
	params.PerPage = pagination.NormalizePerPage(params.PerPage)
	params.Page = pagination.NormalizePage(params.Page)
	return fetchPage[types.Order](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/orders",
		Query:  params.Values(),
	}, params.Page)
}

func (c *Client) GetOrder(ctx context.Context, id int) (*types.Order, error) {
	if err := requireID("order_id", id); err != nil {
		return nil, err
	}
	return fetch[types.Order](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/orders/" + strconv.Itoa(id),
		Endpoint: "/orders/{id}",
	})
}

func (c *Client) CreateOrder(ctx context.Context, input types.CreateOrderInput) (*types.Order, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return fetch[types.Order](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/orders",
		Body:   input,
	})
}

func (c *Client) GetCustomer(ctx context.Context, id int) (*types.Customer, error) {
	if err := requireID("customer_id", id); err != nil {
		return nil, err
	}
	return fetch[types.Customer](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/customers/" + strconv.Itoa(id),
		Endpoint: "/customers/{id}",
	})
}

func (c *Client) CreateCustomer(ctx context.Context, input types.CustomerInput) (*types.Customer, error) {
	if strings.TrimSpace(input.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"email": "is required"})
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return fetch[types.Customer](ctx, c, Request{
		Method: http.MethodPost,
		Path:   "/customers",
		Body:   input,
	})
}

func (c *Client) UpdateCustomer(ctx context.Context, id int, input types.CustomerInput) (*types.Customer, error) {
	if err := requireID("customer_id", id); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return fetch[types.Customer](ctx, c, Request{
		Method:   http.MethodPut,
		Path:     "/customers/" + strconv.Itoa(id),
		Endpoint: "/customers/{id}",
		Body:     input,
	})
}

// LookupCoupon finds a coupon by code. An unknown code is a NOT_FOUND error.
func (c *Client) LookupCoupon(ctx context.Context, code string) (*types.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupons, err := fetch[[]types.Coupon](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/coupons",
		Query:  map[string][]string{"code": {code}},
	})
	if err != nil {
		return nil, err
	}
	for _, coupon := range *coupons {
		if strings.EqualFold(coupon.Code, code) {
			match := coupon
			return &match, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
}

// CouponDiscount computes what the coupon takes off subtotal. Percent coupons
// apply to the subtotal; fixed coupons never exceed it.
func CouponDiscount(coupon types.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	amount, err := decimal.NewFromString(strings.TrimSpace(coupon.Amount))
	if err != nil || !amount.IsPositive() || !subtotal.IsPositive() {
		return decimal.Zero
	}
	if coupon.DiscountType == "percent" {
		return subtotal.Mul(amount).Div(decimal.NewFromInt(100)).Round(2)
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}
