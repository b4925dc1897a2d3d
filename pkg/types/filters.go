package types

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/shopspring/decimal"
)

// ProductFilters are the optional query-string filters of the products listing.
// Zero values are omitted from the query.
type ProductFilters struct {
	Category int
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Search   string
	OrderBy  enums.ProductSort
	PerPage  int
	Page     int
}

// Values encodes the filters for the products endpoint.
func (f ProductFilters) Values() url.Values {
	values := url.Values{}
	if f.Category > 0 {
		values.Set("category", strconv.Itoa(f.Category))
	}
	if f.MinPrice.Valid {
		values.Set("min_price", f.MinPrice.Decimal.String())
	}
	if f.MaxPrice.Valid {
		values.Set("max_price", f.MaxPrice.Decimal.String())
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		values.Set("search", search)
	}
	if f.OrderBy != "" {
		values.Set("orderby", f.OrderBy.String())
	}
	if f.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(f.PerPage))
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	return values
}

// ListParams is the generic page/per_page pair used by the other listings.
type ListParams struct {
	Page    int
	PerPage int
}

func (p ListParams) Values() url.Values {
	values := url.Values{}
	if p.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	return values
}
