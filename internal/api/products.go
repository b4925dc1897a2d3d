package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validators"
)

// MinSearchLength is the shortest search term sent to the API.
const MinSearchLength = 2

// ListProducts returns one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, filters types.ProductFilters) (pagination.Page[types.Product], error) {
	filters.PerPage = pagination.NormalizePerPage(filters.PerPage)
	filters.Page = pagination.NormalizePage(filters.Page)
	return fetchPage[types.Product](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/products",
		Query:  filters.Values(),
	}, filters.Page)
}

func (c *Client) GetProduct(ctx context.Context, id int) (*types.Product, error) {
	if err := requireID("product_id", id); err != nil {
		return nil, err
	}
	return fetch[types.Product](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/products/" + strconv.Itoa(id),
		Endpoint: "/products/{id}",
	})
}

// SearchProducts runs a catalog search. Terms shorter than MinSearchLength
// return an empty page without calling the API.
func (c *Client) SearchProducts(ctx context.Context, term string, filters types.ProductFilters) (pagination.Page[types.Product], error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) < MinSearchLength {
		return pagination.Empty[types.Product](filters.Page), nil
	}
	filters.Search = term
	filters.PerPage = pagination.NormalizePerPage(filters.PerPage)
	filters.Page = pagination.NormalizePage(filters.Page)
	return fetchPage[types.Product](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/products",
		Endpoint: "/products?search",
		Query:    filters.Values(),
	}, filters.Page)
}

func (c *Client) ListCategories(ctx context.Context, params types.ListParams) (pagination.Page[types.Category], error) {
	params.PerPage = pagination.NormalizePerPage(params.PerPage)
	params.Page = pagination.NormalizePage(params.Page)
	return fetchPage[types.Category](ctx, c, Request{
		Method: http.MethodGet,
		Path:   "/products/categories",
		Query:  params.Values(),
	}, params.Page)
}

func (c *Client) GetCategory(ctx context.Context, id int) (*types.Category, error) {
	if err := requireID("category_id", id); err != nil {
		return nil, err
	}
	return fetch[types.Category](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/products/categories/" + strconv.Itoa(id),
		Endpoint: "/products/categories/{id}",
	})
}

func (c *Client) ListProductReviews(ctx context.Context, productID int, params types.ListParams) (pagination.Page[types.Review], error) {
	if err := requireID("product_id", productID); err != nil {
		return pagination.Page[types.Review]{}, err
	}
	params.PerPage = pagination.NormalizePerPage(params.PerPage)
	params.Page = pagination.NormalizePage(params.Page)
	return fetchPage[types.Review](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/products/" + strconv.Itoa(productID) + "/reviews",
		Endpoint: "/products/{id}/reviews",
		Query:    params.Values(),
	}, params.Page)
}

func (c *Client) CreateReview(ctx context.Context, productID int, input types.ReviewInput) (*types.Review, error) {
	if err := requireID("product_id", productID); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return fetch[types.Review](ctx, c, Request{
		Method:   http.MethodPost,
		Path:     "/products/" + strconv.Itoa(productID) + "/reviews",
		Endpoint: "/products/{id}/reviews",
		Body:     input,
	})
}
