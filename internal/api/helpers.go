package api

import (
	"context"
	"fmt"
	"net/http"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/pagination"
)

func requireID(name string, id int) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", name)).
			WithDetails(map[string]string{name: "must be greater than 0"})
	}
	return nil
}

func fetch[T any](ctx context.Context, c *Client, req Request) (*T, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	var out T
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func fetchPage[T any](ctx context.Context, c *Client, req Request, page int) (pagination.Page[T], error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return pagination.Page[T]{}, err
	}
	var items []T
	if err := resp.Decode(&items); err != nil {
		return pagination.Page[T]{}, err
	}
	return pagination.FromHeaders(items, resp.Header, page), nil
}
