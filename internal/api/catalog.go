package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// Product is a catalog entry. The catalog surface is read-only for this
// client, so the loosely-typed fields stay as raw JSON for the UI layer.
type Product struct {
	ID    string
	Name  string
	Price string
	Raw   string
}

// Products lists catalog products. This is a public endpoint: no token is
// required and a 401 here never clears the cached session.
func (c *Client) Products(ctx context.Context, page, limit int) ([]Product, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	body, status, err := c.do(ctx, http.MethodGet, "/products", query, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, false)
	}

	var products []Product
	gjson.GetBytes(body, "data").ForEach(func(_, value gjson.Result) bool {
		products = append(products, Product{
			ID:    value.Get("_id").String(),
			Name:  value.Get("name").String(),
			Price: value.Get("price").String(),
			Raw:   value.Raw,
		})
		return true
	})
	return products, nil
}

// Categories lists catalog categories (public).
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/categories", nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, false)
	}

	var names []string
	gjson.GetBytes(body, "data").ForEach(func(_, value gjson.Result) bool {
		names = append(names, value.Get("name").String())
		return true
	})
	return names, nil
}

// Brands lists catalog brands (public).
func (c *Client) Brands(ctx context.Context) ([]string, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/brands", nil, nil, "")
	if err != nil {
		return nil, err
	}
	if status >= 400 {
		return nil, apiError(status, body, false)
	}

	var names []string
	gjson.GetBytes(body, "data").ForEach(func(_, value gjson.Result) bool {
		names = append(names, value.Get("name").String())
		return true
	})
	return names, nil
}
