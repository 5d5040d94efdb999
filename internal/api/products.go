package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListProducts is a public read; params carry the search state
// (keyword, area, category, minPrice, maxPrice, page, size, sort).
func (c *Client) ListProducts(ctx context.Context, params url.Values) (Page[Product], error) {
	var out Page[Product]
	err := c.send(ctx, public(http.MethodGet, "/api/products").withQuery(params), &out)
	return out, err
}

func (c *Client) Product(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := c.send(ctx, public(http.MethodGet, idPath("/api/products/%d", id)), &out)
	return out, err
}

func (c *Client) ProductImages(ctx context.Context, id int64) ([]string, error) {
	var out []string
	if err := c.send(ctx, public(http.MethodGet, idPath("/images/product/%d", id)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Seller-owned product management.

func (c *Client) CreateProduct(ctx context.Context, auth Auth, form ProductForm) (Product, error) {
	var out Product
	err := c.send(ctx, private(http.MethodPost, "/api/users/products", auth).withBody(form), &out)
	return out, err
}

func (c *Client) MyProduct(ctx context.Context, auth Auth, id int64) (Product, error) {
	var out Product
	err := c.send(ctx, private(http.MethodGet, idPath("/api/users/products/%d", id), auth), &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, auth Auth, id int64, form ProductForm) (Product, error) {
	var out Product
	err := c.send(ctx, private(http.MethodPut, idPath("/api/users/products/%d", id), auth).withBody(form), &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, auth Auth, id int64) error {
	return c.send(ctx, private(http.MethodDelete, idPath("/api/users/products/%d", id), auth), nil)
}

// Dibs.

func (c *Client) ToggleDib(ctx context.Context, auth Auth, productID int64) (DibState, error) {
	var out DibState
	err := c.send(ctx, private(http.MethodPut, idPath("/api/dibs/%d", productID), auth), &out)
	return out, err
}

func (c *Client) Dibs(ctx context.Context, auth Auth) ([]Product, error) {
	var out []Product
	if err := c.send(ctx, private(http.MethodGet, "/api/dibs", auth), &out); err != nil {
		return nil, err
	}
	return out, nil
}
