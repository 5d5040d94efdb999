package api

import (
	"context"
	"net/http"
)

func (c *Client) Areas(ctx context.Context) ([]Area, error) {
	var out []Area
	if err := c.send(ctx, public(http.MethodGet, "/areas"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.send(ctx, public(http.MethodGet, "/categories"), &out); err != nil {
		return nil, err
	}
	return out, nil
}
