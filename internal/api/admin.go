package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) CreateReport(ctx context.Context, auth Auth, req ReportRequest) error {
	return c.send(ctx, private(http.MethodPost, "/api/reports", auth).withBody(req), nil)
}

// Admin endpoints. The backend rejects non-admin tokens with 403.

func (c *Client) AdminUsers(ctx context.Context, auth Auth, page, size int) (Page[User], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var out Page[User]
	err := c.send(ctx, private(http.MethodGet, "/api/admin/users", auth).withQuery(q), &out)
	return out, err
}

func (c *Client) AdminUser(ctx context.Context, auth Auth, id int64) (User, error) {
	var out User
	err := c.send(ctx, private(http.MethodGet, idPath("/api/admin/users/%d", id), auth), &out)
	return out, err
}

func (c *Client) SetUserStatus(ctx context.Context, auth Auth, id int64, status string) error {
	body := map[string]string{"status": status}
	return c.send(ctx, private(http.MethodPut, idPath("/api/admin/users/%d/status", id), auth).withBody(body), nil)
}

func (c *Client) UnprocessedReports(ctx context.Context, auth Auth) ([]Report, error) {
	var out []Report
	if err := c.send(ctx, private(http.MethodGet, "/api/reports/admin/unprocessed", auth), &out); err != nil {
		return nil, err
	}
	return out, nil
}
