package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Notifications(ctx context.Context, auth Auth, page, size int) (Page[Notification], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	var out Page[Notification]
	err := c.send(ctx, private(http.MethodGet, "/api/notifications", auth).withQuery(q), &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, auth Auth, id int64) error {
	return c.send(ctx, private(http.MethodPatch, idPath("/api/notifications/%d/read", id), auth), nil)
}

func (c *Client) DeleteNotification(ctx context.Context, auth Auth, id int64) error {
	return c.send(ctx, private(http.MethodDelete, idPath("/api/notifications/%d", id), auth), nil)
}
