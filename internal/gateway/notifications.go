package gateway

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/marketfront/internal/notification"
	"github.com/sudo-init-do/marketfront/internal/timefmt"
)

// maxFeedPage bounds how far one request may scroll the feed.
const maxFeedPage = 50

// GET /notifications?page=N
// Returns everything the feed holds after scrolling to page N, which is how
// the infinite list looks once the sentinel has been reached N times.
func (h *handlers) notifications(c echo.Context) error {
	target, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || target < 0 {
		target = 0
	}
	if target > maxFeedPage {
		target = maxFeedPage
	}

	ctx := c.Request().Context()
	feed := notification.NewFeed(h.API, identity(c).Auth(), notification.DefaultPageSize)
	if err := feed.Load(ctx); err != nil {
		return h.fail(c, err)
	}
	for feed.Page() < target && feed.HasMore() {
		if err := feed.SentinelVisible(ctx); err != nil {
			return h.fail(c, err)
		}
	}

	now := h.Now()
	items := feed.Items()
	views := make([]notificationView, len(items))
	for i, n := range items {
		views[i] = notificationView{Notification: n, Sent: timefmt.Relative(n.SentAt.Time, now)}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"notifications": views,
		"page":          feed.Page(),
		"hasMore":       feed.HasMore(),
		"unreadCount":   feed.UnreadCount(),
	})
}

// PATCH /notifications/:id/read
func (h *handlers) markNotificationRead(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := h.API.MarkNotificationRead(c.Request().Context(), identity(c).Auth(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// DELETE /notifications/:id
func (h *handlers) deleteNotification(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := h.API.DeleteNotification(c.Request().Context(), identity(c).Auth(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
