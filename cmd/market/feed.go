package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/notification"
)

var errQuit = errors.New("quit")

// feedView prints the notification feed incrementally.
type feedView struct {
	a       *app
	feed    *notification.Feed
	printed int
}

func newFeedView(a *app, auth api.Auth) *feedView {
	return &feedView{a: a, feed: notification.NewFeed(a.api, auth, notification.DefaultPageSize)}
}

func (v *feedView) print() {
	items := v.feed.Items()
	if v.printed > len(items) {
		v.printed = 0
	}
	for _, n := range items[v.printed:] {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(v.a.out, "%s %6d  %-14s %s\n", mark, n.NotificationID, posted(n.SentAt), n.Message)
	}
	v.printed = len(items)
	if len(items) == 0 {
		fmt.Fprintln(v.a.out, "No notifications.")
	}
}

func (v *feedView) hint() string {
	more := ""
	if v.feed.HasMore() {
		more = "[enter] more, "
	}
	return fmt.Sprintf("(%d unread) %sr <id> read, d <id> delete, q quit: ", v.feed.UnreadCount(), more)
}

func (v *feedView) handle(ctx context.Context, line string) error {
	if line == "" {
		if !v.feed.HasMore() {
			return errQuit
		}
		return v.feed.SentinelVisible(ctx)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return fmt.Errorf("unknown input %q", line)
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", fields[1])
	}
	switch fields[0] {
	case "r":
		return v.feed.MarkRead(ctx, id)
	case "d":
		if err := v.feed.Delete(ctx, id); err != nil {
			return err
		}
		// the list shifted; print it again from the top
		v.printed = 0
		return nil
	}
	return fmt.Errorf("unknown input %q", line)
}
