// Package notification holds the forward-only, infinitely scrolled
// notification list.
package notification

import (
	"context"
	"sync"

	"github.com/sudo-init-do/marketfront/internal/api"
)

const DefaultPageSize = 10

// Backend is the part of the API the feed needs. *api.Client implements it.
type Backend interface {
	Notifications(ctx context.Context, auth api.Auth, page, size int) (api.Page[api.Notification], error)
	MarkNotificationRead(ctx context.Context, auth api.Auth, id int64) error
	DeleteNotification(ctx context.Context, auth api.Auth, id int64) error
}

// Feed pages through notifications. Once a fetch fails or the last page is
// reached it stops paging; nothing is retried.
type Feed struct {
	backend Backend
	auth    api.Auth
	size    int

	mu      sync.Mutex
	page    int
	hasMore bool
	loading bool
	err     error
	items   []api.Notification
	index   map[int64]int
}

func NewFeed(b Backend, auth api.Auth, size int) *Feed {
	if size <= 0 {
		size = DefaultPageSize
	}
	return &Feed{backend: b, auth: auth, size: size, hasMore: true, index: make(map[int64]int)}
}

// Load fetches the current page.
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	page := f.page
	f.mu.Unlock()
	return f.fetch(ctx, page)
}

// SentinelVisible is called when the end of the list scrolls into view. It
// advances to the next page and fetches it, unless paging has stopped or a
// fetch is already running.
func (f *Feed) SentinelVisible(ctx context.Context) error {
	f.mu.Lock()
	if !f.hasMore || f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	f.page++
	page := f.page
	f.mu.Unlock()
	return f.fetch(ctx, page)
}

func (f *Feed) fetch(ctx context.Context, page int) error {
	res, err := f.backend.Notifications(ctx, f.auth, page, f.size)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		f.err = err
		f.hasMore = false
		return err
	}
	f.err = nil
	for _, n := range res.Content {
		if _, dup := f.index[n.NotificationID]; dup {
			continue
		}
		f.index[n.NotificationID] = len(f.items)
		f.items = append(f.items, n)
	}
	f.hasMore = page < res.TotalPages-1
	return nil
}

// MarkRead marks one notification read once the backend confirms it.
func (f *Feed) MarkRead(ctx context.Context, id int64) error {
	if err := f.backend.MarkNotificationRead(ctx, f.auth, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if i, ok := f.index[id]; ok {
		f.items[i].IsRead = true
	}
	return nil
}

// Delete removes one notification once the backend confirms it.
func (f *Feed) Delete(ctx context.Context, id int64) error {
	if err := f.backend.DeleteNotification(ctx, f.auth, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.index[id]
	if !ok {
		return nil
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
	delete(f.index, id)
	for j := i; j < len(f.items); j++ {
		f.index[f.items[j].NotificationID] = j
	}
	return nil
}

func (f *Feed) Items() []api.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.Notification, len(f.items))
	copy(out, f.items)
	return out
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, it := range f.items {
		if !it.IsRead {
			n++
		}
	}
	return n
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

func (f *Feed) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// Err is the error of the last failed fetch.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}
