package gateway

import (
	"time"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/listing"
	"github.com/sudo-init-do/marketfront/internal/timefmt"
)

type productView struct {
	api.Product
	PriceText string `json:"priceText"`
	Posted    string `json:"posted"`
}

func newProductView(p api.Product, now time.Time) productView {
	return productView{
		Product:   p,
		PriceText: listing.FormatPrice(p.Price),
		Posted:    timefmt.Relative(p.CreatedAt.Time, now),
	}
}

func productViews(ps []api.Product, now time.Time) []productView {
	out := make([]productView, len(ps))
	for i, p := range ps {
		out[i] = newProductView(p, now)
	}
	return out
}

// listingPage is the body of the home and search pages.
type listingPage struct {
	Products      []productView `json:"products"`
	Query         string        `json:"query"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalPages    int           `json:"totalPages"`
	TotalElements int64         `json:"totalElements"`
	HasPrev       bool          `json:"hasPrev"`
	HasNext       bool          `json:"hasNext"`
	PrevURL       string        `json:"prevUrl,omitempty"`
	NextURL       string        `json:"nextUrl,omitempty"`
	// IgnoredBounds names price fields that could not be read as numbers
	// and were not applied.
	IgnoredBounds []string `json:"ignoredBounds,omitempty"`
}

func newListingPage(base string, state listing.SearchState, products []productView, total int64, totalPages int) listingPage {
	lp := listingPage{
		Products:      products,
		Query:         state.Encode(),
		Page:          state.Page,
		Size:          state.Size,
		TotalPages:    totalPages,
		TotalElements: total,
		IgnoredBounds: state.Criteria().IgnoredBounds(),
	}
	pager := listing.NewPager(state.Page, totalPages, nil)
	lp.HasPrev, lp.HasNext = pager.HasPrev(), pager.HasNext()
	if lp.HasPrev {
		lp.PrevURL = base + "?" + state.WithPage(state.Page-1).Encode()
	}
	if lp.HasNext {
		lp.NextURL = base + "?" + state.WithPage(state.Page+1).Encode()
	}
	return lp
}

type messageView struct {
	api.ChatMessage
	Mine bool   `json:"mine"`
	Time string `json:"time"`
}

type notificationView struct {
	api.Notification
	Sent string `json:"sent"`
}
