// Package listing holds the product search logic shared by the listing
// pages: filtering, paging, price input handling and query-string sync.
package listing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/marketfront/internal/api"
)

// FilterCriteria holds the filter inputs as the user typed them. An empty
// field imposes no constraint.
type FilterCriteria struct {
	Keyword  string
	Area     string
	Category string
	MinPrice string
	MaxPrice string
}

// priceBound parses a bound the way loose numeric coercion would: blank means
// unset, anything unparseable is ignored rather than rejected.
func priceBound(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// IgnoredBounds lists the price fields that are set but unparseable and
// therefore impose no constraint.
func (c FilterCriteria) IgnoredBounds() []string {
	var out []string
	if strings.TrimSpace(c.MinPrice) != "" {
		if _, ok := priceBound(c.MinPrice); !ok {
			out = append(out, "minPrice")
		}
	}
	if strings.TrimSpace(c.MaxPrice) != "" {
		if _, ok := priceBound(c.MaxPrice); !ok {
			out = append(out, "maxPrice")
		}
	}
	return out
}

// Filter returns the products on sale that satisfy every active criterion,
// in input order. The input slice is not modified.
func Filter(products []api.Product, c FilterCriteria) []api.Product {
	minPrice, hasMin := priceBound(c.MinPrice)
	maxPrice, hasMax := priceBound(c.MaxPrice)

	out := make([]api.Product, 0, len(products))
	for _, p := range products {
		if p.Status != api.StatusSale {
			continue
		}
		if c.Keyword != "" && !strings.Contains(p.Title, c.Keyword) && !strings.Contains(p.Description, c.Keyword) {
			continue
		}
		if c.Area != "" && p.Area != c.Area {
			continue
		}
		if c.Category != "" && p.Category != c.Category {
			continue
		}
		price := decimal.NewFromInt(p.Price)
		if hasMin && price.LessThan(minPrice) {
			continue
		}
		if hasMax && price.GreaterThan(maxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}
