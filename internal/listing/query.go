package listing

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	DefaultPage = 0
	DefaultSize = 10
	DefaultSort = "createdAt,desc"

	// ProductsPath is where a submitted search navigates to.
	ProductsPath = "/products"
)

// Query parameter names shared with the backend.
const (
	ParamKeyword  = "keyword"
	ParamArea     = "area"
	ParamCategory = "category"
	ParamMinPrice = "minPrice"
	ParamMaxPrice = "maxPrice"
	ParamPage     = "page"
	ParamSize     = "size"
	ParamSort     = "sort"
)

// SearchState is the search bar plus paging state of a listing view. It
// round-trips through a URL query string so a search can be shared.
type SearchState struct {
	Keyword  string
	Area     string
	Category string
	MinPrice string
	MaxPrice string
	Page     int
	Size     int
	Sort     string
}

// ValidationError is a field-level input problem shown next to the field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Navigator performs a client-side navigation that pushes a history entry.
type Navigator interface {
	Push(location string)
}

func NewSearchState() SearchState {
	return SearchState{Page: DefaultPage, Size: DefaultSize, Sort: DefaultSort}
}

// ParseQuery reads a search state from query parameters. Missing or
// malformed values fall back to the defaults.
func ParseQuery(q url.Values) SearchState {
	s := NewSearchState()
	s.Keyword = q.Get(ParamKeyword)
	s.Area = q.Get(ParamArea)
	s.Category = q.Get(ParamCategory)
	s.MinPrice = q.Get(ParamMinPrice)
	s.MaxPrice = q.Get(ParamMaxPrice)
	if v, err := strconv.Atoi(q.Get(ParamPage)); err == nil && v >= 0 {
		s.Page = v
	}
	if v, err := strconv.Atoi(q.Get(ParamSize)); err == nil && v > 0 {
		s.Size = v
	}
	if v := q.Get(ParamSort); v != "" {
		s.Sort = v
	}
	return s
}

// Values serializes the state; empty filter fields are left out.
func (s SearchState) Values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set(ParamKeyword, s.Keyword)
	set(ParamArea, s.Area)
	set(ParamCategory, s.Category)
	set(ParamMinPrice, s.MinPrice)
	set(ParamMaxPrice, s.MaxPrice)
	q.Set(ParamPage, strconv.Itoa(s.Page))
	q.Set(ParamSize, strconv.Itoa(s.Size))
	set(ParamSort, s.Sort)
	return q
}

func (s SearchState) Encode() string {
	return s.Values().Encode()
}

// Location is the listing URL for this state.
func (s SearchState) Location() string {
	return ProductsPath + "?" + s.Encode()
}

func (s SearchState) Criteria() FilterCriteria {
	return FilterCriteria{
		Keyword:  s.Keyword,
		Area:     s.Area,
		Category: s.Category,
		MinPrice: s.MinPrice,
		MaxPrice: s.MaxPrice,
	}
}

// PageRequest is the paging part of a search.
type PageRequest struct {
	Page int
	Size int
	Sort string
}

func (s SearchState) PageRequest() PageRequest {
	return PageRequest{Page: s.Page, Size: s.Size, Sort: s.Sort}
}

// WithPage returns a copy of the state moved to page.
func (s SearchState) WithPage(page int) SearchState {
	s.Page = page
	return s
}

// Validate rejects a price range whose lower bound exceeds the upper bound.
func (s SearchState) Validate() error {
	minStr, maxStr := stripSeparators(s.MinPrice), stripSeparators(s.MaxPrice)
	if minStr == "" || maxStr == "" {
		return nil
	}
	lo, errLo := decimal.NewFromString(minStr)
	hi, errHi := decimal.NewFromString(maxStr)
	if errLo != nil || errHi != nil {
		return nil
	}
	if lo.GreaterThan(hi) {
		return &ValidationError{Field: ParamMinPrice, Message: "minimum price cannot exceed maximum price"}
	}
	return nil
}

// Submit validates the state and navigates to a fresh search: first page,
// default size and newest first. On a validation error nothing navigates.
func (s SearchState) Submit(nav Navigator) (SearchState, error) {
	if err := s.Validate(); err != nil {
		return s, err
	}
	s.Page = DefaultPage
	s.Size = DefaultSize
	s.Sort = DefaultSort
	nav.Push(s.Location())
	return s, nil
}
