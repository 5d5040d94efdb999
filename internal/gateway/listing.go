package gateway

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/marketfront/internal/listing"
)

// GET /
// Home filters the latest batch of products locally and windows the result.
func (h *handlers) home(c echo.Context) error {
	state := listing.ParseQuery(c.QueryParams())

	q := url.Values{}
	q.Set(listing.ParamPage, "0")
	q.Set(listing.ParamSize, strconv.Itoa(h.HomeBatchSize))
	q.Set(listing.ParamSort, listing.DefaultSort)
	batch, err := h.API.ListProducts(c.Request().Context(), q)
	if err != nil {
		return h.fail(c, err)
	}

	matched := listing.Filter(batch.Content, state.Criteria())
	pr := state.PageRequest()
	window := listing.Window(matched, pr.Page, pr.Size)
	now := h.Now()
	return c.JSON(http.StatusOK, newListingPage("/", state, productViews(window, now),
		int64(len(matched)), listing.TotalPages(len(matched), pr.Size)))
}

// GET /products
// Search pages are filtered and paged by the backend.
func (h *handlers) products(c echo.Context) error {
	state := listing.ParseQuery(c.QueryParams())
	if err := state.Validate(); err != nil {
		return h.fail(c, err)
	}
	res, err := h.API.ListProducts(c.Request().Context(), state.Values())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newListingPage(listing.ProductsPath, state,
		productViews(res.Content, h.Now()), res.TotalElements, res.TotalPages))
}

type searchForm struct {
	Keyword  string `json:"keyword" form:"keyword"`
	Area     string `json:"area" form:"area"`
	Category string `json:"category" form:"category"`
	MinPrice string `json:"minPrice" form:"minPrice"`
	MaxPrice string `json:"maxPrice" form:"maxPrice"`
}

type redirectNav struct {
	location string
}

func (n *redirectNav) Push(location string) { n.location = location }

// POST /search
func (h *handlers) search(c echo.Context) error {
	var f searchForm
	if err := c.Bind(&f); err != nil {
		return badRequest(c, "invalid search form")
	}
	state := listing.NewSearchState()
	state.Keyword, state.Area, state.Category = f.Keyword, f.Area, f.Category
	state.MinPrice, state.MaxPrice = f.MinPrice, f.MaxPrice

	nav := &redirectNav{}
	if _, err := state.Submit(nav); err != nil {
		return h.fail(c, err)
	}
	return c.Redirect(http.StatusSeeOther, nav.location)
}

// GET /products/:id
func (h *handlers) product(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	p, err := h.API.Product(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newProductView(p, h.Now()))
}

// GET /areas
func (h *handlers) areas(c echo.Context) error {
	areas, err := h.Refdata.Areas(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"areas": areas})
}

// GET /categories
func (h *handlers) categories(c echo.Context) error {
	cats, err := h.Refdata.Categories(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": cats})
}
