package gateway

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/listing"
	mware "github.com/sudo-init-do/marketfront/internal/middleware"
	"github.com/sudo-init-do/marketfront/internal/session"
)

func identity(c echo.Context) session.Identity {
	id, _ := mware.Identity(c)
	return id
}

// bindValid binds the request body into v and validates it.
func (h *handlers) bindValid(c echo.Context, v any) (bool, error) {
	if err := c.Bind(v); err != nil {
		return false, badRequest(c, "invalid request body")
	}
	if err := api.Validate(v); err != nil {
		return false, h.fail(c, err)
	}
	return true, nil
}

// POST /auth/send-code
func (h *handlers) sendCode(c echo.Context) error {
	var req api.SendCodeRequest
	if ok, err := h.bindValid(c, &req); !ok {
		return err
	}
	if err := h.API.SendCode(c.Request().Context(), req); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// POST /auth/verify-code
func (h *handlers) verifyCode(c echo.Context) error {
	var req api.VerifyCodeRequest
	if ok, err := h.bindValid(c, &req); !ok {
		return err
	}
	if err := h.API.VerifyCode(c.Request().Context(), req); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// POST /auth/signup
func (h *handlers) signup(c echo.Context) error {
	var req api.SignupRequest
	if ok, err := h.bindValid(c, &req); !ok {
		return err
	}
	if err := h.API.Signup(c.Request().Context(), req); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "signed up"})
}

// POST /auth/login
func (h *handlers) login(c echo.Context) error {
	var req api.LoginRequest
	if ok, err := h.bindValid(c, &req); !ok {
		return err
	}
	token, err := h.API.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := session.Decode(token)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": token, "userId": id.UserID, "role": id.Role})
}

// POST /auth/logout
func (h *handlers) logout(c echo.Context) error {
	if err := h.API.Logout(c.Request().Context(), identity(c).Auth()); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GET /users/profile
func (h *handlers) profile(c echo.Context) error {
	id := identity(c)
	dibs, err := h.API.Dibs(c.Request().Context(), id.Auth())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"userId": id.UserID,
		"role":   id.Role,
		"dibs":   productViews(dibs, h.Now()),
	})
}

// registerForm takes the price as typed; separators and stray characters are
// dropped before it is sent.
type registerForm struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Category    string   `json:"category"`
	Area        string   `json:"area"`
	Images      []string `json:"images"`
}

// bindProductForm reads a registerForm into a validated api.ProductForm. On
// failure the response has been written and ok is false.
func (h *handlers) bindProductForm(c echo.Context) (form api.ProductForm, ok bool, err error) {
	var f registerForm
	if err := c.Bind(&f); err != nil {
		return form, false, badRequest(c, "invalid request body")
	}
	digits := listing.NormalizePrice(f.Price)
	if digits == "" {
		return form, false, c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "price is required", "field": "price"})
	}
	price, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return form, false, c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "price is too large", "field": "price"})
	}
	form = api.ProductForm{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Price:       price,
		Category:    f.Category,
		Area:        f.Area,
		Images:      f.Images,
	}
	if err := api.Validate(&form); err != nil {
		return form, false, h.fail(c, err)
	}
	return form, true, nil
}

// POST /products/register
func (h *handlers) registerProduct(c echo.Context) error {
	form, ok, err := h.bindProductForm(c)
	if !ok {
		return err
	}
	p, err := h.API.CreateProduct(c.Request().Context(), identity(c).Auth(), form)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, newProductView(p, h.Now()))
}

// GET /users/products/:id
func (h *handlers) myProduct(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	p, err := h.API.MyProduct(c.Request().Context(), identity(c).Auth(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newProductView(p, h.Now()))
}

// PUT /users/products/:id
func (h *handlers) updateProduct(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	form, ok, err := h.bindProductForm(c)
	if !ok {
		return err
	}
	p, err := h.API.UpdateProduct(c.Request().Context(), identity(c).Auth(), id, form)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, newProductView(p, h.Now()))
}

// DELETE /users/products/:id
func (h *handlers) deleteProduct(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	if err := h.API.DeleteProduct(c.Request().Context(), identity(c).Auth(), id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PUT /products/:id/dib
func (h *handlers) toggleDib(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	state, err := h.API.ToggleDib(c.Request().Context(), identity(c).Auth(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// POST /reports
func (h *handlers) createReport(c echo.Context) error {
	var req api.ReportRequest
	if ok, err := h.bindValid(c, &req); !ok {
		return err
	}
	if err := h.API.CreateReport(c.Request().Context(), identity(c).Auth(), req); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "report received"})
}
