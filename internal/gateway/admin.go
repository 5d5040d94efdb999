package gateway

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GET /admin/users
func (h *handlers) adminUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	users, err := h.Admin.Users(c.Request().Context(), identity(c).Auth(), page)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

// PUT /admin/users/:id/status
func (h *handlers) adminSetUserStatus(c echo.Context) error {
	userID, ok := idParam(c)
	if !ok {
		return badRequest(c, "user id required")
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if err := h.Admin.SetUserStatus(c.Request().Context(), identity(c).Auth(), userID, body.Status); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user status updated", "user_id": userID, "status": body.Status})
}

// GET /admin/reports
func (h *handlers) adminReports(c echo.Context) error {
	reports, err := h.Admin.UnprocessedReports(c.Request().Context(), identity(c).Auth())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reports": reports})
}
