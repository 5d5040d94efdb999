package gateway

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/marketfront/internal/admin"
	"github.com/sudo-init-do/marketfront/internal/api"
	"github.com/sudo-init-do/marketfront/internal/listing"
	"github.com/sudo-init-do/marketfront/internal/reservation"
)

// fail writes err as a JSON error body with the matching status.
func (h *handlers) fail(c echo.Context, err error) error {
	var (
		vErr   *listing.ValidationError
		fields validator.ValidationErrors
		apiErr *api.Error
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &fields):
		out := make(map[string]string, len(fields))
		for _, f := range fields {
			out[f.Field()] = f.Tag()
		}
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "invalid input", "fields": out})
	case errors.Is(err, reservation.ErrReasonRequired),
		errors.Is(err, reservation.ErrUnknownReason),
		errors.Is(err, reservation.ErrDetailTooLong),
		errors.Is(err, admin.ErrInvalidStatus):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, api.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": api.Message(err)})
	case errors.Is(err, reservation.ErrNotSeller):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, reservation.ErrInFlight), errors.Is(err, reservation.ErrNoProduct):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, api.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden):
		return c.JSON(apiErr.Status, echo.Map{"error": api.Message(err)})
	case errors.Is(err, context.Canceled):
		return c.NoContent(http.StatusRequestTimeout)
	}
	h.Logger.Error("backend request failed", "path", c.Path(), "error", err)
	return c.JSON(http.StatusBadGateway, echo.Map{"error": api.Message(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func idParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}
