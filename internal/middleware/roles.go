package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/marketfront/internal/api"
)

// Role gates run after RequireToken and read the role it decoded. The
// backend still enforces roles; these only spare it calls that would fail.

// AdminGuard lets only administrators through.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return roleGate(next, "admin access only", api.RoleAdmin)
}

// RequireRoles lets a request through when its role is one of roles.
// Usage: route(..., RequireRoles(api.RoleUser, api.RoleAdmin))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return roleGate(next, "access denied", roles...)
	}
}

func roleGate(next echo.HandlerFunc, denied string, roles ...string) echo.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c echo.Context) error {
		role, _ := c.Get(ContextRole).(string)
		if role == "" {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "role missing"})
		}
		if _, ok := allowed[role]; !ok {
			return c.JSON(http.StatusForbidden, echo.Map{"error": denied})
		}
		return next(c)
	}
}
