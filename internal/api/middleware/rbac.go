package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrms/resource-management/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			principal := &domain.User{ID: claims.UserID, Role: claims.Role, AssignedBase: claims.AssignedBase}
			if !principal.HasRole(allowedRoles...) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
