package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrms/resource-management/internal/api/middleware"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

// ctxClaims returns the claims injected by the Auth middleware. A
// non-Admin token without an assigned base is structurally valid but cannot
// be scoped, so it is rejected before any service call.
func ctxClaims(c echo.Context) (ports.TokenClaims, error) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok || claims.Role == "" {
		return ports.TokenClaims{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if claims.Role != domain.RoleAdmin && claims.AssignedBase == "" {
		return ports.TokenClaims{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing base assignment")
	}
	return claims, nil
}

// ctxActor builds the acting user from the token claims.
func ctxActor(c echo.Context) (*domain.User, error) {
	claims, err := ctxClaims(c)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:           claims.UserID,
		Username:     claims.Username,
		Role:         claims.Role,
		AssignedBase: claims.AssignedBase,
		Active:       true,
	}, nil
}
