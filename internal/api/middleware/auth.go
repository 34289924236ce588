package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/api/metrics"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

const claimsKey = "claims"

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth validates the bearer JWT, rejects revoked tokens and stores the
// claims in the echo context. A nil checker disables the revocation lookup.
// If the lookup itself fails the request is let through and a warning logged.
func Auth(jwtSecret string, revoked RevocationChecker, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				metrics.AuthRejectedTotal.WithLabelValues("missing_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.AuthRejectedTotal.WithLabelValues("malformed_header").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			mc := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], mc, func(token *jwt.Token) (interface{}, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tkn.Valid {
				metrics.AuthRejectedTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			claims := toTokenClaims(mc)
			if claims.UserID == "" || !claims.Role.Valid() {
				metrics.AuthRejectedTotal.WithLabelValues("invalid_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if revoked != nil && claims.TokenID != "" {
				isRevoked, err := revoked.IsRevoked(c.Request().Context(), claims.TokenID)
				if err != nil {
					log.Warn().Err(err).Str("username", claims.Username).Msg("revocation check failed, accepting token")
				} else if isRevoked {
					metrics.AuthRejectedTotal.WithLabelValues("revoked").Inc()
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by Auth.
func ClaimsFromContext(c echo.Context) (ports.TokenClaims, bool) {
	claims, ok := c.Get(claimsKey).(ports.TokenClaims)
	return claims, ok
}

// SetClaims stores claims the way Auth does. Handlers' tests use it to skip
// token signing.
func SetClaims(c echo.Context, claims ports.TokenClaims) {
	c.Set(claimsKey, claims)
}

func toTokenClaims(mc jwt.MapClaims) ports.TokenClaims {
	str := func(key string) string {
		v, _ := mc[key].(string)
		return v
	}
	claims := ports.TokenClaims{
		UserID:       str("sub"),
		Username:     str("username"),
		Role:         domain.Role(str("role")),
		AssignedBase: str("assigned_base"),
		TokenID:      str("jti"),
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims
}
