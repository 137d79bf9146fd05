package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ticket_service/internal/models"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/tokens"
)

const userContextKey = "current_user"

// Guard resolves bearer tokens to users. Every failure mode (missing
// header, bad signature, expiry, wrong kind, unknown subject) collapses
// into the same 401 so callers learn nothing about why.
type Guard struct {
	Codec *tokens.Codec
	Repo  repo.GormRepo
}

func NewGuard(codec *tokens.Codec, r repo.GormRepo) *Guard {
	return &Guard{Codec: codec, Repo: r}
}

func (g *Guard) RequireAccess(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireKind(tokens.KindAccess, next)
}

func (g *Guard) RequireRefresh(next echo.HandlerFunc) echo.HandlerFunc {
	return g.requireKind(tokens.KindRefresh, next)
}

func (g *Guard) requireKind(kind string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		claims, err := g.Codec.Decode(raw)
		if err != nil || claims == nil || claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
		}
		if claims.Type != kind {
			return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
		}

		user, err := g.Repo.FindUserByEmail(c.Request().Context(), claims.Subject)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// CurrentUser returns the user resolved by the guard, nil outside a
// guarded route.
func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}
