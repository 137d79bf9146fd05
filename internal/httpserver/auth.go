package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ticket_service/internal/logging"
	authmw "github.com/Skotchmaster/ticket_service/internal/middleware/auth"
	"github.com/Skotchmaster/ticket_service/internal/service"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	if err := h.Svc.RequestLogin(ctx, req.Email, req.Password); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Login code sent"})
}

func (h *AuthHTTP) ConfirmLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_confirm_login")

	var req confirmLoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("confirm_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and code are required")
	}

	pair, err := h.Svc.ConfirmLogin(ctx, req.Email, req.Code)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
	})
}

// RefreshToken runs behind the refresh-kind guard, so the user on the
// context was already resolved from a valid refresh token.
func (h *AuthHTTP) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()

	user := authmw.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials")
	}

	access, err := h.Svc.RefreshAccessToken(ctx, user)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, accessTokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
	})
}
