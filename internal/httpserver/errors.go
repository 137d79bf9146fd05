package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/service"
)

// httpError maps service and repo sentinels onto the API's status
// taxonomy. Anything unrecognized is an internal failure.
func httpError(err error) error {
	switch {
	case errors.Is(err, repo.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, repo.ErrTicketNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "ticket not found")
	case errors.Is(err, repo.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "email already registered")
	case errors.Is(err, repo.ErrBadSort),
		errors.Is(err, repo.ErrBadOrder),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrEmptyTitle),
		errors.Is(err, service.ErrBadStatus):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrWrongPassword):
		return echo.NewHTTPError(http.StatusForbidden, "wrong password")
	case errors.Is(err, service.ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "not enough permissions")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
