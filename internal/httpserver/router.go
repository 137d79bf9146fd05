package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/ticket_service/internal/middleware/auth"
)

type Deps struct {
	Auth    *AuthHTTP
	Users   *UserHTTP
	Tickets *TicketHTTP
	Guard   *authmw.Guard
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	users := e.Group("/users")
	users.POST("/register", d.Users.Register)
	users.GET("/users/me", d.Users.Me, d.Guard.RequireAccess)

	auth := e.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/confirm-login", d.Auth.ConfirmLogin)
	auth.POST("/refresh-token", d.Auth.RefreshToken, d.Guard.RequireRefresh)

	tickets := e.Group("/tickets", d.Guard.RequireAccess)
	tickets.POST("/", d.Tickets.Create)
	tickets.GET("/", d.Tickets.List)
	tickets.GET("/search", d.Tickets.Search)
	tickets.GET("/:id", d.Tickets.Get)
	tickets.PUT("/:id", d.Tickets.Update)
	tickets.PATCH("/tickets/:id/close", d.Tickets.Close)
	tickets.DELETE("/:id", d.Tickets.Delete)
}
