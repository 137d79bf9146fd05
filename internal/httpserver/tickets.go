package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/ticket_service/internal/middleware/auth"
	"github.com/Skotchmaster/ticket_service/internal/repo"
	"github.com/Skotchmaster/ticket_service/internal/service"
)

type TicketHTTP struct {
	Svc *service.TicketService
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func ticketID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid ticket id")
	}
	return uint(id), nil
}

func (h *TicketHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	var req ticketCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ticket, err := h.Svc.Create(ctx, user.ID, req.Title, req.Description, req.Status)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, ticket)
}

func (h *TicketHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	skip := parseIntDefault(c.QueryParam("skip"), 0)
	limit := parseIntDefault(c.QueryParam("limit"), 100)
	sortBy := c.QueryParam("sort_by")
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := c.QueryParam("order")
	if order == "" {
		order = "desc"
	}

	tickets, total, err := h.Svc.List(ctx, user.ID, skip, limit, sortBy, order)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ticketListResponse{
		Tickets: tickets,
		Total:   total,
		Skip:    skip,
		Limit:   limit,
	})
}

func (h *TicketHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	id, err := ticketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.Svc.Get(ctx, user.ID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	id, err := ticketID(c)
	if err != nil {
		return err
	}

	var req ticketUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ticket, err := h.Svc.Update(ctx, user.ID, id, repo.TicketPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHTTP) Close(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	id, err := ticketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.Svc.Close(ctx, user.ID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	id, err := ticketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.Svc.Delete(ctx, user.ID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, ticket)
}

func (h *TicketHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	user := authmw.CurrentUser(c)

	if !h.Svc.SearchEnabled() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'q' is required")
	}
	skip := parseIntDefault(c.QueryParam("skip"), 0)
	limit := parseIntDefault(c.QueryParam("limit"), 100)

	total, tickets, err := h.Svc.FullTextSearch(ctx, user.ID, query, skip, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ticketListResponse{
		Tickets: tickets,
		Total:   total,
		Skip:    skip,
		Limit:   limit,
	})
}
