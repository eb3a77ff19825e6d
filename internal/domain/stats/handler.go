package stats

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/history", h.GetHistory)
	api.GET("/stats", h.GetStats)
}

// GetHistory lists completed requests filtered by ?q, ?from, ?to and ?type.
func (h *Handler) GetHistory(c echo.Context) error {
	q := HistoryQuery{
		Text: c.QueryParam("q"),
		From: c.QueryParam("from"),
		To:   c.QueryParam("to"),
	}
	for _, d := range []string{q.From, q.To} {
		if d == "" {
			continue
		}
		if _, err := imaging.ParseDate(d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if t := c.QueryParam("type"); t != "" {
		typ, err := imaging.ParseType(t)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		q.Type = typ
	}

	items, err := h.svc.History(c.Request().Context(), q)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.Respond(items, pagination.FromContext(c)))
}

// GetStats summarizes ?range=today|week|month|custom (custom needs ?from and
// ?to).
func (h *Handler) GetStats(c echo.Context) error {
	st, err := h.svc.Period(c.Request().Context(), Preset(c.QueryParam("range")), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		if errors.Is(err, ErrUnknownPreset) || errors.Is(err, ErrInvalidRange) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, st)
}
