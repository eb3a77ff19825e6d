package imagingrequest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/auth"
	"github.com/tomotos141/dental-x-ray-navigatar/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/requests", h.CreateRequest)
	api.GET("/requests", h.ListRequests)
	api.GET("/requests/:id", h.GetRequest)
	api.POST("/requests/:id/completion", h.BeginCompletion)
	api.POST("/requests/:id/complete", h.CompleteRequest)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotPending):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req)
}

// ListRequests returns requests newest first, optionally narrowed by
// ?status= and ?patient_id=.
func (h *Handler) ListRequests(c echo.Context) error {
	filter := ListFilter{
		Status:    Status(c.QueryParam("status")),
		PatientID: c.QueryParam("patient_id"),
	}
	if filter.Status != "" && filter.Status != StatusPending && filter.Status != StatusCompleted {
		return echo.NewHTTPError(http.StatusBadRequest, "status must be pending or completed")
	}
	items, err := h.svc.List(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(items, pagination.FromContext(c)))
}

func (h *Handler) GetRequest(c echo.Context) error {
	req, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, req)
}

type completionRequest struct {
	OperatorName  *string                       `json:"operator_name"`
	RadiationLogs map[imaging.Type]RadiationLog `json:"radiation_logs"`
}

// BeginCompletion returns the pre-filled log set. The operator defaults to
// the session's staff member; a body operator_name overrides it.
func (h *Handler) BeginCompletion(c echo.Context) error {
	var body completionRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ctx := c.Request().Context()
	d, err := h.svc.BeginCompletion(ctx, c.Param("id"), auth.IdentityFromContext(ctx).StaffName)
	if err != nil {
		return httpError(err)
	}
	if body.OperatorName != nil {
		d.SetOperatorName(*body.OperatorName)
	}
	return c.JSON(http.StatusOK, d)
}

// CompleteRequest finalizes the request with the edited log set. When
// operator_name is given it signs every entry.
func (h *Handler) CompleteRequest(c echo.Context) error {
	var body completionRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	logs := body.RadiationLogs
	if logs == nil {
		logs = map[imaging.Type]RadiationLog{}
	}
	if body.OperatorName != nil {
		signAll(logs, *body.OperatorName)
	}
	req, err := h.svc.Complete(c.Request().Context(), c.Param("id"), logs)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, req)
}
