package imaging

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	now func() time.Time
}

// NewHandler creates the reference-data handler. now supplies the clinic-local
// current time used when an age must be derived without an explicit date.
func NewHandler(now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{now: now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	ref := api.Group("/reference")
	ref.GET("/imaging-types", h.ListTypes)
	ref.GET("/exposure", h.GetExposure)
	ref.GET("/exposure/table", h.ListTemplates)
	ref.POST("/points", h.QuotePoints)
	ref.GET("/locations", h.ListLocations)
}

type typeInfo struct {
	Type       Type   `json:"type"`
	Label      string `json:"label"`
	BasePoints int    `json:"base_points"`
	ToothBased bool   `json:"tooth_based"`
}

func (h *Handler) ListTypes(c echo.Context) error {
	out := make([]typeInfo, 0, len(allTypes))
	for _, t := range allTypes {
		out = append(out, typeInfo{Type: t, Label: t.Label(), BasePoints: BasePoints(t), ToothBased: t.ToothBased()})
	}
	return c.JSON(http.StatusOK, out)
}

type exposureResponse struct {
	Type        Type        `json:"type"`
	Age         int         `json:"age"`
	AgeCategory AgeCategory `json:"age_category"`
	BodyType    BodyType    `json:"body_type"`
	ExposureSettings
}

// GetExposure resolves the template row used to pre-fill the confirmation
// step. The age comes from ?age or is derived from ?birthday at ?date
// (default: today).
func (h *Handler) GetExposure(c echo.Context) error {
	t, err := ParseType(c.QueryParam("type"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	body := BodyType(c.QueryParam("body_type"))
	if body == "" {
		body = BodyNormal
	}
	if !body.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body_type")
	}

	var age int
	switch {
	case c.QueryParam("age") != "":
		age, err = strconv.Atoi(c.QueryParam("age"))
		if err != nil || age < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid age")
		}
	case c.QueryParam("birthday") != "":
		date := c.QueryParam("date")
		if date == "" {
			date = FormatDate(h.now())
		}
		age, err = AgeOn(c.QueryParam("birthday"), date)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "age or birthday is required")
	}

	cat := Category(age)
	settings, err := Lookup(t, cat, body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, exposureResponse{
		Type: t, Age: age, AgeCategory: cat, BodyType: body, ExposureSettings: settings,
	})
}

func (h *Handler) ListTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, Templates())
}

type pointsRequest struct {
	Types         []Type `json:"types"`
	BitewingSides []Side `json:"bitewing_sides"`
}

func (h *Handler) QuotePoints(c echo.Context) error {
	var req pointsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, t := range req.Types {
		if !t.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown imaging type: "+string(t))
		}
	}
	for _, s := range req.BitewingSides {
		if !s.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid bitewing side: "+string(s))
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"points":                Points(req.Types, req.BitewingSides),
		"needs_tooth_selection": NeedsToothSelection(req.Types),
	})
}

func (h *Handler) ListLocations(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"from_default": LocationExamRoom,
		"to_default":   LocationWaitingRoom,
		"options":      LocationOptions(),
	})
}
