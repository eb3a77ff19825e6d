package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const defaultSessionTTL = 12 * time.Hour

// Issue signs a session token for id.
func Issue(cfg Config, id Identity, now time.Time) (string, time.Time, error) {
	if id.ClinicID == "" {
		return "", time.Time{}, fmt.Errorf("clinic_id is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   id.StaffName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		ClinicID:  id.ClinicID,
		StaffName: id.StaffName,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, exp, nil
}

type SessionHandler struct {
	cfg Config
	now func() time.Time
}

func NewSessionHandler(cfg Config) *SessionHandler {
	return &SessionHandler{cfg: cfg, now: time.Now}
}

func (h *SessionHandler) RegisterRoutes(api *echo.Group) {
	api.POST("/session", h.CreateSession)
	api.GET("/session/me", h.CurrentSession)
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Identity
}

// CreateSession exchanges {clinic_id, staff_name} for a bearer token.
func (h *SessionHandler) CreateSession(c echo.Context) error {
	var id Identity
	if err := c.Bind(&id); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id.ClinicID = strings.TrimSpace(id.ClinicID)
	id.StaffName = strings.TrimSpace(id.StaffName)
	if id.ClinicID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "clinic_id is required")
	}

	token, exp, err := Issue(h.cfg, id, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, sessionResponse{Token: token, ExpiresAt: exp, Identity: id})
}

// CurrentSession echoes the identity the middleware resolved.
func (h *SessionHandler) CurrentSession(c echo.Context) error {
	id := IdentityFromContext(c.Request().Context())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"anonymous":  id.Anonymous(),
		"clinic_id":  id.ClinicID,
		"staff_name": id.StaffName,
	})
}
