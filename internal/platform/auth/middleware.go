// Package auth carries the session identity: the clinic and the staff member
// operating the terminal. The identity only pre-fills the operator name at
// completion time; nothing in the API is authorized against it.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Headers accepted in place of a token when Config.AllowHeaders is set.
const (
	HeaderClinicID  = "X-Clinic-ID"
	HeaderStaffName = "X-Staff-Name"
)

// Identity is the (clinic, staff) pair supplied once per session.
type Identity struct {
	ClinicID  string `json:"clinic_id"`
	StaffName string `json:"staff_name"`
}

// Anonymous reports whether no session was presented.
func (i Identity) Anonymous() bool { return i.ClinicID == "" }

type Claims struct {
	jwt.RegisteredClaims
	ClinicID  string `json:"clinic_id"`
	StaffName string `json:"staff_name,omitempty"`
}

type Config struct {
	SigningKey []byte
	TTL        time.Duration
	Issuer     string
	// AllowHeaders accepts X-Clinic-ID / X-Staff-Name without a token.
	// Development only.
	AllowHeaders bool
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the session identity, or the zero (anonymous)
// Identity.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

// ParseToken validates a session token and returns its identity.
func ParseToken(cfg Config, tokenStr string) (Identity, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid || claims.ClinicID == "" {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	return Identity{ClinicID: claims.ClinicID, StaffName: claims.StaffName}, nil
}

// Middleware resolves the session identity. A request without credentials
// proceeds anonymously; a malformed or invalid bearer token is rejected.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if Skipper(c) {
				return next(c)
			}

			var id Identity
			req := c.Request()
			if authHeader := req.Header.Get("Authorization"); authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
				}
				parsed, err := ParseToken(cfg, strings.TrimSpace(parts[1]))
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				id = parsed
			} else if cfg.AllowHeaders {
				id = Identity{
					ClinicID:  strings.TrimSpace(req.Header.Get(HeaderClinicID)),
					StaffName: strings.TrimSpace(req.Header.Get(HeaderStaffName)),
				}
			}

			if !id.Anonymous() {
				c.Set("staff_name", id.StaffName)
				c.SetRequest(req.WithContext(WithIdentity(req.Context(), id)))
			}
			return next(c)
		}
	}
}
