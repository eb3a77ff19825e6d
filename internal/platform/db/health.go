package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// Component is one backing service reported by the health endpoint.
type Component struct {
	Name    string
	Check   func(ctx context.Context) error
	Details func() interface{}
}

// PoolComponent reports a PostgreSQL pool.
func PoolComponent(pool *pgxpool.Pool) Component {
	return Component{
		Name:    "postgres",
		Check:   pool.Ping,
		Details: func() interface{} { return GetPoolStats(pool) },
	}
}

type componentStatus struct {
	Status  string      `json:"status"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthHandler pings every component and answers 503 when any of them fails.
func HealthHandler(components ...Component) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		healthy := true
		out := make(map[string]componentStatus, len(components))
		for _, comp := range components {
			st := componentStatus{Status: "healthy"}
			if err := comp.Check(ctx); err != nil {
				healthy = false
				st.Status = "unhealthy"
				st.Error = err.Error()
			}
			if comp.Details != nil {
				st.Details = comp.Details()
			}
			out[comp.Name] = st
		}

		if !healthy {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status":     "unhealthy",
				"components": out,
			})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":     "healthy",
			"components": out,
		})
	}
}
