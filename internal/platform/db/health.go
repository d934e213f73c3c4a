package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type PoolStats struct {
	TotalConns    int32 `json:"total_conns"`
	IdleConns     int32 `json:"idle_conns"`
	AcquiredConns int32 `json:"acquired_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// Health is the body served by /health/db.
type Health struct {
	Status string `json:"status"`
	Schema string `json:"schema"`
	// MigrationVersion is the highest applied migration, nil before the first one.
	MigrationVersion *int       `json:"migration_version"`
	Pool             *PoolStats `json:"pool,omitempty"`
	Error            string     `json:"error,omitempty"`
}

func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:    stat.TotalConns(),
		IdleConns:     stat.IdleConns(),
		AcquiredConns: stat.AcquiredConns(),
		MaxConns:      stat.MaxConns(),
	}
}

// HealthHandler pings the store and reports the schema's migration level.
func HealthHandler(pool *pgxpool.Pool, schema string) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := Health{Status: "unhealthy", Schema: schema}
		if pool == nil {
			h.Error = "no database pool"
			return c.JSON(http.StatusServiceUnavailable, h)
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		h.Pool = GetPoolStats(pool)
		if err := pool.Ping(ctx); err != nil {
			h.Error = err.Error()
			return c.JSON(http.StatusServiceUnavailable, h)
		}

		var version *int
		err := pool.QueryRow(ctx, `SELECT MAX(version) FROM `+pgx.Identifier{schema, "schema_migrations"}.Sanitize()).Scan(&version)
		if err != nil {
			h.Error = "migrations not applied"
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		h.Status = "healthy"
		h.MigrationVersion = version
		return c.JSON(http.StatusOK, h)
	}
}
